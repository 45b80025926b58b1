package models

// Course is a curriculum entry offered by the school.
type Course struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
