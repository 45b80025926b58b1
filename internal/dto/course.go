package dto

// CreateCourseRequest payload for creating a course.
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdateCourseRequest payload for updating a course. ID comes from the route.
type UpdateCourseRequest struct {
	ID          int64  `json:"-" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
}

// DeleteCourseRequest identifies a course to remove.
type DeleteCourseRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}
