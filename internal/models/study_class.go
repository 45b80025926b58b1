package models

// StudyClass is a concrete offering of a course in a given year and semester.
// ProfessorID is nil while no professor is enrolled ("Not Assigned").
type StudyClass struct {
	ID          int64  `json:"id"`
	ClassCode   string `json:"classCode"`
	Year        int    `json:"year"`
	Semester    int    `json:"semester"`
	CourseID    int64  `json:"courseId"`
	ProfessorID *int64 `json:"professorId"`
}

// Assigned reports whether a professor is enrolled.
func (s StudyClass) Assigned() bool {
	return s.ProfessorID != nil
}
