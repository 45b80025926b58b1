package dto

// CreateStudyClassRequest payload for opening a study class of a course.
type CreateStudyClassRequest struct {
	ClassCode   string `json:"classCode" validate:"required,max=32"`
	Year        int    `json:"year" validate:"required,gte=1900,lte=2200"`
	Semester    int    `json:"semester" validate:"required,oneof=1 2"`
	CourseID    int64  `json:"courseId" validate:"required,gt=0"`
	ProfessorID *int64 `json:"professorId,omitempty" validate:"omitempty,gt=0"`
}

// EnrollProfessorRequest assigns a professor to a study class.
type EnrollProfessorRequest struct {
	StudyClassID int64 `json:"-" validate:"required,gt=0"`
	ProfessorID  int64 `json:"professorId" validate:"required,gt=0"`
}

// DeleteStudyClassRequest identifies a study class to remove. CourseID, when
// known, narrows cache invalidation to that course's class list.
type DeleteStudyClassRequest struct {
	ID       int64 `json:"id" validate:"required,gt=0"`
	CourseID int64 `json:"courseId" validate:"gte=0"`
}
