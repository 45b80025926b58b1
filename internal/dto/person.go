package dto

// CreateProfessorRequest payload for registering a professor.
type CreateProfessorRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// UpdateProfessorRequest payload for editing a professor profile.
type UpdateProfessorRequest struct {
	ID    int64  `json:"-" validate:"required,gt=0"`
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// DeleteProfessorRequest identifies a professor to remove.
type DeleteProfessorRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// CreateStudentRequest payload for registering a student.
type CreateStudentRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// UpdateStudentRequest payload for editing a student profile.
type UpdateStudentRequest struct {
	ID    int64  `json:"-" validate:"required,gt=0"`
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// DeleteStudentRequest identifies a student to remove.
type DeleteStudentRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}
