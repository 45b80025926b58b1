package dto

import "time"

// CreateSubscriptionRequest subscribes a student to a study class. A zero Date
// is stamped with the submission time.
type CreateSubscriptionRequest struct {
	StudentID    int64     `json:"studentId" validate:"required,gt=0"`
	StudyClassID int64     `json:"studyClassId" validate:"required,gt=0"`
	Date         time.Time `json:"date"`
}

// DeleteSubscriptionRequest removes a subscription. StudyClassID names the
// class it belonged to; zero means unknown.
type DeleteSubscriptionRequest struct {
	ID           int64 `json:"id" validate:"required,gt=0"`
	StudyClassID int64 `json:"studyClassId" validate:"gte=0"`
}
