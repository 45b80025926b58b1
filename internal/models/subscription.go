package models

import "time"

// Subscription joins a student to a study class.
type Subscription struct {
	ID           int64     `json:"id"`
	StudentID    int64     `json:"studentId"`
	StudyClassID int64     `json:"studyClassId"`
	Date         time.Time `json:"date"`
}

// SubscribedStudent is a student resolved from a subscription, carrying the join metadata.
type SubscribedStudent struct {
	Student
	SubscriptionID   int64     `json:"subscriptionId"`
	SubscriptionDate time.Time `json:"subscriptionDate"`
}
