package batch

import (
	"context"

	"github.com/noah-isme/sma-adp-console/internal/models"
)

// ResolveStudents turns subscriptions into students carrying the subscription
// id and date, ordered by first appearance of each student.
func ResolveStudents(
	ctx context.Context,
	cfg Config,
	subscriptions []models.Subscription,
	fetch func(ctx context.Context, id int64) (models.Student, error),
) ([]models.SubscribedStudent, error) {
	return Resolve(ctx, cfg, subscriptions,
		func(s models.Subscription) int64 { return s.StudentID },
		fetch,
		func(student models.Student, sub models.Subscription) models.SubscribedStudent {
			return models.SubscribedStudent{
				Student:          student,
				SubscriptionID:   sub.ID,
				SubscriptionDate: sub.Date,
			}
		},
	)
}
