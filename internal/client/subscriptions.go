package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/models"
)

// ListSubscriptionsByClass fetches the subscriptions of one study class.
func (c *Client) ListSubscriptionsByClass(ctx context.Context, studyClassID int64) ([]models.Subscription, error) {
	var out []models.Subscription
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/study-classes/%d/subscriptions", studyClassID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSubscription subscribes a student to a study class.
func (c *Client) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*models.Subscription, error) {
	var out models.Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", req, &out); err != nil {
		return nil, err
	}
	if out.StudyClassID == 0 {
		out.StudyClassID = req.StudyClassID
	}
	if out.StudentID == 0 {
		out.StudentID = req.StudentID
	}
	return &out, nil
}

// DeleteSubscription removes a subscription.
func (c *Client) DeleteSubscription(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/subscriptions/%d", id), nil, nil)
}
