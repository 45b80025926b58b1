package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/models"
)

// ListCourses fetches every course.
func (c *Client) ListCourses(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	if err := c.do(ctx, http.MethodGet, "/courses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCourse fetches one course.
func (c *Client) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCourse posts a new course.
func (c *Client) CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodPost, "/courses", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCourse replaces a course's editable fields.
func (c *Client) UpdateCourse(ctx context.Context, req dto.UpdateCourseRequest) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/courses/%d", req.ID), req, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		out.ID = req.ID
	}
	return &out, nil
}

// DeleteCourse removes a course.
func (c *Client) DeleteCourse(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/courses/%d", id), nil, nil)
}
