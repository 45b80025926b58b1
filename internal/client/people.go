package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/models"
)

// ListProfessors fetches every professor.
func (c *Client) ListProfessors(ctx context.Context) ([]models.Professor, error) {
	var out []models.Professor
	if err := c.do(ctx, http.MethodGet, "/professors", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProfessor fetches one professor.
func (c *Client) GetProfessor(ctx context.Context, id int64) (*models.Professor, error) {
	var out models.Professor
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/professors/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProfessor posts a new professor.
func (c *Client) CreateProfessor(ctx context.Context, req dto.CreateProfessorRequest) (*models.Professor, error) {
	var out models.Professor
	if err := c.do(ctx, http.MethodPost, "/professors", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfessor replaces a professor's profile.
func (c *Client) UpdateProfessor(ctx context.Context, req dto.UpdateProfessorRequest) (*models.Professor, error) {
	var out models.Professor
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/professors/%d", req.ID), req, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		out.ID = req.ID
	}
	return &out, nil
}

// DeleteProfessor removes a professor.
func (c *Client) DeleteProfessor(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/professors/%d", id), nil, nil)
}

// ListStudents fetches every student.
func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	if err := c.do(ctx, http.MethodGet, "/students", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStudent fetches one student.
func (c *Client) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	var out models.Student
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/students/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateStudent posts a new student.
func (c *Client) CreateStudent(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	var out models.Student
	if err := c.do(ctx, http.MethodPost, "/students", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStudent replaces a student's profile.
func (c *Client) UpdateStudent(ctx context.Context, req dto.UpdateStudentRequest) (*models.Student, error) {
	var out models.Student
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/students/%d", req.ID), req, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		out.ID = req.ID
	}
	return &out, nil
}

// DeleteStudent removes a student.
func (c *Client) DeleteStudent(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/students/%d", id), nil, nil)
}
