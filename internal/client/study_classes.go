package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/models"
)

// ListStudyClasses fetches every study class.
func (c *Client) ListStudyClasses(ctx context.Context) ([]models.StudyClass, error) {
	var out []models.StudyClass
	if err := c.do(ctx, http.MethodGet, "/study-classes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStudyClassesByCourse fetches the study classes of one course.
func (c *Client) ListStudyClassesByCourse(ctx context.Context, courseID int64) ([]models.StudyClass, error) {
	var out []models.StudyClass
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/study-classes", courseID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStudyClass fetches one study class.
func (c *Client) GetStudyClass(ctx context.Context, id int64) (*models.StudyClass, error) {
	var out models.StudyClass
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/study-classes/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateStudyClass posts a new study class.
func (c *Client) CreateStudyClass(ctx context.Context, req dto.CreateStudyClassRequest) (*models.StudyClass, error) {
	var out models.StudyClass
	if err := c.do(ctx, http.MethodPost, "/study-classes", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrollProfessor assigns a professor and returns the updated study class.
func (c *Client) EnrollProfessor(ctx context.Context, req dto.EnrollProfessorRequest) (*models.StudyClass, error) {
	var out models.StudyClass
	path := fmt.Sprintf("/study-classes/%d/professor/%d", req.StudyClassID, req.ProfessorID)
	if err := c.do(ctx, http.MethodPut, path, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		out.ID = req.StudyClassID
	}
	return &out, nil
}

// DeleteStudyClass removes a study class.
func (c *Client) DeleteStudyClass(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/study-classes/%d", id), nil, nil)
}
