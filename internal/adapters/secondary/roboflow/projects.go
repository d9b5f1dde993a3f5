package roboflow

import (
	"context"
	"fmt"
	"net/http"

	"rfdetr-toolkit/internal/core/domain"
)

type createProjectRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	License    string `json:"license"`
	Annotation string `json:"annotation"`
}

type projectResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (c *Client) CreateProject(ctx context.Context, spec domain.ProjectSpec) (*domain.ProjectRef, error) {
	var resp projectResponse
	err := c.jsonRequest(ctx, http.MethodPost, c.endpoint(c.apiURL, nil, spec.Workspace, "projects"), createProjectRequest{
		Name:       spec.Name,
		Type:       spec.Type,
		License:    spec.License,
		Annotation: spec.Annotation,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: project response has no id", domain.ErrMalformedResponse)
	}

	return &domain.ProjectRef{
		Workspace: spec.Workspace,
		ID:        resp.ID,
		Name:      resp.Name,
		Type:      resp.Type,
	}, nil
}
