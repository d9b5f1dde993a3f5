package roboflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"rfdetr-toolkit/internal/core/domain"
)

type generateResponse struct {
	// Version is either a number or a "ws/project/n" string.
	Version json.RawMessage `json:"version"`
}

func (c *Client) GenerateVersion(ctx context.Context, project domain.ProjectRef, settings domain.VersionSettings) (int, error) {
	var resp generateResponse
	url := c.endpoint(c.apiURL, nil, project.Workspace, project.Slug(), "generate")
	if err := c.jsonRequest(ctx, http.MethodPost, url, settings, &resp); err != nil {
		return 0, err
	}
	if len(resp.Version) == 0 {
		return 0, fmt.Errorf("%w: generate response has no version", domain.ErrMalformedResponse)
	}
	return domain.ParseVersionNumber(strings.Trim(string(resp.Version), `"`))
}

type versionResponse struct {
	Version *struct {
		ID         string  `json:"id"`
		Generating bool    `json:"generating"`
		Progress   float64 `json:"progress"`
		Images     int     `json:"images"`
	} `json:"version"`
}

func (c *Client) GetVersion(ctx context.Context, ref domain.VersionRef) (*domain.VersionStatus, error) {
	var resp versionResponse
	url := c.endpoint(c.apiURL, nil, ref.Project.Workspace, ref.Project.Slug(), strconv.Itoa(ref.Number))
	if err := c.jsonRequest(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Version == nil {
		return nil, fmt.Errorf("%w: version %s missing from response", domain.ErrMalformedResponse, ref)
	}

	return &domain.VersionStatus{
		Generating: resp.Version.Generating,
		Progress:   resp.Version.Progress,
		Images:     resp.Version.Images,
	}, nil
}
