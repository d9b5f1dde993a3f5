package roboflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

type exportResponse struct {
	Export *struct {
		Link string `json:"link"`
	} `json:"export"`
	Progress float64 `json:"progress"`
	Ready    *bool   `json:"ready"`
}

// ExportVersion requests an export. A response without a link means the
// platform is still building the archive.
func (c *Client) ExportVersion(ctx context.Context, ref domain.VersionRef, format string) (*output.ExportStatus, error) {
	var resp exportResponse
	url := c.endpoint(c.apiURL, nil, ref.Project.Workspace, ref.Project.Slug(), strconv.Itoa(ref.Number), format)
	if err := c.jsonRequest(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}

	status := &output.ExportStatus{Progress: resp.Progress}
	if resp.Export != nil && (resp.Ready == nil || *resp.Ready) {
		status.Link = resp.Export.Link
	}
	return status, nil
}

// DownloadExport fetches the archive behind a signed link. The credential is
// not attached.
func (c *Client) DownloadExport(ctx context.Context, link string, w io.Writer) error {
	resp, err := c.send(ctx, http.MethodGet, link, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read export: %w", err)
	}
	return nil
}
