package roboflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

type uploadResponse struct {
	Success   bool   `json:"success"`
	Duplicate bool   `json:"duplicate"`
	ID        string `json:"id"`
}

// UploadImage posts one image as multipart form data.
func (c *Client) UploadImage(ctx context.Context, project string, img domain.DatasetImage) (*output.UploadedImage, error) {
	f, err := os.Open(img.Path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	name := filepath.Base(img.Path)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("split", string(img.Split))

	var resp uploadResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint(c.apiURL, params, "dataset", project, "upload"), &body, mw.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: upload response for %s has no id", domain.ErrMalformedResponse, name)
	}

	return &output.UploadedImage{ID: resp.ID, Duplicate: resp.Duplicate}, nil
}

type annotateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// UploadAnnotation posts the raw annotation document for an uploaded image.
func (c *Client) UploadAnnotation(ctx context.Context, project, imageID string, img domain.DatasetImage) error {
	params := url.Values{}
	params.Set("name", img.AnnotationName)

	var resp annotateResponse
	err := c.do(ctx, http.MethodPost, c.endpoint(c.apiURL, params, "dataset", project, "annotate", imageID),
		bytes.NewReader(img.Annotation), "text/plain", &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "annotation rejected"
		}
		return fmt.Errorf("%w: %s: %s", domain.ErrRemote, filepath.Base(img.Path), msg)
	}
	return nil
}
