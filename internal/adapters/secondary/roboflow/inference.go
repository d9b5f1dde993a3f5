package roboflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

type predictResponse struct {
	Predictions *[]domain.Detection `json:"predictions"`
	Image       struct {
		Width  json.Number `json:"width"`
		Height json.Number `json:"height"`
	} `json:"image"`
	Time float64 `json:"time"`
}

// Predict runs hosted inference for a deployed version on an image URL.
// Confidence and overlap are fractions and sent as percentages.
func (c *Client) Predict(ctx context.Context, ref domain.VersionRef, opts output.PredictOptions) (*domain.Prediction, error) {
	params := url.Values{}
	params.Set("image", opts.ImageURL)
	params.Set("format", "json")
	if opts.Confidence > 0 {
		params.Set("confidence", percent(opts.Confidence))
	}
	if opts.Overlap > 0 {
		params.Set("overlap", percent(opts.Overlap))
	}

	endpoint := c.endpoint(c.inferenceURL, params, ref.Project.Slug(), strconv.Itoa(ref.Number))
	resp, err := c.send(ctx, http.MethodPost, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read prediction: %w", err)
	}

	var body predictResponse
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode prediction: %v", domain.ErrMalformedResponse, err)
	}

	pred := &domain.Prediction{
		Raw:     raw,
		Elapsed: time.Duration(body.Time * float64(time.Second)),
	}
	if body.Predictions != nil {
		pred.HasDetections = true
		pred.Detections = *body.Predictions
	}
	if w, err := body.Image.Width.Int64(); err == nil {
		pred.ImageWidth = int(w)
	}
	if h, err := body.Image.Height.Int64(); err == nil {
		pred.ImageHeight = int(h)
	}
	return pred, nil
}

func percent(f float64) string {
	return strconv.Itoa(int(math.Round(f * 100)))
}
