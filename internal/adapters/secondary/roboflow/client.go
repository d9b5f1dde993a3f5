package roboflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"rfdetr-toolkit/internal/config"
	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

const headerRequestID = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is kept for the message.
const maxErrorBody = 4 << 10

// APIError is a non-2xx platform response.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform returned %d: %s (request_id=%s)", e.StatusCode, e.Message, e.RequestID)
}

func (e *APIError) Unwrap() error {
	return domain.ErrRemote
}

type Client struct {
	apiURL       string
	inferenceURL string
	apiKey       string
	client       *http.Client
}

var _ output.PlatformClient = (*Client)(nil)

// NewClient creates a platform client. The API key is sent as the api_key
// query parameter on every platform request.
func NewClient(cfg *config.PlatformConfig, apiKey string) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		apiURL:       strings.TrimRight(cfg.APIURL, "/"),
		inferenceURL: strings.TrimRight(cfg.InferenceURL, "/"),
		apiKey:       apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// endpoint builds base + path segments with the credential attached. Each
// segment is escaped.
func (c *Client) endpoint(base string, params url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	return fmt.Sprintf("%s/%s?%s", base, strings.Join(escaped, "/"), params.Encode())
}

func (c *Client) jsonRequest(ctx context.Context, method, rawURL string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, rawURL, body, contentType, out)
}

// do sends one request and decodes a JSON response into out when out is not
// nil.
func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string, out any) error {
	resp, err := c.send(ctx, method, rawURL, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrMalformedResponse, redact(rawURL), err)
	}
	return nil
}

// send returns the response for a 2xx status and an *APIError otherwise.
// The caller closes the body.
func (c *Client) send(ctx context.Context, method, rawURL string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	// Signed upload URLs reject chunked bodies.
	if f, ok := body.(*os.File); ok {
		if info, err := f.Stat(); err == nil {
			req.ContentLength = info.Size()
		}
	}
	requestID := uuid.New().String()
	req.Header.Set(headerRequestID, requestID)

	log.WithFields(log.Fields{
		"method":     method,
		"url":        redact(rawURL),
		"request_id": requestID,
	}).Debug("platform request")

	resp, err := c.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redact(urlErr.URL)
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(b),
			RequestID:  requestID,
		}
	}
	return resp, nil
}

// errorMessage extracts the message from the error shapes the platform uses:
// {"error": "..."}, {"error": {"message": "..."}} and {"message": "..."}.
func errorMessage(body []byte) string {
	var shape struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &shape); err == nil {
		if len(shape.Error) > 0 {
			var s string
			if json.Unmarshal(shape.Error, &s) == nil && s != "" {
				return s
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(shape.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
		if shape.Message != "" {
			return shape.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return http.StatusText(http.StatusInternalServerError)
	}
	return msg
}

// redact strips the credential from a URL before it is logged or wrapped
// into an error.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
