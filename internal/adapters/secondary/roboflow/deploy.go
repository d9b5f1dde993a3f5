package roboflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"rfdetr-toolkit/internal/adapters/secondary/archive"
	"rfdetr-toolkit/internal/core/domain"
)

// classNamesFile is bundled with the weights when present next to them.
const classNamesFile = "class_names.txt"

type uploadModelResponse struct {
	URL string `json:"url"`
}

// DeployWeights asks the platform for a signed upload URL and PUTs a tar
// bundle of the checkpoint to it.
func (c *Client) DeployWeights(ctx context.Context, ref domain.VersionRef, modelType string, ckpt domain.Checkpoint) error {
	if err := ckpt.Verify(); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("modelType", modelType)
	params.Set("nocache", "true")

	var signed uploadModelResponse
	endpoint := c.endpoint(c.apiURL, params, ref.Project.Workspace, ref.Project.Slug(), strconv.Itoa(ref.Number), "uploadModel")
	if err := c.jsonRequest(ctx, http.MethodGet, endpoint, nil, &signed); err != nil {
		return fmt.Errorf("request upload url: %w", err)
	}
	if signed.URL == "" {
		return fmt.Errorf("%w: upload url missing", domain.ErrMalformedResponse)
	}

	bundle, err := archive.CreateDeployBundleFile()
	if err != nil {
		return err
	}
	defer os.Remove(bundle.Name())
	defer bundle.Close()

	files := []string{ckpt.Path()}
	if extra := filepath.Join(ckpt.Dir, classNamesFile); fileExists(extra) {
		files = append(files, extra)
	}
	if err := archive.WriteDeployBundle(bundle, files...); err != nil {
		return err
	}
	if _, err := bundle.Seek(0, 0); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"version":    ref.String(),
		"model_type": modelType,
		"files":      len(files),
	}).Info("uploading model weights")

	if err := c.do(ctx, http.MethodPut, signed.URL, bundle, "application/x-tar", nil); err != nil {
		return fmt.Errorf("upload weights: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
