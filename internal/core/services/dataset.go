package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

type DatasetService struct {
	platform  output.PlatformClient
	extractor output.ArchiveExtractor
	poll      PollConfig
}

func NewDatasetService(platform output.PlatformClient, extractor output.ArchiveExtractor, poll PollConfig) *DatasetService {
	return &DatasetService{
		platform:  platform,
		extractor: extractor,
		poll:      poll,
	}
}

type DownloadRequest struct {
	Version domain.VersionRef
	Format  string
	// Location defaults to "./<project>-<version>".
	Location string
}

type DownloadResult struct {
	Location string
	Format   string
}

func DefaultDatasetLocation(ref domain.VersionRef) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return filepath.Join(wd, fmt.Sprintf("%s-%d", ref.Project.Slug(), ref.Number)), nil
}

// Download exports a version in the requested format and extracts it to the
// local location.
func (s *DatasetService) Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	location := req.Location
	if location == "" {
		var err error
		if location, err = DefaultDatasetLocation(req.Version); err != nil {
			return nil, err
		}
	}

	export, err := waitForExport(ctx, s.platform, req.Version, req.Format, s.poll)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", req.Version, err)
	}

	tmp, err := os.CreateTemp("", "rfdetr-export-*.zip")
	if err != nil {
		return nil, fmt.Errorf("create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.platform.DownloadExport(ctx, export.Link, tmp); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("download export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp archive: %w", err)
	}

	if err := s.extractor.Extract(tmp.Name(), location); err != nil {
		return nil, fmt.Errorf("extract export: %w", err)
	}

	log.WithFields(log.Fields{
		"version":  req.Version.String(),
		"format":   req.Format,
		"location": location,
	}).Info("dataset downloaded")

	return &DownloadResult{Location: location, Format: req.Format}, nil
}
