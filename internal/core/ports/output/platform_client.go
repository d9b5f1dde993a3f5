package ports

import (
	"context"
	"io"

	"rfdetr-toolkit/internal/core/domain"
)

// UploadedImage is the platform's answer to an image upload.
type UploadedImage struct {
	ID        string
	Duplicate bool
}

// ExportStatus is the state of a dataset export. Link is empty while the
// platform is still preparing the archive.
type ExportStatus struct {
	Link     string
	Progress float64
}

func (s *ExportStatus) Ready() bool {
	return s != nil && s.Link != ""
}

// PredictOptions configures a hosted inference request.
type PredictOptions struct {
	// ImageURL is fetched by the platform, not by this process.
	ImageURL   string
	Confidence float64
	Overlap    float64
}

// PlatformClient defines the hosted dataset/model platform operations
type PlatformClient interface {
	// CreateProject always creates a new project; it never reuses an existing one
	CreateProject(ctx context.Context, spec domain.ProjectSpec) (*domain.ProjectRef, error)

	// UploadImage adds one image to a project split
	UploadImage(ctx context.Context, project string, img domain.DatasetImage) (*UploadedImage, error)

	// UploadAnnotation attaches the image's annotation document to an uploaded image
	UploadAnnotation(ctx context.Context, project, imageID string, img domain.DatasetImage) error

	// GenerateVersion snapshots the project and returns the new version number
	GenerateVersion(ctx context.Context, project domain.ProjectRef, settings domain.VersionSettings) (int, error)

	// GetVersion reads the generation status of a version
	GetVersion(ctx context.Context, ref domain.VersionRef) (*domain.VersionStatus, error)

	// DeployWeights uploads trained weights to a version
	DeployWeights(ctx context.Context, ref domain.VersionRef, modelType string, ckpt domain.Checkpoint) error

	// ExportVersion requests a dataset archive in the given format
	ExportVersion(ctx context.Context, ref domain.VersionRef, format string) (*ExportStatus, error)

	// DownloadExport streams an export archive to w
	DownloadExport(ctx context.Context, link string, w io.Writer) error

	// Predict runs hosted inference on a deployed version
	Predict(ctx context.Context, ref domain.VersionRef, opts PredictOptions) (*domain.Prediction, error)
}
