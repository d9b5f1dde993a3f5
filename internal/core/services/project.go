package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

type ProjectService struct {
	platform output.PlatformClient
	readers  map[domain.DatasetFormat]output.DatasetReader
	poll     PollConfig
	workers  int
}

func NewProjectService(
	platform output.PlatformClient,
	poll PollConfig,
	workers int,
	readers ...output.DatasetReader,
) *ProjectService {
	byFormat := make(map[domain.DatasetFormat]output.DatasetReader, len(readers))
	for _, r := range readers {
		byFormat[r.Format()] = r
	}
	return &ProjectService{
		platform: platform,
		readers:  byFormat,
		poll:     poll,
		workers:  workers,
	}
}

type CreateProjectRequest struct {
	Project       domain.ProjectSpec
	DatasetRoot   string
	DatasetFormat domain.DatasetFormat
	ModelType     string
	Checkpoint    domain.Checkpoint
	// Settings defaults to domain.DefaultVersionSettings when nil.
	Settings *domain.VersionSettings
	Progress Progress
}

type CreateProjectResult struct {
	Project domain.ProjectRef
	Version domain.VersionRef
	Upload  domain.UploadResult
}

// ModelID is the hosted model identifier printed after a deploy.
func (r *CreateProjectResult) ModelID() string {
	return fmt.Sprintf("%s/%d", r.Project.ID, r.Version.Number)
}

// CreateAndDeploy creates a new project, uploads the dataset, generates a
// version and uploads the checkpoint to it. Each call creates a new project.
// Nothing is rolled back when a later step fails.
func (s *ProjectService) CreateAndDeploy(ctx context.Context, req CreateProjectRequest) (*CreateProjectResult, error) {
	// 1. Local preconditions, before any remote call
	if err := req.Checkpoint.Verify(); err != nil {
		return nil, err
	}
	if err := req.Project.Validate(); err != nil {
		return nil, err
	}
	if req.Project.License == "" {
		req.Project.License = domain.DefaultProjectLicense
	}

	reader, ok := s.readers[req.DatasetFormat]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedDatasetFormat, req.DatasetFormat)
	}
	images, err := reader.Read(req.DatasetRoot)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	// 2. Create project
	project, err := s.platform.CreateProject(ctx, req.Project)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if project.ID == "" {
		return nil, fmt.Errorf("create project: %w: no project id", domain.ErrMalformedResponse)
	}
	project.Workspace = req.Project.Workspace
	slug := project.Slug()
	log.WithFields(log.Fields{"project": project.ID}).Info("project created")

	// 3. Upload dataset
	upload, err := uploadDataset(ctx, s.platform, slug, images, s.workers)
	if err != nil {
		return nil, fmt.Errorf("upload dataset to %s: %w", slug, err)
	}
	log.WithFields(log.Fields{
		"project":    slug,
		"uploaded":   upload.Uploaded,
		"duplicates": upload.Duplicates,
		"annotated":  upload.Annotated,
	}).Info("dataset uploaded")

	// 4. Generate version
	settings := domain.DefaultVersionSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	number, err := s.platform.GenerateVersion(ctx, domain.ProjectRef{Workspace: project.Workspace, ID: slug}, settings)
	if err != nil {
		return nil, fmt.Errorf("generate version: %w", err)
	}
	version := domain.VersionRef{Project: *project, Number: number}

	// 5. Wait until generated
	log.WithFields(log.Fields{"version": version.String()}).Info("waiting for version generation to complete")
	req.Progress.printf("  Waiting for version generation to complete...")
	if _, err := WaitForVersion(ctx, s.platform, version, s.poll); err != nil {
		return nil, fmt.Errorf("wait for version %s: %w", version, err)
	}

	// 6. Upload weights
	req.Progress.printf("\nStep 4: Uploading model weights...")
	if err := s.platform.DeployWeights(ctx, version, req.ModelType, req.Checkpoint); err != nil {
		return nil, fmt.Errorf("deploy weights: %w", err)
	}
	req.Progress.printf("Weights uploaded!")

	return &CreateProjectResult{
		Project: *project,
		Version: version,
		Upload:  upload,
	}, nil
}
