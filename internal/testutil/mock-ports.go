package testutil

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"rfdetr-toolkit/internal/core/domain"
	"rfdetr-toolkit/internal/core/ports/output"
)

// MockPlatformClient is a mock of PlatformClient.
type MockPlatformClient struct {
	mock.Mock
}

func (m *MockPlatformClient) CreateProject(ctx context.Context, spec domain.ProjectSpec) (*domain.ProjectRef, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProjectRef), args.Error(1)
}

func (m *MockPlatformClient) UploadImage(ctx context.Context, project string, img domain.DatasetImage) (*ports.UploadedImage, error) {
	args := m.Called(ctx, project, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.UploadedImage), args.Error(1)
}

func (m *MockPlatformClient) UploadAnnotation(ctx context.Context, project, imageID string, img domain.DatasetImage) error {
	args := m.Called(ctx, project, imageID, img)
	return args.Error(0)
}

func (m *MockPlatformClient) GenerateVersion(ctx context.Context, project domain.ProjectRef, settings domain.VersionSettings) (int, error) {
	args := m.Called(ctx, project, settings)
	return args.Int(0), args.Error(1)
}

func (m *MockPlatformClient) GetVersion(ctx context.Context, ref domain.VersionRef) (*domain.VersionStatus, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VersionStatus), args.Error(1)
}

func (m *MockPlatformClient) DeployWeights(ctx context.Context, ref domain.VersionRef, modelType string, ckpt domain.Checkpoint) error {
	args := m.Called(ctx, ref, modelType, ckpt)
	return args.Error(0)
}

func (m *MockPlatformClient) ExportVersion(ctx context.Context, ref domain.VersionRef, format string) (*ports.ExportStatus, error) {
	args := m.Called(ctx, ref, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ExportStatus), args.Error(1)
}

func (m *MockPlatformClient) DownloadExport(ctx context.Context, link string, w io.Writer) error {
	args := m.Called(ctx, link, w)
	return args.Error(0)
}

func (m *MockPlatformClient) Predict(ctx context.Context, ref domain.VersionRef, opts ports.PredictOptions) (*domain.Prediction, error) {
	args := m.Called(ctx, ref, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Prediction), args.Error(1)
}

// MockDetector is a mock of Detector.
type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Train(ctx context.Context, params domain.TrainParams) (*domain.TrainResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainResult), args.Error(1)
}

func (m *MockDetector) Predict(ctx context.Context, req domain.PredictRequest) ([]domain.Detection, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Detection), args.Error(1)
}

// MockDatasetReader is a mock of DatasetReader.
type MockDatasetReader struct {
	mock.Mock
	format domain.DatasetFormat
}

func NewMockDatasetReader(format domain.DatasetFormat) *MockDatasetReader {
	return &MockDatasetReader{format: format}
}

func (m *MockDatasetReader) Format() domain.DatasetFormat {
	return m.format
}

func (m *MockDatasetReader) Read(root string) ([]domain.DatasetImage, error) {
	args := m.Called(root)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DatasetImage), args.Error(1)
}

// MockExtractor is a mock of ArchiveExtractor.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(src, dst string) error {
	args := m.Called(src, dst)
	return args.Error(0)
}

// WriteCheckpoint creates an empty checkpoint file under dir.
func WriteCheckpoint(dir, name string) (domain.Checkpoint, error) {
	ckpt := domain.Checkpoint{Dir: dir, Name: name}
	return ckpt, writeFile(ckpt.Path(), []byte("weights"))
}
