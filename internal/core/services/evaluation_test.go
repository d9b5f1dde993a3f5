package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rfdetr-toolkit/internal/core/domain"
	"rfdetr-toolkit/internal/core/ports/output"
	"rfdetr-toolkit/internal/testutil"
)

func newEvalRequest(t *testing.T, local bool) EvaluationRequest {
	t.Helper()
	ckpt, err := testutil.WriteCheckpoint(t.TempDir(), "checkpoint.pth")
	require.NoError(t, err)
	ref, err := domain.NewVersionRef("ws", "football-players-detection-zolkr", 1)
	require.NoError(t, err)
	return EvaluationRequest{
		Local:          local,
		Checkpoint:     ckpt,
		Threshold:      0.5,
		Version:        ref,
		ModelType:      "rfdetr-base",
		ServerImageURL: "https://example.com/frame.jpg",
		TestImage:      "./test/frame.jpg",
	}
}

func TestEvaluationService_HostedPath(t *testing.T) {
	platform := new(testutil.MockPlatformClient)
	detector := new(testutil.MockDetector)
	svc := NewEvaluationService(platform, detector)
	req := newEvalRequest(t, false)

	pred := &domain.Prediction{Detections: []domain.Detection{{Class: "player"}}, HasDetections: true}
	platform.On("DeployWeights", mock.Anything, req.Version, "rfdetr-base", req.Checkpoint).Return(nil)
	platform.On("Predict", mock.Anything, req.Version, ports.PredictOptions{
		ImageURL:   "https://example.com/frame.jpg",
		Confidence: 0.5,
	}).Return(pred, nil)

	result, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, EvalModeHosted, result.Mode)
	assert.Len(t, result.Prediction.Detections, 1)
	platform.AssertExpectations(t)
	detector.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestEvaluationService_LocalPath(t *testing.T) {
	platform := new(testutil.MockPlatformClient)
	detector := new(testutil.MockDetector)
	svc := NewEvaluationService(platform, detector)
	req := newEvalRequest(t, true)

	detector.On("Predict", mock.Anything, domain.PredictRequest{
		Weights:   req.Checkpoint,
		ImagePath: "./test/frame.jpg",
		Threshold: 0.5,
	}).Return([]domain.Detection{{Class: "ball"}, {Class: "player"}}, nil)

	result, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, EvalModeLocal, result.Mode)
	assert.True(t, result.Prediction.HasDetections)
	assert.Len(t, result.Prediction.Detections, 2)
	platform.AssertNotCalled(t, "DeployWeights", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	platform.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluationService_LocalWithoutPlatform(t *testing.T) {
	detector := new(testutil.MockDetector)
	svc := NewEvaluationService(nil, detector)
	req := newEvalRequest(t, true)
	detector.On("Predict", mock.Anything, mock.Anything).Return([]domain.Detection{}, nil)

	_, err := svc.Run(context.Background(), req)
	assert.NoError(t, err)
}

func TestEvaluationService_MissingCheckpoint(t *testing.T) {
	for _, local := range []bool{false, true} {
		platform := new(testutil.MockPlatformClient)
		detector := new(testutil.MockDetector)
		svc := NewEvaluationService(platform, detector)
		req := newEvalRequest(t, local)
		req.Checkpoint = domain.Checkpoint{Dir: t.TempDir(), Name: "nope.pth"}

		_, err := svc.Run(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
		assert.Empty(t, platform.Calls)
		assert.Empty(t, detector.Calls)
	}
}

func TestEvaluationService_ReportsProgress(t *testing.T) {
	platform := new(testutil.MockPlatformClient)
	detector := new(testutil.MockDetector)
	svc := NewEvaluationService(platform, detector)

	hosted := newEvalRequest(t, false)
	var hostedLines []string
	hosted.Progress = func(line string) { hostedLines = append(hostedLines, line) }
	platform.On("DeployWeights", mock.Anything, hosted.Version, "rfdetr-base", hosted.Checkpoint).Return(nil)
	platform.On("Predict", mock.Anything, hosted.Version, mock.Anything).Return(&domain.Prediction{}, nil)

	_, err := svc.Run(context.Background(), hosted)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Connecting to Roboflow...",
		"Loading RF-DETR weights from " + hosted.Checkpoint.Dir + "...",
		"Weights loaded successfully!",
		"\nRunning inference on: https://example.com/frame.jpg",
	}, hostedLines)

	local := newEvalRequest(t, true)
	var localLines []string
	local.Progress = func(line string) { localLines = append(localLines, line) }
	detector.On("Predict", mock.Anything, mock.Anything).Return([]domain.Detection{}, nil)

	_, err = svc.Run(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, []string{"Running local inference with RF-DETR..."}, localLines)
}
