package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

type EvalMode string

const (
	EvalModeHosted EvalMode = "hosted"
	EvalModeLocal  EvalMode = "local"
)

type EvaluationService struct {
	platform output.PlatformClient
	detector output.Detector
}

// NewEvaluationService accepts a nil platform for local-only use, and a nil
// detector for hosted-only use.
func NewEvaluationService(platform output.PlatformClient, detector output.Detector) *EvaluationService {
	return &EvaluationService{
		platform: platform,
		detector: detector,
	}
}

type EvaluationRequest struct {
	Local      bool
	Checkpoint domain.Checkpoint
	Threshold  float64

	// Hosted mode
	Version        domain.VersionRef
	ModelType      string
	ServerImageURL string

	// Local mode
	TestImage string

	Progress Progress
}

func (r EvaluationRequest) Mode() EvalMode {
	if r.Local {
		return EvalModeLocal
	}
	return EvalModeHosted
}

type EvaluationResult struct {
	Mode       EvalMode
	Prediction *domain.Prediction
}

// Run evaluates the checkpoint on exactly one path, chosen by req.Local. The
// checkpoint is verified before anything else happens.
func (s *EvaluationService) Run(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	if err := req.Checkpoint.Verify(); err != nil {
		return nil, err
	}

	var (
		pred *domain.Prediction
		err  error
	)
	switch req.Mode() {
	case EvalModeLocal:
		pred, err = s.runLocal(ctx, req)
	default:
		pred, err = s.runHosted(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return &EvaluationResult{Mode: req.Mode(), Prediction: pred}, nil
}

func (s *EvaluationService) runHosted(ctx context.Context, req EvaluationRequest) (*domain.Prediction, error) {
	if s.platform == nil {
		return nil, fmt.Errorf("hosted inference: no platform client configured")
	}

	log.WithFields(log.Fields{
		"version":    req.Version.String(),
		"model_type": req.ModelType,
		"weights":    req.Checkpoint.Path(),
	}).Info("uploading weights")
	req.Progress.printf("Connecting to Roboflow...")
	req.Progress.printf("Loading RF-DETR weights from %s...", req.Checkpoint.Dir)
	if err := s.platform.DeployWeights(ctx, req.Version, req.ModelType, req.Checkpoint); err != nil {
		return nil, fmt.Errorf("deploy weights: %w", err)
	}
	req.Progress.printf("Weights loaded successfully!")
	req.Progress.printf("\nRunning inference on: %s", req.ServerImageURL)

	pred, err := s.platform.Predict(ctx, req.Version, output.PredictOptions{
		ImageURL:   req.ServerImageURL,
		Confidence: req.Threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("hosted predict: %w", err)
	}
	return pred, nil
}

func (s *EvaluationService) runLocal(ctx context.Context, req EvaluationRequest) (*domain.Prediction, error) {
	if s.detector == nil {
		return nil, fmt.Errorf("local inference: no detector configured")
	}

	log.WithFields(log.Fields{
		"weights": req.Checkpoint.Path(),
		"image":   req.TestImage,
	}).Info("running local inference")
	req.Progress.printf("Running local inference with RF-DETR...")
	detections, err := s.detector.Predict(ctx, domain.PredictRequest{
		Weights:   req.Checkpoint,
		ImagePath: req.TestImage,
		Threshold: req.Threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("local predict: %w", err)
	}
	return &domain.Prediction{Detections: detections, HasDetections: true}, nil
}
