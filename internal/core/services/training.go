package services

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

type TrainingService struct {
	detector output.Detector
}

func NewTrainingService(detector output.Detector) *TrainingService {
	return &TrainingService{detector: detector}
}

func (s *TrainingService) Train(ctx context.Context, params domain.TrainParams) (*domain.TrainResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(params.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	log.WithFields(log.Fields{
		"dataset":    params.DatasetDir,
		"epochs":     params.Epochs,
		"batch_size": params.BatchSize,
		"grad_accum": params.GradAccumSteps,
		"lr":         params.LearningRate,
		"output":     params.OutputDir,
	}).Info("starting training")

	result, err := s.detector.Train(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	if result.OutputDir == "" {
		result.OutputDir = params.OutputDir
	}
	return result, nil
}
