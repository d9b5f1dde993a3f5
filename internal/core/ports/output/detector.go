package ports

import (
	"context"

	"rfdetr-toolkit/internal/core/domain"
)

// Detector is the object-detection training and inference library
type Detector interface {
	Train(ctx context.Context, params domain.TrainParams) (*domain.TrainResult, error)
	Predict(ctx context.Context, req domain.PredictRequest) ([]domain.Detection, error)
}
