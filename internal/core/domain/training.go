package domain

// TrainParams are passed through to the training library unchanged.
type TrainParams struct {
	DatasetDir     string
	Epochs         int
	BatchSize      int
	GradAccumSteps int
	LearningRate   float64
	OutputDir      string
	// PretrainWeights is optional; empty uses the library's base weights.
	PretrainWeights string
}

func (p TrainParams) Validate() error {
	if p.DatasetDir == "" {
		return ErrMissingDatasetDir
	}
	if p.OutputDir == "" {
		return ErrMissingOutputDir
	}
	return nil
}

// TrainResult points at what the training library wrote.
type TrainResult struct {
	OutputDir  string  `json:"output_dir"`
	Checkpoint string  `json:"checkpoint"`
	BestMAP    float64 `json:"best_map"`
}

// PredictRequest is a local inference request.
type PredictRequest struct {
	Weights   Checkpoint
	ImagePath string
	Threshold float64
}
