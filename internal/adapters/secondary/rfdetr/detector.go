package rfdetr

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"rfdetr-toolkit/internal/config"
	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

// resultPrefix marks the single stdout line that carries the JSON result.
// The payload that follows is always a JSON object or array.
const resultPrefix = "json"

//go:embed worker.py
var workerScript []byte

// Detector runs the RF-DETR library in a Python worker process, one process
// per call.
type Detector struct {
	python string
	worker string

	once      sync.Once
	tempFile  string
	workerErr error
}

var _ output.Detector = (*Detector)(nil)

func NewDetector(cfg *config.DetectorConfig) *Detector {
	python := cfg.Python
	if python == "" {
		python = "python3"
	}
	return &Detector{
		python: python,
		worker: cfg.Worker,
	}
}

func (d *Detector) Train(ctx context.Context, params domain.TrainParams) (*domain.TrainResult, error) {
	args := []string{
		"--dataset-dir", params.DatasetDir,
		"--epochs", strconv.Itoa(params.Epochs),
		"--batch-size", strconv.Itoa(params.BatchSize),
		"--grad-accum-steps", strconv.Itoa(params.GradAccumSteps),
		"--lr", strconv.FormatFloat(params.LearningRate, 'g', -1, 64),
		"--output-dir", params.OutputDir,
	}
	if params.PretrainWeights != "" {
		args = append(args, "--pretrain-weights", params.PretrainWeights)
	}

	var result domain.TrainResult
	if err := d.run(ctx, "train", args, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (d *Detector) Predict(ctx context.Context, req domain.PredictRequest) ([]domain.Detection, error) {
	args := []string{
		"--weights", req.Weights.Path(),
		"--image", req.ImagePath,
		"--threshold", strconv.FormatFloat(req.Threshold, 'g', -1, 64),
	}

	var detections []domain.Detection
	if err := d.run(ctx, "predict", args, &detections); err != nil {
		return nil, err
	}
	return detections, nil
}

// Close removes the materialized worker script, if any.
func (d *Detector) Close() error {
	if d.tempFile == "" {
		return nil
	}
	return os.Remove(d.tempFile)
}

// workerPath returns the configured worker, or writes the embedded one to a
// temp file on first use.
func (d *Detector) workerPath() (string, error) {
	if d.worker != "" {
		return d.worker, nil
	}
	d.once.Do(func() {
		f, err := os.CreateTemp("", "rfdetr-worker-*.py")
		if err != nil {
			d.workerErr = fmt.Errorf("create worker script: %w", err)
			return
		}
		defer f.Close()
		if _, err := f.Write(workerScript); err != nil {
			d.workerErr = fmt.Errorf("write worker script: %w", err)
			return
		}
		d.tempFile = f.Name()
	})
	return d.tempFile, d.workerErr
}

// run starts the worker and decodes the last result line into out. Other
// stdout lines are logged as progress; stderr goes to the logger at warn.
func (d *Detector) run(ctx context.Context, command string, args []string, out any) error {
	worker, err := d.workerPath()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, d.python, append([]string{worker, command}, args...)...)
	stderr := log.StandardLogger().WriterLevel(log.WarnLevel)
	defer stderr.Close()
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	logger := log.WithFields(log.Fields{
		"command": command,
		"python":  d.python,
	})
	logger.Debug("starting detector worker")

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", domain.ErrDetectorFailed, d.python, err)
	}

	var result string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64<<10), 16<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if payload, ok := resultPayload(line); ok {
			result = payload
			continue
		}
		if line != "" {
			logger.Info(line)
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrDetectorFailed, command, err)
	}
	if scanErr != nil {
		return fmt.Errorf("%w: read output: %v", domain.ErrDetectorFailed, scanErr)
	}
	if result == "" {
		return fmt.Errorf("%w: %s", domain.ErrNoResult, command)
	}

	if err := json.Unmarshal([]byte(result), out); err != nil {
		return fmt.Errorf("%w: decode %s result: %v", domain.ErrDetectorFailed, command, err)
	}
	return nil
}

// resultPayload returns the JSON after the result prefix. Lines such as
// "jsonschema: ..." from libraries are not results.
func resultPayload(line string) (string, bool) {
	payload, ok := strings.CutPrefix(line, resultPrefix)
	if !ok || payload == "" {
		return "", false
	}
	if payload[0] != '{' && payload[0] != '[' {
		return "", false
	}
	return payload, true
}
