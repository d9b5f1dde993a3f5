package domain

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Checkpoint is a trained weights file located by directory and file name.
type Checkpoint struct {
	Dir  string
	Name string
}

func (c Checkpoint) Path() string {
	return filepath.Join(c.Dir, c.Name)
}

// Verify fails with ErrCheckpointNotFound unless Path names a regular file.
// The returned error also matches fs.ErrNotExist.
func (c Checkpoint) Verify() error {
	info, err := os.Stat(c.Path())
	if err != nil || info.IsDir() {
		return &CheckpointError{Path: c.Path()}
	}
	return nil
}

// CheckpointError reports a missing checkpoint file.
type CheckpointError struct {
	Path string
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("weights not found at %s: train your model first with the train command", e.Path)
}

func (e *CheckpointError) Is(target error) bool {
	return target == ErrCheckpointNotFound || target == fs.ErrNotExist
}
