package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// VersionRef identifies one generated version of a project.
type VersionRef struct {
	Project ProjectRef
	Number  int
}

func NewVersionRef(workspace, project string, number int) (VersionRef, error) {
	if strings.TrimSpace(workspace) == "" {
		return VersionRef{}, ErrMissingWorkspace
	}
	if strings.TrimSpace(project) == "" {
		return VersionRef{}, ErrMissingProject
	}
	if number <= 0 {
		return VersionRef{}, ErrInvalidVersionNumber
	}
	return VersionRef{
		Project: ProjectRef{Workspace: workspace, ID: project},
		Number:  number,
	}, nil
}

// ModelID is the hosted model identifier, "<slug>/<version>".
func (v VersionRef) ModelID() string {
	return fmt.Sprintf("%s/%d", v.Project.Slug(), v.Number)
}

func (v VersionRef) String() string {
	return fmt.Sprintf("%s/%s/%d", v.Project.Workspace, v.Project.Slug(), v.Number)
}

// ParseVersionNumber accepts the forms the platform uses for a version
// identifier: a bare number ("3", 3) or a path ("ws/project/3").
func ParseVersionNumber(raw string) (int, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: version %q", ErrMalformedResponse, raw)
	}
	return n, nil
}

// ResizeSettings is the resize preprocessing step.
type ResizeSettings struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

type Preprocessing struct {
	AutoOrient bool            `json:"auto-orient"`
	Resize     *ResizeSettings `json:"resize,omitempty"`
}

// VersionSettings is the preprocessing and augmentation applied when a
// version snapshot is generated.
type VersionSettings struct {
	Preprocessing Preprocessing  `json:"preprocessing"`
	Augmentation  map[string]any `json:"augmentation"`
}

// DefaultVersionSettings matches a model trained at 640x640 with no
// augmentation, since training already happened locally.
func DefaultVersionSettings() VersionSettings {
	return VersionSettings{
		Preprocessing: Preprocessing{
			AutoOrient: true,
			Resize:     &ResizeSettings{Width: 640, Height: 640, Format: "Stretch to"},
		},
		Augmentation: map[string]any{},
	}
}

// VersionStatus is the generation state reported by the platform.
type VersionStatus struct {
	Generating bool
	Progress   float64
	Images     int
}

func (s VersionStatus) Ready() bool {
	return !s.Generating
}
