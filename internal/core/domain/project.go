package domain

import (
	"strings"
)

// PlaceholderAPIKey is the default value of the API key flag. It is never a
// real credential.
const PlaceholderAPIKey = "insert_api_key"

// DefaultProjectLicense is sent with every project creation request.
const DefaultProjectLicense = "MIT"

// ValidateAPIKey reports ErrMissingAPIKey for an empty or placeholder key.
func ValidateAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || key == PlaceholderAPIKey {
		return ErrMissingAPIKey
	}
	return nil
}

// ProjectSpec describes a project to create on the platform.
type ProjectSpec struct {
	Workspace  string
	Name       string
	Type       string
	License    string
	Annotation string
}

// Validate checks the identifiers every creation request needs.
func (s ProjectSpec) Validate() error {
	if strings.TrimSpace(s.Workspace) == "" {
		return ErrMissingWorkspace
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrMissingProject
	}
	return nil
}

// ProjectRef identifies a project on the platform.
type ProjectRef struct {
	Workspace string `json:"workspace"`
	// ID is the identifier assigned by the platform, typically "workspace/slug".
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Slug returns the last path segment of the project ID, which is the form
// every other platform call expects.
func (p ProjectRef) Slug() string {
	id := strings.TrimRight(p.ID, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
