package domain

import (
	"fmt"
	"time"
)

// Detection is a single bounding box. X and Y are the box center in pixels.
type Detection struct {
	Class       string  `json:"class"`
	ClassID     int     `json:"class_id"`
	Confidence  float64 `json:"confidence"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	DetectionID string  `json:"detection_id,omitempty"`
}

func (d Detection) String() string {
	return fmt.Sprintf("%s (id=%d) conf=%.3f box=[x=%.1f y=%.1f w=%.1f h=%.1f]",
		d.Class, d.ClassID, d.Confidence, d.X, d.Y, d.Width, d.Height)
}

// Prediction is the outcome of one inference request.
type Prediction struct {
	Detections  []Detection
	ImageWidth  int
	ImageHeight int
	Elapsed     time.Duration
	// HasDetections is false when the response carried no predictions field.
	HasDetections bool
	// Raw holds the undecoded response body.
	Raw []byte
}
