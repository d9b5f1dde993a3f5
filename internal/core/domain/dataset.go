package domain

import "strings"

// DatasetFormat names an annotation layout understood by the platform.
type DatasetFormat string

const (
	DatasetFormatCOCO DatasetFormat = "coco"
)

func ParseDatasetFormat(s string) DatasetFormat {
	return DatasetFormat(strings.ToLower(strings.TrimSpace(s)))
}

// Split is the dataset partition an image belongs to.
type Split string

const (
	SplitTrain Split = "train"
	SplitValid Split = "valid"
	SplitTest  Split = "test"
)

// Splits lists the partitions in upload order.
var Splits = []Split{SplitTrain, SplitValid, SplitTest}

// DatasetImage is one local image together with its annotation document.
type DatasetImage struct {
	Path  string
	Split Split
	// AnnotationName is the file name the platform uses to detect the format.
	AnnotationName string
	Annotation     []byte
}

// UploadResult summarizes a dataset upload.
type UploadResult struct {
	Uploaded   int
	Duplicates int
	Annotated  int
}
