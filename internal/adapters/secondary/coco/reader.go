package coco

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

// AnnotationFile is the per-split annotation file name of a COCO export.
const AnnotationFile = "_annotations.coco.json"

type image struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

type annotation struct {
	ImageID int64 `json:"image_id"`
	raw     json.RawMessage
}

func (a *annotation) UnmarshalJSON(b []byte) error {
	var head struct {
		ImageID int64 `json:"image_id"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	a.ImageID = head.ImageID
	a.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (a annotation) MarshalJSON() ([]byte, error) {
	return a.raw, nil
}

type document struct {
	Info        json.RawMessage `json:"info,omitempty"`
	Licenses    json.RawMessage `json:"licenses,omitempty"`
	Categories  json.RawMessage `json:"categories"`
	Images      []image         `json:"images"`
	Annotations []annotation    `json:"annotations"`
}

type reader struct{}

// NewReader returns a DatasetReader for COCO exports laid out as
// <root>/{train,valid,test}/_annotations.coco.json with images alongside.
func NewReader() output.DatasetReader {
	return reader{}
}

func (reader) Format() domain.DatasetFormat {
	return domain.DatasetFormatCOCO
}

func (r reader) Read(root string) ([]domain.DatasetImage, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dataset root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset root %s is not a directory", root)
	}

	var out []domain.DatasetImage
	found := false
	for _, split := range domain.Splits {
		dir := filepath.Join(root, string(split))
		images, err := readSplit(dir, split)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = true
		out = append(out, images...)
	}

	// Flat layout: a single annotation file at the root goes to train.
	if !found {
		images, err := readSplit(root, domain.SplitTrain)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		out = images
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDataset, root)
	}
	return out, nil
}

func readSplit(dir string, split domain.Split) ([]domain.DatasetImage, error) {
	data, err := os.ReadFile(filepath.Join(dir, AnnotationFile))
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Join(dir, AnnotationFile), err)
	}

	byImage := make(map[int64][]annotation, len(doc.Images))
	for _, a := range doc.Annotations {
		byImage[a.ImageID] = append(byImage[a.ImageID], a)
	}

	out := make([]domain.DatasetImage, 0, len(doc.Images))
	for _, img := range doc.Images {
		path := filepath.Join(dir, filepath.FromSlash(img.FileName))
		if _, err := os.Stat(path); err != nil {
			log.WithFields(log.Fields{
				"split": split,
				"image": img.FileName,
			}).Warn("image listed in annotations is missing, skipping")
			continue
		}

		anns := byImage[img.ID]
		if anns == nil {
			anns = []annotation{}
		}
		single := document{
			Info:        doc.Info,
			Licenses:    doc.Licenses,
			Categories:  doc.Categories,
			Images:      []image{img},
			Annotations: anns,
		}
		body, err := json.Marshal(single)
		if err != nil {
			return nil, fmt.Errorf("encode annotation for %s: %w", img.FileName, err)
		}

		out = append(out, domain.DatasetImage{
			Path:           path,
			Split:          split,
			AnnotationName: AnnotationFile,
			Annotation:     body,
		})
	}
	return out, nil
}
