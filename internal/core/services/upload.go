package services

import (
	"context"
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

const defaultUploadWorkers = 10

// uploadDataset pushes every image and its annotation with at most workers
// requests in flight. The first failure cancels the rest.
func uploadDataset(ctx context.Context, platform output.PlatformClient, project string, images []domain.DatasetImage, workers int) (domain.UploadResult, error) {
	if workers <= 0 {
		workers = defaultUploadWorkers
	}

	var uploaded, duplicates, annotated atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, img := range images {
		img := img
		g.Go(func() error {
			res, err := platform.UploadImage(gctx, project, img)
			if err != nil {
				return fmt.Errorf("upload %s: %w", img.Path, err)
			}
			if res.Duplicate {
				duplicates.Add(1)
			} else {
				uploaded.Add(1)
			}

			if len(img.Annotation) == 0 {
				return nil
			}
			if err := platform.UploadAnnotation(gctx, project, res.ID, img); err != nil {
				return fmt.Errorf("annotate %s: %w", img.Path, err)
			}
			annotated.Add(1)

			log.WithFields(log.Fields{
				"image":    img.Path,
				"split":    img.Split,
				"image_id": res.ID,
			}).Debug("image uploaded")
			return nil
		})
	}
	err := g.Wait()

	result := domain.UploadResult{
		Uploaded:   int(uploaded.Load()),
		Duplicates: int(duplicates.Load()),
		Annotated:  int(annotated.Load()),
	}
	return result, err
}
