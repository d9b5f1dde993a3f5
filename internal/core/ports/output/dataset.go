package ports

import "rfdetr-toolkit/internal/core/domain"

// DatasetReader enumerates the images of a local dataset directory in one
// annotation format.
type DatasetReader interface {
	Format() domain.DatasetFormat
	Read(root string) ([]domain.DatasetImage, error)
}

// ArchiveExtractor unpacks a downloaded dataset archive.
type ArchiveExtractor interface {
	Extract(src, dst string) error
}
