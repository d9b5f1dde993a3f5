package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"rfdetr-toolkit/internal/core/domain"
)

// ZipExtractor unpacks dataset exports.
type ZipExtractor struct{}

func NewZipExtractor() *ZipExtractor {
	return &ZipExtractor{}
}

// Extract unpacks src into dst, creating dst if needed. Entries that would
// land outside dst fail with ErrUnsafeArchivePath before anything is written
// for them.
func (ZipExtractor) Extract(src, dst string) error {
	// A reader returned alongside an error only flags insecure entry names,
	// which safeJoin rejects below.
	r, err := zip.OpenReader(src)
	if r == nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	root, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", root, err)
	}

	for _, f := range r.File {
		target, err := safeJoin(root, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsafeArchivePath, name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
