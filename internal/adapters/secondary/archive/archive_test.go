package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfdetr-toolkit/internal/core/domain"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestZipExtractor_Extract(t *testing.T) {
	src := writeZip(t, map[string]string{
		"train/_annotations.coco.json": `{"images":[]}`,
		"train/a.jpg":                  "jpeg",
		"README.roboflow.txt":          "hello",
	})
	dst := filepath.Join(t.TempDir(), "football-players-detection-18")

	require.NoError(t, NewZipExtractor().Extract(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "train", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.FileExists(t, filepath.Join(dst, "README.roboflow.txt"))
}

func TestZipExtractor_RejectsTraversal(t *testing.T) {
	src := writeZip(t, map[string]string{"../evil.txt": "x"})
	dst := t.TempDir()

	err := NewZipExtractor().Extract(src, dst)
	assert.ErrorIs(t, err, domain.ErrUnsafeArchivePath)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dst), "evil.txt"))
}

func TestWriteDeployBundle(t *testing.T) {
	dir := t.TempDir()
	ckpt := filepath.Join(dir, "checkpoint.pth")
	require.NoError(t, os.WriteFile(ckpt, []byte("weights"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, WriteDeployBundle(&buf, ckpt))

	tr := tar.NewReader(&buf)
	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "checkpoint.pth", hdr.Name)
	body, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, "weights", string(body))

	_, err = tr.Next()
	assert.Equal(t, io.EOF, err)
}

func TestWriteDeployBundle_MissingFile(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDeployBundle(&buf, filepath.Join(t.TempDir(), "missing.pth"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCreateDeployBundleFile(t *testing.T) {
	f, err := CreateDeployBundleFile()
	require.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()

	assert.True(t, strings.HasSuffix(f.Name(), "-"+DeployBundleName))
	require.NoError(t, WriteDeployBundle(f, writeTemp(t, "checkpoint.pth", "weights")))
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
