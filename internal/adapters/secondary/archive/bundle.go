package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DeployBundleName is the file name the platform expects for uploaded weights.
const DeployBundleName = "roboflow_deploy.tar"

// CreateDeployBundleFile creates an empty temp file named after
// DeployBundleName. The caller removes it.
func CreateDeployBundleFile() (*os.File, error) {
	f, err := os.CreateTemp("", "*-"+DeployBundleName)
	if err != nil {
		return nil, fmt.Errorf("create bundle: %w", err)
	}
	return f, nil
}

// WriteDeployBundle writes a tar stream containing each file under its base
// name.
func WriteDeployBundle(w io.Writer, files ...string) error {
	tw := tar.NewWriter(w)
	for _, path := range files {
		if err := addFile(tw, path); err != nil {
			return fmt.Errorf("bundle %s: %w", path, err)
		}
	}
	return tw.Close()
}

func addFile(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
