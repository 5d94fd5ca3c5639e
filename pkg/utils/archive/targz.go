package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TarGz archives the given files into dest as a gzipped tarball.
//
// Entries are stored under their base names; files is a map from the entry
// name in the archive to the source path on disk. Directories are not
// descended into.
func TarGz(dest io.Writer, files map[string]string) error {
	gz := gzip.NewWriter(dest)
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	for name, src := range files {
		if err := addFile(tw, name, src); err != nil {
			return fmt.Errorf("archive %s: %w", src, err)
		}
	}
	return nil
}

func addFile(tw *tar.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// UntarGz unpacks a gzipped tarball into destDir.
//
// Entry names escaping destDir ("../", absolute paths) are rejected.
func UntarGz(src io.Reader, destDir string) error {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		dest := filepath.Join(destDir, filepath.Clean(hdr.Name))
		if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, fs.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := writeFile(dest, fs.FileMode(hdr.Mode), tr); err != nil {
				return err
			}
		default:
			// symlinks etc. have no business in a database backup
			return fmt.Errorf("unexpected archive entry type %c: %s", hdr.Typeflag, hdr.Name)
		}
	}
}

func writeFile(dest string, mode fs.FileMode, r io.Reader) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, r)
	return err
}
