package main

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/steipete/vendorbird/internal/metaerr"
)

// Name given to payloads that are not archives at all.
const rawBinaryName = "bird"

var errUnsafeArchiveMember = errors.New("unsafe archive member path")

// ExtractArchive unpacks the downloaded asset at `archive` into `dir`.
// The format is sniffed from the asset name; anything that is neither a
// gzipped tarball nor a zip file is treated as a raw binary and written
// verbatim. Every member's destination is verified to stay inside `dir`
// before anything is written.
func ExtractArchive(archive string, assetName string, dir string) error {
	name := strings.ToLower(assetName)
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		return extractTarGz(archive, dir)
	case strings.HasSuffix(name, ".zip"):
		return extractZip(archive, dir)
	}
	return copyFile(archive, filepath.Join(dir, rawBinaryName))
}

// memberPath resolves an archive member name against dir and rejects
// anything that would escape it.
func memberPath(dir string, name string) (string, error) {
	dst := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, dst)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", metaerr.WithMetadata(errUnsafeArchiveMember, "member", name)
	}
	return dst, nil
}

func extractTarGz(archive string, dir string) error {
	// First pass validates every member path, so that nothing at all is
	// written when the archive tries to escape the scratch directory.
	if err := walkTarGz(archive, func(hdr *tar.Header, _ *tar.Reader) error {
		_, err := memberPath(dir, hdr.Name)
		return err
	}); err != nil {
		return err
	}

	return walkTarGz(archive, func(hdr *tar.Header, tr *tar.Reader) error {
		dst, err := memberPath(dir, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			return os.MkdirAll(dst, 0o755)
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode).Perm())
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				_ = out.Close()
				return err
			}
			return out.Close()
		}
		// Symlinks and other special members are not extracted.
		return nil
	})
}

func walkTarGz(archive string, fn func(*tar.Header, *tar.Reader) error) error {
	in, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	gzReader, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	tarReader := tar.NewReader(gzReader)
	for {
		hdr, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar member: %w", err)
		}
		if err := fn(hdr, tarReader); err != nil {
			return err
		}
	}
}

func extractZip(archive string, dir string) error {
	in, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	stat, err := in.Stat()
	if err != nil {
		return err
	}
	zipReader, err := zip.NewReader(in, stat.Size())
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}

	for _, f := range zipReader.File {
		if _, err := memberPath(dir, f.Name); err != nil {
			return err
		}
	}

	for _, f := range zipReader.File {
		dst, err := memberPath(dir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := writeZipEntry(f, dst); err != nil {
			return err
		}
	}

	return nil
}

func writeZipEntry(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
