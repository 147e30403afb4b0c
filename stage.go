package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// StagePath computes the canonical output path for a target.
func StagePath(outDir string, target Target) string {
	name := fmt.Sprintf("bird_%s_%s", target.OS, target.Arch)
	if target.OS == "windows" {
		name += ".exe"
	}
	return filepath.Join(outDir, name)
}

// StageBinary copies the located binary to its canonical destination and
// marks it executable. The copy goes through a temporary sibling and a
// rename so that windows hosts can replace an existing file.
func StageBinary(src string, dst string) error {
	ifile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = ifile.Close()
	}()

	dstDir := filepath.Dir(dst)
	dstName := filepath.Base(dst)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return err
	}

	dstNew := filepath.Join(dstDir, fmt.Sprintf(".%s.new", dstName))
	ofile, err := os.OpenFile(dstNew, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}

	if _, err := io.Copy(ofile, ifile); err != nil {
		_ = ofile.Close()
		return err
	}
	// Close before the rename, windows won't move an open file.
	if err := ofile.Close(); err != nil {
		return err
	}

	if _, err := os.Stat(dst); err == nil { // file exists
		dstOld := filepath.Join(dstDir, fmt.Sprintf(".%s.old", dstName))
		_ = os.Remove(dstOld)
		if err := os.Rename(dst, dstOld); err != nil {
			return err
		}
		defer func() {
			_ = os.Remove(dstOld)
		}()
	}

	if err := os.Rename(dstNew, dst); err != nil {
		return err
	}

	ensureExecutable(dst)
	return nil
}

// ensureExecutable sets the execute bits for owner, group and other.
// Best-effort: some platforms have no such concept, so failure is
// deliberately swallowed.
func ensureExecutable(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	_ = os.Chmod(path, info.Mode().Perm()|0o111)
}
