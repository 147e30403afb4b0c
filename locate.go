package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var errBinaryNotFound = errors.New("could not locate bird binary")

// locateStrategy inspects an extracted tree and either returns the path
// of the binary or "" when this heuristic does not apply.
type locateStrategy func(files []string, windows bool) (string, error)

// Evaluated in order; the first hit wins.
var locateStrategies = []locateStrategy{
	locateExactName,
	locateSoleFile,
	locateExecutablePrefix,
}

// LocateBinary searches the extracted tree under root for the bird
// binary. Not finding one is reported with errBinaryNotFound; the caller
// decides whether that is fatal.
func LocateBinary(root string, windows bool) (string, error) {
	files, err := listRegularFiles(root)
	if err != nil {
		return "", err
	}
	for _, strategy := range locateStrategies {
		path, err := strategy(files, windows)
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}
	}
	return "", errBinaryNotFound
}

// locateExactName matches the expected binary name for the platform.
func locateExactName(files []string, windows bool) (string, error) {
	want := "bird"
	if windows {
		want = "bird.exe"
	}
	for _, f := range files {
		if filepath.Base(f) == want {
			return f, nil
		}
	}
	return "", nil
}

// locateSoleFile accepts an archive that contains exactly one regular
// file, whatever it is named.
func locateSoleFile(files []string, _ bool) (string, error) {
	if len(files) == 1 {
		return files[0], nil
	}
	return "", nil
}

// locateExecutablePrefix falls back to any executable-looking file whose
// name starts with "bird". Meaningless on windows, where the execute bit
// does not exist.
func locateExecutablePrefix(files []string, windows bool) (string, error) {
	if windows {
		return "", nil
	}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		name := strings.ToLower(filepath.Base(f))
		if info.Mode().Perm()&0o100 != 0 && strings.HasPrefix(name, "bird") {
			return f, nil
		}
	}
	return "", nil
}

func listRegularFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
