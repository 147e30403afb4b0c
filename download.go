package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Download retrieves an asset from the given url and saves it under the
// given directory as `name`. Only the base of `name` is used, so a
// hostile asset name cannot place the payload outside `dir`. It returns
// the local path to the downloaded file.
func Download(ctx context.Context, client *http.Client, url string, dir string, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download asset: %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	file, err := os.Create(filepath.Join(dir, filepath.Base(filepath.FromSlash(name))))
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write output file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}

	return file.Name(), nil
}
