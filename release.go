package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/steipete/vendorbird/internal/metaerr"
)

// Release is the subset of the releases API response we care about.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset describes one downloadable file attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
}

var (
	errNoAssets     = errors.New("no assets found in upstream release")
	errInvalidAsset = errors.New("asset record missing name or download url")
)

// FetchRelease retrieves release metadata for the given repo. An empty tag
// resolves the latest release. Any transport error, non-2xx status or
// malformed body is returned as-is; the caller treats all of them as fatal.
func FetchRelease(ctx context.Context, client *http.Client, baseURL string, repo string, tag string) (Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", baseURL, repo)
	if tag != "" {
		url = fmt.Sprintf("%s/repos/%s/releases/tags/%s", baseURL, repo, tag)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Release{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return Release{}, metaerr.WithMetadata(fmt.Errorf("fetch release: %w", err), "url", url)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Release{}, metaerr.WithMetadata(
			fmt.Errorf("fetch release: %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			"url", url,
			"body", string(body),
		)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return Release{}, metaerr.WithMetadata(fmt.Errorf("decode release metadata: %w", err), "url", url)
	}

	return rel, nil
}

// validateAsset checks that an asset record is usable for download.
func validateAsset(a Asset) error {
	if a.Name == "" || a.DownloadURL == "" {
		return errInvalidAsset
	}
	return nil
}
