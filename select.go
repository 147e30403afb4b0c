package main

import (
	"sort"
	"strings"
)

// Target is one (operating system, architecture) pair a binary is staged
// for. Required targets fail the run when no binary can be produced.
type Target struct {
	OS       string
	Arch     string
	Required bool
}

func (t Target) String() string {
	return t.OS + "/" + t.Arch
}

// targets returns the fixed set of platforms, in staging order. The
// windows targets are required only when configured so.
func targets(requireWindows bool) []Target {
	return []Target{
		{OS: "darwin", Arch: "amd64", Required: true},
		{OS: "darwin", Arch: "arm64", Required: true},
		{OS: "linux", Arch: "amd64", Required: true},
		{OS: "linux", Arch: "arm64", Required: true},
		{OS: "windows", Arch: "amd64", Required: requireWindows},
		{OS: "windows", Arch: "arm64", Required: requireWindows},
	}
}

var osTokens = map[string][]string{
	"darwin":  {"darwin", "macos", "mac", "osx"},
	"linux":   {"linux"},
	"windows": {"windows", "win"},
}

var archTokens = map[string][]string{
	"amd64": {"amd64", "x86_64", "x64"},
	"arm64": {"arm64", "aarch64"},
}

// Checksums, signatures and release notes are never binary payloads.
var excludedSuffixes = []string{".sha256", ".sha256sum", ".sig", ".asc", ".txt", ".json"}

// SelectAsset picks the best matching archive for the target, or nil if
// no asset matches. A miss is not an error here; the caller decides based
// on whether the target is required.
func SelectAsset(assets []Asset, target Target) *Asset {
	var matches []Asset
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		if hasAnySuffix(name, excludedSuffixes) {
			continue
		}
		if containsAnyToken(name, osTokens[target.OS]) && containsAnyToken(name, archTokens[target.Arch]) {
			matches = append(matches, a)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	// Prefer archives over raw binaries, then smaller declared size.
	sort.SliceStable(matches, func(i, j int) bool {
		ri, rj := formatRank(matches[i].Name), formatRank(matches[j].Name)
		if ri != rj {
			return ri < rj
		}
		return matches[i].Size < matches[j].Size
	})

	return &matches[0]
}

// formatRank orders asset formats by preference, lower is better.
func formatRank(name string) int {
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		return 0
	case strings.HasSuffix(name, ".zip"):
		return 1
	}
	return 2
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func containsAnyToken(name string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(name, t) {
			return true
		}
	}
	return false
}
