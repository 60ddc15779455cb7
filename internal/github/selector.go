package github

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zjrosen/plugman/internal/log"
)

const archiveExt = ".zip"

var (
	// ErrNoMatchingAsset indicates the release has no selectable asset.
	ErrNoMatchingAsset = errors.New("no matching asset")

	// ErrInvalidSelection indicates a manual selection index out of range.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Chooser resolves asset selection when no automatic match exists.
// Implementations return the index of the chosen name.
type Chooser interface {
	Choose(names []string) (int, error)
}

// Select picks exactly one asset from a release.
//
// A single-asset release is auto-selected. With a pattern, the first
// asset whose name matches wins; otherwise the first asset whose name
// contains the architecture token (lower or upper spelling) and ends in
// the archive extension wins. When nothing matches and more than one
// asset exists, the chooser decides.
func Select(assets []Asset, pattern string, arch string, chooser Chooser) (Asset, error) {
	if len(assets) == 0 {
		return Asset{}, ErrNoMatchingAsset
	}
	if len(assets) == 1 {
		return assets[0], nil
	}

	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Asset{}, fmt.Errorf("invalid asset pattern %q: %w", pattern, err)
		}
		for _, a := range assets {
			if re.MatchString(a.Name) {
				log.Debug(log.CatAsset, "asset matched pattern", "asset", a.Name, "pattern", pattern)
				return a, nil
			}
		}
	} else {
		for _, a := range assets {
			if matchesArch(a.Name, arch) {
				log.Debug(log.CatAsset, "asset matched architecture", "asset", a.Name, "arch", arch)
				return a, nil
			}
		}
	}

	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
	}
	idx, err := chooser.Choose(names)
	if err != nil {
		return Asset{}, err
	}
	if idx < 0 || idx >= len(assets) {
		return Asset{}, fmt.Errorf("%w: index %d out of range", ErrInvalidSelection, idx)
	}
	return assets[idx], nil
}

// matchesArch matches the lower and upper case spellings of the
// architecture token, and requires the archive extension.
func matchesArch(name, arch string) bool {
	return (strings.Contains(name, arch) || strings.Contains(name, strings.ToUpper(arch))) &&
		strings.HasSuffix(name, archiveExt)
}
