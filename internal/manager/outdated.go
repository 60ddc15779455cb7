package manager

import (
	"context"

	"github.com/Masterminds/semver/v3"
)

// OutdatedReport is one plugin's installed-vs-latest comparison.
type OutdatedReport struct {
	Name      string
	Installed string
	Latest    string
	// Behind is true when the latest release differs from the installed
	// one. Err carries a per-plugin resolution failure.
	Behind bool
	Err    error
}

// Outdated resolves the latest release for every installed plugin and
// reports which are behind. Read-only: no host coordination, no
// downloads, no manifest writes.
func (m *Manager) Outdated(ctx context.Context) []OutdatedReport {
	reports := make([]OutdatedReport, 0, m.Registry.Len())
	for _, name := range m.Registry.Names() {
		rec, _ := m.Registry.Get(name)
		report := OutdatedReport{Name: name, Installed: rec.Version}

		rel, err := m.Resolver.Resolve(ctx, rec.Repo, "")
		if err != nil {
			report.Err = err
		} else {
			report.Latest = rel.TagName
			report.Behind = tagIsNewer(rec.Version, rel.TagName)
		}
		reports = append(reports, report)
	}
	return reports
}

// tagIsNewer compares release tags as semantic versions when both parse
// (tolerating a leading "v"); otherwise any differing tag counts as newer
// since tags are opaque strings.
func tagIsNewer(installed, latest string) bool {
	cur, errCur := semver.NewVersion(installed)
	next, errNext := semver.NewVersion(latest)
	if errCur == nil && errNext == nil {
		return next.GreaterThan(cur)
	}
	return installed != latest
}
