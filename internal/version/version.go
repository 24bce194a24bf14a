package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/lowrydr/tapline/internal/errs"
)

// Normalize strips the leading "v" release tags carry.
func Normalize(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// Parse validates a version string and returns its parsed form.
func Parse(v string) (*semver.Version, error) {
	parsed, err := semver.StrictNewVersion(Normalize(v))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidVersionFormat, err, "invalid version format: %q", v)
	}
	return parsed, nil
}

// Compare returns -1, 0 or 1 for a < b, a == b, a > b.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// IsNewer reports whether remote is strictly newer than local.
func IsNewer(remote, local string) (bool, error) {
	cmp, err := Compare(remote, local)
	if err != nil {
		return false, err
	}
	return cmp > 0, nil
}
