package contract

import (
	"strconv"
	"strings"
)

// IsVersionSupported reports whether a "MAJOR.MINOR" schema version
// falls numerically between the minimum supported and current version,
// inclusive. Malformed or blank versions are never supported.
func IsVersionSupported(version, min, current string) bool {
	v, ok := parseVersion(version)
	if !ok {
		return false
	}
	lo, ok := parseVersion(min)
	if !ok {
		return false
	}
	hi, ok := parseVersion(current)
	if !ok {
		return false
	}
	return compareVersions(v, lo) >= 0 && compareVersions(v, hi) <= 0
}

type semver struct {
	major int
	minor int
}

func parseVersion(s string) (semver, bool) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return semver{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return semver{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor < 0 {
		return semver{}, false
	}
	return semver{major: major, minor: minor}, true
}

func compareVersions(a, b semver) int {
	if a.major != b.major {
		return a.major - b.major
	}
	return a.minor - b.minor
}
