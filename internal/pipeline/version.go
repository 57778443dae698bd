package pipeline

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Semver is a loosely parsed three-component version. Missing or
// non-numeric components coerce to 0, so "abc" parses as 0.0.0 — under the
// major-only strategy "abc" → "abc2" is therefore not a major bump.
type Semver struct {
	Major int
	Minor int
	Patch int
}

func ParseSemver(version string) Semver {
	clean := strings.TrimPrefix(version, "v")
	parts := strings.SplitN(clean, ".", 3)
	get := func(i int) int {
		if i >= len(parts) {
			return 0
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0
		}
		return n
	}
	return Semver{Major: get(0), Minor: get(1), Patch: get(2)}
}

func IsMajorIncrease(prev, next string) bool {
	return ParseSemver(next).Major > ParseSemver(prev).Major
}

var tomlVersionRe = regexp.MustCompile(`version\s*=\s*["']([^"']+)["']`)

func versionFromJSON(raw string) (string, bool) {
	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(raw), &manifest); err != nil {
		return "", false
	}
	if manifest.Version == "" {
		return "", false
	}
	return manifest.Version, true
}

func versionFromTOML(raw string) (string, bool) {
	m := tomlVersionRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func versionFromText(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	return v, true
}
