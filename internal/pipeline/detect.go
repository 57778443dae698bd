package pipeline

import "context"

// Version-source strategies.
const (
	SourceAuto     = "auto"
	SourceUncommit = "uncommit" // explicit single-file mode
)

// Version-change strategies.
const (
	StrategyAny       = "any"
	StrategyMajorOnly = "major-only"
)

// ContentsFetcher reads a file at a commit. Absent files report ok=false,
// never an error; errors mean transport or auth failure.
type ContentsFetcher interface {
	FileContentAtRef(ctx context.Context, token, owner, repo, path, ref string) (string, bool, error)
}

type versionCandidate struct {
	path    string
	extract func(string) (string, bool)
}

// autoCandidates are tried in strict priority order; the first file that
// exists and parses wins, regardless of what later files would say.
var autoCandidates = []versionCandidate{
	{"package.json", versionFromJSON},
	{"Cargo.toml", versionFromTOML},
	{"pyproject.toml", versionFromTOML},
	{"version.txt", versionFromText},
	{"VERSION", versionFromText},
}

var uncommitCandidates = []versionCandidate{
	{"uncommit.json", versionFromJSON},
}

type Detector struct {
	Contents ContentsFetcher
}

type DetectParams struct {
	Token           string
	RepoOwner       string
	RepoName        string
	BeforeSHA       string
	AfterSHA        string
	VersionSource   string
	VersionStrategy string
}

// Detection is the transient release candidate for one pipeline run.
type Detection struct {
	ShouldRelease bool
	Version       string
}

// Detect reads the version-bearing file at both commits and decides whether
// the push warrants a release.
func (d *Detector) Detect(ctx context.Context, p DetectParams) (Detection, error) {
	current, currentOK, err := d.versionAtRef(ctx, p, p.AfterSHA)
	if err != nil {
		return Detection{}, err
	}
	previous, previousOK, err := d.versionAtRef(ctx, p, p.BeforeSHA)
	if err != nil {
		return Detection{}, err
	}

	if !currentOK || (previousOK && current == previous) {
		return Detection{ShouldRelease: false, Version: current}, nil
	}

	if p.VersionStrategy == StrategyMajorOnly {
		// A repository gaining its first version counts as a qualifying bump.
		if previousOK && !IsMajorIncrease(previous, current) {
			return Detection{ShouldRelease: false, Version: current}, nil
		}
	}

	return Detection{ShouldRelease: true, Version: current}, nil
}

func (d *Detector) versionAtRef(ctx context.Context, p DetectParams, ref string) (string, bool, error) {
	candidates := autoCandidates
	if p.VersionSource == SourceUncommit {
		candidates = uncommitCandidates
	}

	for _, c := range candidates {
		raw, ok, err := d.Contents.FileContentAtRef(ctx, p.Token, p.RepoOwner, p.RepoName, c.path, ref)
		if err != nil {
			return "", false, err
		}
		if !ok {
			continue
		}
		if v, parsed := c.extract(raw); parsed {
			return v, true, nil
		}
		// Present but unparseable behaves like absent; fall through.
	}
	return "", false, nil
}
