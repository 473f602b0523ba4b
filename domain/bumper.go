package domain

import "context"

// PackageIndex abstracts the package index consulted for published versions
// and changelog entries (e.g. PyPI). Lookups are pure reads.
type PackageIndex interface {
	// LatestVersion returns the latest published version of a package, or an
	// empty string when the package is unknown to the index.
	LatestVersion(ctx context.Context, name string) (string, error)

	// AllVersions returns every published version, newest first.
	AllVersions(ctx context.Context, name string) ([]string, error)

	// Changelog returns changelog line items between two versions, newest
	// first. fromVersion is exclusive, toVersion inclusive. Best effort:
	// an empty result is not an error.
	Changelog(ctx context.Context, name, fromVersion, toVersion string) ([]string, error)
}

// BumperOptions holds the runtime options every bumper honors.
type BumperOptions struct {
	Detail bool
	DryRun bool
}

// Bumper owns a single target file: it enumerates the file's existing
// requirements, decides per-requirement bumps, and persists or reverses the
// resulting changes. Implementations cover one file format each and are
// selected through a registry predicate.
type Bumper interface {
	// Name returns the bumper identifier (e.g. "requirements").
	Name() string

	// Target returns the path of the file this bumper owns.
	Target() string

	// Bump reconciles the target's requirements against the given bump
	// requirements and returns the bumps decided in this pass.
	Bump(ctx context.Context, bumpReqs *RequirementsManager) ([]*Bump, error)

	// Bumps returns every bump accumulated across passes.
	Bumps() []*Bump

	// Update persists the accumulated bumps to the target file.
	// It is a no-op in dry-run mode or when nothing was bumped.
	Update() error

	// Reverse restores the target file to its content before any changes.
	Reverse() error

	// BumpMessage composes a summary of the accumulated bumps, optionally
	// including detailed changelog entries.
	BumpMessage(includeChanges bool) string
}
