package domain

import (
	"fmt"
	"strings"
)

// NotFoundError reports that nothing could be bumped at all: no target file
// exists, no bumper claims a target, or a user filter matched nothing.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ConflictError reports ambiguous bump requirements for one package on a
// target that cannot reconcile them by pinning.
type ConflictError struct {
	Name         string
	Requirements []*BumpRequirement
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("not sure which requirement to use for %s: %s",
		e.Name, joinRequirements(e.Requirements))
}

// UnsatisfiableVersionError reports that no published version satisfies the
// requested requirements. Published carries the newest known versions to help
// the user pick a reachable constraint.
type UnsatisfiableVersionError struct {
	Requirements []*BumpRequirement
	Published    []string
}

func (e *UnsatisfiableVersionError) Error() string {
	return fmt.Sprintf(
		"no published version could satisfy the requirement(s): %s\n\tLatest published versions: %s",
		joinRequirements(e.Requirements), strings.Join(e.Published, ", "))
}

// UnpublishedPackageError reports that a package has no published versions at
// all while one is required.
type UnpublishedPackageError struct {
	Name string
}

func (e *UnpublishedPackageError) Error() string {
	return fmt.Sprintf("no published versions found for %q", e.Name)
}

// RequiredNotMetError reports a required constraint left unfulfilled after all
// bumping. For transitive requirements the message hints at force mode.
type RequiredNotMetError struct {
	Requirement *BumpRequirement
}

func (e *RequiredNotMetError) Error() string {
	msg := fmt.Sprintf("requirement %q could not be met so bump can not proceed.", e.Requirement)
	if e.Requirement.RequiredBy != nil {
		msg += " Use --force to force the bump."
	}
	return msg
}

func joinRequirements(reqs []*BumpRequirement) string {
	parts := make([]string, 0, len(reqs))
	for _, r := range reqs {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ", ")
}
