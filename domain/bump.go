package domain

import (
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
)

// BumpRequirement is a requirement to be bumped or filtered. When Required is
// false it acts as a filter only; when true the whole run fails unless it is
// fulfilled. RequiredBy points at the bump whose changelog demanded it, and is
// nil for requirements that came from the user.
type BumpRequirement struct {
	*Requirement

	Required   bool
	RequiredBy *Bump
}

// NewBumpRequirement wraps a requirement with the given required flag.
func NewBumpRequirement(req *Requirement, required bool) *BumpRequirement {
	return &BumpRequirement{Requirement: req, Required: required}
}

// ParseBumpRequirement parses a requirement string into a BumpRequirement.
func ParseBumpRequirement(s string, required bool) (*BumpRequirement, error) {
	req, err := ParseRequirement(s)
	if err != nil {
		return nil, err
	}
	return NewBumpRequirement(req, required), nil
}

// Equal reports equality of the underlying requirement, the required flag,
// and the originating bump.
func (b *BumpRequirement) Equal(other *BumpRequirement) bool {
	return other != nil &&
		b.Requirement.Equal(other.Requirement) &&
		b.Required == other.Required &&
		b.RequiredBy == other.RequiredBy
}

// Bump is a change made (or proposed) in a target file: a package name, the
// new constraint it was bumped to, the changelog entries between the old and
// new versions, and any requirements those changes impose on other packages.
type Bump struct {
	Name         string
	NewSpecs     []Spec
	Changes      []string
	Requirements []*BumpRequirement
}

// NewBump creates a bump of the named package to the given specs.
// Empty specs represent a bare, unconstrained addition.
func NewBump(name string, specs []Spec) *Bump {
	return &Bump{Name: name, NewSpecs: specs}
}

// String renders the bump in requirement-line form: bare name when there is
// no new version, otherwise name plus the joined specs.
func (b *Bump) String() string {
	return b.AsRequirement().String()
}

// AsRequirement converts the bump back to a requirement value.
func (b *Bump) AsRequirement() *Requirement {
	return &Requirement{Name: b.Name, Specs: b.NewSpecs}
}

// PinnedVersion returns the exact version when the bump pins one.
func (b *Bump) PinnedVersion() (string, bool) {
	return b.AsRequirement().Pinned()
}

// Require attaches requirements that must be fulfilled for this bump to occur.
func (b *Bump) Require(reqs ...*Requirement) {
	for _, req := range reqs {
		b.Requirements = append(b.Requirements, &BumpRequirement{
			Requirement: req,
			Required:    true,
			RequiredBy:  b,
		})
	}
}

// Satisfies reports whether this bump fulfills the given requirement, either
// by containing the bumped version or by matching the constraint exactly.
func (b *Bump) Satisfies(req *BumpRequirement) bool {
	if version, ok := b.PinnedVersion(); ok {
		return req.Contains(version)
	}
	return b.String() == req.String()
}

var (
	changeDirectivePattern   = regexp.MustCompile(`requires?=(\w.+)`)
	changeRequirementPattern = regexp.MustCompile(
		`([A-Za-z0-9][A-Za-z0-9._\-]*)((?:[><=!]=?[^,\s]+)(?:,[><=!]=?[^,\s]+)*| to ([\d.]+))?`)
)

// RequirementsForChanges extracts requirement directives from changelog
// entries. Directives are lines containing "requires=" or "require=" followed
// by comma-separated package specifiers; the " to <version>" suffix form is
// treated as an exact pin. Downgrade changelogs (first line prefixed with "-")
// yield nothing.
func RequirementsForChanges(changes []string) []*Requirement {
	if len(changes) == 0 || strings.HasPrefix(changes[0], "-") {
		return nil
	}

	var requirements []*Requirement
	seen := make(map[string]bool)

	for _, line := range changes {
		line = strings.Trim(line, " -+*")
		if line == "" {
			continue
		}

		directive := changeDirectivePattern.FindStringSubmatch(line)
		if directive == nil {
			continue
		}

		for _, match := range changeRequirementPattern.FindAllStringSubmatch(directive[1], -1) {
			reqStr := match[1]
			if match[2] != "" {
				if strings.HasPrefix(match[2], " to ") {
					reqStr += "==" + match[3]
				} else {
					reqStr += match[2]
				}
			}

			if seen[reqStr] {
				continue
			}
			seen[reqStr] = true

			req, err := ParseRequirement(reqStr)
			if err != nil {
				logger.Warnf("Could not parse requirement %q from changes: %v", reqStr, err)
				continue
			}
			requirements = append(requirements, req)
		}
	}

	return requirements
}
