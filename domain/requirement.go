package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Spec is a single version constraint: a comparison operator plus a version literal.
type Spec struct {
	Op      string
	Version string
}

func (s Spec) String() string { return s.Op + s.Version }

// Matches returns true if the given version satisfies this constraint.
func (s Spec) Matches(ver string) bool {
	cmp := CompareVersions(ver, s.Version)
	switch s.Op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	default:
		return false
	}
}

// Requirement is a package name plus zero or more version constraints.
// Multiple specs are conjunctive: a version must satisfy all of them.
// An empty spec list means the requirement is unconstrained ("Any").
type Requirement struct {
	Name  string
	Specs []Spec
}

var (
	requirementNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]*`)
	requirementSpecPattern = regexp.MustCompile(`^(==|>=|<=|!=|>|<)([^,\s]+)$`)
)

// ParseRequirement parses a single requirement line such as "requests",
// "requests==1.2.3" or "remoteconfig>0.2,<0.2.5". Spec order is preserved.
func ParseRequirement(s string) (*Requirement, error) {
	trimmed := strings.TrimSpace(s)

	name := requirementNamePattern.FindString(trimmed)
	if name == "" {
		return nil, fmt.Errorf("invalid requirement %q", s)
	}

	req := &Requirement{Name: name}

	rest := strings.ReplaceAll(trimmed[len(name):], " ", "")
	if rest == "" {
		return req, nil
	}

	for _, part := range strings.Split(rest, ",") {
		match := requirementSpecPattern.FindStringSubmatch(part)
		if match == nil {
			return nil, fmt.Errorf("invalid version spec %q in requirement %q", part, s)
		}
		req.Specs = append(req.Specs, Spec{Op: match[1], Version: match[2]})
	}

	return req, nil
}

// ParseRequirements parses a list of requirement strings.
func ParseRequirements(lines ...string) ([]*Requirement, error) {
	reqs := make([]*Requirement, 0, len(lines))
	for _, line := range lines {
		req, err := ParseRequirement(line)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// String renders the requirement back to its line form, keeping spec order.
func (r *Requirement) String() string {
	return r.Name + r.SpecsString()
}

// SpecsString renders only the constraint part, e.g. "==1.2.3" or ">0.2,<0.2.5".
func (r *Requirement) SpecsString() string {
	if len(r.Specs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Specs))
	for _, s := range r.Specs {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ",")
}

// Equal reports structural equality: same name and same specs in the same order.
func (r *Requirement) Equal(other *Requirement) bool {
	return other != nil && r.String() == other.String()
}

// Pinned returns the pinned version when the leading spec is an exact pin.
func (r *Requirement) Pinned() (string, bool) {
	if len(r.Specs) > 0 && r.Specs[0].Op == "==" {
		return r.Specs[0].Version, true
	}
	return "", false
}

// Contains reports whether the given version satisfies every spec.
// Unconstrained requirements contain every version.
func (r *Requirement) Contains(ver string) bool {
	for _, s := range r.Specs {
		if !s.Matches(ver) {
			return false
		}
	}
	return true
}

// CompareVersions orders two version strings. Package-index versions are not
// strict semver, so unparseable versions fall back to string comparison.
func CompareVersions(a, b string) int {
	va, errA := goversion.NewVersion(a)
	vb, errB := goversion.NewVersion(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}

// SortVersionsDescending sorts version strings from newest to oldest, in place.
func SortVersionsDescending(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) > 0
	})
}
