package domain

import "sort"

// checkedEntry is one audit record of something tested against the manager:
// the resolved package name plus either an exact version or, when no exact
// version could be resolved, the full requirement string.
type checkedEntry struct {
	name    string
	version string
	reqStr  string
}

// RequirementsManager manages the bump requirements for a run. Each package
// name maps to a list of requirements so that independent constraints can
// coexist (e.g. ">0.2,<0.2.5" from the user plus "==0.2.4" from a changelog).
type RequirementsManager struct {
	requirements map[string][]*BumpRequirement
	matchedName  bool
	checked      []checkedEntry
}

// NewRequirementsManager creates an empty manager.
func NewRequirementsManager(reqs ...*BumpRequirement) *RequirementsManager {
	m := &RequirementsManager{requirements: make(map[string][]*BumpRequirement)}
	m.Add(reqs...)
	return m
}

// Add merges requirements into the manager. Exact duplicates are skipped.
// Two pins for the same name collapse into one keeping the higher version;
// an unconstrained requirement never displaces a constrained one (and vice
// versa triggers replacement). In both merge cases the required flags are
// OR-ed and the originating bump is inherited from the replaced entry.
// Otherwise the requirement is appended as a separate AND-able constraint.
func (m *RequirementsManager) Add(reqs ...*BumpRequirement) {
	for _, req := range reqs {
		name := req.Name
		add := true

		for i, existing := range m.requirements[name] {
			if req.Equal(existing) {
				add = false
				break
			}

			replace := false

			// Two pins: keep the higher pinned version.
			if reqVer, reqPinned := req.Pinned(); reqPinned {
				if exVer, exPinned := existing.Pinned(); exPinned {
					if CompareVersions(reqVer, exVer) < 0 {
						req.Requirement = existing.Requirement
					}
					replace = true
				}
			}

			// Either side unconstrained: prefer the side that has specs.
			if len(req.Specs) == 0 || len(existing.Specs) == 0 {
				if len(existing.Specs) > 0 {
					req.Requirement = existing.Requirement
				}
				replace = true
			}

			if replace {
				req.Required = req.Required || existing.Required
				if existing.RequiredBy != nil && req.RequiredBy == nil {
					req.RequiredBy = existing.RequiredBy
				}
				m.requirements[name] = append(
					m.requirements[name][:i], m.requirements[name][i+1:]...)
				break
			}
		}

		if add {
			m.requirements[name] = append(m.requirements[name], req)
		}
	}
}

// Get returns the managed requirements for a package name.
func (m *RequirementsManager) Get(name string) []*BumpRequirement {
	return m.requirements[name]
}

// Has reports whether any requirement is managed for the given name.
func (m *RequirementsManager) Has(name string) bool {
	_, ok := m.requirements[name]
	return ok
}

// Len returns the number of managed package names.
func (m *RequirementsManager) Len() int {
	return len(m.requirements)
}

// Names returns the managed package names, sorted.
func (m *RequirementsManager) Names() []string {
	names := make([]string, 0, len(m.requirements))
	for name := range m.requirements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every managed requirement, grouped by sorted package name.
func (m *RequirementsManager) All() []*BumpRequirement {
	var all []*BumpRequirement
	for _, name := range m.Names() {
		all = append(all, m.requirements[name]...)
	}
	return all
}

// MatchedName reports whether any checked context referenced a managed name.
func (m *RequirementsManager) MatchedName() bool {
	return m.matchedName
}

// Check tests a requirement against the manager. When the requirement is an
// exact pin its version is used, otherwise its full string form.
func (m *RequirementsManager) Check(req *Requirement) bool {
	if version, ok := req.Pinned(); ok {
		return m.checkResolved(req.Name, version, "")
	}
	return m.checkResolved(req.Name, "", req.String())
}

// CheckBump tests a bump result against the manager.
func (m *RequirementsManager) CheckBump(b *Bump) bool {
	if version, ok := b.PinnedVersion(); ok {
		return m.checkResolved(b.Name, version, "")
	}
	return m.checkResolved(b.Name, "", b.String())
}

// CheckVersion tests an observed name/version pair against the manager.
func (m *RequirementsManager) CheckVersion(name, version string) bool {
	return m.checkResolved(name, version, "")
}

// checkResolved records the check in the audit ledger and, when the name is
// managed, flips off the first still-required requirement that the observed
// version (or exact requirement string) satisfies. The fulfilled requirement
// stays in the manager so later equality and conflict checks still see it.
func (m *RequirementsManager) checkResolved(name, version, reqStr string) bool {
	m.checked = append(m.checked, checkedEntry{name: name, version: version, reqStr: reqStr})

	reqs, ok := m.requirements[name]
	if !ok {
		return false
	}
	m.matchedName = true

	for _, req := range reqs {
		if !req.Required {
			continue
		}
		if (version != "" && req.Contains(version)) || (reqStr != "" && reqStr == req.String()) {
			req.Required = false
			return true
		}
	}

	return false
}

// SatisfiedByChecked reports whether the given requirement would already have
// been satisfied by anything previously checked against this manager. It is
// used to suppress re-adding transitively discovered requirements that an
// earlier step already proved fulfilled.
func (m *RequirementsManager) SatisfiedByChecked(req *BumpRequirement) bool {
	probe := NewRequirementsManager(&BumpRequirement{Requirement: req.Requirement, Required: true})

	for _, entry := range m.checked {
		if probe.checkResolved(entry.name, entry.version, entry.reqStr) {
			return true
		}
	}
	return false
}

// RequiredRequirements returns, per name, the requirements still required.
func (m *RequirementsManager) RequiredRequirements() map[string][]*BumpRequirement {
	required := make(map[string][]*BumpRequirement)
	for name, reqs := range m.requirements {
		for _, req := range reqs {
			if req.Required {
				required[name] = append(required[name], req)
			}
		}
	}
	return required
}

// MergeState folds another manager's audit state into this one: the matched
// flag is OR-ed and the checked ledger is appended. Requirements themselves
// are merged separately through Add.
func (m *RequirementsManager) MergeState(other *RequirementsManager) {
	m.matchedName = m.matchedName || other.matchedName
	m.checked = append(m.checked, other.checked...)
}
