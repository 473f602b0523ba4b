package requirements

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bumper/domain"
	bumperPkg "github.com/rios0rios0/bumper/infrastructure/bumper"
)

const bumperName = "requirements"

// Bumper bumps plain-text requirement files. Targets ending in
// "requirements.txt" keep whatever specifier the requirement carries;
// targets ending in "pinned.txt" are pin targets where every requirement
// is resolved to an exact version.
type Bumper struct {
	target string
	index  domain.PackageIndex
	detail bool
	dryRun bool

	bumps map[string]*domain.Bump

	// Original unmodified file content, captured on first read and used
	// for rollback.
	original string
	loaded   bool
	written  bool

	// Parsed requirement entries plus their preceding comment blocks,
	// keyed by package name. Lines that are neither comments nor parseable
	// requirements are preserved verbatim inside the comment blocks.
	requirements map[string]*domain.Requirement
	comments     map[string]string
	trailing     string
}

// NewFactory returns the registry factory for requirement files.
func NewFactory() *bumperPkg.Factory {
	return &bumperPkg.Factory{
		Name:  bumperName,
		Likes: Likes,
		New: func(target string, index domain.PackageIndex, opts domain.BumperOptions) domain.Bumper {
			return New(target, index, opts)
		},
	}
}

// Likes reports whether this bumper handles the given target file.
func Likes(target string) bool {
	return strings.HasSuffix(target, "requirements.txt") || strings.HasSuffix(target, "pinned.txt")
}

// New creates a bumper for one target file.
func New(target string, index domain.PackageIndex, opts domain.BumperOptions) *Bumper {
	return &Bumper{
		target:       target,
		index:        index,
		detail:       opts.Detail,
		dryRun:       opts.DryRun,
		bumps:        make(map[string]*domain.Bump),
		requirements: make(map[string]*domain.Requirement),
		comments:     make(map[string]string),
	}
}

func (b *Bumper) Name() string   { return bumperName }
func (b *Bumper) Target() string { return b.target }

// shouldPin reports whether this target requires always-pinned versions.
func (b *Bumper) shouldPin() bool {
	return strings.HasSuffix(b.target, "pinned.txt")
}

// shouldAdd reports whether a requested requirement missing from the file
// may be added to it.
func (b *Bumper) shouldAdd(_ string) bool {
	return true
}

// load captures the original file content and parses it into requirement
// entries with their leading comment blocks.
func (b *Bumper) load() error {
	if b.loaded {
		return nil
	}

	data, err := os.ReadFile(b.target)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", b.target, err)
	}
	b.original = string(data)

	var comments []string
	for _, line := range strings.Split(strings.TrimSpace(b.original), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			comments = append(comments, line)
			continue
		}

		req, parseErr := domain.ParseRequirement(line)
		if parseErr != nil {
			// Not a requirement line (editable install, URL, -r include).
			// Preserve it verbatim next to its neighbors.
			comments = append(comments, line)
			continue
		}

		b.requirements[req.Name] = req
		if len(comments) > 0 {
			b.comments[req.Name] = strings.Join(comments, "\n")
			comments = nil
		}
	}

	if joined := strings.Join(comments, "\n"); strings.TrimSpace(joined) != "" {
		b.trailing = joined
	}

	b.loaded = true
	return nil
}

// Requirements returns the target's existing requirements sorted by name.
func (b *Bumper) Requirements() ([]*domain.Requirement, error) {
	if err := b.load(); err != nil {
		return nil, err
	}

	reqs := make([]*domain.Requirement, 0, len(b.requirements))
	for _, req := range b.requirements {
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Name < reqs[j].Name })
	return reqs, nil
}

// Bump runs one reconciliation pass over the target with the given bump
// requirements: every existing requirement is checked and bumped through the
// decision matrix, then still-required requirements absent from the file are
// added. Package-level failures degrade to warnings unless the failing
// requirement traces back to user input.
func (b *Bumper) Bump(
	ctx context.Context,
	bumpReqs *domain.RequirementsManager,
) ([]*domain.Bump, error) {
	existing, err := b.Requirements()
	if err != nil {
		return nil, err
	}

	passBumps := make(map[string]*domain.Bump)

	for _, req := range existing {
		if bumpReqs.Len() > 0 && !bumpReqs.Has(req.Name) {
			continue
		}

		bumpReqs.Check(req)

		bump, decideErr := b.decide(ctx, req, bumpReqs.Get(req.Name))
		if decideErr != nil {
			if escalate(bumpReqs, req.Name) {
				return nil, decideErr
			}
			logger.Warnf("%v", decideErr)
			continue
		}

		if bump != nil {
			passBumps[bump.Name] = bump
			bumpReqs.CheckBump(bump)
		}
	}

	required := bumpReqs.RequiredRequirements()
	names := make([]string, 0, len(required))
	for name := range required {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, done := passBumps[name]; done || !b.shouldAdd(name) {
			continue
		}

		bump, decideErr := b.decide(ctx, nil, required[name])
		if decideErr != nil {
			if allUserOriginated(required[name]) {
				return nil, decideErr
			}
			logger.Warnf("%v", decideErr)
			continue
		}

		if bump != nil {
			passBumps[bump.Name] = bump
			bumpReqs.CheckBump(bump)
		}
	}

	result := make([]*domain.Bump, 0, len(passBumps))
	for name, bump := range passBumps {
		b.bumps[name] = bump
		result = append(result, bump)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// escalate decides whether a package-level failure aborts the whole pass:
// it does when no filter is active at all, or when every bump requirement
// for the package came straight from the user.
func escalate(bumpReqs *domain.RequirementsManager, name string) bool {
	if bumpReqs.Len() == 0 {
		return true
	}
	reqs := bumpReqs.Get(name)
	if len(reqs) == 0 {
		return false
	}
	return allUserOriginated(reqs)
}

func allUserOriginated(reqs []*domain.BumpRequirement) bool {
	for _, req := range reqs {
		if req.RequiredBy != nil {
			return false
		}
	}
	return true
}

// decide applies the bump decision matrix to one package: the existing
// requirement from the file (nil when absent) against the externally supplied
// bump requirements. It returns nil when no bump is needed.
func (b *Bumper) decide(
	ctx context.Context,
	existing *domain.Requirement,
	bumpReqs []*domain.BumpRequirement,
) (*domain.Bump, error) {
	anyRequired := false
	for _, req := range bumpReqs {
		if req.Required {
			anyRequired = true
			break
		}
	}
	if existing == nil && !anyRequired {
		return nil, nil
	}

	name := ""
	if existing != nil {
		name = existing.Name
	} else {
		name = bumpReqs[0].Name
	}

	logger.Infof("Checking %s", name)

	var bump *domain.Bump
	var currentVersion, newVersion string

	if existing != nil {
		if version, ok := existing.Pinned(); ok {
			currentVersion = version
		}
	}

	if len(bumpReqs) > 0 {
		first := bumpReqs[0]

		switch {
		// Pin target with many requirements, or one that is not an exact
		// pin: resolve the latest version satisfying all of them.
		case b.shouldPin() && (len(bumpReqs) > 1 || (len(first.Specs) > 0 && first.Specs[0].Op != "==")):
			logger.Debugf("Bump to latest within requirements: %s", name)

			resolved, err := b.latestVersionFor(ctx, bumpReqs)
			if err != nil {
				return nil, err
			}
			newVersion = resolved

			if currentVersion == newVersion {
				return nil, nil
			}
			bump = domain.NewBump(name, []domain.Spec{{Op: "==", Version: newVersion}})

		// Many requirements on a non-pin target are ambiguous.
		case len(bumpReqs) > 1:
			return nil, &domain.ConflictError{Name: name, Requirements: bumpReqs}

		// One requirement with an explicit specifier, or a bare add on a
		// non-pin target: bump to the requested constraint.
		case len(first.Specs) > 0 || !(existing != nil || b.shouldPin()):
			logger.Debugf("Bump to requirement: %s", first)

			latest, err := b.latestVersionFor(ctx, bumpReqs)
			if err != nil {
				return nil, err
			}

			newVersion = latest
			if version, ok := first.Pinned(); ok {
				newVersion = version
			}

			if currentVersion == newVersion {
				return nil, nil
			}
			bump = domain.NewBump(name, append([]domain.Spec(nil), first.Specs...))
		}
	}

	// Fallback: existing pin, or a pin target adding a bare requirement,
	// bumps to the latest published version.
	if bump == nil {
		_, existingPinned := pinnedOf(existing)
		if existingPinned || (b.shouldPin() && existing == nil) {
			logger.Debugf("Bump to latest: %s", name)

			latest, err := b.index.LatestVersion(ctx, name)
			if err != nil {
				return nil, err
			}
			newVersion = latest

			if currentVersion == newVersion {
				return nil, nil
			}
			if newVersion == "" {
				return nil, &domain.UnpublishedPackageError{Name: name}
			}

			bump = domain.NewBump(name, []domain.Spec{{Op: "==", Version: newVersion}})
		}
	}

	if bump != nil && currentVersion != "" && newVersion != "" && b.detail {
		changes := b.packageChanges(ctx, bump.Name, currentVersion, newVersion)
		bump.Changes = append(bump.Changes, changes...)
		if b.shouldPin() {
			bump.Require(domain.RequirementsForChanges(changes)...)
		}
	}

	if bump != nil {
		logger.Debugf("Bumped %s", bump)

		if len(bump.Requirements) > 0 {
			logger.Infof("Changes in %s require: %s", bump.Name, joinSorted(bump.Requirements))
		}

		if existing != nil && bump.String() == existing.String() {
			return nil, nil
		}
	}

	return bump, nil
}

func pinnedOf(req *domain.Requirement) (string, bool) {
	if req == nil {
		return "", false
	}
	return req.Pinned()
}

func joinSorted(reqs []*domain.BumpRequirement) string {
	parts := make([]string, 0, len(reqs))
	for _, req := range reqs {
		parts = append(parts, req.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// latestVersionFor searches all published versions, newest first, for the
// first one satisfying every given requirement.
func (b *Bumper) latestVersionFor(
	ctx context.Context,
	reqs []*domain.BumpRequirement,
) (string, error) {
	versions, err := b.index.AllVersions(ctx, reqs[0].Name)
	if err != nil {
		return "", err
	}

	for _, version := range versions {
		satisfiesAll := true
		for _, req := range reqs {
			if !req.Contains(version) {
				satisfiesAll = false
				break
			}
		}
		if satisfiesAll {
			return version, nil
		}
	}

	if len(versions) > 0 {
		published := versions
		if len(published) > 10 {
			published = published[:10]
		}
		return "", &domain.UnsatisfiableVersionError{Requirements: reqs, Published: published}
	}
	return "", &domain.UnpublishedPackageError{Name: reqs[0].Name}
}

// packageChanges returns the changelog entries between two versions, newest
// first. On a downgrade the range is swapped and each entry is prefixed with
// a minus sign. Changelog failures degrade to a debug log.
func (b *Bumper) packageChanges(ctx context.Context, name, currentVersion, newVersion string) []string {
	downgrade := false
	if domain.CompareVersions(currentVersion, newVersion) > 0 {
		downgrade = true
		currentVersion, newVersion = newVersion, currentVersion
	}

	changes, err := b.index.Changelog(ctx, name, currentVersion, newVersion)
	if err != nil {
		logger.Debugf("Could not get changes for %s: %v", name, err)
		return nil
	}

	if downgrade {
		for i, change := range changes {
			changes[i] = "- " + change
		}
	}
	return changes
}

// Bumps returns every bump accumulated across passes, sorted by name.
func (b *Bumper) Bumps() []*domain.Bump {
	bumps := make([]*domain.Bump, 0, len(b.bumps))
	for _, bump := range b.bumps {
		bumps = append(bumps, bump)
	}
	sort.Slice(bumps, func(i, j int) bool { return bumps[i].Name < bumps[j].Name })
	return bumps
}

// Update rewrites the target file with the accumulated bumps applied, sorted
// by package name with each requirement's comment block preserved.
func (b *Bumper) Update() error {
	if len(b.bumps) == 0 || b.dryRun {
		return nil
	}

	for _, bump := range b.bumps {
		b.requirements[bump.Name] = bump.AsRequirement()
	}

	names := make([]string, 0, len(b.requirements))
	for name := range b.requirements {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		if comment, ok := b.comments[name]; ok {
			sb.WriteString(comment + "\n")
		}
		sb.WriteString(b.requirements[name].String() + "\n")
	}
	if b.trailing != "" {
		sb.WriteString(b.trailing + "\n")
	}

	if err := os.WriteFile(b.target, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", b.target, err)
	}

	b.written = true
	return nil
}

// Reverse restores the target file to its captured original content.
func (b *Bumper) Reverse() error {
	if !b.written {
		return nil
	}

	if err := os.WriteFile(b.target, []byte(b.original), 0o644); err != nil {
		return fmt.Errorf("failed to restore %s: %w", b.target, err)
	}

	b.written = false
	return nil
}

// BumpMessage composes the summary for the accumulated bumps, e.g.
// "Pin localconfig==1.0, remoteconfig==0.2.4". With includeChanges the
// per-package changelog entries are appended, indented under each name.
func (b *Bumper) BumpMessage(includeChanges bool) string {
	if len(b.bumps) == 0 {
		return ""
	}

	bumps := b.Bumps()

	parts := make([]string, 0, len(bumps))
	for _, bump := range bumps {
		parts = append(parts, bump.String())
	}
	sort.Strings(parts)

	word := "Require"
	if b.shouldPin() {
		word = "Pin"
	}
	msg := word + " " + strings.Join(parts, ", ")

	if includeChanges {
		var changes []string
		for _, bump := range bumps {
			if len(bump.Changes) == 0 {
				continue
			}
			changes = append(changes, bump.Name)
			changes = append(changes, "  "+strings.Join(bump.Changes, "\n  "))
			changes = append(changes, "")
		}
		if len(changes) > 0 {
			msg += "\n\n" + strings.Join(changes, "\n")
		}
	}

	return msg
}
