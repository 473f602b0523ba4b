// Package test provides shared test doubles (dummies, stubs, spies)
// following the naming convention: Dummy = does nothing, Stub = returns
// canned data, Spy = records interactions.
package test

import (
	"context"
	"fmt"

	"github.com/rios0rios0/bumper/domain"
)

// StubPackageIndex is a canned package index: versions are served newest
// first from Versions, the latest version from Latest (falling back to the
// head of Versions), and changelog entries from Changes keyed by package
// name. Every lookup is recorded for spying.
type StubPackageIndex struct {
	Latest   map[string]string
	Versions map[string][]string
	Changes  map[string][]string

	Lookups []string
}

// LatestVersion returns the canned latest version for a package.
func (s *StubPackageIndex) LatestVersion(_ context.Context, name string) (string, error) {
	s.Lookups = append(s.Lookups, "latest:"+name)

	if v, ok := s.Latest[name]; ok {
		return v, nil
	}
	if versions := s.Versions[name]; len(versions) > 0 {
		return versions[0], nil
	}
	return "", nil
}

// AllVersions returns the canned version list, newest first.
func (s *StubPackageIndex) AllVersions(_ context.Context, name string) ([]string, error) {
	s.Lookups = append(s.Lookups, "all:"+name)
	return s.Versions[name], nil
}

// Changelog returns the canned changelog entries for a package.
func (s *StubPackageIndex) Changelog(
	_ context.Context,
	name, fromVersion, toVersion string,
) ([]string, error) {
	s.Lookups = append(s.Lookups, fmt.Sprintf("changelog:%s:%s:%s", name, fromVersion, toVersion))
	return s.Changes[name], nil
}

// SpyBumper records every reconciliation pass and serves canned bumps. Each
// pass returns one bump whose changelog requires a fresh package name, so
// driver loop-guard tests can force unbounded transitive discovery.
type SpyBumper struct {
	BumperName string
	TargetPath string

	// EmitRequirements makes every pass discover a new requirement.
	EmitRequirements bool

	BumpCalls int
	Updated   bool
	Reversed  bool

	bumps []*domain.Bump
}

func (s *SpyBumper) Name() string   { return s.BumperName }
func (s *SpyBumper) Target() string { return s.TargetPath }

// Bump returns one canned bump per pass.
func (s *SpyBumper) Bump(
	_ context.Context,
	bumpReqs *domain.RequirementsManager,
) ([]*domain.Bump, error) {
	s.BumpCalls++

	bump := domain.NewBump(
		fmt.Sprintf("pkg%d", s.BumpCalls),
		[]domain.Spec{{Op: "==", Version: "1.0"}},
	)
	if s.EmitRequirements {
		req, _ := domain.ParseRequirement(fmt.Sprintf("dep%d==1.0", s.BumpCalls))
		bump.Require(req)
	}
	bumpReqs.CheckBump(bump)

	s.bumps = append(s.bumps, bump)
	return []*domain.Bump{bump}, nil
}

func (s *SpyBumper) Bumps() []*domain.Bump { return s.bumps }

func (s *SpyBumper) Update() error {
	s.Updated = true
	return nil
}

func (s *SpyBumper) Reverse() error {
	s.Reversed = true
	return nil
}

func (s *SpyBumper) BumpMessage(_ bool) string {
	if len(s.bumps) == 0 {
		return ""
	}
	return "Require " + s.bumps[0].String()
}
