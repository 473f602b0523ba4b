package application

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

// maxRoundsPerTarget caps the transitive requirement discovery loop per
// target file. It is a safety bound against runaway requirement chains,
// not a correctness guarantee.
const maxRoundsPerTarget = 5

// Options holds runtime options for a single driver run.
type Options struct {
	// Force lets the run succeed even when required constraints stay unmet.
	Force bool
	// Detail fetches changelog entries for every bump and enables
	// transitive requirement discovery on pin targets.
	Detail bool
	// DryRun prints proposed changes and performs zero writes.
	DryRun bool
}

// BumperDriver orchestrates bumpers across one or more target files: it
// drives the fixed-point loop for transitive requirement discovery, enforces
// the global required-but-unmet check, and rolls every modified target back
// when anything fails.
type BumperDriver struct {
	registry *bumperPkg.Registry
	index    domain.PackageIndex
	targets  []string
	opts     Options
}

// NewBumperDriver creates a driver over the given targets.
func NewBumperDriver(
	registry *bumperPkg.Registry,
	index domain.PackageIndex,
	targets []string,
	opts Options,
) *BumperDriver {
	return &BumperDriver{
		registry: registry,
		index:    index,
		targets:  targets,
		opts:     opts,
	}
}

// Bump reconciles every target against the given filter requirements and
// returns the per-target bump messages. With required set, filters missing
// from a target are added to it. The run is all-or-nothing: any failure rolls
// back every file already modified.
func (d *BumperDriver) Bump(
	ctx context.Context,
	filters []string,
	required bool,
) (map[string]string, error) {
	var found []string
	for _, target := range d.targets {
		if _, err := os.Stat(target); err == nil {
			found = append(found, target)
		}
	}
	if len(found) == 0 {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf(
			"none of the requirement file(s) were found: %s", strings.Join(d.targets, ", "))}
	}

	global := domain.NewRequirementsManager()
	for _, filter := range filters {
		req, err := domain.ParseBumpRequirement(filter, required)
		if err != nil {
			return nil, err
		}
		global.Add(req)
	}
	filterMatched := global.Len() == 0

	var bumpers []domain.Bumper
	var allBumps []*domain.Bump

	messages, err := func() (map[string]string, error) {
		for _, target := range found {
			logger.Debugf("Bump target: %s", target)

			targetBumpers := d.registry.For(target, d.index, domain.BumperOptions{
				Detail: d.opts.Detail,
				DryRun: d.opts.DryRun,
			})
			if len(targetBumpers) == 0 {
				logger.Warnf("No bumpers found that can bump %s", target)
				continue
			}
			bumpers = append(bumpers, targetBumpers...)

			targetBumps, runErr := d.runTarget(ctx, targetBumpers, global)
			if runErr != nil {
				return nil, runErr
			}
			allBumps = append(allBumps, targetBumps...)
			filterMatched = filterMatched || global.MatchedName() || len(targetBumps) > 0

			for _, bumper := range targetBumpers {
				if updateErr := bumper.Update(); updateErr != nil {
					return nil, updateErr
				}
			}
		}

		if len(bumpers) == 0 {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf(
				"no bumpers found for %s", strings.Join(found, ", "))}
		}

		if checkErr := d.checkRequired(global, allBumps); checkErr != nil {
			return nil, checkErr
		}

		if !filterMatched {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf(
				"none of the specified dependencies were found in %s", strings.Join(found, ", "))}
		}

		if len(allBumps) == 0 {
			logger.Info("No need to bump. Everything is up to date!")
			return map[string]string{}, nil
		}

		return d.composeMessages(bumpers), nil
	}()

	if err != nil && !d.opts.DryRun && len(allBumps) > 0 {
		for _, bumper := range bumpers {
			if reverseErr := bumper.Reverse(); reverseErr != nil {
				logger.Errorf("Failed to restore %s: %v", bumper.Target(), reverseErr)
			}
		}
	}

	return messages, err
}

// runTarget drives one target file to a fixed point: each round runs the
// target's bumpers with a scoped requirements manager, folds the round's
// state and newly discovered requirements back into the parent, and feeds
// the still-unbumped discoveries into the next round.
func (d *BumperDriver) runTarget(
	ctx context.Context,
	targetBumpers []domain.Bumper,
	global *domain.RequirementsManager,
) ([]*domain.Bump, error) {
	var targetBumps []*domain.Bump
	bumpedNames := make(map[string]bool)
	roundReqs := global.All()

	for round := 0; round < maxRoundsPerTarget; round++ {
		scoped := domain.NewRequirementsManager(roundReqs...)

		var roundBumps []*domain.Bump
		for _, bumper := range targetBumpers {
			bumps, err := bumper.Bump(ctx, scoped)
			if err != nil {
				global.MergeState(scoped)
				return nil, err
			}
			roundBumps = append(roundBumps, bumps...)
		}

		targetBumps = append(targetBumps, roundBumps...)
		for _, bump := range roundBumps {
			bumpedNames[bump.Name] = true
		}

		// Keep only discoveries nothing has satisfied yet, then fold the
		// round's state up into the parent manager.
		var discovered []*domain.BumpRequirement
		for _, bump := range roundBumps {
			for _, req := range bump.Requirements {
				if global.SatisfiedByChecked(req) || scoped.SatisfiedByChecked(req) {
					continue
				}
				discovered = append(discovered, req)
			}
		}

		global.MergeState(scoped)
		global.Add(discovered...)

		roundReqs = nil
		for _, req := range discovered {
			if !bumpedNames[req.Name] {
				roundReqs = append(roundReqs, req)
			}
		}
		if len(roundReqs) == 0 {
			break
		}
	}

	return targetBumps, nil
}

// checkRequired fails the run for any requirement still required after all
// bumping, unless force mode is on. Requirements a bump actually satisfies
// are fine; near misses are logged with their origin.
func (d *BumperDriver) checkRequired(
	global *domain.RequirementsManager,
	allBumps []*domain.Bump,
) error {
	required := global.RequiredRequirements()
	if len(required) == 0 {
		return nil
	}

	bumped := make(map[string]*domain.Bump)
	for _, bump := range allBumps {
		bumped[bump.Name] = bump
	}

	names := make([]string, 0, len(required))
	for name := range required {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, req := range required[name] {
			if bump, ok := bumped[name]; ok {
				if bump.Satisfies(req) {
					continue
				}
				if req.RequiredBy != nil {
					logger.Warnf("Changes in %s require %s, but %s is at %s.",
						req.RequiredBy.Name, req, name, bump.AsRequirement().SpecsString())
				} else {
					logger.Warnf("User required %s, but bumped to %s",
						req, bump.AsRequirement().SpecsString())
				}
			}

			if !d.opts.Force {
				return &domain.RequiredNotMetError{Requirement: req}
			}
		}
	}

	return nil
}

// composeMessages builds the per-target bump messages and logs (or, in
// dry-run mode, prints) each target's summary.
func (d *BumperDriver) composeMessages(bumpers []domain.Bumper) map[string]string {
	if d.opts.DryRun {
		logger.Info("Changes that would be made:")
	}

	messages := make(map[string]string)
	for _, bumper := range bumpers {
		if len(bumper.Bumps()) == 0 {
			continue
		}

		summary := bumper.BumpMessage(d.opts.DryRun || d.opts.Detail)
		if d.opts.DryRun {
			fmt.Println(summary)
		} else {
			logger.Info(summarizePast(summary))
		}

		messages[bumper.Target()] = bumper.BumpMessage(true)
	}
	return messages
}

// summarizePast rewrites the leading bump word into past tense for the
// summary log line.
func summarizePast(msg string) string {
	switch {
	case strings.HasPrefix(msg, "Pin "):
		return "Pinned " + strings.TrimPrefix(msg, "Pin ")
	case strings.HasPrefix(msg, "Require "):
		return "Required " + strings.TrimPrefix(msg, "Require ")
	case strings.HasPrefix(msg, "Bump "):
		return "Bumped " + strings.TrimPrefix(msg, "Bump ")
	default:
		return msg
	}
}
