package application

import (
	"github.com/rios0rios0/bumper/domain"
	bumperPkg "github.com/rios0rios0/bumper/infrastructure/bumper"
)

// DriverFactory builds drivers over the shared registry and index. Targets
// and options are only known at invocation time, so the factory carries the
// injected collaborators and defers the rest.
type DriverFactory struct {
	registry *bumperPkg.Registry
	index    domain.PackageIndex
}

// NewDriverFactory creates the factory from the injected collaborators.
func NewDriverFactory(registry *bumperPkg.Registry, index domain.PackageIndex) *DriverFactory {
	return &DriverFactory{registry: registry, index: index}
}

// New builds a driver for one run.
func (f *DriverFactory) New(targets []string, opts Options) *BumperDriver {
	return NewBumperDriver(f.registry, f.index, targets, opts)
}

// Index returns the shared package index.
func (f *DriverFactory) Index() domain.PackageIndex {
	return f.index
}
