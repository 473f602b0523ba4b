package bumper

import (
	"github.com/rios0rios0/bumper/domain"
)

// Factory describes one bumper variant: a predicate deciding whether the
// variant likes a given target, and a constructor for it.
type Factory struct {
	Name  string
	Likes func(target string) bool
	New   func(target string, index domain.PackageIndex, opts domain.BumperOptions) domain.Bumper
}

// Registry manages the closed set of bumper variants.
type Registry struct {
	factories []*Factory
}

// NewRegistry creates an empty bumper registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a bumper variant.
func (r *Registry) Register(f *Factory) {
	r.factories = append(r.factories, f)
}

// For instantiates every registered variant that likes the given target.
func (r *Registry) For(
	target string,
	index domain.PackageIndex,
	opts domain.BumperOptions,
) []domain.Bumper {
	var bumpers []domain.Bumper
	for _, f := range r.factories {
		if f.Likes(target) {
			bumpers = append(bumpers, f.New(target, index, opts))
		}
	}
	return bumpers
}

// Names returns the registered variant names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for _, f := range r.factories {
		names = append(names, f.Name)
	}
	return names
}
