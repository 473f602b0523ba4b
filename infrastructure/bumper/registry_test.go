package bumper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bumper/domain"
	bumperPkg "github.com/rios0rios0/bumper/infrastructure/bumper"
	"github.com/rios0rios0/bumper/infrastructure/bumper/requirements"
	"github.com/rios0rios0/bumper/test"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should instantiate every variant liking the target", func(t *testing.T) {
		t.Parallel()

		// given
		registry := bumperPkg.NewRegistry()
		registry.Register(requirements.NewFactory())
		registry.Register(&bumperPkg.Factory{
			Name:  "everything",
			Likes: func(string) bool { return true },
			New: func(target string, index domain.PackageIndex, _ domain.BumperOptions) domain.Bumper {
				return &test.SpyBumper{BumperName: "everything", TargetPath: target}
			},
		})

		// when
		bumpers := registry.For("requirements.txt", &test.StubPackageIndex{}, domain.BumperOptions{})

		// then
		require.Len(t, bumpers, 2)
		assert.Equal(t, "requirements", bumpers[0].Name())
		assert.Equal(t, "everything", bumpers[1].Name())
	})

	t.Run("should instantiate nothing for an unliked target", func(t *testing.T) {
		t.Parallel()

		// given
		registry := bumperPkg.NewRegistry()
		registry.Register(requirements.NewFactory())

		// when
		bumpers := registry.For("go.mod", &test.StubPackageIndex{}, domain.BumperOptions{})

		// then
		assert.Empty(t, bumpers)
	})

	t.Run("should expose registered variant names", func(t *testing.T) {
		t.Parallel()

		// given
		registry := bumperPkg.NewRegistry()
		registry.Register(requirements.NewFactory())

		// then
		assert.Equal(t, []string{"requirements"}, registry.Names())
	})
}
