package internal

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/bumper/application"
	"github.com/rios0rios0/bumper/config"
	"github.com/rios0rios0/bumper/domain"
	bumperPkg "github.com/rios0rios0/bumper/infrastructure/bumper"
	"github.com/rios0rios0/bumper/infrastructure/bumper/requirements"
	"github.com/rios0rios0/bumper/infrastructure/index/pypi"
)

// BuildContainer wires the application graph: config -> package index ->
// bumper registry -> driver factory. An empty configPath falls back to
// auto-detection, and to the built-in defaults when no file exists.
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		func() (*config.Config, error) {
			path := configPath
			if path == "" {
				found, err := config.FindConfigFile()
				if err != nil {
					return config.Default(), nil
				}
				path = found
			}
			return config.Load(path)
		},
		func(cfg *config.Config) domain.PackageIndex {
			return pypi.New(
				pypi.WithBaseURL(cfg.Index.URL),
				pypi.WithTimeout(cfg.Index.Timeout()),
				pypi.WithGitHubToken(cfg.Index.GitHubToken),
			)
		},
		func() *bumperPkg.Registry {
			registry := bumperPkg.NewRegistry()
			registry.Register(requirements.NewFactory())
			return registry
		},
		application.NewDriverFactory,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}
