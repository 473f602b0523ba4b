package cmd

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bumper/application"
	"github.com/rios0rios0/bumper/config"
	"github.com/rios0rios0/bumper/internal"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	configPath   string
	fileFlag     string
	addFlag      bool
	requireFlag  bool
	forceFlag    bool
	detailFlag   bool
	depsFlag     bool
	dryRunFlag   bool
	debugFlag    bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "bumper [names...]",
	Short: "Bump dependency versions in requirement files",
	Long: `Bump dependency version pins in plain-text requirement files
(requirements.txt, pinned.txt) by consulting the package index for the
latest published versions.

Without arguments every requirement in the target files is bumped to its
latest published version. Name filters restrict the bump to matching
packages; a filter may carry an inline version specifier to bump to a
specific version or range (quote the argument when it uses > or <,
e.g. 'requests>=1.2.3').`,
	Args: cobra.ArbitraryArgs,
	RunE: runBump,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&fileFlag, "file", "",
		"Requirement file to bump (default: requirements.txt and pinned.txt)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"Turn on debug mode")

	rootCmd.Flags().BoolVar(&addFlag, "add", false,
		"Add the names to the requirements file if they don't exist")
	rootCmd.Flags().BoolVar(&requireFlag, "require", false,
		"Alias for --add")
	rootCmd.Flags().BoolVar(&forceFlag, "force", false,
		"Force a bump even when certain bump requirements are not met")
	rootCmd.Flags().BoolVar(&detailFlag, "detail", false,
		"Show detailed changes from changelogs if available")
	rootCmd.Flags().BoolVar(&depsFlag, "dependencies", false,
		"Alias for --detail")
	rootCmd.Flags().BoolVarP(&dryRunFlag, "dry-run", "n", false,
		"Perform a dry run without making changes")

	_ = rootCmd.Flags().MarkHidden("require")
	_ = rootCmd.Flags().MarkHidden("dependencies")
}

func runBump(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if debugFlag {
		logger.SetLevel(logger.DebugLevel)
	}

	factory, cfg, err := buildFactory()
	if err != nil {
		return err
	}

	targets := cfg.Targets
	if fileFlag != "" {
		targets = []string{fileFlag}
	}

	driver := factory.New(targets, application.Options{
		Force:  forceFlag,
		Detail: detailFlag || depsFlag,
		DryRun: dryRunFlag,
	})

	cmd.SilenceUsage = true

	_, bumpErr := driver.Bump(ctx, args, addFlag || requireFlag)
	return bumpErr
}

// buildFactory resolves the driver factory and config through the container.
func buildFactory() (*application.DriverFactory, *config.Config, error) {
	container, err := internal.BuildContainer(configPath)
	if err != nil {
		return nil, nil, err
	}

	var factory *application.DriverFactory
	var cfg *config.Config
	if invokeErr := container.Invoke(func(f *application.DriverFactory, c *config.Config) {
		factory = f
		cfg = c
	}); invokeErr != nil {
		return nil, nil, invokeErr
	}

	return factory, cfg, nil
}
