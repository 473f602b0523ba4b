package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/bumper/domain"
	"github.com/rios0rios0/bumper/infrastructure/bumper/requirements"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var showOutdatedOnly bool

//nolint:gochecknoglobals // required by cobra CLI pattern
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List requirements with their current and latest versions",
	Long: `List every requirement in the target files, showing the current
constraint and the latest version published on the package index.`,
	RunE: runList,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	listCmd.Flags().BoolVar(&showOutdatedOnly, "outdated", false,
		"Show only outdated requirements")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	factory, cfg, err := buildFactory()
	if err != nil {
		return err
	}

	targets := cfg.Targets
	if fileFlag != "" {
		targets = []string{fileFlag}
	}

	cmd.SilenceUsage = true
	index := factory.Index()

	listed := false
	for _, target := range targets {
		if _, statErr := os.Stat(target); statErr != nil {
			continue
		}
		if !requirements.Likes(target) {
			continue
		}
		listed = true

		bumper := requirements.New(target, index, domain.BumperOptions{})
		reqs, reqErr := bumper.Requirements()
		if reqErr != nil {
			return reqErr
		}

		fmt.Printf("%s:\n", target)
		for _, req := range reqs {
			latest, latestErr := index.LatestVersion(ctx, req.Name)
			if latestErr != nil {
				return latestErr
			}

			current, pinned := req.Pinned()
			outdated := pinned && latest != "" && current != latest
			if showOutdatedOnly && !outdated {
				continue
			}

			marker := " "
			if outdated {
				marker = "*"
			}
			constraint := req.SpecsString()
			if constraint == "" {
				constraint = "(any)"
			}
			fmt.Printf("  %s %-30s %-20s latest: %s\n", marker, req.Name, constraint, latest)
		}
		fmt.Println()
	}

	if !listed {
		return &domain.NotFoundError{Message: "no requirement files found to list"}
	}
	return nil
}
