package pypi

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bumper/domain"
)

var (
	changelogVersionPattern = regexp.MustCompile(`(?i)^(?:Version )?(\d+(?:\.\d+)+)`)
	changelogRulerPattern   = regexp.MustCompile(`^\s*[-=~+]+\s*$`)
)

// Changelog returns the changelog entries for a package between fromVersion
// (exclusive) and toVersion (inclusive), newest first. The changelog file is
// discovered from the package's repository; every failure along the way
// degrades to an empty result.
func (c *Client) Changelog(
	ctx context.Context,
	name, fromVersion, toVersion string,
) ([]string, error) {
	if fromVersion == "" {
		return nil, nil
	}

	info, err := c.packageInfo(ctx, name)
	if err != nil || info == nil {
		return nil, err
	}

	repoURL := repositoryURL(info, name)
	if repoURL == "" {
		logger.Debugf("Could not find repo url for %s to get changelog", name)
		return nil, nil
	}

	content := c.changelogContent(ctx, repoURL)
	if content == "" {
		return nil, nil
	}

	return sliceChangelog(content, fromVersion, toVersion), nil
}

// repositoryURL extracts the package's repository URL from its metadata,
// checking the home page and docs URL first and falling back to scanning
// the description body.
func repositoryURL(info *packageInfo, name string) string {
	repoPattern := regexp.MustCompile(
		`https?://(?:github\.com|bitbucket\.org)/[\w\-]+/` + regexp.QuoteMeta(name))

	for _, candidate := range []string{info.Info.HomePage, info.Info.DocsURL} {
		if candidate == "" {
			continue
		}
		if match := repoPattern.FindString(candidate); match != "" {
			return match
		}
	}

	if info.Info.Description != "" {
		return repoPattern.FindString(info.Info.Description)
	}
	return ""
}

// changelogContent locates and fetches the repository's changelog file.
// GitHub repositories are walked through the contents API; other hosts are
// probed with well-known raw file paths.
func (c *Client) changelogContent(ctx context.Context, repoURL string) string {
	if strings.Contains(repoURL, "github.com") {
		return c.githubChangelog(ctx, repoURL)
	}
	return c.probeChangelog(ctx, repoURL)
}

func isChangelogName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "change") || strings.HasPrefix(lower, "history")
}

// githubChangelog lists the repository root (and then any doc directories)
// looking for a changelog-like file.
func (c *Client) githubChangelog(ctx context.Context, repoURL string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(repoURL, "https://"), "http://")
	parts := strings.Split(trimmed, "/") // github.com/{owner}/{repo}
	if len(parts) < 3 {
		return ""
	}
	owner, repo := parts[1], parts[2]

	content := c.githubDirChangelog(ctx, owner, repo, "")
	if content != "" {
		return content
	}

	_, entries, _, err := c.github.Repositories.GetContents(ctx, owner, repo, "", nil)
	if err != nil {
		logger.Debugf("Could not list %s: %v", repoURL, err)
		return ""
	}
	for _, entry := range entries {
		if entry.GetType() == "dir" && strings.HasPrefix(strings.ToLower(entry.GetName()), "doc") {
			if content := c.githubDirChangelog(ctx, owner, repo, entry.GetPath()); content != "" {
				return content
			}
		}
	}

	return ""
}

// githubDirChangelog fetches the first changelog-like file in one directory.
func (c *Client) githubDirChangelog(ctx context.Context, owner, repo, dir string) string {
	_, entries, _, err := c.github.Repositories.GetContents(ctx, owner, repo, dir, nil)
	if err != nil {
		logger.Debugf("Could not list %s/%s/%s: %v", owner, repo, dir, err)
		return ""
	}

	for _, entry := range entries {
		if entry.GetType() != "file" || !isChangelogName(entry.GetName()) {
			continue
		}

		file, _, _, fileErr := c.github.Repositories.GetContents(
			ctx, owner, repo, entry.GetPath(), nil)
		if fileErr != nil || file == nil {
			logger.Debugf("%s/%s/%s: %v", owner, repo, entry.GetPath(), fileErr)
			continue
		}

		content, decodeErr := file.GetContent()
		if decodeErr != nil {
			logger.Debugf("%s/%s/%s: %v", owner, repo, entry.GetPath(), decodeErr)
			continue
		}
		return content
	}

	return ""
}

// probeChangelog tries well-known changelog file locations on non-GitHub
// hosts and returns the first one that exists.
func (c *Client) probeChangelog(ctx context.Context, repoURL string) string {
	extensions := []string{"rst", "md", "txt", ""}
	names := []string{"CHANGELOG", "HISTORY", "CHANGES", "changes"}
	subfolders := []string{"", "docs"}

	for _, ext := range extensions {
		for _, name := range names {
			for _, subfolder := range subfolders {
				url := repoURL
				if subfolder != "" {
					url += "/" + subfolder
				}
				url += "/" + name
				if ext != "" {
					url += "." + ext
				}

				logger.Debugf("Trying %s", url)
				if body, err := c.get(ctx, url); err == nil {
					return string(body)
				}
			}
		}
	}

	return ""
}

// sliceChangelog extracts the entries between fromVersion (exclusive) and
// toVersion (inclusive) from raw changelog text, newest first. Each version
// heading is followed by its indented change lines; bullet dashes are
// rewritten to plus signs so a later leading dash always means a downgrade.
func sliceChangelog(content, fromVersion, toVersion string) []string {
	var changes []string
	inSection := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, " \t\r")

		if line == "" || changelogRulerPattern.MatchString(line) {
			continue
		}

		if match := changelogVersionPattern.FindStringSubmatch(line); match != nil {
			version := match[1]
			if domain.CompareVersions(version, fromVersion) <= 0 {
				break
			}
			if domain.CompareVersions(version, toVersion) <= 0 {
				changes = append(changes, version)
				inSection = true
			} else {
				inSection = false
			}
			continue
		}

		if inSection {
			if strings.HasPrefix(line, "- ") {
				line = "+" + strings.TrimLeft(line, "-")
			}
			changes = append(changes, "  "+line)
		}
	}

	return changes
}

// String identifies the client in logs.
func (c *Client) String() string {
	return fmt.Sprintf("pypi(%s)", c.baseURL)
}
