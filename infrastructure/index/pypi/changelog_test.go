//nolint:testpackage // testing unexported changelog helpers
package pypi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleChangelog = `Changelog
=========

2.0.1
-----
- Fixed a crash on startup

2.0
---
- New plugin system
- Dropped py2 support

1.1.4
-----
- Old release
`

func TestSliceChangelog(t *testing.T) {
	t.Parallel()

	t.Run("should slice entries between from and to, newest first", func(t *testing.T) {
		t.Parallel()

		// when
		changes := sliceChangelog(sampleChangelog, "1.1.4", "2.0.1")

		// then
		assert.Equal(t, []string{
			"2.0.1",
			"  + Fixed a crash on startup",
			"2.0",
			"  + New plugin system",
			"  + Dropped py2 support",
		}, changes)
	})

	t.Run("should exclude versions newer than the target", func(t *testing.T) {
		t.Parallel()

		// when
		changes := sliceChangelog(sampleChangelog, "1.1.4", "2.0")

		// then
		assert.Equal(t, []string{
			"2.0",
			"  + New plugin system",
			"  + Dropped py2 support",
		}, changes)
	})

	t.Run("should stop at the from version", func(t *testing.T) {
		t.Parallel()

		// when
		changes := sliceChangelog(sampleChangelog, "2.0", "2.0.1")

		// then
		assert.Equal(t, []string{"2.0.1", "  + Fixed a crash on startup"}, changes)
	})

	t.Run("should recognize Version-prefixed headings", func(t *testing.T) {
		t.Parallel()

		// given
		content := "Version 1.1\n- Something new\nVersion 1.0\n- First release\n"

		// when
		changes := sliceChangelog(content, "1.0", "1.1")

		// then
		assert.Equal(t, []string{"1.1", "  + Something new"}, changes)
	})
}

func TestRepositoryURL(t *testing.T) {
	t.Parallel()

	t.Run("should find the repo url in the home page", func(t *testing.T) {
		t.Parallel()

		// given
		var info packageInfo
		info.Info.HomePage = "https://github.com/pallets/flask"

		// when / then
		assert.Equal(t, "https://github.com/pallets/flask", repositoryURL(&info, "flask"))
	})

	t.Run("should fall back to scanning the description", func(t *testing.T) {
		t.Parallel()

		// given
		var info packageInfo
		info.Info.Description = "See https://bitbucket.org/someorg/somelib for sources."

		// when / then
		assert.Equal(t, "https://bitbucket.org/someorg/somelib", repositoryURL(&info, "somelib"))
	})

	t.Run("should ignore urls for other packages", func(t *testing.T) {
		t.Parallel()

		// given
		var info packageInfo
		info.Info.HomePage = "https://github.com/pallets/jinja"

		// when / then
		assert.Empty(t, repositoryURL(&info, "flask"))
	})
}

func TestIsChangelogName(t *testing.T) {
	t.Parallel()

	t.Run("should match changelog-like file names", func(t *testing.T) {
		t.Parallel()

		assert.True(t, isChangelogName("CHANGELOG.rst"))
		assert.True(t, isChangelogName("Changes.md"))
		assert.True(t, isChangelogName("HISTORY.txt"))
		assert.False(t, isChangelogName("README.md"))
		assert.False(t, isChangelogName("LICENSE"))
	})
}
