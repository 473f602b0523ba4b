package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bumper/domain"
)

func TestParseRequirement(t *testing.T) {
	t.Parallel()

	t.Run("should parse a bare name as unconstrained", func(t *testing.T) {
		t.Parallel()

		// when
		req, err := domain.ParseRequirement("localconfig")

		// then
		require.NoError(t, err)
		assert.Equal(t, "localconfig", req.Name)
		assert.Empty(t, req.Specs)
		assert.Equal(t, "localconfig", req.String())
	})

	t.Run("should parse an exact pin", func(t *testing.T) {
		t.Parallel()

		// when
		req, err := domain.ParseRequirement("requests==1.2.3")

		// then
		require.NoError(t, err)
		assert.Equal(t, "requests", req.Name)
		require.Len(t, req.Specs, 1)
		assert.Equal(t, domain.Spec{Op: "==", Version: "1.2.3"}, req.Specs[0])

		version, pinned := req.Pinned()
		assert.True(t, pinned)
		assert.Equal(t, "1.2.3", version)
	})

	t.Run("should parse multiple specs preserving order", func(t *testing.T) {
		t.Parallel()

		// when
		req, err := domain.ParseRequirement("remoteconfig>0.2,<0.2.5")

		// then
		require.NoError(t, err)
		require.Len(t, req.Specs, 2)
		assert.Equal(t, domain.Spec{Op: ">", Version: "0.2"}, req.Specs[0])
		assert.Equal(t, domain.Spec{Op: "<", Version: "0.2.5"}, req.Specs[1])
		assert.Equal(t, "remoteconfig>0.2,<0.2.5", req.String())
	})

	t.Run("should tolerate spaces around specifiers", func(t *testing.T) {
		t.Parallel()

		// when
		req, err := domain.ParseRequirement("flask >= 1.0, != 1.1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "flask>=1.0,!=1.1", req.String())
	})

	t.Run("should reject non-requirement lines", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			line string
		}{
			{name: "editable install", line: "-r requirements/prod.txt"},
			{name: "git URL", line: "git+https://github.com/someversion@blah@blah=blah"},
			{name: "plain URL", line: "http://github.com/someversion@blah@blah=blah"},
			{name: "empty", line: ""},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				// when
				_, err := domain.ParseRequirement(tt.line)

				// then
				assert.Error(t, err)
			})
		}
	})
}

func TestRequirementContains(t *testing.T) {
	t.Parallel()

	t.Run("should contain a version satisfying every spec", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			req      string
			version  string
			expected bool
		}{
			{name: "within range", req: "remoteconfig>0.2,<0.2.5", version: "0.2.4", expected: true},
			{name: "below range", req: "remoteconfig>0.2,<0.2.5", version: "0.1", expected: false},
			{name: "above range", req: "remoteconfig>0.2,<0.2.5", version: "0.2.5", expected: false},
			{name: "exact pin match", req: "requests==1.2.3", version: "1.2.3", expected: true},
			{name: "exact pin mismatch", req: "requests==1.2.3", version: "1.2.4", expected: false},
			{name: "not equal", req: "requests!=1.2.3", version: "1.2.4", expected: true},
			{name: "at least", req: "clicast>=0.2", version: "0.2", expected: true},
			{name: "at most", req: "clicast<=0.2", version: "0.2.1", expected: false},
			{name: "unconstrained contains anything", req: "localconfig", version: "99.9", expected: true},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				// given
				req, err := domain.ParseRequirement(tt.req)
				require.NoError(t, err)

				// when / then
				assert.Equal(t, tt.expected, req.Contains(tt.version))
			})
		}
	})
}

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	t.Run("should order versions numerically", func(t *testing.T) {
		t.Parallel()

		assert.Negative(t, domain.CompareVersions("0.9", "0.10"))
		assert.Positive(t, domain.CompareVersions("1.0.1", "1.0.0"))
		assert.Zero(t, domain.CompareVersions("1.0", "1.0.0"))
	})

	t.Run("should sort versions descending", func(t *testing.T) {
		t.Parallel()

		// given
		versions := []string{"0.2", "0.10", "0.2.4", "1.0"}

		// when
		domain.SortVersionsDescending(versions)

		// then
		assert.Equal(t, []string{"1.0", "0.10", "0.2.4", "0.2"}, versions)
	})
}

func TestRequirementEqual(t *testing.T) {
	t.Parallel()

	t.Run("should equal a structurally identical requirement", func(t *testing.T) {
		t.Parallel()

		// given
		a, err := domain.ParseRequirement("requests==1.2.3")
		require.NoError(t, err)
		b, err := domain.ParseRequirement("requests == 1.2.3")
		require.NoError(t, err)

		// then
		assert.True(t, a.Equal(b))
	})

	t.Run("should differ when spec order differs", func(t *testing.T) {
		t.Parallel()

		// given
		a, err := domain.ParseRequirement("remoteconfig>0.2,<0.2.5")
		require.NoError(t, err)
		b, err := domain.ParseRequirement("remoteconfig<0.2.5,>0.2")
		require.NoError(t, err)

		// then
		assert.False(t, a.Equal(b))
	})
}
