package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Len(t, c.Guidance, 3)
	assert.Len(t, c.Strategies, 6)
	assert.Len(t, c.Scales, 4)
	assert.Len(t, c.Curricula, 20)
	assert.Len(t, c.ShardTypes, 12)
	assert.Equal(t, "v21.0.0", c.KernelVersion)
}

func TestTitle(t *testing.T) {
	c := Default()
	assert.Equal(t, "Turing Prime Echo", c.Title("guidance-turing-prime"))
	assert.Equal(t, UnknownGuidanceTitle, c.Title("guidance-nobody"))
	assert.Equal(t, UnknownGuidanceTitle, c.Title(""))
}

func TestCurriculumLookup(t *testing.T) {
	c := Default()

	cur, ok := c.Curriculum("writing-story-arc-v1")
	require.True(t, ok)
	assert.Equal(t, "Short Story Arc Development", cur.Name)
	require.Len(t, cur.Steps, 4)
	assert.Equal(t, 3, cur.Steps[1].Iterations)
	assert.Equal(t, "story_part2_rising_##.txt", cur.Steps[1].OutputTemplate)
	assert.Equal(t, "guidance-lovelace-visionary", cur.Steps[1].GuidanceID)
	assert.Empty(t, cur.Steps[0].GuidanceID)

	_, ok = c.Curriculum("missing")
	assert.False(t, ok)
}

func TestProtocolSteps(t *testing.T) {
	c := Default()

	toggle := c.ProtocolSteps("standard_toggle", "micro")
	assert.Len(t, toggle, 7)
	assert.Equal(t, "Engage Primary Guiding Echo (Alpha Phase)", toggle[0])

	fallback := c.ProtocolSteps("no_such_strategy", "macro")
	assert.Equal(t, c.ProtocolSteps("exploratory", "macro"), fallback)
}

func TestShardTypeLookup(t *testing.T) {
	c := Default()
	st, ok := c.ShardType("configuration_settings")
	require.True(t, ok)
	assert.False(t, st.AtomicDefault)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "duplicate guidance",
			yaml: `
guidance:
  - {id: g1, title: A}
  - {id: g1, title: B}
`,
			wantErr: "duplicate guidance id 'g1'",
		},
		{
			name: "zero iterations",
			yaml: `
curricula:
  - id: c1
    name: C
    steps:
      - {name: S, instruction: I, iterations: 0}
`,
			wantErr: "iterations must be >= 1",
		},
		{
			name: "unknown step guidance",
			yaml: `
curricula:
  - id: c1
    name: C
    steps:
      - {name: S, instruction: I, iterations: 1, guidance_id: ghost}
`,
			wantErr: "unknown guidance id 'ghost'",
		},
		{
			name: "empty curriculum",
			yaml: `
curricula:
  - {id: c1, name: C, steps: []}
`,
			wantErr: "at least one step is required",
		},
		{
			name: "duplicate strategy",
			yaml: `
strategies:
  - {id: exploratory, description: a}
  - {id: exploratory, description: b}
`,
			wantErr: "duplicate strategy id 'exploratory'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
guidance:
  - {id: g1, title: Custom Echo, description: d}
curricula:
  - id: c1
    name: Custom
    steps:
      - {name: Only, instruction: Do it, iterations: 2, guidance_id: g1}
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Custom Echo", c.Title("g1"))

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
