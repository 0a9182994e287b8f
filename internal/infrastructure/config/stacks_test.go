package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GriffinCanCode/pagestack/internal/motion"
	"github.com/GriffinCanCode/pagestack/internal/stack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stacksYAML = `
stacks:
  - id: docs
    container: "#docs"
    nav_parent_selector: li
    pages_limit: 3
    loading: placeholder
    wrap_nav: true
    roles:
      close: .dismiss
    animation:
      open:
        motion: fade
        duration: 150ms
        overlap: true
    links:
      include: ["/docs/**"]
      exclude: ["/docs/private/**"]
  - container: "#slides"
    history: false
    disable_animation: true
`

const stacksTOML = `
[[stacks]]
id = "docs"
container = "#docs"
nav_parent_selector = "li"
pages_limit = 3
loading = "placeholder"
wrap_nav = true

[stacks.roles]
close = ".dismiss"

[stacks.animation.open]
motion = "fade"
duration = "150ms"
overlap = true

[stacks.links]
include = ["/docs/**"]
exclude = ["/docs/private/**"]

[[stacks]]
container = "#slides"
history = false
disable_animation = true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStacksFormats(t *testing.T) {
	files := map[string]string{
		"stacks.yaml": stacksYAML,
		"stacks.yml":  stacksYAML,
		"stacks.toml": stacksTOML,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			defs, err := LoadStacks(writeFile(t, name, content))
			require.NoError(t, err)
			require.Len(t, defs, 2)

			docs, err := defs[0].Options()
			require.NoError(t, err)
			assert.Equal(t, "docs", docs.ID)
			assert.Equal(t, "#docs", docs.Container)
			assert.Equal(t, "li", docs.NavParentSelector)
			assert.Equal(t, 3, docs.PagesLimit)
			assert.Equal(t, stack.LoadingPlaceholder, docs.ShowLoadingPage)
			assert.True(t, docs.WrapNav)
			assert.True(t, docs.History)
			assert.Equal(t, ".dismiss", docs.Roles.Close)
			assert.Equal(t, ".ps-next", docs.Roles.Next, "unset roles keep defaults")
			assert.Equal(t, motion.Config{Motion: "fade", Duration: 150 * time.Millisecond, Overlap: true},
				docs.Animation.For(motion.Open))
			assert.Equal(t, "slide", docs.Animation.For(motion.Close).Motion)

			require.NotNil(t, docs.URLFilter)
			assert.True(t, docs.URLFilter("/docs/intro?x=1"))
			assert.False(t, docs.URLFilter("/docs/private/keys"))
			assert.False(t, docs.URLFilter("/blog/post"))
			assert.True(t, docs.URLFilter("#local"))

			slides, err := defs[1].Options()
			require.NoError(t, err)
			assert.Empty(t, slides.ID)
			assert.False(t, slides.History)
			assert.True(t, slides.DisableAnimation)
			assert.Nil(t, slides.URLFilter)
			assert.Equal(t, ".ps-page", slides.PageSelector)
		})
	}
}

func TestParseStacksErrors(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"unknown format", ".json", `{"stacks": []}`},
		{"empty", ".yaml", "stacks: []"},
		{"broken yaml", ".yaml", "stacks: [\n"},
		{"unknown toml field", ".toml", "[[stacks]]\ncontainer = \"#a\"\ncolour = \"red\"\n"},
		{"duplicate id", ".yaml", "stacks:\n  - id: a\n  - id: a\n"},
		{"bad selector", ".yaml", "stacks:\n  - container: \"[[\"\n"},
		{"bad loading", ".yaml", "stacks:\n  - loading: sometimes\n"},
		{"bad duration", ".yaml", "stacks:\n  - animation:\n      open:\n        duration: soon\n"},
		{"negative duration", ".yaml", "stacks:\n  - animation:\n      all:\n        duration: -1s\n"},
		{"unknown transition", ".yaml", "stacks:\n  - animation:\n      wiggle:\n        motion: fade\n"},
		{"bad glob", ".yaml", "stacks:\n  - links:\n      include: [\"/docs/[\"]\n"},
		{"bad template", ".yaml", "stacks:\n  - page_template: text\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStacks([]byte(tt.data), tt.ext)
			assert.ErrorIs(t, err, ErrStacks)
		})
	}
}

func TestLoadStacksMissingFile(t *testing.T) {
	_, err := LoadStacks(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrStacks)
}

func TestAnimationAllReplacesDefault(t *testing.T) {
	def := StackDef{Animation: map[string]AnimationDef{
		"all": {Motion: "fade", Duration: "1s"},
	}}
	opts, err := def.Options()
	require.NoError(t, err)

	assert.Equal(t, "fade", opts.Animation.For(motion.Open).Motion)
	assert.Equal(t, time.Second, opts.Animation.For(motion.Close).Duration)
	assert.Equal(t, "fade", opts.Animation.For(motion.Loaded).Motion, "loaded keeps its default entry")
	assert.Equal(t, 200*time.Millisecond, opts.Animation.For(motion.Loaded).Duration)
}

func TestLinkRulesWithoutPatterns(t *testing.T) {
	filter, err := LinkRules{}.Filter()
	require.NoError(t, err)
	assert.Nil(t, filter)

	filter, err = LinkRules{Exclude: []string{"/**/*.pdf"}}.Filter()
	require.NoError(t, err)
	assert.False(t, filter("/files/report.pdf"))
	assert.True(t, filter("/files/report.html"))
}

func TestLoadStacksDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("stacks:\n  - id: main\n    container: \"#app\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.toml"), []byte("[[stacks]]\nid = \"side\"\ncontainer = \"#side\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# stacks"), 0o644))

	defs, err := LoadStacks(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "main", defs[0].ID)
	assert.Equal(t, "side", defs[1].ID)
}

func TestLoadStacksDirectoryErrors(t *testing.T) {
	_, err := LoadStacks(t.TempDir())
	assert.ErrorIs(t, err, ErrStacks, "empty directory")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("stacks:\n  - id: main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("stacks:\n  - id: main\n"), 0o644))
	_, err = LoadStacks(dir)
	assert.ErrorIs(t, err, ErrStacks)
	assert.ErrorContains(t, err, "already defined")
}
