package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/pagestack/internal/motion"
	"github.com/GriffinCanCode/pagestack/internal/stack"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ErrStacks is returned for unreadable or invalid stack definitions
var ErrStacks = errors.New("invalid stack definitions")

// StacksFile is the root of a stack definition file
type StacksFile struct {
	Stacks []StackDef `yaml:"stacks" toml:"stacks"`
}

// StackDef declares one stack. Empty fields keep the engine defaults.
type StackDef struct {
	ID                string                  `yaml:"id" toml:"id"`
	Container         string                  `yaml:"container" toml:"container"`
	PagesContainer    string                  `yaml:"pages_container" toml:"pages_container"`
	LinksContainer    string                  `yaml:"links_container" toml:"links_container"`
	NavContainer      string                  `yaml:"nav_container" toml:"nav_container"`
	NavDisabled       bool                    `yaml:"nav_disabled" toml:"nav_disabled"`
	PageSelector      string                  `yaml:"page_selector" toml:"page_selector"`
	PageClass         string                  `yaml:"page_class" toml:"page_class"`
	LinkSelector      string                  `yaml:"link_selector" toml:"link_selector"`
	NavSelector       string                  `yaml:"nav_selector" toml:"nav_selector"`
	NavParentSelector string                  `yaml:"nav_parent_selector" toml:"nav_parent_selector"`
	LinkActiveClass   string                  `yaml:"link_active_class" toml:"link_active_class"`
	Roles             *RolesDef               `yaml:"roles" toml:"roles"`
	WrapNav           bool                    `yaml:"wrap_nav" toml:"wrap_nav"`
	InitialURL        string                  `yaml:"initial_url" toml:"initial_url"`
	History           *bool                   `yaml:"history" toml:"history"`
	PagesLimit        int                     `yaml:"pages_limit" toml:"pages_limit"`
	Loading           string                  `yaml:"loading" toml:"loading"`
	PageTemplate      string                  `yaml:"page_template" toml:"page_template"`
	DisableAnimation  bool                    `yaml:"disable_animation" toml:"disable_animation"`
	Animation         map[string]AnimationDef `yaml:"animation" toml:"animation"`
	Links             LinkRules               `yaml:"links" toml:"links"`
}

// RolesDef overrides link role selectors
type RolesDef struct {
	Close    string `yaml:"close" toml:"close"`
	Replace  string `yaml:"replace" toml:"replace"`
	Reverse  string `yaml:"reverse" toml:"reverse"`
	Next     string `yaml:"next" toml:"next"`
	Prev     string `yaml:"prev" toml:"prev"`
	External string `yaml:"external" toml:"external"`
}

// AnimationDef configures one transition; durations use time.ParseDuration syntax
type AnimationDef struct {
	Motion    string `yaml:"motion" toml:"motion"`
	Delay     string `yaml:"delay" toml:"delay"`
	Duration  string `yaml:"duration" toml:"duration"`
	NextDelay string `yaml:"next_delay" toml:"next_delay"`
	Easing    string `yaml:"easing" toml:"easing"`
	Queue     bool   `yaml:"queue" toml:"queue"`
	Overlap   bool   `yaml:"overlap" toml:"overlap"`
	Children  bool   `yaml:"children" toml:"children"`
}

// LinkRules restrict followed links by path glob
type LinkRules struct {
	Include []string `yaml:"include" toml:"include"`
	Exclude []string `yaml:"exclude" toml:"exclude"`
}

// LoadStacks reads stack definitions from a .yaml, .yml or .toml file, or
// from every such file below a directory
func LoadStacks(path string) ([]StackDef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStacks, err)
	}
	if info.IsDir() {
		return loadStackDir(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStacks, err)
	}
	return ParseStacks(data, filepath.Ext(path))
}

// loadStackDir merges every definition file below dir in lexical path order.
// Ids must be unique across files.
func loadStackDir(dir string) ([]StackDef, error) {
	var (
		mu    sync.Mutex
		files []string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml", ".toml":
			mu.Lock()
			files = append(files, p)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStacks, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no definition files in %s", ErrStacks, dir)
	}
	slices.Sort(files)

	var defs []StackDef
	owner := make(map[string]string)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStacks, err)
		}
		parsed, err := ParseStacks(data, filepath.Ext(file))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		for _, def := range parsed {
			if def.ID == "" {
				continue
			}
			if prev, dup := owner[def.ID]; dup {
				return nil, fmt.Errorf("%w: id %q in %s already defined in %s", ErrStacks, def.ID, file, prev)
			}
			owner[def.ID] = file
		}
		defs = append(defs, parsed...)
	}
	return defs, nil
}

// ParseStacks decodes definitions in the format named by ext and validates them
func ParseStacks(data []byte, ext string) ([]StackDef, error) {
	var file StacksFile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, &file, yaml.DisallowUnknownField()); err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", ErrStacks, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("%w: toml: %v", ErrStacks, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrStacks, ext)
	}

	if len(file.Stacks) == 0 {
		return nil, fmt.Errorf("%w: no stacks defined", ErrStacks)
	}
	seen := make(map[string]bool, len(file.Stacks))
	for i, def := range file.Stacks {
		if def.ID != "" {
			if seen[def.ID] {
				return nil, fmt.Errorf("%w: duplicate id %q", ErrStacks, def.ID)
			}
			seen[def.ID] = true
		}
		if _, err := def.Options(); err != nil {
			return nil, fmt.Errorf("%w: stack %d: %v", ErrStacks, i, err)
		}
	}
	return file.Stacks, nil
}

// Options converts the definition to validated stack options
func (d StackDef) Options() (stack.Options, error) {
	policy, err := stack.ParseLoadingPolicy(d.Loading)
	if err != nil {
		return stack.Options{}, err
	}
	anim, err := d.animation()
	if err != nil {
		return stack.Options{}, err
	}
	filter, err := d.Links.Filter()
	if err != nil {
		return stack.Options{}, err
	}

	opts := stack.Options{
		ID:                d.ID,
		Container:         d.Container,
		PagesContainer:    d.PagesContainer,
		LinksContainer:    d.LinksContainer,
		NavContainer:      d.NavContainer,
		NavDisabled:       d.NavDisabled,
		PageSelector:      d.PageSelector,
		PageClass:         d.PageClass,
		LinkSelector:      d.LinkSelector,
		NavSelector:       d.NavSelector,
		NavParentSelector: d.NavParentSelector,
		LinkActiveClass:   d.LinkActiveClass,
		WrapNav:           d.WrapNav,
		InitialURL:        d.InitialURL,
		History:           d.History == nil || *d.History,
		PagesLimit:        d.PagesLimit,
		ShowLoadingPage:   policy,
		PageTemplate:      d.PageTemplate,
		DisableAnimation:  d.DisableAnimation,
		Animation:         anim,
		URLFilter:         filter,
	}
	if d.Roles != nil {
		opts.Roles = mergeRoles(stack.DefaultRoles(), *d.Roles)
	}

	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return stack.Options{}, err
	}
	return opts, nil
}

func mergeRoles(base stack.Roles, def RolesDef) stack.Roles {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&base.Close, def.Close)
	set(&base.Replace, def.Replace)
	set(&base.Reverse, def.Reverse)
	set(&base.Next, def.Next)
	set(&base.Prev, def.Prev)
	set(&base.External, def.External)
	return base
}

var transitions = map[string]motion.Transition{
	"open":   motion.Open,
	"close":  motion.Close,
	"loaded": motion.Loaded,
}

// animation builds the motion set. Without an "all" entry the defaults
// apply to transitions not listed.
func (d StackDef) animation() (motion.Set, error) {
	if len(d.Animation) == 0 {
		return motion.Set{}, nil
	}

	set := motion.DefaultSet()
	for name, def := range d.Animation {
		cfg, err := def.config()
		if err != nil {
			return motion.Set{}, fmt.Errorf("animation %s: %w", name, err)
		}
		if name == "all" {
			set.All = cfg
			continue
		}
		t, ok := transitions[name]
		if !ok {
			return motion.Set{}, fmt.Errorf("unknown transition %q", name)
		}
		set = set.With(t, cfg)
	}
	return set, nil
}

func (a AnimationDef) config() (motion.Config, error) {
	cfg := motion.Config{
		Motion:   a.Motion,
		Easing:   a.Easing,
		Queue:    a.Queue,
		Overlap:  a.Overlap,
		Children: a.Children,
	}
	var err error
	if cfg.Delay, err = parseDuration(a.Delay); err != nil {
		return cfg, err
	}
	if cfg.Duration, err = parseDuration(a.Duration); err != nil {
		return cfg, err
	}
	if cfg.NextDelay, err = parseDuration(a.NextDelay); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Filter returns a URLFilter matching url paths against the globs, or nil
// when there are no rules. Same-document links always pass.
func (r LinkRules) Filter() (func(url string) bool, error) {
	if len(r.Include) == 0 && len(r.Exclude) == 0 {
		return nil, nil
	}
	for _, p := range append(append([]string(nil), r.Include...), r.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("bad link pattern %q", p)
		}
	}

	include := append([]string(nil), r.Include...)
	exclude := append([]string(nil), r.Exclude...)
	return func(url string) bool {
		path := stack.ParseURL(url).Path
		if path == "" {
			return true
		}
		for _, p := range exclude {
			if ok, _ := doublestar.Match(p, path); ok {
				return false
			}
		}
		if len(include) == 0 {
			return true
		}
		for _, p := range include {
			if ok, _ := doublestar.Match(p, path); ok {
				return true
			}
		}
		return false
	}, nil
}
