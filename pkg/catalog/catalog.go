// Package catalog holds the read-only lookup tables consumed by the pathway
// and shard engines: guidance entries, shift strategy and scale profiles,
// protocol steps, curricula and the default shard types.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnknownGuidanceTitle is returned by Title for IDs not in the catalog.
const UnknownGuidanceTitle = "Unknown Guiding Echo"

// DefaultStrategy is the strategy whose protocol is used when a strategy has
// no protocol of its own.
const DefaultStrategy = "exploratory"

//go:embed default.yml
var defaultYAML []byte

// Catalog is the complete set of static configuration tables.
type Catalog struct {
	KernelVersion string       `yaml:"kernel_version"`
	EngineVersion string       `yaml:"engine_version"`
	Guidance      []Guidance   `yaml:"guidance"`
	Strategies    []Strategy   `yaml:"strategies"`
	Scales        []Scale      `yaml:"scales"`
	Curricula     []Curriculum `yaml:"curricula"`
	ShardTypes    []ShardType  `yaml:"shard_types"`
}

// Guidance is a named descriptor used to label and bias a pathway phase.
type Guidance struct {
	ID               string   `yaml:"id"`
	Title            string   `yaml:"title"`
	Category         string   `yaml:"category"`
	Description      string   `yaml:"description"`
	Tags             []string `yaml:"tags,omitempty"`
	CoreTraits       string   `yaml:"core_traits,omitempty"`
	CoreFocus        string   `yaml:"core_focus,omitempty"`
	InfluenceDomains string   `yaml:"influence_domains,omitempty"`
}

// Strategy describes a shift strategy and its conceptual protocol steps.
type Strategy struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Protocol    []string `yaml:"protocol,omitempty"`
}

// Scale describes a shift scale.
type Scale struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Curriculum is an ordered sequence of steps a pathway can follow.
type Curriculum struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	BasePrompt  string `yaml:"base_prompt,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is one stage of a curriculum.
type Step struct {
	Name           string `yaml:"name"`
	Instruction    string `yaml:"instruction"`
	Iterations     int    `yaml:"iterations"`
	OutputTemplate string `yaml:"output_template,omitempty"` // "##" is replaced by the iteration number
	GuidanceID     string `yaml:"guidance_id,omitempty"`      // Overrides the pathway's display guidance
}

// ShardType is a suggested shard classification.
type ShardType struct {
	Type          string `yaml:"type"`
	Description   string `yaml:"description"`
	AtomicDefault bool   `yaml:"atomic_default"`
}

// Default returns the embedded catalog. It panics if the embedded file is
// invalid, which can only happen through a build-time mistake.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// DefaultYAML returns a copy of the embedded catalog source, for writing
// out as a starting point for a custom catalog.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultYAML...)
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Validate checks ID uniqueness, step iteration counts and step guidance
// references.
func (c *Catalog) Validate() error {
	guidance := make(map[string]bool, len(c.Guidance))
	for _, g := range c.Guidance {
		if g.ID == "" {
			return fmt.Errorf("guidance entry with empty id")
		}
		if guidance[g.ID] {
			return fmt.Errorf("duplicate guidance id '%s'", g.ID)
		}
		if g.Title == "" {
			return fmt.Errorf("guidance '%s': title is required", g.ID)
		}
		guidance[g.ID] = true
	}

	if err := uniqueIDs("strategy", len(c.Strategies), func(i int) string { return c.Strategies[i].ID }); err != nil {
		return err
	}
	if err := uniqueIDs("scale", len(c.Scales), func(i int) string { return c.Scales[i].ID }); err != nil {
		return err
	}

	curricula := make(map[string]bool, len(c.Curricula))
	for _, cur := range c.Curricula {
		if cur.ID == "" {
			return fmt.Errorf("curriculum with empty id")
		}
		if curricula[cur.ID] {
			return fmt.Errorf("duplicate curriculum id '%s'", cur.ID)
		}
		curricula[cur.ID] = true
		if len(cur.Steps) == 0 {
			return fmt.Errorf("curriculum '%s': at least one step is required", cur.ID)
		}
		for i, step := range cur.Steps {
			if step.Name == "" {
				return fmt.Errorf("curriculum '%s' step %d: name is required", cur.ID, i+1)
			}
			if step.Iterations < 1 {
				return fmt.Errorf("curriculum '%s' step %d: iterations must be >= 1, got %d", cur.ID, i+1, step.Iterations)
			}
			if step.GuidanceID != "" && !guidance[step.GuidanceID] {
				return fmt.Errorf("curriculum '%s' step %d: unknown guidance id '%s'", cur.ID, i+1, step.GuidanceID)
			}
		}
	}

	return uniqueIDs("shard type", len(c.ShardTypes), func(i int) string { return c.ShardTypes[i].Type })
}

func uniqueIDs(kind string, n int, id func(int) string) error {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		v := id(i)
		if v == "" {
			return fmt.Errorf("%s with empty id", kind)
		}
		if seen[v] {
			return fmt.Errorf("duplicate %s id '%s'", kind, v)
		}
		seen[v] = true
	}
	return nil
}

// Title returns the display title of a guidance entry, or
// UnknownGuidanceTitle when id is not in the catalog.
func (c *Catalog) Title(id string) string {
	if g, ok := c.GuidanceByID(id); ok {
		return g.Title
	}
	return UnknownGuidanceTitle
}

// GuidanceByID looks up a guidance entry.
func (c *Catalog) GuidanceByID(id string) (Guidance, bool) {
	for _, g := range c.Guidance {
		if g.ID == id {
			return g, true
		}
	}
	return Guidance{}, false
}

// Curriculum looks up a curriculum definition.
func (c *Catalog) Curriculum(id string) (*Curriculum, bool) {
	for i := range c.Curricula {
		if c.Curricula[i].ID == id {
			return &c.Curricula[i], true
		}
	}
	return nil, false
}

// Strategy looks up a strategy profile.
func (c *Catalog) Strategy(id string) (Strategy, bool) {
	for _, s := range c.Strategies {
		if s.ID == id {
			return s, true
		}
	}
	return Strategy{}, false
}

// Scale looks up a scale profile.
func (c *Catalog) Scale(id string) (Scale, bool) {
	for _, s := range c.Scales {
		if s.ID == id {
			return s, true
		}
	}
	return Scale{}, false
}

// ProtocolSteps returns the protocol of the given strategy, falling back to
// the exploratory protocol. Scale does not currently change the steps.
func (c *Catalog) ProtocolSteps(strategy, _ string) []string {
	if s, ok := c.Strategy(strategy); ok && len(s.Protocol) > 0 {
		return s.Protocol
	}
	if s, ok := c.Strategy(DefaultStrategy); ok {
		return s.Protocol
	}
	return nil
}

// ShardType looks up a default shard type.
func (c *Catalog) ShardType(name string) (ShardType, bool) {
	for _, t := range c.ShardTypes {
		if t.Type == name {
			return t, true
		}
	}
	return ShardType{}, false
}
