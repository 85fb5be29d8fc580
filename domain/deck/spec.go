// Package deck implements the template-population engine: it resolves a
// declarative slide map against a fetched presentation and computes the
// minimal set of mutations needed to fill it with generated content.
package deck

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "slidesmith/pkg/errors"
)

// Position locates a slide either absolutely (1-based in authoring input)
// or relative to a previously declared label.
type Position interface {
	isPosition()
}

// Absolute is a 1-based slide number as authored in the slide map.
type Absolute int

func (Absolute) isPosition() {}

// RelativeTo places a slide at the resolved index of Base plus Offset.
// Base must be declared earlier in the slide map; forward references are
// an authoring error, not a runtime retry.
type RelativeTo struct {
	Base   string
	Offset int
}

func (RelativeTo) isPosition() {}

// SourceDef names where a slide's content record comes from. A nil *SourceDef
// means the slide keeps its hard-coded text. Exactly one of Section or
// Collection is set: Section selects a single record from the bundle by name;
// Collection scans a list in the bundle for the first record matching every
// Match entry.
type SourceDef struct {
	Section    string
	Collection string
	Match      map[string]string
}

// SlideSpec is the declarative description of one template slide: where it
// sits, which content record fills it, and how record fields map onto the
// slide's visually ordered placeholder regions.
type SlideSpec struct {
	Label    string
	Position Position
	Source   *SourceDef
	FieldMap map[int]string
	AddAudio bool
}

// DefaultSlideMap returns the built-in capability-deck layout: a profile
// slide followed by alternating capability/scenario pairs spaced two slides
// apart. Operators can override it with a YAML file via LoadSlideMap.
func DefaultSlideMap() []SlideSpec {
	capability := func(label, base string) SlideSpec {
		return SlideSpec{
			Label:    label,
			Position: RelativeTo{Base: base, Offset: 2},
			FieldMap: map[int]string{1: "name", 2: "audio"},
			AddAudio: true,
		}
	}
	scenario := func(label, base, match string) SlideSpec {
		return SlideSpec{
			Label:    label,
			Position: RelativeTo{Base: base, Offset: 2},
			Source:   &SourceDef{Collection: "capability_use_cases", Match: map[string]string{"capability": match}},
			FieldMap: map[int]string{0: "scenario", 1: "solution", 2: "name"},
		}
	}

	return []SlideSpec{
		{
			Label:    "fictional_profile",
			Position: Absolute(3),
			Source:   &SourceDef{Section: "fictional_profile"},
			FieldMap: map[int]string{0: "narrative", 1: "name", 2: "role"},
		},
		{
			Label:    "capability_inform",
			Position: Absolute(5),
			FieldMap: map[int]string{1: "name", 2: "audio"},
		},
		{
			Label:    "capability_scenario_inform",
			Position: Absolute(6),
			Source:   &SourceDef{Collection: "capability_use_cases", Match: map[string]string{"capability": "Inform"}},
			FieldMap: map[int]string{0: "name", 1: "scenario", 2: "solution"},
		},
		capability("capability_create", "capability_inform"),
		scenario("capability_scenario_create", "capability_scenario_inform", "Create & Edit"),
		capability("capability_organize", "capability_create"),
		scenario("capability_scenario_organize", "capability_scenario_create", "Organize"),
		capability("capability_transform", "capability_organize"),
		scenario("capability_scenario_transform", "capability_scenario_organize", "Transform"),
		capability("capability_analyze", "capability_transform"),
		scenario("capability_scenario_analyze", "capability_scenario_transform", "Analyze"),
		capability("capability_personify", "capability_analyze"),
		scenario("capability_scenario_personify", "capability_scenario_analyze", "Personify or Simulate"),
		capability("capability_explore", "capability_personify"),
		{
			Label:    "capability_scenario_explore",
			Position: RelativeTo{Base: "capability_scenario_personify", Offset: 2},
			Source:   &SourceDef{Collection: "capability_use_cases", Match: map[string]string{"capability": "Explore & Guide"}},
			FieldMap: map[int]string{0: "name", 1: "scenario", 2: "solution"},
		},
	}
}

// yamlSlideSpec mirrors the authoring format. Positions are either an integer
// (absolute, 1-based) or a "base_label + N" string.
type yamlSlideSpec struct {
	Label    string          `yaml:"label"`
	Position yaml.Node       `yaml:"position"`
	Source   *yamlSourceDef  `yaml:"source"`
	FieldMap map[int]string  `yaml:"field_map"`
	AddAudio bool            `yaml:"add_audio"`
}

type yamlSourceDef struct {
	Section    string            `yaml:"section"`
	Collection string            `yaml:"collection"`
	Match      map[string]string `yaml:"match"`
}

// LoadSlideMap reads a slide map override from a YAML file.
func LoadSlideMap(path string) ([]SlideSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read slide map %s: %w", path, err)
	}

	var entries []yamlSlideSpec
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse slide map %s: %w", path, err)
	}

	specs := make([]SlideSpec, 0, len(entries))
	for _, entry := range entries {
		if entry.Label == "" {
			return nil, apperrors.NewValidationError("slide map entry missing label")
		}
		pos, err := parsePosition(entry.Label, &entry.Position)
		if err != nil {
			return nil, err
		}
		spec := SlideSpec{
			Label:    entry.Label,
			Position: pos,
			FieldMap: entry.FieldMap,
			AddAudio: entry.AddAudio,
		}
		if entry.Source != nil {
			spec.Source = &SourceDef{
				Section:    entry.Source.Section,
				Collection: entry.Source.Collection,
				Match:      entry.Source.Match,
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// parsePosition accepts an integer node or a "base + offset" scalar.
func parsePosition(label string, node *yaml.Node) (Position, error) {
	if node == nil || node.Kind == 0 {
		return nil, apperrors.NewInvalidPositionError(label, "position missing")
	}

	var abs int
	if err := node.Decode(&abs); err == nil {
		if abs < 1 {
			return nil, apperrors.NewInvalidPositionError(label, fmt.Sprintf("absolute position %d must be >= 1", abs))
		}
		return Absolute(abs), nil
	}

	var expr string
	if err := node.Decode(&expr); err != nil {
		return nil, apperrors.NewInvalidPositionError(label, "position must be an integer or 'base + offset'")
	}
	return ParseRelative(label, expr)
}

// ParseRelative parses a "base_label + N" position expression.
func ParseRelative(label, expr string) (Position, error) {
	base, offset, found := strings.Cut(expr, "+")
	if !found {
		return nil, apperrors.NewInvalidPositionError(label, fmt.Sprintf("%q is not a 'base + offset' expression", expr))
	}
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, apperrors.NewInvalidPositionError(label, "empty base label")
	}
	n, err := strconv.Atoi(strings.TrimSpace(offset))
	if err != nil {
		return nil, apperrors.NewInvalidPositionError(label, fmt.Sprintf("offset %q is not an integer", strings.TrimSpace(offset)))
	}
	return RelativeTo{Base: base, Offset: n}, nil
}
