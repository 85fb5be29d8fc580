package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"slidesmith/application/ports"
	"slidesmith/domain/deck"
	apperrors "slidesmith/pkg/errors"
)

// capabilityModelKey names the prompt section holding shared context that is
// injected into every other prompt rather than generated.
const capabilityModelKey = "ai_capability_model"

// SectionSequence is the fixed generation order. Later sections may reference
// earlier ones in their prompts, so the order is part of the contract.
var SectionSequence = []string{
	"bio",
	"audience_description",
	"fictional_profile",
	"capability_scripts",
	"capability_use_cases",
}

// GeneratorService runs the section pipeline: one model completion per
// section, parsed into structured content and cached on disk so unchanged
// sections are not rewritten between runs.
type GeneratorService struct {
	llm       ports.ContentGenerator
	prompts   ports.PromptLibrary
	artifacts ports.ArtifactStore
	logger    *zap.Logger
}

func NewGeneratorService(
	llm ports.ContentGenerator,
	prompts ports.PromptLibrary,
	artifacts ports.ArtifactStore,
	logger *zap.Logger,
) *GeneratorService {
	return &GeneratorService{
		llm:       llm,
		prompts:   prompts,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Generate produces the full content bundle for one run. The bio section is
// taken verbatim from the user input when supplied there; every other section
// is generated from its prompt template filled with the user input and all
// previously generated sections.
//
// Sections already on disk from an earlier run are reused without calling the
// model, so a re-submission only generates what is missing. A bio failure
// aborts the run (every later section builds on it); a failure in any other
// section is logged and the section is left out of the bundle, letting the
// remaining sections and the slide population still happen.
func (s *GeneratorService) Generate(ctx context.Context, runPrefix string, userInput map[string]interface{}) (deck.ContentBundle, error) {
	bundle := make(deck.ContentBundle, len(SectionSequence))

	// The capability model is context shared by every prompt, not a section
	// of its own.
	capabilityModel, _ := s.prompts.Raw(capabilityModelKey)

	for _, section := range SectionSequence {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewTimeoutError("content generation").WithCause(err)
		}

		if section == "bio" {
			if inline, ok := userInput["bio"]; ok && inline != nil {
				bundle[section] = inline
				s.logger.Info("using inline bio from user input")
				if _, err := s.artifacts.WriteSectionIfChanged(runPrefix, section, inline); err != nil {
					return nil, err
				}
				continue
			}
		}

		if cached, ok, err := s.artifacts.ReadSection(runPrefix, section); err != nil {
			s.logger.Warn("cached section unreadable, regenerating",
				zap.String("section", section),
				zap.Error(err),
			)
		} else if ok {
			bundle[section] = cached
			s.logger.Info("reusing cached section", zap.String("section", section))
			continue
		}

		vars := promptVars(userInput, bundle)
		if capabilityModel != "" {
			vars[capabilityModelKey] = capabilityModel
		}
		prompt, err := s.prompts.Fill(section, vars)
		if err != nil {
			return nil, err
		}

		s.logger.Info("generating section", zap.String("section", section))
		raw, err := s.llm.Complete(ctx, prompt)
		if err != nil {
			if section == "bio" {
				return nil, apperrors.Wrapf(err, "generating section %q", section)
			}
			s.logger.Error("section generation failed, continuing without it",
				zap.String("section", section),
				zap.Error(err),
			)
			continue
		}

		parsed, err := parseSectionOutput(raw)
		if err != nil {
			// Completions that are not valid JSON degrade to the cleaned
			// text: a malformed section must not sink the whole run, and the
			// content resolver treats non-record values as empty.
			s.logger.Warn("section output is not structured, keeping cleaned text",
				zap.String("section", section),
				zap.Error(err),
			)
			parsed = stripCodeFence(raw)
		}
		bundle[section] = parsed

		changed, err := s.artifacts.WriteSectionIfChanged(runPrefix, section, parsed)
		if err != nil {
			return nil, err
		}
		if !changed {
			s.logger.Debug("section unchanged, artifact kept", zap.String("section", section))
		}
	}

	if err := s.artifacts.WriteCombined(runPrefix, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// promptVars flattens the user input and earlier sections into the string
// substitution map for prompt templates. Structured values are rendered as
// compact JSON so a prompt can embed a prior section wholesale.
func promptVars(userInput map[string]interface{}, bundle deck.ContentBundle) map[string]string {
	vars := make(map[string]string, len(userInput)+len(bundle))
	for key, value := range userInput {
		vars[key] = renderVar(value)
	}
	for section, value := range bundle {
		vars[section] = renderVar(value)
	}
	return vars
}

func renderVar(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// parseSectionOutput extracts structured content from a model completion.
// Completions routinely arrive wrapped in markdown code fences; those are
// stripped before JSON decoding. The error carries a snippet of what was
// received.
func parseSectionOutput(raw string) (interface{}, error) {
	cleaned := stripCodeFence(raw)

	var parsed interface{}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("completion is not valid JSON (%v): %s", err, snippet(cleaned, 200))
	}
	return parsed, nil
}

func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line (```json etc).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
