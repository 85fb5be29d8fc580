package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"slidesmith/application/ports"
	"slidesmith/domain/deck"
	apperrors "slidesmith/pkg/errors"
)

// PopulatorService applies a generated content bundle to a presentation: it
// resolves the slide map to concrete indices once, then fills each slide's
// placeholder regions and inserts narration audio where the map asks for it.
type PopulatorService struct {
	docs      ports.DocumentService
	store     ports.ObjectStore
	artifacts ports.ArtifactStore
	logger    *zap.Logger
}

func NewPopulatorService(
	docs ports.DocumentService,
	store ports.ObjectStore,
	artifacts ports.ArtifactStore,
	logger *zap.Logger,
) *PopulatorService {
	return &PopulatorService{
		docs:      docs,
		store:     store,
		artifacts: artifacts,
		logger:    logger,
	}
}

// PopulateResult reports what a population run produced.
type PopulateResult struct {
	PresentationID string
	PreviewURL     string
	SlidesUpdated  int
	SlidesFailed   int
	AudioInserted  int
}

// Populate runs the whole mutation phase against one presentation.
//
// When copyFirst is set the source deck is duplicated and all edits land on
// the copy; the source is never modified. Layout resolution happens once, up
// front, and any layout fault, including a resolved index outside the fetched
// document, aborts the run before the first edit. Per-slide failures after
// that point are isolated: they are logged and counted, and the remaining
// slides still get their content. The one exception is a storage quota
// failure, which is persistent and would fail every remaining audio slide the
// same way, so it aborts the run.
func (s *PopulatorService) Populate(
	ctx context.Context,
	sourceID string,
	copyFirst bool,
	userInput map[string]interface{},
	bundle deck.ContentBundle,
	specs []deck.SlideSpec,
	runPrefix string,
) (*PopulateResult, error) {
	// Connectivity probe. Failing here means credentials or the document id
	// are wrong, and nothing has been touched yet.
	sourceName, err := s.docs.Name(ctx, sourceID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "fetching presentation %s", sourceID)
	}

	layout, err := deck.ResolveLayout(specs)
	if err != nil {
		return nil, err
	}
	audioSlots := deck.BindAudioSlots(specs)

	targetID := sourceID
	if copyFirst {
		targetID, err = s.docs.Duplicate(ctx, sourceID, copyName(userInput, sourceName))
		if err != nil {
			return nil, apperrors.Wrap(err, "duplicating presentation")
		}
		s.logger.Info("working on presentation copy",
			zap.String("source_id", sourceID),
			zap.String("copy_id", targetID),
		)
	}

	doc, err := s.docs.Fetch(ctx, targetID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "fetching presentation %s", targetID)
	}

	// Every resolved index must land inside the fetched document before the
	// first edit: a malformed layout cannot partially succeed.
	slides := make(map[string]*deck.Slide, len(specs))
	for _, spec := range specs {
		slide, err := doc.SlideAt(layout[spec.Label])
		if err != nil {
			return nil, apperrors.NewInvalidPositionError(spec.Label, err.Error())
		}
		slides[spec.Label] = slide
	}

	result := &PopulateResult{
		PresentationID: targetID,
		PreviewURL:     PreviewURL(targetID),
	}

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewTimeoutError("slide population").WithCause(err)
		}
		audioInserted, err := s.populateSlide(ctx, slides[spec.Label], layout[spec.Label], targetID, spec, audioSlots, bundle, runPrefix)
		if err != nil {
			if apperrors.IsStorageQuota(err) {
				return nil, err
			}
			result.SlidesFailed++
			s.logger.Error("slide population failed",
				zap.String("label", spec.Label),
				zap.Error(err),
			)
			continue
		}
		result.SlidesUpdated++
		if audioInserted {
			result.AudioInserted++
		}
	}

	s.logger.Info("population finished",
		zap.String("presentation_id", targetID),
		zap.Int("updated", result.SlidesUpdated),
		zap.Int("failed", result.SlidesFailed),
		zap.Int("audio", result.AudioInserted),
	)
	return result, nil
}

func (s *PopulatorService) populateSlide(
	ctx context.Context,
	slide *deck.Slide,
	index int,
	presentationID string,
	spec deck.SlideSpec,
	audioSlots map[string]int,
	bundle deck.ContentBundle,
	runPrefix string,
) (bool, error) {
	rec := deck.ResolveContent(spec.Source, bundle, s.logger)
	regions := slide.TextRegions()
	ops := deck.ComputeEdits(spec.FieldMap, regions, rec, s.logger)

	if len(ops) > 0 {
		if err := s.docs.ApplyEdits(ctx, presentationID, ops); err != nil {
			return false, apperrors.Wrapf(err, "applying %d edits to slide %q", len(ops), spec.Label)
		}
	}
	s.logger.Debug("slide text updated",
		zap.String("label", spec.Label),
		zap.Int("index", index),
		zap.Int("edits", len(ops)),
	)

	if !spec.AddAudio {
		return false, nil
	}
	return s.insertAudio(ctx, presentationID, slide.ID, spec.Label, audioSlots[spec.Label], runPrefix)
}

// insertAudio uploads the slide's narration file to shared storage and embeds
// it on the slide. A missing narration file skips only the audio insertion;
// the slide's text edits stand.
func (s *PopulatorService) insertAudio(ctx context.Context, presentationID, slideID, label string, sequence int, runPrefix string) (bool, error) {
	filename := deck.AudioFileName(runPrefix, label, sequence)
	path, ok := s.artifacts.AudioPath(runPrefix, filename)
	if !ok {
		s.logger.Warn("narration file missing, skipping audio insertion",
			zap.String("label", label),
			zap.String("file", filename),
		)
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, apperrors.Wrapf(err, "reading narration file %s", filename)
	}

	url, err := s.store.Upload(ctx, filename, data, "audio/mpeg")
	if err != nil {
		if apperrors.IsStorageQuota(err) {
			return false, err
		}
		return false, apperrors.Wrapf(err, "uploading narration file %s", filename)
	}

	if err := s.docs.InsertAudio(ctx, presentationID, slideID, url); err != nil {
		return false, apperrors.Wrapf(err, "inserting narration on slide %q", label)
	}
	s.logger.Info("narration inserted",
		zap.String("label", label),
		zap.String("file", filename),
	)
	return true, nil
}

// Inspect fetches a presentation and summarizes its slides without mutating
// anything. A negative index means all slides.
func (s *PopulatorService) Inspect(ctx context.Context, presentationID string, slideIndex int) ([]*deck.SlideSummary, error) {
	doc, err := s.docs.Fetch(ctx, presentationID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "fetching presentation %s", presentationID)
	}
	if slideIndex < 0 {
		return doc.InspectAll(), nil
	}
	summary, err := doc.Inspect(slideIndex)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return []*deck.SlideSummary{summary}, nil
}

// PreviewURL builds the shareable read-only link for a presentation.
func PreviewURL(presentationID string) string {
	return fmt.Sprintf("https://docs.google.com/presentation/d/%s/preview", presentationID)
}

// copyName derives the duplicate's display name from the run's title and
// company fields, falling back to the source name marked as a copy.
func copyName(userInput map[string]interface{}, sourceName string) string {
	title := stringField(userInput, "title")
	company := stringField(userInput, "company")

	if title != "" || company != "" {
		if title == "" {
			title = "Untitled"
		}
		if company == "" {
			company = "Company"
		}
		return fmt.Sprintf("7MA - %s - %s", title, company)
	}
	if sourceName != "" {
		return sourceName + " (Copy)"
	}
	return "7MA - Untitled - Company"
}

func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}
