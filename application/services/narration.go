package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"slidesmith/application/ports"
	"slidesmith/domain/deck"
)

// NarrationService turns capability scripts into narration audio files on
// disk, one MP3 per script, synthesized concurrently through a bounded pool.
// Files that already exist for the run are skipped so re-runs only pay for
// what changed.
type NarrationService struct {
	synth      ports.SpeechSynthesizer
	artifacts  ports.ArtifactStore
	maxWorkers int
	logger     *zap.Logger
}

func NewNarrationService(
	synth ports.SpeechSynthesizer,
	artifacts ports.ArtifactStore,
	maxWorkers int,
	logger *zap.Logger,
) *NarrationService {
	if maxWorkers < 1 {
		maxWorkers = 4
	}
	return &NarrationService{
		synth:      synth,
		artifacts:  artifacts,
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// NarrationResult reports one script's outcome.
type NarrationResult struct {
	Sequence int
	Filename string
	Skipped  bool
	Err      error
}

// Synthesize renders every capability script in the bundle. Scripts are
// numbered from 1 in list order; the filename for each is keyed to the slide
// that will consume that sequence, so population finds its files by
// construction. A script without a consuming slide falls back to the script's
// own capability name. Individual failures are recorded and do not stop the
// rest of the batch; population degrades per slide for any file missing here.
func (s *NarrationService) Synthesize(
	ctx context.Context,
	bundle deck.ContentBundle,
	specs []deck.SlideSpec,
	runPrefix string,
) []NarrationResult {
	scripts, _ := bundle["capability_scripts"].([]interface{})
	if len(scripts) == 0 {
		s.logger.Info("no capability scripts, skipping narration")
		return nil
	}

	labelForSeq := make(map[int]string)
	for label, seq := range deck.BindAudioSlots(specs) {
		labelForSeq[seq] = label
	}

	results := make([]NarrationResult, 0, len(scripts))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)

	for i, raw := range scripts {
		seq := i + 1
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		text := deck.Record(item).Field("script")
		if text == "" {
			mu.Lock()
			results = append(results, NarrationResult{Sequence: seq, Skipped: true})
			mu.Unlock()
			continue
		}

		filename := s.filenameFor(seq, labelForSeq, item, runPrefix)
		if _, exists := s.artifacts.AudioPath(runPrefix, filename); exists {
			s.logger.Debug("narration file exists, skipping", zap.String("file", filename))
			mu.Lock()
			results = append(results, NarrationResult{Sequence: seq, Filename: filename, Skipped: true})
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			res := NarrationResult{Sequence: seq, Filename: filename}
			data, err := s.synth.Synthesize(ctx, text)
			if err == nil {
				_, err = s.artifacts.WriteAudio(runPrefix, filename, data)
			}
			if err != nil {
				res.Err = err
				s.logger.Error("narration synthesis failed",
					zap.String("file", filename),
					zap.Error(err),
				)
			} else {
				s.logger.Info("narration saved", zap.String("file", filename))
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only drains the pool.
	_ = g.Wait()
	return results
}

func (s *NarrationService) filenameFor(seq int, labelForSeq map[int]string, item map[string]interface{}, runPrefix string) string {
	if label, ok := labelForSeq[seq]; ok {
		return deck.AudioFileName(runPrefix, label, seq)
	}
	capability := deck.Record(item).Field("capability")
	label := firstWord(capability)
	if label == "" {
		label = fmt.Sprintf("item%d", seq)
	}
	return deck.AudioFileName(runPrefix, label, seq)
}

// firstWord lowers the value and returns its leading alphanumeric run.
func firstWord(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	start := -1
	for i, r := range lowered {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum && start < 0 {
			start = i
		}
		if !alnum && start >= 0 {
			return lowered[start:i]
		}
	}
	if start >= 0 {
		return lowered[start:]
	}
	return ""
}
