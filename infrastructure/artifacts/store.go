// Package artifacts manages the on-disk layout of one pipeline run:
//
//	{base}/{run}/user_input.json
//	{base}/{run}/{section}.json
//	{base}/{run}/combined_output.json
//	{base}/{run}/audio_files/{name}.mp3
//
// Section writes are content-addressed: a section whose canonical JSON hashes
// to the same digest as the file already on disk is not rewritten, which
// keeps file mtimes meaningful and makes repeat runs cheap.
package artifacts

import (
	"crypto/sha256"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"slidesmith/domain/deck"
	apperrors "slidesmith/pkg/errors"
)

const (
	inputFile    = "user_input.json"
	combinedFile = "combined_output.json"
	audioDir     = "audio_files"
	anonymousRun = "anonymous"
)

// Store writes run artifacts under a fixed base directory.
type Store struct {
	base   string
	logger *zap.Logger
}

func NewStore(base string, logger *zap.Logger) *Store {
	return &Store{base: base, logger: logger}
}

// RunDir returns the directory for one run, creating nothing.
func (s *Store) RunDir(runPrefix string) string {
	if runPrefix == "" {
		runPrefix = anonymousRun
	}
	return filepath.Join(s.base, runPrefix)
}

// WriteInput persists the raw request input for the run.
func (s *Store) WriteInput(runPrefix string, raw []byte) error {
	dir := s.RunDir(runPrefix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(err, "creating run directory")
	}
	if err := os.WriteFile(filepath.Join(dir, inputFile), raw, 0o644); err != nil {
		return apperrors.Wrap(err, "writing user input")
	}
	return nil
}

// WriteSectionIfChanged writes {section}.json unless the file on disk already
// holds content with the same digest. Returns whether a write happened.
func (s *Store) WriteSectionIfChanged(runPrefix, section string, payload interface{}) (bool, error) {
	data, err := canonicalJSON(payload)
	if err != nil {
		return false, apperrors.Wrapf(err, "encoding section %q", section)
	}

	dir := s.RunDir(runPrefix)
	path := filepath.Join(dir, section+".json")

	if existing, err := os.ReadFile(path); err == nil {
		if sha256.Sum256(existing) == sha256.Sum256(data) {
			s.logger.Debug("section artifact unchanged", zap.String("path", path))
			return false, nil
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, apperrors.Wrap(err, "creating run directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, apperrors.Wrapf(err, "writing section %q", section)
	}
	return true, nil
}

// ReadSection loads a previously written section artifact. The boolean is
// false when no artifact exists for the section.
func (s *Store) ReadSection(runPrefix, section string) (interface{}, bool, error) {
	path := filepath.Join(s.RunDir(runPrefix), section+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, apperrors.Wrapf(err, "reading section %q", section)
	}
	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false, apperrors.Wrapf(err, "decoding section %q", section)
	}
	return payload, true, nil
}

// WriteCombined persists the merged bundle for the run.
func (s *Store) WriteCombined(runPrefix string, bundle deck.ContentBundle) error {
	data, err := canonicalJSON(bundle)
	if err != nil {
		return apperrors.Wrap(err, "encoding combined output")
	}
	dir := s.RunDir(runPrefix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(err, "creating run directory")
	}
	if err := os.WriteFile(filepath.Join(dir, combinedFile), data, 0o644); err != nil {
		return apperrors.Wrap(err, "writing combined output")
	}
	return nil
}

// WriteAudio stores one narration file and returns its absolute path.
func (s *Store) WriteAudio(runPrefix, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.RunDir(runPrefix), audioDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Wrap(err, "creating audio directory")
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.Wrapf(err, "writing audio file %s", filename)
	}
	return path, nil
}

// AudioPath returns the path of a narration file and whether it exists.
func (s *Store) AudioPath(runPrefix, filename string) (string, bool) {
	path := filepath.Join(s.RunDir(runPrefix), audioDir, filename)
	if _, err := os.Stat(path); err != nil {
		return path, false
	}
	return path, true
}

// canonicalJSON renders a value deterministically: encoding/json sorts map
// keys, so equal content always yields equal bytes and digests.
func canonicalJSON(payload interface{}) ([]byte, error) {
	return json.MarshalIndent(payload, "", "  ")
}
