// Package ports defines the outbound interfaces the application services
// depend on. Infrastructure packages provide the implementations; services
// accept these interfaces and stay free of client details.
package ports

import (
	"context"

	"slidesmith/domain/deck"
	"slidesmith/domain/job"
)

// ContentGenerator produces one model completion for a fully assembled prompt.
type ContentGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SpeechSynthesizer renders narration text to encoded audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// DocumentService is the presentation backend: fetch, duplicate, and mutate
// decks. ApplyEdits must apply the whole batch atomically per call.
type DocumentService interface {
	Fetch(ctx context.Context, presentationID string) (*deck.Document, error)
	Name(ctx context.Context, presentationID string) (string, error)
	Duplicate(ctx context.Context, sourceID, title string) (string, error)
	ApplyEdits(ctx context.Context, presentationID string, ops []deck.EditOp) error
	InsertAudio(ctx context.Context, presentationID, slideID, audioURL string) error
}

// ObjectStore uploads run artifacts to shared storage and returns a URL the
// document service can reach.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Mailer delivers the completion notification. Failures are reported but the
// caller treats them as non-fatal.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// JobStore tracks submitted runs and enforces the one-active-run-per-identity
// guard. Acquire returns false when the identity already holds an active run.
type JobStore interface {
	Create(j *job.Job) error
	Get(id string) (*job.Job, bool)
	Update(id string, fn func(*job.Job)) error
	Acquire(identity string) bool
	Release(identity string)
}

// PromptLibrary serves named prompt templates with placeholder substitution.
// Raw exposes a template body unfilled, for sections that are injected into
// other prompts as context rather than run themselves.
type PromptLibrary interface {
	Fill(name string, vars map[string]string) (string, error)
	Raw(name string) (string, bool)
}

// ArtifactStore persists per-run artifacts on local disk: section outputs,
// the combined bundle, the echoed input, and synthesized audio files. Every
// method scopes its paths by the run prefix; an empty prefix maps to the
// anonymous run directory.
type ArtifactStore interface {
	RunDir(runPrefix string) string
	WriteInput(runPrefix string, raw []byte) error
	ReadSection(runPrefix, section string) (interface{}, bool, error)
	WriteSectionIfChanged(runPrefix, section string, payload interface{}) (bool, error)
	WriteCombined(runPrefix string, bundle deck.ContentBundle) error
	WriteAudio(runPrefix, filename string, data []byte) (string, error)
	AudioPath(runPrefix, filename string) (string, bool)
}
