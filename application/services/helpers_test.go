package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"slidesmith/domain/deck"
)

// stubLLM returns canned completions keyed by a substring of the prompt and
// records every prompt it saw.
type stubLLM struct {
	mu        sync.Mutex
	responses map[string]string
	fallback  string
	err       error
	prompts   []string
}

func (s *stubLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.err != nil {
		return "", s.err
	}
	for key, resp := range s.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return s.fallback, nil
}

// stubPrompts serves "<name>: <vars>" bodies so tests can assert which
// template was requested. A non-empty model is served as the raw
// ai_capability_model section and echoed into every filled prompt.
type stubPrompts struct {
	model string
}

func (s stubPrompts) Fill(name string, vars map[string]string) (string, error) {
	return name + " prompt bio=" + vars["bio"] + " model=" + vars["ai_capability_model"], nil
}

func (s stubPrompts) Raw(name string) (string, bool) {
	if name == "ai_capability_model" && s.model != "" {
		return s.model, true
	}
	return "", false
}

type stubSynth struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return []byte("mp3:" + text), nil
}

// stubDocs is an in-memory document service recording every mutation.
type stubDocs struct {
	mu         sync.Mutex
	doc        *deck.Document
	title      string
	fetchErr   error
	copyErr    error
	editErr    error
	edits      map[string][]deck.EditOp // presentation id -> flattened ops
	audio      []string                 // "slideID|url"
	duplicated []string
}

func newStubDocs(doc *deck.Document) *stubDocs {
	return &stubDocs{
		doc:   doc,
		title: doc.Title,
		edits: make(map[string][]deck.EditOp),
	}
}

func (s *stubDocs) Fetch(_ context.Context, _ string) (*deck.Document, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.doc, nil
}

func (s *stubDocs) Name(_ context.Context, _ string) (string, error) {
	if s.fetchErr != nil {
		return "", s.fetchErr
	}
	return s.title, nil
}

func (s *stubDocs) Duplicate(_ context.Context, sourceID, title string) (string, error) {
	if s.copyErr != nil {
		return "", s.copyErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duplicated = append(s.duplicated, title)
	return sourceID + "-copy", nil
}

func (s *stubDocs) ApplyEdits(_ context.Context, presentationID string, ops []deck.EditOp) error {
	if s.editErr != nil {
		return s.editErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits[presentationID] = append(s.edits[presentationID], ops...)
	return nil
}

func (s *stubDocs) InsertAudio(_ context.Context, _, slideID, audioURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, slideID+"|"+audioURL)
	return nil
}

type stubObjectStore struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (s *stubObjectStore) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return "https://storage.example.com/" + key, nil
}

type stubMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *stubMailer) Send(_ context.Context, to, _, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

func (s *stubMailer) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func testLogger() *zap.Logger { return zap.NewNop() }

// twoSlideSpecs is a minimal map: one sourced text slide and one audio slide.
func twoSlideSpecs() []deck.SlideSpec {
	return []deck.SlideSpec{
		{
			Label:    "profile",
			Position: deck.Absolute(1),
			Source:   &deck.SourceDef{Section: "fictional_profile"},
			FieldMap: map[int]string{0: "name"},
		},
		{
			Label:    "capability_create",
			Position: deck.Absolute(2),
			FieldMap: map[int]string{},
			AddAudio: true,
		},
	}
}

func twoSlideDocument() *deck.Document {
	return &deck.Document{
		ID:    "pres-1",
		Title: "Template Deck",
		Slides: []deck.Slide{
			{ID: "s0", Elements: []deck.PageElement{
				{ID: "s0-t0", Kind: deck.ElementTextBox, Text: "Name Placeholder", Top: 10, Left: 10},
			}},
			{ID: "s1", Elements: []deck.PageElement{
				{ID: "s1-t0", Kind: deck.ElementTextBox, Text: "", Top: 10, Left: 10},
			}},
		},
	}
}

func fencedJSON(v string) string {
	return fmt.Sprintf("```json\n%s\n```", v)
}
