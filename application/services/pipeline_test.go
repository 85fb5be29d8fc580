package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainjob "slidesmith/domain/job"
	"slidesmith/infrastructure/artifacts"
	"slidesmith/infrastructure/jobs"
	apperrors "slidesmith/pkg/errors"
)

type pipelineFixture struct {
	svc    *PipelineService
	llm    *stubLLM
	docs   *stubDocs
	mailer *stubMailer
	store  *jobs.MemoryStore
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	llm := &stubLLM{fallback: `{"name": "Jericca"}`}
	docs := newStubDocs(twoSlideDocument())
	mailer := &stubMailer{}
	store := jobs.NewMemoryStore()
	artifactStore := artifacts.NewStore(t.TempDir(), testLogger())

	generator := NewGeneratorService(llm, stubPrompts{}, artifactStore, testLogger())
	narration := NewNarrationService(&stubSynth{}, artifactStore, 2, testLogger())
	populator := NewPopulatorService(docs, &stubObjectStore{}, artifactStore, testLogger())

	svc := NewPipelineService(
		generator, narration, populator,
		store, artifactStore, mailer,
		twoSlideSpecs(),
		DeliveryEmail, time.Minute, testLogger(),
	)
	return &pipelineFixture{svc: svc, llm: llm, docs: docs, mailer: mailer, store: store}
}

func awaitTerminal(t *testing.T, svc *PipelineService, jobID string) *domainjob.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := svc.Status(jobID)
		require.NoError(t, err)
		if j.Terminal() {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func submitReq() *PopulateRequest {
	return &PopulateRequest{
		PresentationID: "pres-1",
		Email:          "user@example.com",
		UserInput:      map[string]interface{}{"company": "Acme", "name": "Acme Folder"},
	}
}

func TestPipelineSubmit(t *testing.T) {
	t.Run("successful run completes with preview link and email", func(t *testing.T) {
		f := newPipelineFixture(t)

		j, err := f.svc.Submit(context.Background(), submitReq())
		require.NoError(t, err)
		assert.Equal(t, domainjob.StatusProcessing, j.Status)

		done := awaitTerminal(t, f.svc, j.ID)
		assert.Equal(t, domainjob.StatusCompleted, done.Status)
		assert.Equal(t, "https://docs.google.com/presentation/d/pres-1/preview", done.ResultLink)

		// Delivery happens after the status flip, so poll for it.
		assert.Eventually(t, func() bool {
			sent := f.mailer.sentTo()
			return len(sent) == 1 && sent[0] == "user@example.com"
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("duplicate submission for same identity conflicts", func(t *testing.T) {
		f := newPipelineFixture(t)
		// Hold the guard as if a run were in flight.
		require.True(t, f.store.Acquire("user@example.com"))

		_, err := f.svc.Submit(context.Background(), submitReq())
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("identity is released after the run", func(t *testing.T) {
		f := newPipelineFixture(t)

		j, err := f.svc.Submit(context.Background(), submitReq())
		require.NoError(t, err)
		awaitTerminal(t, f.svc, j.ID)

		// The guard is released just after the status flip; a resubmission
		// for the same identity is accepted once it is.
		var j2ID string
		require.Eventually(t, func() bool {
			j2, err := f.svc.Submit(context.Background(), submitReq())
			if err != nil {
				return false
			}
			j2ID = j2.ID
			return true
		}, 2*time.Second, 10*time.Millisecond)
		awaitTerminal(t, f.svc, j2ID)
	})

	t.Run("generation failure marks the job errored", func(t *testing.T) {
		f := newPipelineFixture(t)
		f.llm.err = errors.New("model down")

		j, err := f.svc.Submit(context.Background(), submitReq())
		require.NoError(t, err)

		done := awaitTerminal(t, f.svc, j.ID)
		assert.Equal(t, domainjob.StatusError, done.Status)
		assert.Contains(t, done.Error, "model down")
		assert.Empty(t, f.mailer.sentTo())
	})

	t.Run("email failure does not fail the job", func(t *testing.T) {
		f := newPipelineFixture(t)
		f.mailer.err = errors.New("smtp down")

		j, err := f.svc.Submit(context.Background(), submitReq())
		require.NoError(t, err)

		done := awaitTerminal(t, f.svc, j.ID)
		assert.Equal(t, domainjob.StatusCompleted, done.Status)
		assert.NotEmpty(t, done.ResultLink)
	})

	t.Run("empty user input is rejected", func(t *testing.T) {
		f := newPipelineFixture(t)

		_, err := f.svc.Submit(context.Background(), &PopulateRequest{
			PresentationID: "pres-1",
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("unknown job status is not found", func(t *testing.T) {
		f := newPipelineFixture(t)
		_, err := f.svc.Status("nope")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "user@example.com",
		(&PopulateRequest{Email: " User@Example.com "}).Identity())
	assert.Equal(t, "pres-1",
		(&PopulateRequest{PresentationID: "pres-1"}).Identity())
}

func TestRunPrefix(t *testing.T) {
	assert.Equal(t, "acme_folder", RunPrefix(map[string]interface{}{"name": "Acme Folder"}))
	assert.Equal(t, "client_a", RunPrefix(map[string]interface{}{
		"folder_path": "Client A",
		"name":        "ignored",
	}))
	assert.Equal(t, "", RunPrefix(nil))
}
