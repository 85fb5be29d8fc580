package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slidesmith/application/ports"
	"slidesmith/domain/deck"
	"slidesmith/domain/job"
	apperrors "slidesmith/pkg/errors"
)

// DeliveryMode selects how a finished run reaches the requester.
type DeliveryMode string

const (
	DeliveryEmail DeliveryMode = "email"
	DeliveryApp   DeliveryMode = "app"
	DeliveryBoth  DeliveryMode = "both"
)

// PopulateRequest is one submission: which deck to fill, the raw user input
// that seeds content generation, and how to deliver the result.
type PopulateRequest struct {
	PresentationID        string                 `json:"presentation_id" validate:"required"`
	Email                 string                 `json:"email,omitempty" validate:"omitempty,email"`
	CreateNewPresentation bool                   `json:"create_new_presentation,omitempty"`
	UserInput             map[string]interface{} `json:"user_input" validate:"required"`
}

// Identity returns the key the duplicate-submission guard locks on: the email
// when present, otherwise the target presentation.
func (r *PopulateRequest) Identity() string {
	if r.Email != "" {
		return strings.ToLower(strings.TrimSpace(r.Email))
	}
	return r.PresentationID
}

// PipelineService is the orchestrator: it accepts submissions, runs the
// generate, narrate, populate sequence in the background, and tracks job
// state for polling.
type PipelineService struct {
	generator *GeneratorService
	narration *NarrationService
	populator *PopulatorService
	jobs      ports.JobStore
	artifacts ports.ArtifactStore
	mailer    ports.Mailer
	specs     []deck.SlideSpec

	delivery   DeliveryMode
	runTimeout time.Duration
	logger     *zap.Logger
}

func NewPipelineService(
	generator *GeneratorService,
	narration *NarrationService,
	populator *PopulatorService,
	jobs ports.JobStore,
	artifacts ports.ArtifactStore,
	mailer ports.Mailer,
	specs []deck.SlideSpec,
	delivery DeliveryMode,
	runTimeout time.Duration,
	logger *zap.Logger,
) *PipelineService {
	if runTimeout <= 0 {
		runTimeout = 15 * time.Minute
	}
	return &PipelineService{
		generator:  generator,
		narration:  narration,
		populator:  populator,
		jobs:       jobs,
		artifacts:  artifacts,
		mailer:     mailer,
		specs:      specs,
		delivery:   delivery,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Submit validates the request, enforces one active run per identity, and
// starts the pipeline in the background. The returned job is immediately
// pollable.
func (s *PipelineService) Submit(ctx context.Context, req *PopulateRequest) (*job.Job, error) {
	if len(req.UserInput) == 0 {
		return nil, apperrors.NewValidationError("user_input must not be empty")
	}

	identity := req.Identity()
	if !s.jobs.Acquire(identity) {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("a run is already in progress for %s", identity))
	}

	j := job.NewJob(uuid.New().String(), identity)
	if err := s.jobs.Create(j); err != nil {
		s.jobs.Release(identity)
		return nil, err
	}

	s.logger.Info("run submitted",
		zap.String("job_id", j.ID),
		zap.String("presentation_id", req.PresentationID),
	)

	go s.run(j.ID, identity, req)
	return j, nil
}

// Status returns the job for polling, or a not-found error for unknown ids.
func (s *PipelineService) Status(id string) (*job.Job, error) {
	j, ok := s.jobs.Get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("job %s", id))
	}
	return j, nil
}

// run executes the whole pipeline for one job. It owns its own context: the
// submitting request is long gone by the time this finishes.
func (s *PipelineService) run(jobID, identity string, req *PopulateRequest) {
	defer s.jobs.Release(identity)

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	logger := s.logger.With(zap.String("job_id", jobID))
	started := time.Now()

	if err := s.execute(ctx, jobID, req, logger); err != nil {
		logger.Error("run failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		s.fail(jobID, err)
		return
	}

	logger.Info("run completed", zap.Duration("elapsed", time.Since(started)))
}

func (s *PipelineService) execute(ctx context.Context, jobID string, req *PopulateRequest, logger *zap.Logger) error {
	runPrefix := RunPrefix(req.UserInput)

	if raw, err := json.MarshalIndent(req.UserInput, "", "  "); err == nil {
		if werr := s.artifacts.WriteInput(runPrefix, raw); werr != nil {
			logger.Warn("could not persist user input", zap.Error(werr))
		}
	}

	bundle, err := s.generator.Generate(ctx, runPrefix, req.UserInput)
	if err != nil {
		return err
	}

	s.narration.Synthesize(ctx, bundle, s.specs, runPrefix)

	result, err := s.populator.Populate(
		ctx,
		req.PresentationID,
		req.CreateNewPresentation,
		req.UserInput,
		bundle,
		s.specs,
		runPrefix,
	)
	if err != nil {
		return err
	}

	if err := s.jobs.Update(jobID, func(j *job.Job) {
		j.Complete(result.PreviewURL)
	}); err != nil {
		return err
	}

	s.deliver(ctx, req.Email, result.PreviewURL, logger)
	return nil
}

// deliver sends the completion email when the delivery mode asks for one.
// Delivery failures never fail the job; the link is still pollable.
func (s *PipelineService) deliver(ctx context.Context, email, link string, logger *zap.Logger) {
	if s.delivery != DeliveryEmail && s.delivery != DeliveryBoth {
		return
	}
	if email == "" {
		logger.Warn("no email address on request, skipping delivery")
		return
	}
	if err := s.mailer.Send(ctx, email, "Your Presentation is Ready", resultEmailBody(link)); err != nil {
		logger.Error("result email failed", zap.Error(err))
		return
	}
	logger.Info("result emailed", zap.String("to", email))
}

func (s *PipelineService) fail(jobID string, runErr error) {
	if err := s.jobs.Update(jobID, func(j *job.Job) {
		j.Fail(runErr.Error())
	}); err != nil {
		s.logger.Error("could not record job failure",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
}

// RunPrefix derives the per-run artifact prefix from the user input: the
// folder path when given, otherwise the requester name, sanitized and
// lowercased. Empty when neither is present.
func RunPrefix(userInput map[string]interface{}) string {
	for _, key := range []string{"folder_path", "name"} {
		if v := stringField(userInput, key); v != "" {
			return strings.ToLower(deck.SanitizeName(strings.ReplaceAll(v, " ", "_")))
		}
	}
	return ""
}

func resultEmailBody(link string) string {
	return fmt.Sprintf(`<html>
  <body style="font-family: Arial, sans-serif; color: #222;">
    <h2>Presentation Generator</h2>
    <p>Your <strong>presentation</strong> has been prepared and is now available to <a href="%s">view here</a>.</p>
    <p>This link opens a read-only preview.</p>
  </body>
</html>`, link)
}
