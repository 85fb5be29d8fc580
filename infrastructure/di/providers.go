package di

import (
	"context"

	"go.uber.org/zap"

	"slidesmith/application/ports"
	"slidesmith/application/services"
	"slidesmith/domain/deck"
	"slidesmith/infrastructure/artifacts"
	"slidesmith/infrastructure/config"
	"slidesmith/infrastructure/email"
	genaiclient "slidesmith/infrastructure/genai"
	"slidesmith/infrastructure/jobs"
	"slidesmith/infrastructure/prompts"
	"slidesmith/infrastructure/slides"
	"slidesmith/infrastructure/storage"
	"slidesmith/infrastructure/tts"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Pipeline  *services.PipelineService
	Populator *services.PopulatorService
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideSlideMap loads the slide map override when configured, otherwise the
// built-in fifteen-slide map.
func ProvideSlideMap(cfg *config.Config) ([]deck.SlideSpec, error) {
	if cfg.SlideMapPath == "" {
		return deck.DefaultSlideMap(), nil
	}
	return deck.LoadSlideMap(cfg.SlideMapPath)
}

// ProvideJobStore creates the in-memory job store
func ProvideJobStore() ports.JobStore {
	return jobs.NewMemoryStore()
}

// ProvideArtifactStore creates the on-disk run artifact store
func ProvideArtifactStore(cfg *config.Config, logger *zap.Logger) ports.ArtifactStore {
	return artifacts.NewStore(cfg.OutputDir, logger)
}

// ProvidePromptLibrary loads and watches the prompt template file
func ProvidePromptLibrary(cfg *config.Config, logger *zap.Logger) (ports.PromptLibrary, error) {
	return prompts.NewLibrary(cfg.PromptsPath, logger)
}

// ProvideContentGenerator creates the Gemini-backed generator
func ProvideContentGenerator(ctx context.Context, cfg *config.Config) (ports.ContentGenerator, error) {
	return genaiclient.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
}

// ProvideSpeechSynthesizer creates the speech client
func ProvideSpeechSynthesizer(cfg *config.Config) (ports.SpeechSynthesizer, error) {
	c := tts.DefaultConfig(cfg.OpenAIAPIKey)
	c.Model = cfg.TTSModel
	c.Voice = cfg.TTSVoice
	return tts.NewClient(c)
}

// ProvideDocumentService creates the presentation backend client
func ProvideDocumentService(cfg *config.Config, logger *zap.Logger) (ports.DocumentService, error) {
	return slides.NewClient(slides.Config{
		SlidesBaseURL: cfg.SlidesBaseURL,
		Token:         cfg.SlidesToken,
	}, logger)
}

// ProvideObjectStore creates the shared storage uploader
func ProvideObjectStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.ObjectStore, error) {
	return storage.NewS3Store(ctx, cfg.AWSRegion, cfg.StorageBucket, cfg.StoragePrefix, logger)
}

// ProvideMailer creates the result mailer for the configured delivery mode
func ProvideMailer(cfg *config.Config, logger *zap.Logger) (ports.Mailer, error) {
	if cfg.DeliveryMode == "app" || cfg.SMTPHost == "" {
		return email.NewNoopMailer(logger), nil
	}
	return email.NewSMTPMailer(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.FromAddress,
	}, logger)
}

// ProvideGeneratorService creates the section pipeline service
func ProvideGeneratorService(
	llm ports.ContentGenerator,
	promptLib ports.PromptLibrary,
	artifactStore ports.ArtifactStore,
	logger *zap.Logger,
) *services.GeneratorService {
	return services.NewGeneratorService(llm, promptLib, artifactStore, logger)
}

// ProvideNarrationService creates the narration synthesis service
func ProvideNarrationService(
	synth ports.SpeechSynthesizer,
	artifactStore ports.ArtifactStore,
	cfg *config.Config,
	logger *zap.Logger,
) *services.NarrationService {
	return services.NewNarrationService(synth, artifactStore, cfg.TTSWorkers, logger)
}

// ProvidePopulatorService creates the slide population service
func ProvidePopulatorService(
	docs ports.DocumentService,
	store ports.ObjectStore,
	artifactStore ports.ArtifactStore,
	logger *zap.Logger,
) *services.PopulatorService {
	return services.NewPopulatorService(docs, store, artifactStore, logger)
}

// ProvidePipelineService creates the run orchestrator
func ProvidePipelineService(
	generator *services.GeneratorService,
	narration *services.NarrationService,
	populator *services.PopulatorService,
	jobStore ports.JobStore,
	artifactStore ports.ArtifactStore,
	mailer ports.Mailer,
	specs []deck.SlideSpec,
	cfg *config.Config,
	logger *zap.Logger,
) *services.PipelineService {
	return services.NewPipelineService(
		generator,
		narration,
		populator,
		jobStore,
		artifactStore,
		mailer,
		specs,
		services.DeliveryMode(cfg.DeliveryMode),
		cfg.RunTimeout,
		logger,
	)
}
