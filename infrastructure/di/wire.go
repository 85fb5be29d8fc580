//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"slidesmith/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideSlideMap,
	ProvideJobStore,
	ProvideArtifactStore,
	ProvidePromptLibrary,
	ProvideContentGenerator,
	ProvideSpeechSynthesizer,
	ProvideDocumentService,
	ProvideObjectStore,
	ProvideMailer,
	ProvideGeneratorService,
	ProvideNarrationService,
	ProvidePopulatorService,
	ProvidePipelineService,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
