package textgen

import (
	"fmt"
	"log/slog"

	"canopy/internal/config"
	"canopy/internal/domain/services"
)

// SetupGenerator selects the configured provider.
func SetupGenerator(cfg *config.Config, logger *slog.Logger) (services.TextGenerator, error) {
	switch cfg.TextGenProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("TEXTGEN_PROVIDER=openai requires OPENAI_API_KEY")
		}
		logger.Info("text generation provider configured",
			"provider", "openai",
			"model", cfg.TextGenModel,
		)
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.TextGenModel, cfg.TextGenMaxTokens), nil
	case "lorem":
		logger.Info("text generation provider configured",
			"provider", "lorem",
			"delay", cfg.MockDelay,
		)
		return NewLoremProvider(cfg.MockDelay), nil
	default:
		return nil, fmt.Errorf("unknown text generation provider %q", cfg.TextGenProvider)
	}
}
