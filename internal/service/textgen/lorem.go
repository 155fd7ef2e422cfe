package textgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	"canopy/internal/domain/services"
)

// LoremProvider is a mock collaborator that generates lorem ipsum markdown.
// Used for development and tests without requiring real API keys. The
// configurable delay simulates a blocking call to a real provider, which is
// what makes the concurrent-run Conflict path observable.
type LoremProvider struct {
	generator *loremgen.Lorem
	delay     time.Duration
}

// NewLoremProvider creates a new lorem ipsum provider.
func NewLoremProvider(delay time.Duration) *LoremProvider {
	return &LoremProvider{
		generator: loremgen.New(),
		delay:     delay,
	}
}

// Name returns the provider name.
func (p *LoremProvider) Name() string {
	return "lorem"
}

// Generate produces markdown exercising every construct the document
// converter understands: a heading, paragraphs, and a bullet list.
func (p *LoremProvider) Generate(ctx context.Context, req *services.GenerateRequest) (string, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(p.generator.Sentence(3, 6))
	sb.WriteString("\n\n")

	for i := 0; i < 2; i++ {
		sb.WriteString(p.generator.Paragraph(2, 4))
		sb.WriteString("\n\n")
	}

	sb.WriteString("## ")
	sb.WriteString(p.generator.Sentence(2, 4))
	sb.WriteString("\n\n")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&sb, "- %s\n", p.generator.Sentence(4, 8))
	}

	return sb.String(), nil
}
