package factory

import (
	"fmt"

	"radar-coach-be/pkg/llm"
	"radar-coach-be/pkg/llm/anthropic"
	"radar-coach-be/pkg/llm/mock"
)

// NewGateway selects the model backend once, at container construction.
// Nothing downstream ever branches on the backend kind again.
func NewGateway(providerType, apiKey, model string) (llm.Gateway, error) {
	switch providerType {
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return anthropic.NewProvider(apiKey, model), nil
	case "mock":
		return mock.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
