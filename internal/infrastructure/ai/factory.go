package ai

import (
	"net/http"
	"time"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/ports"
)

// Factory builds chat clients that share one HTTP client.
type Factory struct {
	httpClient *http.Client
}

// NewFactory returns a factory with a two minute request timeout.
func NewFactory() *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// NewFactoryWithClient is used by tests to point at an httptest server.
func NewFactoryWithClient(client *http.Client) *Factory {
	return &Factory{httpClient: client}
}

func (f *Factory) ForModel(model domain.ModelDefinition) (ports.ChatModel, error) {
	return NewClient(model, f.httpClient)
}

var _ ports.ModelFactory = (*Factory)(nil)
