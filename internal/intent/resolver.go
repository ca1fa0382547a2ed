package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kstrand/attic/internal/tree"
)

// Resolver turns free text plus the current tree into an Intent.
type Resolver interface {
	Resolve(ctx context.Context, text string, t *tree.Node) (*Intent, error)
}

// ErrNotConfigured is returned when no proxy URL is set.
var ErrNotConfigured = errors.New("inference proxy not configured")

// ProxyResolver calls an inference proxy that fronts the actual model.
// The proxy accepts {system, message, mode} and answers {text}.
type ProxyResolver struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type proxyRequest struct {
	System  string `json:"system"`
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

type proxyResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// NewProxyResolver creates a resolver against the given proxy URL. The
// API key is optional and sent as a bearer token when present.
func NewProxyResolver(baseURL, apiKey string) *ProxyResolver {
	return &ProxyResolver{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Resolve sends the text and a tree summary to the proxy and parses the
// model's reply. Context cancellation propagates unchanged so callers
// can tell a superseded request from a genuine failure.
func (r *ProxyResolver) Resolve(ctx context.Context, text string, t *tree.Node) (*Intent, error) {
	if r.baseURL == "" {
		return nil, ErrNotConfigured
	}
	body, _ := json.Marshal(proxyRequest{
		System:  SystemPrompt(t),
		Message: text,
		Mode:    "parse",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errors.New("API key invalid or missing")
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("proxy error %d: %s", resp.StatusCode, string(b))
	}

	var pr proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if pr.Error != "" {
		return nil, errors.New(pr.Error)
	}
	return Parse(pr.Text)
}
