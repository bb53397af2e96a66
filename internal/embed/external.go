package embed

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Sadra3st/CBIR/internal/errors"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// ExternalEmbedder calls a locally hosted feature-extraction service over
// HTTP, for deployments that run a real image model behind the Embedder
// interface instead of StaticImageEmbedder's deterministic stand-in.
// Grounded on internal/embed/ollama.go's HTTP client shape (JSON request,
// context-scoped timeout, circuit breaker over repeated failures) and on
// internal/errors.Retry's exponential backoff.
type ExternalEmbedder struct {
	endpoint string
	dim      int
	client   *http.Client
	retry    errors.RetryConfig
	breaker  *errors.CircuitBreaker
}

// NewExternalEmbedder creates an embedder that POSTs image bytes to
// endpoint and expects a JSON {"embedding": [...]}. timeout bounds each
// individual HTTP attempt; maxRetries bounds the retry loop around it.
func NewExternalEmbedder(endpoint string, dim int, timeout time.Duration, maxRetries int) *ExternalEmbedder {
	retry := errors.DefaultRetryConfig()
	retry.MaxRetries = maxRetries

	return &ExternalEmbedder{
		endpoint: endpoint,
		dim:      dim,
		client:   &http.Client{Timeout: timeout},
		retry:    retry,
		breaker:  errors.NewCircuitBreaker("external-embedder"),
	}
}

// Dimensions reports the vector length this embedder's backing service is
// configured to return.
func (e *ExternalEmbedder) Dimensions() int {
	return e.dim
}

type embedRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed reads the image file, sends it to the configured endpoint, and
// parses the returned vector. Transient failures are retried with
// exponential backoff; once the circuit breaker trips on repeated failures
// further calls fail fast with errors.ErrCircuitOpen until the reset
// timeout elapses.
func (e *ExternalEmbedder) Embed(path string) (vectormath.Vector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InputMissingError("failed to read image file", err).WithDetail("path", path)
	}

	var result vectormath.Vector
	attempt := func() error {
		return e.breaker.Execute(func() error {
			v, callErr := e.call(data)
			if callErr != nil {
				return callErr
			}
			result = v
			return nil
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.client.Timeout*time.Duration(e.retry.MaxRetries+1))
	defer cancel()

	if err := errors.Retry(ctx, e.retry, attempt); err != nil {
		return nil, errors.EmbedFailureError("external embedder call failed", err).WithDetail("endpoint", e.endpoint)
	}
	return result, nil
}

func (e *ExternalEmbedder) call(data []byte) (vectormath.Vector, error) {
	body, err := json.Marshal(embedRequest{ImageBase64: base64.StdEncoding.EncodeToString(data)})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.NetworkError("embed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.NetworkError(fmt.Sprintf("embed endpoint returned %d: %s", resp.StatusCode, respBody), nil)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(parsed.Embedding) != e.dim {
		return nil, errors.DimensionMismatchError(e.dim, len(parsed.Embedding))
	}
	return vectormath.Vector(parsed.Embedding), nil
}

var _ Embedder = (*ExternalEmbedder)(nil)
