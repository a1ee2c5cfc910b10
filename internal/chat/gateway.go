package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ErrGatewayStatus is wrapped by HTTPGateway for any non-200 answer.
var ErrGatewayStatus = errors.New("gateway returned an error status")

// AnalyzeRequest is the body sent to POST /api/analyze.
type AnalyzeRequest struct {
	Message      string `json:"message"`
	UserLocation string `json:"userLocation"`
	SessionMode  bool   `json:"sessionMode"`
}

// Gateway answers analyze requests.
type Gateway interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (string, error)
}

// HTTPGateway calls a running gateway server.
type HTTPGateway struct {
	endpoint string
	client   *http.Client
}

// NewHTTPGateway targets baseURL (e.g. http://localhost:8080). A nil
// httpClient means http.DefaultClient, which has no timeout.
func NewHTTPGateway(baseURL string, httpClient *http.Client) *HTTPGateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPGateway{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/analyze",
		client:   httpClient,
	}
}

// Analyze posts req and returns the reply text. Each call carries a fresh
// X-Request-Id so server logs can be matched to the client.
func (g *HTTPGateway) Analyze(ctx context.Context, req AnalyzeRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal analyze request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build analyze request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("analyze request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return "", fmt.Errorf("%w: %d %s", ErrGatewayStatus, resp.StatusCode, failure.Message)
	}

	var out struct {
		Reply string `json:"reply"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode analyze response: %w", err)
	}
	return out.Reply, nil
}
