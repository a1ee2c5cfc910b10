package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postAnalyze(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, AnalyzePath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return got
}

func TestHandleAnalyzeRelaysReply(t *testing.T) {
	t.Parallel()

	stub := &upstreamStub{status: http.StatusOK, body: `{"choices":[{"message":{"content":"X"}}]}`}
	svc := NewService(newTestClient(t, stub), discardLogger())
	router := newTestRouter(NewHandler(svc, discardLogger()))

	w := postAnalyze(t, router, `{"message":"Hello","userLocation":"Cairo","sessionMode":false}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decodeBody(t, w)
	if len(got) != 1 || got["reply"] != "X" {
		t.Errorf("unexpected body %v", got)
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	prompt := stub.gotBody.Messages[0].Content
	if !strings.Contains(prompt, `"""Hello"""`) || !strings.Contains(prompt, "services in Cairo") {
		t.Errorf("outbound prompt missing message or location: %q", prompt)
	}
}

func TestHandleAnalyzeSessionMode(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{completion: &Completion{Content: "plan"}}
	router := newTestRouter(NewHandler(NewService(fc, discardLogger()), discardLogger()))

	w := postAnalyze(t, router, `{"message":"Starting a new guided session","userLocation":"your location","sessionMode":true}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(fc.prompts) != 1 || !strings.Contains(fc.prompts[0], "5-step guided therapy session") {
		t.Errorf("expected the session template, got %v", fc.prompts)
	}
}

func TestHandleAnalyzeFallbackWhenNoChoices(t *testing.T) {
	t.Parallel()

	stub := &upstreamStub{status: http.StatusOK, body: `{"object":"chat.completion"}`}
	router := newTestRouter(NewHandler(NewService(newTestClient(t, stub), discardLogger()), discardLogger()))

	w := postAnalyze(t, router, `{"message":"Hello"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeBody(t, w); got["reply"] != "Sorry, unable to generate analysis." {
		t.Errorf("unexpected body %v", got)
	}
}

func TestHandleAnalyzeUpstreamFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		completer Completer
	}{
		{"network error", &fakeCompleter{err: errors.New("dial tcp 10.0.0.1:443: i/o timeout")}},
		{"non-json body", newTestClient(t, &upstreamStub{status: http.StatusBadGateway, body: "<html>502</html>"})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(NewHandler(NewService(tc.completer, discardLogger()), discardLogger()))

			w := postAnalyze(t, router, `{"message":"Hello"}`)

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", w.Code)
			}
			got := decodeBody(t, w)
			if len(got) != 1 || got["message"] != "Internal server error." {
				t.Errorf("unexpected body %v", got)
			}
		})
	}
}

func TestHandleAnalyzeRejectsOtherMethods(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{completion: &Completion{Content: "X"}}
	limiter := &countingLimiter{allow: true}
	router := newTestRouter(NewHandler(NewService(fc, discardLogger()), discardLogger(), WithRateLimiter(limiter)))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		req := httptest.NewRequest(method, AnalyzePath, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", method, w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("%s: expected empty body, got %q", method, w.Body.String())
		}
	}
	if len(fc.prompts) != 0 {
		t.Errorf("upstream must not be called for rejected methods")
	}
	if limiter.calls != 0 {
		t.Errorf("limiter must not be consulted for rejected methods")
	}
}

func TestHandleAnalyzeBodyDecoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCalls  int
	}{
		{"empty body forwards empty request", "", http.StatusOK, 1},
		{"json null", "null", http.StatusOK, 1},
		{"missing fields", "{}", http.StatusOK, 1},
		{"malformed json", `{"message":`, http.StatusBadRequest, 0},
		{"not an object", `["Hello"]`, http.StatusBadRequest, 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fc := &fakeCompleter{completion: &Completion{Content: "ok"}}
			router := newTestRouter(NewHandler(NewService(fc, discardLogger()), discardLogger()))

			w := postAnalyze(t, router, tc.body)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, w.Code)
			}
			if len(fc.prompts) != tc.wantCalls {
				t.Errorf("expected %d upstream calls, got %d", tc.wantCalls, len(fc.prompts))
			}
			if tc.wantStatus == http.StatusBadRequest {
				if got := decodeBody(t, w); got["message"] != InvalidBodyMessage {
					t.Errorf("unexpected body %v", got)
				}
			}
		})
	}
}

func TestHandleAnalyzeBodyTooLarge(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{completion: &Completion{Content: "ok"}}
	router := newTestRouter(NewHandler(NewService(fc, discardLogger()), discardLogger(), WithMaxBodySize(16)))

	w := postAnalyze(t, router, `{"message":"this is longer than sixteen bytes"}`)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	if len(fc.prompts) != 0 {
		t.Error("upstream must not be called for oversized bodies")
	}
}

type countingLimiter struct {
	allow bool
	calls int
}

func (c *countingLimiter) Allow(string) bool {
	c.calls++
	return c.allow
}

func TestHandleAnalyzeRateLimited(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{completion: &Completion{Content: "ok"}}
	limiter := &countingLimiter{allow: false}
	router := newTestRouter(NewHandler(NewService(fc, discardLogger()), discardLogger(), WithRateLimiter(limiter)))

	w := postAnalyze(t, router, `{"message":"Hello"}`)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if len(fc.prompts) != 0 {
		t.Error("upstream must not be called when rate limited")
	}
	if got := decodeBody(t, w); got["message"] == "" {
		t.Error("expected a message body")
	}
}

func TestHandleAnalyzeCancelledRequest(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{err: context.Canceled}
	router := newTestRouter(NewHandler(NewService(fc, discardLogger()), discardLogger()))

	w := postAnalyze(t, router, `{"message":"Hello"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
