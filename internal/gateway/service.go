package gateway

import (
	"context"
	"fmt"
	"log/slog"
)

// Service turns an AnalysisRequest into a reply via the upstream model.
// It holds no per-request state.
type Service struct {
	completer Completer
	logger    *slog.Logger
}

// NewService creates a gateway service backed by completer.
func NewService(completer Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		completer: completer,
		logger:    logger,
	}
}

// Analyze renders the prompt selected by req.SessionMode, sends it upstream
// and returns the reply text. A reply-less answer yields FallbackReply.
func (s *Service) Analyze(ctx context.Context, req AnalysisRequest) (string, error) {
	prompt := SelectPrompt(req)

	completion, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("complete prompt: %w", err)
	}

	if completion == nil || completion.Content == "" {
		status := 0
		if completion != nil {
			status = completion.StatusCode
		}
		s.logger.Warn("Upstream answer had no reply, using fallback", "status", status)
		return FallbackReply, nil
	}

	s.logger.Debug("Upstream reply received",
		"model", completion.Model,
		"finish_reason", completion.FinishReason,
		"reply_length", len(completion.Content),
	)
	return completion.Content, nil
}
