package chat

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// DefaultLocation is sent as userLocation when none is configured.
	DefaultLocation = "your location"
	// GuidedIntroText is shown before the guided-session request goes out.
	GuidedIntroText = "Starting guided session... Please share what's on your mind."
	// GuidedSeedMessage is the synthetic message that opens a guided session.
	GuidedSeedMessage = "Starting a new guided session"
	// SendErrorText replaces the reply when a send fails.
	SendErrorText = "Sorry, there was an error processing your message. Please try again."
	// GuidedErrorText replaces the reply when starting a guided session fails.
	GuidedErrorText = "Sorry, there was an error starting the guided session. Please try again."
)

// Client drives a Transcript against a Gateway. It does not serialize calls:
// Send and StartGuidedSession may run concurrently from several goroutines.
type Client struct {
	gw         Gateway
	transcript *Transcript
	location   string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLocation sets the userLocation sent with plain messages.
func WithLocation(location string) Option {
	return func(c *Client) {
		if location != "" {
			c.location = location
		}
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client writing into t.
func NewClient(gw Gateway, t *Transcript, opts ...Option) *Client {
	c := &Client{
		gw:         gw,
		transcript: t,
		location:   DefaultLocation,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcript returns the transcript the client writes to.
func (c *Client) Transcript() *Transcript {
	return c.transcript
}

// Send appends input as a user message straight away, then blocks until the
// gateway call settles and appends the reply or SendErrorText. Blank input is
// ignored and reported as false.
func (c *Client) Send(ctx context.Context, input string) bool {
	text := strings.TrimSpace(input)
	if text == "" {
		return false
	}

	c.transcript.Append(Message{Text: text, IsUser: true})
	c.request(ctx, AnalyzeRequest{
		Message:      text,
		UserLocation: c.location,
		SessionMode:  false,
	}, SendErrorText)
	return true
}

// StartGuidedSession appends GuidedIntroText and requests the session
// template with GuidedSeedMessage.
func (c *Client) StartGuidedSession(ctx context.Context) {
	c.transcript.Append(Message{Text: GuidedIntroText, IsUser: false})
	c.request(ctx, AnalyzeRequest{
		Message:      GuidedSeedMessage,
		UserLocation: c.location,
		SessionMode:  true,
	}, GuidedErrorText)
}

func (c *Client) request(ctx context.Context, req AnalyzeRequest, errorText string) {
	c.transcript.begin()

	reply, err := c.gw.Analyze(ctx, req)
	if err != nil {
		c.logger.Warn("gateway call failed", "session_mode", req.SessionMode, "error", err)
		c.transcript.settle(Message{Text: errorText, IsUser: false})
		return
	}
	c.transcript.settle(Message{Text: reply, IsUser: false})
}
