// Your Psychological Bot - terminal chat client
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/haidizedan/your-psychological-bot/internal/chat"
)

const usage = "Type a message and press Enter. /guided starts a guided session, /quit exits."

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("GATEWAY_URL", "http://localhost:8080"), "gateway base URL")
	location := flag.String("location", chat.DefaultLocation, "location sent with each message")
	verbose := flag.Bool("v", false, "log gateway errors to stderr")
	flag.Parse()

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transcript := chat.NewTranscript()
	p := &printer{out: os.Stdout}
	transcript.OnChange(p.render)
	p.render(transcript.Messages(), false)

	client := chat.NewClient(
		chat.NewHTTPGateway(*addr, nil),
		transcript,
		chat.WithLocation(*location),
		chat.WithLogger(logger),
	)

	fmt.Fprintln(os.Stdout, usage)
	run(ctx, os.Stdin, client)
}

// run reads lines until EOF, /quit or ctx is done. Each line is sent on its
// own goroutine, so a slow reply does not block the next message.
func run(ctx context.Context, in io.Reader, client *chat.Client) {
	var wg sync.WaitGroup
	defer wg.Wait()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch strings.TrimSpace(line) {
			case "/quit":
				return
			case "/guided":
				wg.Add(1)
				go func() {
					defer wg.Done()
					client.StartGuidedSession(ctx)
				}()
			default:
				wg.Add(1)
				go func() {
					defer wg.Done()
					client.Send(ctx, line)
				}()
			}
		}
	}
}

// printer writes transcript entries it has not printed yet.
type printer struct {
	mu      sync.Mutex
	out     io.Writer
	printed int
	loading bool
}

func (p *printer) render(messages []chat.Message, loading bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Notifications can arrive out of order; an older snapshot has nothing new.
	if len(messages) < p.printed {
		return
	}
	for _, m := range messages[p.printed:] {
		who := "bot"
		if m.IsUser {
			who = "you"
		}
		fmt.Fprintf(p.out, "[%s] %s\n", who, m.Text)
	}
	p.printed = len(messages)

	if loading && !p.loading {
		fmt.Fprintln(p.out, "...")
	}
	p.loading = loading
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
