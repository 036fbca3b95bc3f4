// Command forgepanel runs the discovery poller standalone: it scans the
// loopback port range for brokers serving the given workspace folders,
// prints pending feedback requests, and relays typed answers back.
//
// Usage: forgepanel [workspace-folder ...]
// With no arguments the current directory is used as the workspace.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Strob0t/FeedbackForge/internal/adapter/brokerapi"
	"github.com/Strob0t/FeedbackForge/internal/adapter/console"
	"github.com/Strob0t/FeedbackForge/internal/config"
	"github.com/Strob0t/FeedbackForge/internal/domain/feedback"
	"github.com/Strob0t/FeedbackForge/internal/logger"
	"github.com/Strob0t/FeedbackForge/internal/service"
)

const healthInterval = 5 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.Logging))

	folders := os.Args[1:]
	if len(folders) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getwd: %w", err)
		}
		folders = []string{wd}
	}

	client := brokerapi.NewClient(cfg.Poller.GetTimeout, cfg.Poller.PostTimeout)
	pres := console.NewPresenter(os.Stdout)
	poller := service.NewPollerService(cfg.Poller, client, pres, folders)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller.StartPolling(ctx)
	defer poller.StopPolling()

	go func() {
		ticker := time.NewTicker(healthInterval)
		defer ticker.Stop()
		poller.CheckHealth(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				poller.CheckHealth(ctx)
			}
		}
	}()

	if console.Interactive() {
		answerLoop(ctx, poller, folders[0])
	} else {
		<-ctx.Done()
	}
	return nil
}

// answerLoop reads one line per answer from stdin and submits it against the
// currently displayed request. Submit failures keep the request displayed so
// the human can retry.
func answerLoop(ctx context.Context, poller *service.PollerService, origin string) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		req := poller.Displayed()
		if req == nil {
			fmt.Fprintln(os.Stdout, "no pending feedback request")
			continue
		}
		answer := feedback.Response{
			RequestID:       req.ID,
			Text:            scanner.Text(),
			OriginDirectory: origin,
		}
		_ = poller.SubmitAnswer(ctx, answer) // failures already surfaced by the presenter
	}
}
