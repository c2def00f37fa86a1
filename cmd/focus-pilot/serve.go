package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/ai"
	"github.com/mklimuk/focus-pilot/pkg/api"
	"github.com/mklimuk/focus-pilot/pkg/archive"
	"github.com/mklimuk/focus-pilot/pkg/auth"
	"github.com/mklimuk/focus-pilot/pkg/automation"
	"github.com/mklimuk/focus-pilot/pkg/config"
	"github.com/mklimuk/focus-pilot/pkg/export"
	"github.com/mklimuk/focus-pilot/pkg/integration/calendar"
	"github.com/mklimuk/focus-pilot/pkg/integration/discord"
	"github.com/mklimuk/focus-pilot/pkg/integration/drive"
	"github.com/mklimuk/focus-pilot/pkg/integration/gmail"
	"github.com/mklimuk/focus-pilot/pkg/integration/google"
	"github.com/mklimuk/focus-pilot/pkg/integration/telegram"
	"github.com/mklimuk/focus-pilot/pkg/state"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		Long: `Start the dashboard HTTP server. The initial pull from the remote backend
runs first, then the scheduler, the chat bots and the mail poller start when
they are configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, logger := a.cfg, a.logger

	o, err := a.orchestrator()
	if err != nil {
		return err
	}
	// Background writers such as the mail poller stop before the state closes.
	defer func() {
		stop()
		o.Close()
	}()
	o.Bootstrap(ctx)

	gen, closeGen, err := a.generator(ctx)
	if err != nil {
		return fmt.Errorf("failed to create AI client: %w", err)
	}
	defer closeGen()
	var advisor *ai.Advisor
	if gen != nil {
		advisor = ai.NewAdvisor(gen, logger.Named("ai"))
	}

	verifier, err := auth.NewAllowList(cfg.Auth.Users)
	if err != nil {
		return err
	}
	if len(cfg.Auth.Users) == 0 {
		logger.Warn("no users configured, login is disabled")
	}
	sessions := auth.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	notifiers := startBots(cfg, o, logger)
	defer stopBots(notifiers)

	scheduler := automation.NewService(a.repo, logger.Named("automation"), 0)
	if err := registerJobs(ctx, a, o, advisor, scheduler, notifiers); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	if g := cfg.Integrations.Gmail; g.Enabled {
		client, err := google.NewHTTPClient(ctx, cfg.Integrations.Google.CredentialsFile, cfg.Integrations.Google.Subject, gmail.Scope)
		if err != nil {
			return err
		}
		svc, err := gmail.NewService(ctx, client)
		if err != nil {
			return err
		}
		poller := gmail.NewPoller(svc, g.Query, g.PollInterval, gmail.TaskFromMail(o), logger.Named("gmail"))
		go poller.Start(ctx)
		logger.Info("gmail poller started", zap.String("query", g.Query), zap.Duration("interval", g.PollInterval))
	}

	deps := api.Deps{
		State:    o,
		Backend:  a.store,
		Verifier: verifier,
		Sessions: sessions,
		Jobs:     scheduler,
		Metrics:  a.metrics,
	}
	if advisor != nil {
		deps.Advisor = advisor
	}
	server, err := api.NewServer(deps, logger.Named("api"), &api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		AdviceRate:  cfg.AI.RatePerMinute,
		AdviceBurst: cfg.AI.Burst,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// registerJobs registers every job the configuration enables and attaches
// the configured schedules. Unknown schedule names fail startup.
func registerJobs(ctx context.Context, a *app, o *state.Orchestrator, advisor *ai.Advisor, scheduler *automation.Service, notifiers []notifier) error {
	cfg, logger := a.cfg, a.logger
	var notify []automation.Notifier
	for _, n := range notifiers {
		notify = append(notify, n)
	}
	register := func(name string, fn automation.ActionFunc) {
		scheduler.RegisterAction(name, automation.WithNotify(name, fn, logger, notify...))
	}

	var reviewer automation.Reviewer
	if advisor != nil {
		reviewer = advisor
	}
	register("weekly_review", automation.WeeklyReview(o, reviewer, a.repo, nil))

	var committer export.Committer
	if cfg.Export.Git {
		committer = archive.NewGitArchive(cfg.Export.Dir, cfg.Export.AuthorName, cfg.Export.AuthorEmail, cfg.Export.Push, logger.Named("archive"))
	}
	register("export", export.Job(o, export.NewExporter(cfg.Export.Dir), committer))

	creds := cfg.Integrations.Google
	if cfg.Integrations.Drive.Enabled {
		svc, err := drive.NewService(ctx, creds.CredentialsFile, creds.Subject, cfg.Integrations.Drive.FolderID)
		if err != nil {
			return err
		}
		register("drive_backup", drive.Job(o, drive.NewBackup(svc, a.repo, logger.Named("drive"))))
	}
	if cfg.Integrations.Calendar.Enabled {
		svc, err := calendar.NewService(ctx, creds.CredentialsFile, creds.Subject, cfg.Integrations.Calendar.CalendarID)
		if err != nil {
			return err
		}
		register("calendar_sync", calendar.Job(o, calendar.NewSyncer(svc, a.repo, logger.Named("calendar"))))
	}

	for _, s := range cfg.Schedules {
		if err := scheduler.Schedule(s.Name, s.Kind, s.Expr, s.Timezone); err != nil {
			return err
		}
	}
	return nil
}

// notifier is a chat bot that can be stopped on shutdown.
type notifier interface {
	automation.Notifier
	Stop() error
}

type telegramNotifier struct{ *telegram.Bot }

func (t telegramNotifier) Stop() error {
	t.Bot.Stop()
	return nil
}

func startBots(cfg *config.Config, o *state.Orchestrator, logger *zap.Logger) []notifier {
	var bots []notifier
	if tg := cfg.Integrations.Telegram; tg.Token != "" {
		bot, err := telegram.NewBot(tg.Token, tg.ChatID, o, logger.Named("telegram"))
		if err != nil {
			logger.Error("failed to create telegram bot", zap.Error(err))
		} else if err := bot.Start(); err != nil {
			logger.Error("failed to start telegram bot", zap.Error(err))
		} else {
			bots = append(bots, telegramNotifier{bot})
		}
	}
	if dc := cfg.Integrations.Discord; dc.Token != "" {
		bot, err := discord.NewBot(dc.Token, dc.ChannelID, o, logger.Named("discord"))
		if err != nil {
			logger.Error("failed to create discord bot", zap.Error(err))
		} else if err := bot.Start(); err != nil {
			logger.Error("failed to start discord bot", zap.Error(err))
		} else {
			bots = append(bots, bot)
		}
	}
	return bots
}

func stopBots(bots []notifier) {
	for _, b := range bots {
		_ = b.Stop()
	}
}
