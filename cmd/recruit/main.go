package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/terra-clan/recruit-portal/internal/config"
	"github.com/terra-clan/recruit-portal/internal/metrics"
	"github.com/terra-clan/recruit-portal/internal/persist"
	"github.com/terra-clan/recruit-portal/internal/store"
	"github.com/terra-clan/recruit-portal/pkg/client"
)

const usage = `usage: recruit <command> [args]

commands:
  login <id-token> [-admin]          sign in with an identity-provider token
  status                             show the signed-in user and selection
  profile [-name ..] [-regno ..] ... update profile fields
  domains                            list domains with selection and draft
  toggle <domain-id>                 add or remove a domain from the draft
  reset-draft                        discard draft changes
  apply [-yes]                       confirm the draft selection
  progress                           load questionnaires, tasks and submissions
  questionnaire <domain-id>          show questions and saved answers
  answer <domain-id> [-mcq id=n] [-text id=..]
                                     save answers for a domain
  tasks <domain-id>                  list tasks and submissions
  submit <domain-id> <task-id> [-repo ..] [-dock ..] [-other ..]
                                     submit or update task links
  interviews                         list scheduled interviews
  logout                             sign out and drop saved state
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	m := metrics.New(prometheus.NewRegistry())

	backend, err := persist.Open(ctx, persist.Options{
		Backend: cfg.Persist.Backend,
		Dir:     cfg.Persist.Dir,
		Redis: persist.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Postgres: persist.PostgresConfig{
			DSN:           cfg.Database.DSN,
			MigrationsDir: cfg.Database.MigrationsDir,
		},
	})
	if err != nil {
		return err
	}
	defer backend.Close()

	policy, err := store.PolicyByName(cfg.Profile.Policy)
	if err != nil {
		return err
	}
	authOpts := []store.AuthOption{store.WithProfilePolicy(policy)}
	if cfg.Profile.RederiveOnSave {
		authOpts = append(authOpts, store.WithRederiveOnSave())
	}

	c := client.NewClient(cfg.API.BaseURL, cfg.API.Key,
		client.WithTimeout(cfg.API.Timeout),
		client.WithMetrics(m),
	)
	st := store.New(c,
		store.WithPersister(backend, cfg.Persist.RootKey),
		store.WithAuthOptions(authOpts...),
	)
	c.SetTokenSource(st.Auth)

	if _, err := st.Restore(ctx); err != nil {
		slog.Warn("discarding unreadable saved state", "error", err)
	}
	if st.Auth.State().IsAuthenticated && st.Auth.SessionExpired(time.Now()) {
		fmt.Println("Your session has expired. Please log in again.")
		if err := st.Logout(ctx); err != nil {
			slog.Warn("failed to purge expired session", "error", err)
		}
	}

	flushCtx, stopFlush := context.WithCancel(context.Background())
	flusher := persist.NewFlusher(st, cfg.Persist.FlushInterval, m)
	unsubscribe := st.Subscribe(func(ch store.Change) {
		if ch.Persistable() {
			flusher.MarkDirty()
		}
	})
	flusher.Start(flushCtx)
	defer func() {
		unsubscribe()
		stopFlush()
		<-flusher.Done()
	}()

	cli := &commands{store: st, out: os.Stdout, in: os.Stdin}
	return cli.dispatch(ctx, command, args)
}

// describe prefers the backend's own message for API failures
func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return client.ErrorMessage(err)
	}
	return err.Error()
}
