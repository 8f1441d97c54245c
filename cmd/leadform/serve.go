package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-leadform/internal/metrics"
	"github.com/goliatone/go-leadform/internal/server"
	"github.com/goliatone/go-leadform/pkg/renderers/vanilla"
	"github.com/goliatone/go-leadform/pkg/store"
)

const shutdownGrace = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the site and the booking form over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cat, err := a.catalog()
	if err != nil {
		return err
	}

	st, err := store.Open(a.cfg.Store.Store())
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()
	booking, contact, err := a.submitters(m)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLogger(a.logger),
		server.WithStore(st),
		server.WithCatalog(cat),
		server.WithSubmitter(booking),
		server.WithContactSender(contact),
		server.WithMetrics(m),
	}
	if dir := a.cfg.Server.TemplatesDir; dir != "" {
		opts = append(opts, server.WithRendererOptions(vanilla.WithTemplatesDir(dir)))
	}

	srv, err := server.New(server.Config{
		Addr:           a.cfg.Server.Addr(),
		ReadTimeout:    a.cfg.Server.ReadTimeout,
		WriteTimeout:   a.cfg.Server.WriteTimeout,
		IdleTimeout:    a.cfg.Server.IdleTimeout,
		RequestTimeout: a.cfg.Server.RequestTimeout,
		SessionTTL:     a.cfg.Session.TTL,
		Secret:         a.cfg.Server.Secret,
		SecureCookie:   a.cfg.Server.SecureCookie,
		DefaultTheme:   a.cfg.Theme.Default,
		ContactFormID:  a.cfg.Submission.ContactFormID,
	}, opts...)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
