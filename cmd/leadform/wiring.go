package main

import (
	"fmt"

	"github.com/goliatone/go-leadform/internal/metrics"
	"github.com/goliatone/go-leadform/pkg/catalog"
	"github.com/goliatone/go-leadform/pkg/content"
	"github.com/goliatone/go-leadform/pkg/engine"
	"github.com/goliatone/go-leadform/pkg/model"
	"github.com/goliatone/go-leadform/pkg/orchestrator"
	"github.com/goliatone/go-leadform/pkg/renderers/vanilla"
	"github.com/goliatone/go-leadform/pkg/submission"
)

func (a *app) catalog() (model.Catalog, error) {
	st, err := catalog.Embedded()
	if err != nil {
		return model.Catalog{}, err
	}
	cat, ok := st.Catalog(a.cfg.Session.Catalog)
	if !ok {
		return model.Catalog{}, fmt.Errorf("unknown catalog %q (available: %v)", a.cfg.Session.Catalog, st.IDs())
	}
	return cat, nil
}

// flows builds an orchestrator over the embedded catalogs with the configured
// catalog as default.
func (a *app) flows(opts ...vanilla.Option) (*orchestrator.Orchestrator, error) {
	if dir := a.cfg.Server.TemplatesDir; dir != "" {
		opts = append(opts, vanilla.WithTemplatesDir(dir))
	}
	o := orchestrator.New(
		orchestrator.WithLogger(a.logger),
		orchestrator.WithDefaultCatalog(a.cfg.Session.Catalog),
		orchestrator.WithRendererOptions(opts...),
	)
	if err := o.Err(); err != nil {
		return nil, err
	}
	if _, err := o.Catalog(""); err != nil {
		return nil, fmt.Errorf("unknown catalog %q (available: %v)", a.cfg.Session.Catalog, o.CatalogIDs())
	}
	return o, nil
}

// submitters returns the booking submitter and the contact sender. Dry-run
// mode logs payloads instead of sending them.
func (a *app) submitters(rec submission.Recorder) (engine.Submitter, content.Sender, error) {
	if a.cfg.DryRun {
		a.logger.Warn().Msg("dry-run: submissions are logged, not sent")
		return submission.Nop(a.logger), submission.NopSender(a.logger), nil
	}
	opts := []submission.Option{submission.WithLogger(a.logger)}
	if rec != nil {
		opts = append(opts, submission.WithRecorder(rec))
	}
	client, err := submission.New(a.cfg.Submission.Client(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

var _ submission.Recorder = (*metrics.Metrics)(nil)
