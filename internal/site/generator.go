package site

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/sitebuilder/internal/collections"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/filters"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/hooks"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/sitedata"
	"git.home.luguber.info/inful/sitebuilder/internal/tokens"
	"git.home.luguber.info/inful/sitebuilder/internal/transform"
)

// Build triggers recorded in history and notifications.
const (
	TriggerCLI      = "cli"
	TriggerStartup  = "startup"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// Notifier publishes a message after each build.
type Notifier interface {
	PublishBuild(ctx context.Context, msg notify.BuildMessage) error
}

// Generator runs the full build pipeline for one site.
type Generator struct {
	cfg        *config.Config
	baseDir    string
	recorder   metrics.Recorder
	observer   hooks.Observer
	events     eventstore.Store
	projection *eventstore.BuildHistoryProjection
	notifier   Notifier
	reportDir  string
	now        func() time.Time
	newID      func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithBaseDir sets the project root that relative config paths resolve against.
func WithBaseDir(dir string) Option { return func(g *Generator) { g.baseDir = dir } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(g *Generator) { g.recorder = r } }

// WithObserver receives hook step callbacks in addition to the built-in ones.
func WithObserver(o hooks.Observer) Option { return func(g *Generator) { g.observer = o } }

// WithEventStore records build history events in store.
func WithEventStore(store eventstore.Store) Option { return func(g *Generator) { g.events = store } }

// WithProjection keeps an in-memory history view up to date with emitted events.
func WithProjection(p *eventstore.BuildHistoryProjection) Option {
	return func(g *Generator) { g.projection = p }
}

// WithNotifier publishes a build message after every build.
func WithNotifier(n Notifier) Option { return func(g *Generator) { g.notifier = n } }

// WithReportDir persists build-report.json and build-report.txt into dir.
func WithReportDir(dir string) Option { return func(g *Generator) { g.reportDir = dir } }

// WithClock overrides the clock used for timing and the happenings split.
func WithClock(now func() time.Time) Option { return func(g *Generator) { g.now = now } }

// New creates a generator for cfg.
func New(cfg *config.Config, opts ...Option) *Generator {
	g := &Generator{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.recorder == nil {
		g.recorder = metrics.NoopRecorder{}
	}
	if abs, err := filepath.Abs(g.baseDir); err == nil {
		g.baseDir = abs
	}
	return g
}

// paths returns a copy of the configuration with file system paths resolved
// against the base directory.
func (g *Generator) paths() *config.Config {
	return g.cfg.Resolve(g.baseDir)
}

// Build runs one build started from the command line.
func (g *Generator) Build(ctx context.Context) (*Report, error) {
	return g.BuildWithTrigger(ctx, TriggerCLI)
}

// BuildWithTrigger runs before hooks, renders and writes every page, copies
// passthrough files, checks internal links and runs after hooks. The report is
// returned even when the build fails.
func (g *Generator) BuildWithTrigger(ctx context.Context, trigger string) (*Report, error) {
	cfg := g.paths()
	report := newReport(g.newID(), trigger, cfg.Output, g.now())
	log := slog.With(logfields.BuildID(report.BuildID))
	log.Info("Build started", slog.String("trigger", trigger))

	g.emit(ctx, report.BuildID, func() (eventstore.Event, error) {
		return eventstore.NewBuildStarted(report.BuildID, trigger)
	})

	err := g.run(ctx, cfg, report)
	report.finish(g.now(), err)
	g.complete(ctx, report)

	if err != nil {
		log.Error("Build failed", logfields.Error(err), slog.String("stage", report.FailedStage))
		return report, err
	}
	log.Info("Build completed", slog.String("summary", report.Summary()))
	return report, nil
}

func (g *Generator) run(ctx context.Context, cfg *config.Config, report *Report) error {
	obs := &buildObserver{ctx: ctx, g: g, report: report, next: g.observer}
	runner := hooks.NewExecutor().WithRecorder(g.recorder).WithObserver(obs)

	if err := g.stage(report, StageBeforeHooks, func() error {
		return runner.Run(ctx, hooks.PhaseBefore, hooks.FromConfig(cfg.Hooks.Before, g.baseDir))
	}); err != nil {
		return err
	}

	var in *inputs
	if err := g.stage(report, StageLoad, func() (err error) {
		in, err = g.load(ctx, cfg)
		return err
	}); err != nil {
		return err
	}

	var set collections.Set
	if err := g.stage(report, StageCollections, func() (err error) {
		set, err = collections.NewBuilder(cfg, collections.WithClock(g.now)).Build(in.items)
		return err
	}); err != nil {
		return err
	}
	for _, name := range set.Names() {
		report.Collections[name] = len(set[name])
		g.recorder.SetCollectionSize(name, len(set[name]))
	}

	if err := g.stage(report, StageRender, func() error {
		return g.render(ctx, cfg, in, set, report)
	}); err != nil {
		return err
	}
	g.recorder.SetPagesWritten(report.Pages)

	if err := g.stage(report, StagePassthrough, func() (err error) {
		report.Passthrough, err = copyPassthrough(ctx, g.baseDir, cfg.Output, cfg.Passthrough)
		return err
	}); err != nil {
		return err
	}

	g.emit(ctx, report.BuildID, func() (eventstore.Event, error) {
		d := report.StageDurations[StageRender] + report.StageDurations[StagePassthrough]
		return eventstore.NewSiteGenerated(report.BuildID, cfg.Output, report.Pages, report.Passthrough, d)
	})

	_ = g.stage(report, StageLinks, func() error {
		for _, b := range checkLinks(cfg.Output, in.items) {
			report.BrokenLinks++
			report.addWarning(b)
		}
		return nil
	})

	return g.stage(report, StageAfterHooks, func() error {
		return runner.Run(ctx, hooks.PhaseAfter, hooks.FromConfig(cfg.Hooks.After, g.baseDir))
	})
}

// stage times fn and records where a failing build stopped.
func (g *Generator) stage(report *Report, name string, fn func() error) error {
	t0 := time.Now()
	err := fn()
	report.StageDurations[name] = time.Since(t0)
	if err != nil {
		report.FailedStage = name
		var se *hooks.StepError
		if stderrors.As(err, &se) {
			report.FailedStage = string(se.Phase) + "/" + se.Step
		}
	}
	return err
}

type inputs struct {
	tokens *tokens.Store
	site   *tokens.Store
	data   sitedata.Data
	items  []*content.Item
}

func (g *Generator) load(ctx context.Context, cfg *config.Config) (*inputs, error) {
	tk, err := tokens.LoadTokens(cfg.TokensFile)
	if err != nil {
		return nil, err
	}
	st, err := tokens.LoadSiteTokens(cfg.SiteFile)
	if err != nil {
		return nil, err
	}
	data, err := sitedata.Load(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	loader := content.NewLoader(cfg.Input, cfg.Output)
	loader.Root = g.baseDir
	items, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("Build inputs loaded",
		slog.Int("tokens", tk.Len()),
		slog.Int("site_tokens", st.Len()),
		slog.Int("data_files", len(data)),
		logfields.Count(len(items)))
	return &inputs{tokens: tk, site: st, data: data, items: items}, nil
}

func (g *Generator) render(ctx context.Context, cfg *config.Config, in *inputs, set collections.Set, report *Report) error {
	if err := checkDuplicateOutputs(in.items); err != nil {
		return err
	}

	md := markdown.NewRenderer()
	funcs := filters.New(cfg.Input, md)
	layouts, err := NewLayouts(cfg.IncludesDir, funcs.FuncMap())
	if err != nil {
		return err
	}

	onStats := func(prefix string, s transform.Stats) {
		report.Placeholders[prefix+".resolved"] += s.Resolved
		report.Placeholders[prefix+".missing"] += s.Missing
		g.recorder.AddPlaceholders(prefix, s.Resolved, s.Missing)
	}
	chain := transform.NewChain(
		transform.ReplaceTokens(in.tokens, onStats),
		transform.ReplaceSiteTokens(in.site, onStats),
	)
	layouts.ResolveParams(chain.ApplyValue)
	data := in.data
	if resolved, ok := chain.ApplyValue(map[string]any(in.data)).(map[string]any); ok {
		data = sitedata.Data(resolved)
	}

	buildTime := g.now()
	for _, it := range in.items {
		if !it.Written() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := md.Render(it.Body)
		if err != nil {
			return errors.RenderError("failed to render markdown").WithCause(err).WithContext("path", it.InputPath).Build()
		}
		page, err := layouts.Render(it.Layout, body, PageData{
			Page:        it,
			Title:       it.Title,
			Collections: set,
			Data:        data,
			Params:      it.FrontMatter,
			BuildTime:   buildTime,
		})
		if err != nil {
			return errors.WrapError(err, errors.CategoryRender, "failed to render page").WithContext("path", it.InputPath).Build()
		}
		out, err := chain.Apply(it.OutputPath, string(page))
		if err != nil {
			return errors.RenderError("transform failed").WithCause(err).WithContext("path", it.InputPath).Build()
		}
		if err := writeOutput(it.OutputPath, out); err != nil {
			return err
		}
		report.Pages++
		slog.Debug("Page written", logfields.URL(it.URL), logfields.Path(it.OutputPath))
	}
	return nil
}

// checkDuplicateOutputs fails when two items would write the same file.
func checkDuplicateOutputs(items []*content.Item) error {
	seen := make(map[string]string, len(items))
	for _, it := range items {
		if !it.Written() {
			continue
		}
		if prev, ok := seen[it.OutputPath]; ok {
			return errors.ContentError("duplicate output path").
				WithContext("output", it.OutputPath).
				WithContext("inputs", strings.Join([]string{prev, it.InputPath}, ", ")).
				Build()
		}
		seen[it.OutputPath] = it.InputPath
	}
	return nil
}

func writeOutput(path, data string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.FileSystemError("failed to create output directory").WithCause(err).WithContext("path", path).Build()
	}
	if err := atomic.WriteFile(path, strings.NewReader(data)); err != nil {
		return errors.FileSystemError("failed to write page").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}

// complete records metrics, history and the notification for a finished build.
func (g *Generator) complete(ctx context.Context, report *Report) {
	g.recorder.ObserveBuildDuration(report.Duration())
	g.recorder.IncBuildOutcome(report.metricsOutcome())

	// History and notifications still go out when the build was canceled.
	ctx = context.WithoutCancel(ctx)

	g.emit(ctx, report.BuildID, func() (eventstore.Event, error) {
		return eventstore.NewBuildReportGenerated(report.BuildID, report.EventData())
	})
	if len(report.Errors) > 0 {
		g.emit(ctx, report.BuildID, func() (eventstore.Event, error) {
			return eventstore.NewBuildFailed(report.BuildID, report.FailedStage, report.Errors[0].Error())
		})
	} else {
		g.emit(ctx, report.BuildID, func() (eventstore.Event, error) {
			return eventstore.NewBuildCompleted(report.BuildID, string(report.Outcome), report.Duration(),
				map[string]string{"output": report.OutputDir})
		})
	}

	if g.reportDir != "" {
		if err := report.Persist(resolvePath(g.baseDir, g.reportDir)); err != nil {
			slog.Warn("Failed to persist build report", logfields.BuildID(report.BuildID), logfields.Error(err))
		}
	}

	if g.notifier != nil {
		if err := g.notifier.PublishBuild(ctx, report.Message()); err != nil {
			slog.Warn("Failed to publish build notification", logfields.BuildID(report.BuildID), logfields.Error(err))
		}
	}
}

