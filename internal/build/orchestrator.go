package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/spritegen/internal/assets"
	"git.home.luguber.info/inful/spritegen/internal/codepoints"
	"git.home.luguber.info/inful/spritegen/internal/config"
	"git.home.luguber.info/inful/spritegen/internal/events"
	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/iconfont"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
	"git.home.luguber.info/inful/spritegen/internal/metrics"
	"git.home.luguber.info/inful/spritegen/internal/observability"
	"git.home.luguber.info/inful/spritegen/internal/packer"
	"git.home.luguber.info/inful/spritegen/internal/render"
	"git.home.luguber.info/inful/spritegen/internal/resolve"
	"git.home.luguber.info/inful/spritegen/internal/sink"
	"git.home.luguber.info/inful/spritegen/internal/sprite"
)

// WatchHook is invoked once, after the first Start, when watch mode is on.
type WatchHook func(ctx context.Context, svc Service, initial *RunResult) error

// Orchestrator is the default Service.
type Orchestrator struct {
	cfg     *config.Config
	sheets  []*sheetState
	index   map[string]*sheetState
	outputs []string // every sheet's outputs

	resolver  resolve.Resolver
	packer    packer.Packer
	renderer  render.Renderer
	optimizer iconfont.Optimizer
	converter iconfont.Converter
	store     codepoints.Store
	sink      sink.Sink
	bus       *events.Bus
	recorder  metrics.Recorder
	watchHook WatchHook

	sprites *sprite.Builder
	fonts   *iconfont.Builder
	once    sync.Once

	phase     atomic.Int32
	watchOnce sync.Once
}

var _ Service = (*Orchestrator)(nil)

// NewOrchestrator prepares cfg and plans its sheets. Configuration problems
// surface here, before any sheet runs.
func NewOrchestrator(cfg *config.Config) (*Orchestrator, error) {
	if err := config.Prepare(cfg); err != nil {
		return nil, err
	}
	sheets, err := planSheets(cfg)
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		cfg:       cfg,
		sheets:    sheets,
		index:     make(map[string]*sheetState, len(sheets)),
		resolver:  resolve.NewGlobResolver(),
		packer:    packer.Dispatcher{},
		renderer:  render.New(),
		optimizer: iconfont.NewOptimizer(),
		recorder:  metrics.NoopRecorder{},
	}
	for _, st := range sheets {
		o.index[st.name] = st
		o.outputs = append(o.outputs, st.outputs...)
	}
	return o, nil
}

// WithResolver replaces the glob resolver.
func (o *Orchestrator) WithResolver(r resolve.Resolver) *Orchestrator {
	o.resolver = r
	return o
}

// WithPacker replaces the packing engine dispatcher.
func (o *Orchestrator) WithPacker(p packer.Packer) *Orchestrator {
	o.packer = p
	return o
}

// WithRenderer replaces the stylesheet renderer.
func (o *Orchestrator) WithRenderer(r render.Renderer) *Orchestrator {
	o.renderer = r
	return o
}

// WithOptimizer replaces the SVG optimizer.
func (o *Orchestrator) WithOptimizer(opt iconfont.Optimizer) *Orchestrator {
	o.optimizer = opt
	return o
}

// WithConverter replaces the external svg2ttf converter.
func (o *Orchestrator) WithConverter(c iconfont.Converter) *Orchestrator {
	o.converter = c
	return o
}

// WithCodepointStore persists code point assignments across runs.
func (o *Orchestrator) WithCodepointStore(s codepoints.Store) *Orchestrator {
	o.store = s
	return o
}

// WithSink overrides the sink chosen from the streams option.
func (o *Orchestrator) WithSink(s sink.Sink) *Orchestrator {
	o.sink = s
	return o
}

// WithBus sets the bus receiving lifecycle and stream update events.
func (o *Orchestrator) WithBus(b *events.Bus) *Orchestrator {
	o.bus = b
	return o
}

// WithRecorder sets the metrics recorder.
func (o *Orchestrator) WithRecorder(r metrics.Recorder) *Orchestrator {
	if r != nil {
		o.recorder = r
	}
	return o
}

// WithWatchHook registers the hand-off to the watch coordinator.
func (o *Orchestrator) WithWatchHook(h WatchHook) *Orchestrator {
	o.watchHook = h
	return o
}

// Config returns the prepared configuration.
func (o *Orchestrator) Config() *config.Config { return o.cfg }

// Phase returns the current run state.
func (o *Orchestrator) Phase() Phase { return Phase(o.phase.Load()) }

func (o *Orchestrator) setPhase(p Phase) {
	if o.Phase() == PhaseWatching && p != PhaseWatching {
		return
	}
	o.phase.Store(int32(p))
}

// builders wires the sprite and font builders on first use so the With*
// options can be applied in any order after NewOrchestrator.
func (o *Orchestrator) builders() {
	o.once.Do(func() {
		cfg := o.cfg
		if o.sink == nil {
			if cfg.Streams {
				o.sink = sink.NewStreamSink(o.bus)
			} else {
				o.sink = sink.NewFilesystemSink(cfg.Cwd)
			}
		}
		if o.converter == nil {
			o.converter = iconfont.NewExecConverter(cfg.SVG.Convert.SVG2TTF, cfg.Workspaces())
		}
		o.sprites = sprite.NewBuilder(o.packer, o.renderer, o.sink, sprite.Options{
			Cwd:           cfg.Cwd,
			ImgDest:       cfg.ImgDest,
			SheetDest:     cfg.SheetDest,
			SheetFormat:   cfg.SheetFormat,
			Template:      cfg.Template(),
			Padding:       cfg.PaddingPixels(),
			Algorithm:     cfg.Algorithm,
			AlgorithmOpts: cfg.AlgorithmOpts,
			Engine:        cfg.Engine,
			EngineOpts:    cfg.EngineOpts,
		})
		allocator := &codepoints.Allocator{
			Start:  rune(cfg.SVG.Provider.StartUnicode),
			Append: cfg.SVG.Provider.AppendUnicode,
			Store:  o.store,
		}
		o.fonts = iconfont.NewBuilder(o.optimizer, allocator, o.converter, o.renderer, o.sink, iconfont.Options{
			Cwd:         cfg.Cwd,
			FontDest:    cfg.FontDest,
			SheetDest:   cfg.SheetDest,
			SheetFormat: cfg.FontSheetFormat(),
			Template:    cfg.Template(),
			FontName:    cfg.SVG.Font.FontName,
			FontHeight:  cfg.SVG.Font.FontHeight,
			Normalize:   cfg.SVG.Font.NormalizeGlyphs(),
			Concurrency: cfg.SVG.Concurrency,
		})
	})
}

// Start runs every sheet and, in watch mode, hands off to the watch hook
// exactly once.
func (o *Orchestrator) Start(ctx context.Context) (*RunResult, error) {
	run := o.run(ctx, TriggerInitial)
	if !o.cfg.Watch || o.watchHook == nil {
		return run, nil
	}
	var err error
	o.watchOnce.Do(func() {
		o.setPhase(PhaseWatching)
		err = o.watchHook(ctx, o, run)
	})
	return run, err
}

// RebuildAll runs every sheet again.
func (o *Orchestrator) RebuildAll(ctx context.Context, trigger string) (*RunResult, error) {
	return o.run(ctx, trigger), nil
}

// RebuildSheet rebuilds only the named sheet.
func (o *Orchestrator) RebuildSheet(ctx context.Context, name, trigger string) (*SheetResult, error) {
	st, ok := o.index[name]
	if !ok {
		return nil, errors.WrapError(ErrUnknownSheet, errors.CategoryValidation, "unknown sheet").
			ForSheet(name).Build()
	}
	o.builders()
	o.recorder.IncRebuild(trigger)
	res := o.buildSheet(ctx, st, trigger)
	return res, res.Err
}

// Sheets returns a snapshot of every sheet in configuration order.
func (o *Orchestrator) Sheets() []SheetInfo {
	out := make([]SheetInfo, len(o.sheets))
	for i, st := range o.sheets {
		out[i] = st.info()
	}
	return out
}

// AddPath appends path to a literal sheet's source list.
func (o *Orchestrator) AddPath(sheet, path string) bool {
	st, ok := o.index[sheet]
	return ok && st.addPath(path)
}

// RemovePath drops path from a literal sheet's source list.
func (o *Orchestrator) RemovePath(sheet, path string) bool {
	st, ok := o.index[sheet]
	return ok && st.removePath(path)
}

func (o *Orchestrator) run(ctx context.Context, trigger string) *RunResult {
	o.builders()
	started := time.Now()
	run := &RunResult{
		ID:      uuid.NewString(),
		Shape:   o.cfg.Src.Shape,
		Trigger: trigger,
		Sheets:  make([]*SheetResult, len(o.sheets)),
	}
	ctx = observability.WithRun(ctx, run.ID, trigger)
	o.setPhase(PhaseResolving)
	observability.InfoContext(ctx, "Starting build run",
		logfields.Count(len(o.sheets)), slog.String("shape", run.Shape.String()))

	var wg sync.WaitGroup
	for i, st := range o.sheets {
		wg.Add(1)
		go func(i int, st *sheetState) {
			defer wg.Done()
			run.Sheets[i] = o.buildSheet(ctx, st, trigger)
		}(i, st)
	}
	wg.Wait()

	run.Duration = time.Since(started)
	outcome := run.Outcome()
	o.recorder.ObserveRunDuration(run.Duration)
	o.recorder.IncRunOutcome(outcome)
	if trigger != TriggerInitial {
		o.recorder.IncRebuild(trigger)
	}

	failed := len(run.Failed())
	attrs := []slog.Attr{
		logfields.Count(len(run.Sheets)),
		slog.Int("failed", failed),
		logfields.DurationMS(float64(run.Duration.Milliseconds())),
	}
	if failed == 0 {
		o.setPhase(PhaseComplete)
		observability.InfoContext(ctx, "Build run complete", attrs...)
	} else {
		o.setPhase(PhasePartialFailure)
		observability.WarnContext(ctx, "Build run finished with failures", attrs...)
	}
	return run
}

// buildSheet resolves, classifies and builds one sheet. Errors are recorded
// on the result; they never escape to sibling sheets.
func (o *Orchestrator) buildSheet(ctx context.Context, st *sheetState, trigger string) *SheetResult {
	res := &SheetResult{Sheet: st.name, BuildID: uuid.NewString(), Trigger: trigger}
	ctx = observability.WithSheetBuild(ctx, res.BuildID, st.name, trigger)

	select {
	case st.sem <- struct{}{}:
	case <-ctx.Done():
		res.Err = ctx.Err()
		return res
	}
	defer func() { <-st.sem }()

	started := time.Now()
	o.publish(ctx, events.SheetStarted{BuildID: res.BuildID, Sheet: st.name, Trigger: trigger, StartedAt: started})

	buildCtx := ctx
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	files, err := o.resolver.Resolve(buildCtx, st.input(), o.cfg.Cwd)
	if err != nil {
		res.Err = resolveFailure(o.timeoutOr(ctx, buildCtx, err, st.name), st.name)
		res.Duration = time.Since(started)
		o.fail(ctx, res, "resolve", res.Err)
		return res
	}
	files, skipped := o.withoutOutputs(files)
	for _, f := range skipped {
		observability.DebugContext(ctx, "Skipping generated file", logfields.Path(f))
	}
	st.setResolved(files)
	res.Sources = len(files)
	o.phase.CompareAndSwap(int32(PhaseResolving), int32(PhaseBuilding))

	classified := assets.Classify(files, o.cfg.IconFonts)
	if classified.Empty() {
		observability.WarnContext(ctx, "No source files matched")
	}

	results := make(chan kindResult, 2)
	pending := make(map[sink.Kind]time.Time, 2)
	if len(classified.Images) > 0 {
		pending[sink.KindSprite] = time.Now()
		go func() {
			r, err := o.sprites.Build(buildCtx, res.BuildID, st.name, classified.Images)
			results <- kindResult{kind: sink.KindSprite, sprite: r, err: err}
		}()
	}
	if len(classified.Icons) > 0 {
		pending[sink.KindFont] = time.Now()
		go func() {
			r, err := o.fonts.Build(buildCtx, res.BuildID, st.name, classified.Icons, len(classified.Images) > 0)
			results <- kindResult{kind: sink.KindFont, font: r, err: err}
		}()
	}
	o.collect(ctx, buildCtx, res, pending, results)
	res.Duration = time.Since(started)

	if res.SpriteErr != nil {
		res.Sprite = nil
		o.fail(ctx, res, string(sink.KindSprite), res.SpriteErr)
	}
	if res.FontErr != nil {
		res.Font = nil
		o.fail(ctx, res, string(sink.KindFont), res.FontErr)
	}
	res.Err = stderrors.Join(res.SpriteErr, res.FontErr)
	if res.Err != nil {
		return res
	}

	var kinds []string
	if res.Sprite != nil {
		kinds = append(kinds, string(sink.KindSprite))
	}
	if res.Font != nil {
		kinds = append(kinds, string(sink.KindFont))
	}
	observability.InfoContext(ctx, "Sheet built",
		logfields.Count(res.Sources),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	o.publish(ctx, events.SheetCompleted{
		BuildID:  res.BuildID,
		Sheet:    st.name,
		Kinds:    kinds,
		Files:    res.Files(),
		Duration: res.Duration,
	})
	return res
}

type kindResult struct {
	kind   sink.Kind
	sprite *sprite.Result
	font   *iconfont.Result
	err    error
}

// collect waits for the pending builds or the end of buildCtx, whichever
// comes first. Builds still running at that point are abandoned: they fail
// with the timeout and whatever they return later is dropped.
func (o *Orchestrator) collect(ctx, buildCtx context.Context, res *SheetResult, pending map[sink.Kind]time.Time, results <-chan kindResult) {
	for len(pending) > 0 {
		select {
		case r := <-results:
			err := o.timeoutOr(ctx, buildCtx, r.err, res.Sheet)
			var delivered *sink.Result
			switch r.kind {
			case sink.KindSprite:
				res.Sprite, res.SpriteErr = r.sprite, err
				if r.sprite != nil {
					delivered = r.sprite.Delivery
				}
			case sink.KindFont:
				res.Font, res.FontErr = r.font, err
				if r.font != nil {
					delivered = r.font.Delivery
				}
			}
			o.observe(string(r.kind), time.Since(pending[r.kind]), err, delivered)
			delete(pending, r.kind)
		case <-buildCtx.Done():
			err := o.timeoutOr(ctx, buildCtx, buildCtx.Err(), res.Sheet)
			for kind, started := range pending {
				if kind == sink.KindSprite {
					res.SpriteErr = err
				} else {
					res.FontErr = err
				}
				o.observe(string(kind), time.Since(started), err, nil)
			}
			return
		}
	}
}

// resolveFailure attributes a resolver error to its sheet. Cancellation is
// passed through untouched.
func resolveFailure(err error, sheet string) error {
	if classified, ok := err.(*errors.ClassifiedError); ok {
		if classified.Sheet() == "" {
			return classified.ForSheet(sheet)
		}
		return classified
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.WrapError(err, errors.CategoryResolution, "failed to resolve sources").ForSheet(sheet).Build()
}

// timeoutOr turns a deadline hit on the sheet's own timeout into a TimeoutError.
func (o *Orchestrator) timeoutOr(parent, buildCtx context.Context, err error, sheet string) error {
	if err == nil {
		return nil
	}
	if parent.Err() == nil && stderrors.Is(buildCtx.Err(), context.DeadlineExceeded) {
		return errors.WrapError(err, errors.CategoryTimeout, "sheet build timed out").
			ForSheet(sheet).
			WithContext("timeout", o.cfg.Timeout.String()).Build()
	}
	return err
}

func (o *Orchestrator) fail(ctx context.Context, res *SheetResult, kind string, err error) {
	observability.Failure(ctx, "Sheet build failed", err, logfields.Kind(kind))
	o.publish(ctx, events.SheetFailed{
		BuildID:  res.BuildID,
		Sheet:    res.Sheet,
		Kind:     kind,
		Err:      err,
		Duration: res.Duration,
	})
}

func (o *Orchestrator) observe(kind string, d time.Duration, err error, delivered *sink.Result) {
	o.recorder.ObserveSheetDuration(kind, d)
	switch {
	case err == nil:
		o.recorder.IncSheetResult(kind, metrics.ResultSuccess)
		if delivered != nil {
			o.recorder.AddArtifactBytes(kind, delivered.Bytes)
		}
	case errors.HasCategory(err, errors.CategoryTimeout), stderrors.Is(err, context.DeadlineExceeded):
		o.recorder.IncSheetResult(kind, metrics.ResultTimeout)
	case stderrors.Is(err, context.Canceled):
		o.recorder.IncSheetResult(kind, metrics.ResultCanceled)
	default:
		o.recorder.IncSheetResult(kind, metrics.ResultFailed)
	}
}

func (o *Orchestrator) publish(ctx context.Context, evt any) {
	if err := o.bus.Publish(ctx, evt); err != nil {
		observability.DebugContext(ctx, "Failed to publish lifecycle event", logfields.Error(err))
	}
}
