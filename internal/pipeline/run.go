// Package pipeline provides the high-level orchestration for campaign creation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/buyside/internal/assets"
	"github.com/jonathan/buyside/internal/enrichment"
	"github.com/jonathan/buyside/internal/logging"
	"github.com/jonathan/buyside/internal/pipeline/steps"
	"github.com/jonathan/buyside/internal/types"
)

// ErrPersistence marks a submission that failed while saving. It is the only
// failure that aborts a submission after validation.
var ErrPersistence = errors.New("failed to save campaign")

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     int    `json:"step"`
	Total    int    `json:"total"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Persister saves an assembled campaign.
type Persister interface {
	Create(ctx context.Context, c types.Campaign) (*types.Campaign, error)
}

// Orchestrator runs a draft through enrichment, asset upload and persistence.
type Orchestrator struct {
	enricher   enrichment.Enricher
	uploader   assets.Uploader
	store      Persister
	logger     *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time
	newID      func() string
	sequential bool
	timeout    time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSequential runs the enrichment calls one after another instead of concurrently.
func WithSequential(sequential bool) Option {
	return func(o *Orchestrator) { o.sequential = sequential }
}

// WithEnrichmentTimeout bounds the enrichment phase. Zero means no deadline.
func WithEnrichmentTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTracer overrides the tracer (the global provider is used by default).
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator overrides campaign ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// New creates an Orchestrator. The uploader may be nil, in which case images are
// never hosted.
func New(enricher enrichment.Enricher, uploader assets.Uploader, store Persister, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		enricher: enricher,
		uploader: uploader,
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.OrNop(o.logger)
	if o.tracer == nil {
		o.tracer = otel.Tracer("github.com/jonathan/buyside/internal/pipeline")
	}
	return o
}

// enrichmentResult holds the outputs of the three enrichment calls
type enrichmentResult struct {
	keywords    []string
	verdict     enrichment.Verdict
	description string
}

// Submit creates a campaign from draft. See SubmitWithProgress.
func (o *Orchestrator) Submit(ctx context.Context, draft types.CampaignDraft) (*types.Campaign, error) {
	return o.SubmitWithProgress(ctx, draft, nil)
}

// SubmitWithProgress creates a campaign from draft, reporting each stage to onProgress.
//
// Enrichment and upload failures degrade to fallback values and never abort. Only an
// invalid draft or a persistence failure returns an error, in which case no campaign
// is returned. The draft is consumed either way.
func (o *Orchestrator) SubmitWithProgress(ctx context.Context, draft types.CampaignDraft, onProgress ProgressCallback) (*types.Campaign, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if o.store == nil {
		return nil, fmt.Errorf("%w: no record store configured", ErrPersistence)
	}

	ctx, span := o.tracer.Start(ctx, "pipeline.Submit", trace.WithAttributes(
		attribute.String("campaign.name", draft.Name),
		attribute.Int("campaign.budget", draft.Budget),
		attribute.Bool("campaign.has_image", draft.HasImage()),
		attribute.Bool("pipeline.sequential", o.sequential),
	))
	defer span.End()

	progress := newReporter(steps.Plan(draft.HasImage()), onProgress)

	image := draft.ImageData()
	result := o.enrich(ctx, draft.AdTextContent, image, progress)

	var imageURL string
	if draft.HasImage() {
		progress.emit(steps.StepUpload)
		imageURL = o.upload(ctx, draft.Image)
	}

	// Postgres keeps microseconds; truncate so created_at and the policy
	// timestamp still agree after a round trip.
	now := o.now().Truncate(time.Microsecond)
	campaign := types.Campaign{
		ID:                  o.newID(),
		Name:                draft.Name,
		Budget:              draft.Budget,
		AdTextContent:       draft.AdTextContent,
		AdImageURL:          imageURL,
		Keywords:            result.keywords,
		SemanticDescription: result.description,
		ReviewPolicy: types.ReviewPolicy{
			Status:    result.verdict.Status,
			Reason:    result.verdict.Reason,
			Timestamp: now,
		},
		CreatedAt: now,
	}
	if campaign.Keywords == nil {
		campaign.Keywords = []string{}
	}

	progress.emit(steps.StepSave)
	stored, err := o.persist(ctx, campaign)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		o.logger.Error("campaign submission failed",
			zap.String("campaign_id", campaign.ID), zap.Error(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("campaign.id", stored.ID),
		attribute.String("campaign.policy_status", string(stored.ReviewPolicy.Status)),
	)
	o.logger.Info("campaign created",
		zap.String("campaign_id", stored.ID),
		zap.String("policy_status", string(stored.ReviewPolicy.Status)),
		zap.Int("keywords", len(stored.Keywords)),
		zap.Bool("has_image", stored.HasImage()))
	return stored, nil
}

// enrich runs the three enrichment calls under a shared deadline. Each call keeps
// its own fallback, so none of them can fail the group.
func (o *Orchestrator) enrich(ctx context.Context, text string, image []byte, progress *reporter) enrichmentResult {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	var result enrichmentResult
	keywords := func(ctx context.Context) { result.keywords = o.extractKeywords(ctx, text, image) }
	policy := func(ctx context.Context) { result.verdict = o.ratePolicy(ctx, text, image) }
	semantics := func(ctx context.Context) { result.description = o.describeSemantics(ctx, text, image) }

	if o.sequential {
		progress.emit(steps.StepKeywords)
		keywords(ctx)
		progress.emit(steps.StepPolicy)
		policy(ctx)
		progress.emit(steps.StepSemantics)
		semantics(ctx)
		return result
	}

	// Each goroutine writes a distinct field; g.Wait orders those writes before the return.
	var g errgroup.Group
	for _, task := range []struct {
		step string
		run  func(context.Context)
	}{
		{steps.StepKeywords, keywords},
		{steps.StepPolicy, policy},
		{steps.StepSemantics, semantics},
	} {
		progress.emit(task.step)
		g.Go(func() error {
			task.run(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return result
}

func (o *Orchestrator) extractKeywords(ctx context.Context, text string, image []byte) []string {
	ctx, span := o.tracer.Start(ctx, "enrichment.ExtractKeywords")
	defer span.End()
	keywords := o.enricher.ExtractKeywords(ctx, text, image)
	span.SetAttributes(attribute.Int("keywords.count", len(keywords)))
	return keywords
}

func (o *Orchestrator) ratePolicy(ctx context.Context, text string, image []byte) enrichment.Verdict {
	ctx, span := o.tracer.Start(ctx, "enrichment.RatePolicy")
	defer span.End()
	verdict := o.enricher.RatePolicy(ctx, text, image)
	if !verdict.Status.Valid() {
		verdict = enrichment.Verdict{Status: types.PolicyPending, Reason: enrichment.ReasonNoVerdict}
	}
	span.SetAttributes(attribute.String("policy.status", string(verdict.Status)))
	return verdict
}

func (o *Orchestrator) describeSemantics(ctx context.Context, text string, image []byte) string {
	ctx, span := o.tracer.Start(ctx, "enrichment.DescribeSemantics")
	defer span.End()
	return o.enricher.DescribeSemantics(ctx, text, image)
}

func (o *Orchestrator) upload(ctx context.Context, image *types.ImageAttachment) string {
	if o.uploader == nil {
		o.logger.Warn("no asset uploader configured, campaign will have no image")
		return ""
	}

	ctx, span := o.tracer.Start(ctx, "assets.Upload")
	defer span.End()

	url, ok := o.uploader.Upload(ctx, image.Data, image.Extension)
	span.SetAttributes(attribute.Bool("upload.ok", ok))
	if !ok {
		return ""
	}
	return url
}

func (o *Orchestrator) persist(ctx context.Context, c types.Campaign) (*types.Campaign, error) {
	ctx, span := o.tracer.Start(ctx, "campaign.Create")
	defer span.End()

	stored, err := o.store.Create(ctx, c)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if stored == nil {
		stored = &c
	}
	return stored, nil
}

// reporter numbers progress events in emission order.
type reporter struct {
	mu       sync.Mutex
	plan     map[string]steps.StepDefinition
	total    int
	step     int
	callback ProgressCallback
}

func newReporter(plan []steps.StepDefinition, callback ProgressCallback) *reporter {
	byName := make(map[string]steps.StepDefinition, len(plan))
	for _, def := range plan {
		byName[def.Name] = def
	}
	return &reporter{plan: byName, total: len(plan), callback: callback}
}

func (r *reporter) emit(stepName string) {
	if r.callback == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.plan[stepName]
	if !ok {
		return
	}
	r.step++
	r.callback(ProgressEvent{
		Step:     r.step,
		Total:    r.total,
		Name:     def.Name,
		Category: def.Category,
		Message:  def.Label,
	})
}
