// Package forensic runs Proxy Guard assessments end to end: scoring,
// persistence, metrics and the optional AI narrative.
package forensic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/llm"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/metrics"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/store"
)

// ErrInvalidThresholds wraps a per-request threshold override that fails
// validation after merging.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// Options configures a Service. Zero values take the defaults.
type Options struct {
	Thresholds       proxyguard.Thresholds
	QueueSize        int
	BatchParallelism int
	ReportTimeout    time.Duration
	Narrator         NarratorConfig

	Metrics *metrics.Recorder
	Logger  *zap.Logger
}

// Input is one sample to assess, with optional subject and thresholds.
// Zero threshold fields fall back to the service thresholds.
type Input struct {
	SubjectID   string
	SubjectName string
	Sample      proxyguard.Sample
	Thresholds  proxyguard.Thresholds
}

// Outcome is a persisted assessment plus its scoring details.
type Outcome struct {
	Assessment *store.Assessment
	Result     *proxyguard.Result

	// NarrativeQueued reports whether a narrative job was accepted.
	NarrativeQueued bool
}

// Service coordinates synchronous scoring with asynchronous narration.
type Service struct {
	repo       store.AssessmentRepo
	narrator   *Narrator
	thresholds proxyguard.Thresholds
	parallel   int
	timeout    time.Duration
	metrics    *metrics.Recorder
	log        *zap.Logger

	mu      sync.RWMutex
	closed  bool
	pending chan narrativeJob
	done    sync.WaitGroup
}

type narrativeJob struct {
	req NarrativeRequest
}

// NewService creates a Service. If provider is nil, assessments are stored
// without narratives.
func NewService(repo store.AssessmentRepo, provider llm.Provider, opts Options) *Service {
	if opts.Thresholds == (proxyguard.Thresholds{}) {
		opts.Thresholds = proxyguard.DefaultThresholds()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}
	if opts.BatchParallelism <= 0 {
		opts.BatchParallelism = 8
	}
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = 60 * time.Second
	}
	if opts.Narrator == (NarratorConfig{}) {
		opts.Narrator = DefaultNarratorConfig()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Service{
		repo:       repo,
		thresholds: opts.Thresholds,
		parallel:   opts.BatchParallelism,
		timeout:    opts.ReportTimeout,
		metrics:    opts.Metrics,
		log:        opts.Logger,
	}
	if provider != nil {
		s.narrator = NewNarrator(provider, opts.Narrator)
		s.pending = make(chan narrativeJob, opts.QueueSize)
		s.done.Add(1)
		go s.processLoop()
	}
	return s
}

// Thresholds returns the service default thresholds.
func (s *Service) Thresholds() proxyguard.Thresholds {
	return s.thresholds
}

// HasNarrator reports whether narratives are generated.
func (s *Service) HasNarrator() bool {
	return s.narrator != nil
}

// Evaluate scores, persists and records one sample, then queues its
// narrative. Malformed telemetry returns the proxyguard error unchanged.
func (s *Service) Evaluate(ctx context.Context, in Input) (*Outcome, error) {
	th, res, err := s.score(in)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, in, th, res)
}

// EvaluateBatch assesses inputs concurrently and returns outcomes in input
// order. Every sample is scored before anything is stored, so one invalid
// sample aborts the batch with no records written.
func (s *Service) EvaluateBatch(ctx context.Context, inputs []Input) ([]*Outcome, error) {
	type scored struct {
		th  proxyguard.Thresholds
		res *proxyguard.Result
	}
	prepared := make([]scored, len(inputs))
	for i, in := range inputs {
		th, res, err := s.score(in)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		prepared[i] = scored{th: th, res: res}
	}

	out := make([]*Outcome, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, in := range inputs {
		g.Go(func() error {
			o, err := s.commit(gctx, in, prepared[i].th, prepared[i].res)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			out[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) score(in Input) (proxyguard.Thresholds, *proxyguard.Result, error) {
	th := s.thresholds.Merge(in.Thresholds)
	if err := th.Validate(); err != nil {
		return th, nil, fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
	}
	if err := in.Sample.CheckFinite(); err != nil {
		return th, nil, err
	}
	res, err := proxyguard.Evaluate(in.Sample, th)
	if err != nil {
		return th, nil, err
	}
	return th, res, nil
}

func (s *Service) commit(ctx context.Context, in Input, th proxyguard.Thresholds, res *proxyguard.Result) (*Outcome, error) {
	thJSON, err := json.Marshal(th)
	if err != nil {
		return nil, fmt.Errorf("encode thresholds: %w", err)
	}

	a := &store.Assessment{
		ID:              uuid.NewString(),
		SubjectID:       in.SubjectID,
		SubjectName:     in.SubjectName,
		Score:           res.Score,
		Verdict:         string(res.Verdict),
		LatencySignal:   string(res.Signals.Latency),
		CadenceSignal:   string(res.Signals.Cadence),
		GazeSignal:      string(res.Signals.Gaze),
		DeltaMs:         res.DeltaMs,
		CadenceVariance: res.CadenceVariance,
		GazeDrift:       res.GazeDrift,
		Thresholds:      string(thJSON),
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("persist assessment: %w", err)
	}

	s.metrics.ObserveResult(res)
	s.log.Info("assessment scored",
		zap.String("id", a.ID),
		zap.String("subject_id", a.SubjectID),
		zap.Int("score", res.Score),
		zap.String("verdict", a.Verdict),
	)

	queued := s.enqueue(narrativeJob{req: NarrativeRequest{
		AssessmentID: a.ID,
		SubjectName:  a.SubjectName,
		Result:       *res,
		Thresholds:   th,
	}})

	return &Outcome{Assessment: a, Result: res, NarrativeQueued: queued}, nil
}

func (s *Service) enqueue(job narrativeJob) bool {
	if s.narrator == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	select {
	case s.pending <- job:
		return true
	default:
		// Queue full: the assessment stands without a narrative.
		s.metrics.NarrativeOutcome(metrics.NarrativeDropped)
		s.log.Warn("narrative queue full, dropping job", zap.String("id", job.req.AssessmentID))
		return false
	}
}

func (s *Service) processLoop() {
	defer s.done.Done()
	for job := range s.pending {
		s.narrate(job)
	}
}

func (s *Service) narrate(job narrativeJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	id := job.req.AssessmentID
	report, err := s.narrator.Narrate(ctx, job.req)
	if err != nil {
		s.metrics.NarrativeOutcome(metrics.NarrativeFailed)
		s.log.Warn("narrative generation failed", zap.String("id", id), zap.Error(err))
		return
	}
	if err := s.repo.AttachReport(ctx, id, report.Raw); err != nil {
		s.metrics.NarrativeOutcome(metrics.NarrativeFailed)
		s.log.Warn("attach narrative failed", zap.String("id", id), zap.Error(err))
		return
	}
	s.metrics.NarrativeOutcome(metrics.NarrativeAttached)
	s.log.Debug("narrative attached", zap.String("id", id))
}

// Close stops accepting narrative jobs, finishes the queued ones and waits
// for the worker to exit. It is safe to call more than once.
func (s *Service) Close() {
	if s.narrator == nil {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.pending)
	}
	s.mu.Unlock()
	s.done.Wait()
}
