package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipline/internal/config"
	"clipline/internal/logging"
	"clipline/internal/store"
)

// StageFunc processes one claimed video. The video's status has already
// been moved to the stage's in-flight value; the handler does the work
// and persists its artifacts, and the manager finalizes the status.
type StageFunc func(ctx context.Context, video *store.Video) error

// Handlers are the stage implementations the manager dispatches to.
type Handlers struct {
	// Ingest fetches media and audio for a queued video.
	Ingest StageFunc
	// Transcribe produces the normalized transcript for downloaded media.
	Transcribe StageFunc
	// Process selects clips, renders them and generates their captions.
	// It is responsible for the internal selecting -> extracting
	// transition once the clip plan is persisted.
	Process StageFunc
}

type stageDef struct {
	name string
	// claim moves from -> inflight; on handler success the manager
	// finalizes final -> done.
	from     store.Status
	inflight store.Status
	final    store.Status
	done     store.Status
}

// Manager runs the worker pool that advances videos through the stage
// state machine. Per-video exclusivity comes from the store's guarded
// status claims, so any number of managers could share one database.
type Manager struct {
	store    *store.Store
	cfg      *config.Config
	log      *logging.Logger
	handlers Handlers
	stages   []stageDef

	mu        sync.Mutex
	cancels   map[string]context.CancelFunc
	cancelled map[string]bool

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     context.CancelFunc
}

// NewManager wires a manager over the given store and stage handlers.
func NewManager(st *store.Store, cfg *config.Config, logger *logging.Logger, handlers Handlers) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		store:     st,
		cfg:       cfg,
		log:       logging.WithComponent(logger, "pipeline"),
		handlers:  handlers,
		cancels:   make(map[string]context.CancelFunc),
		cancelled: make(map[string]bool),
	}
	// No stage-level deadlines: every external call inside a handler
	// carries its own per-attempt timeout, so a timed-out attempt is
	// retried instead of aborting the stage.
	m.stages = []stageDef{
		{
			name:     "ingest",
			from:     store.StatusQueued,
			inflight: store.StatusDownloading,
			final:    store.StatusDownloading,
			done:     store.StatusDownloaded,
		},
		{
			name:     "transcribe",
			from:     store.StatusDownloaded,
			inflight: store.StatusTranscribing,
			final:    store.StatusTranscribing,
			done:     store.StatusTranscribed,
		},
		{
			// Selection and extraction run as one continuous stage; the
			// handler moves selecting -> extracting itself once the clip
			// plan is durable.
			name:     "process",
			from:     store.StatusTranscribed,
			inflight: store.StatusSelecting,
			final:    store.StatusExtracting,
			done:     store.StatusDone,
		},
	}
	return m
}

// Start launches the worker pool. Workers run until Stop or ctx
// cancellation.
func (m *Manager) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.stop = cancel

	workers := m.cfg.Workflow.Workers
	if workers < 1 {
		workers = 1
	}
	m.log.Infow("starting workers", "count", workers)
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(runCtx, i)
	}
}

// Stop cancels all in-flight work and waits for the workers to drain.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		if m.stop != nil {
			m.stop()
		}
		m.wg.Wait()
	})
}

// Cancel aborts the in-flight stage for a video, if any. The video is
// then marked failed with a "cancelled" reason by the worker that owns
// it. Returns false when the video is not currently being processed.
func (m *Manager) Cancel(videoID string) bool {
	m.mu.Lock()
	cancel, ok := m.cancels[videoID]
	if ok {
		m.cancelled[videoID] = true
	}
	m.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (m *Manager) worker(ctx context.Context, id int) {
	defer m.wg.Done()
	log := m.log.With("worker", id)

	ticker := time.NewTicker(m.cfg.PollInterval())
	defer ticker.Stop()

	for {
		worked := m.runOnePass(ctx, log)
		if ctx.Err() != nil {
			return
		}
		if worked {
			// Something advanced; look again immediately so a video
			// flows through consecutive stages without poll latency.
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runOnePass tries each stage once and reports whether any video was
// processed.
func (m *Manager) runOnePass(ctx context.Context, log *logging.Logger) bool {
	for _, stage := range m.stages {
		if ctx.Err() != nil {
			return false
		}
		video, err := m.store.ClaimNext(ctx, stage.from, stage.inflight)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Errorw("claim failed", "stage", stage.name, "error", err)
			}
			continue
		}
		if video == nil {
			continue
		}
		m.runStage(ctx, log, stage, video)
		return true
	}
	return false
}

func (m *Manager) runStage(ctx context.Context, log *logging.Logger, stage stageDef, video *store.Video) {
	requestID := uuid.NewString()
	log = log.With("stage", stage.name, "video_id", video.ID, "request_id", requestID)

	stageCtx, cancel := context.WithCancel(ctx)
	m.register(video.ID, cancel)
	defer m.unregister(video.ID)
	defer cancel()

	log.Infow("stage start")
	start := time.Now()
	err := m.dispatch(stageCtx, stage, video)
	elapsed := time.Since(start)

	if err == nil {
		// A cancel that lands as the handler finishes still has to stop
		// the video; letting it continue would ignore an accepted
		// cancel, and the stale flag would mislabel a later failure.
		if m.consumeCancelled(video.ID) {
			if markErr := m.store.MarkFailed(context.Background(), video.ID, stage.name, store.CancelledReason); markErr != nil {
				log.Errorw("mark cancelled", "error", markErr)
			}
			log.Infow("stage cancelled", "elapsed", elapsed)
			return
		}
		if finalErr := m.store.Transition(context.Background(), video.ID, stage.final, stage.done); finalErr != nil {
			log.Errorw("stage finalize failed", "error", finalErr)
			return
		}
		log.Infow("stage complete", "elapsed", elapsed)
		return
	}

	reason := err.Error()
	if m.consumeCancelled(video.ID) || errors.Is(err, context.Canceled) {
		reason = store.CancelledReason
		log.Infow("stage cancelled", "elapsed", elapsed)
	} else {
		log.Errorw("stage failed", "elapsed", elapsed, "error", err)
	}
	if ctx.Err() != nil && reason != store.CancelledReason {
		// Process shutdown, not a video failure. Leave the in-flight
		// status for the startup rollback to reset.
		return
	}
	if markErr := m.store.MarkFailed(context.Background(), video.ID, stage.name, reason); markErr != nil {
		log.Errorw("mark failed", "error", markErr)
	}
}

func (m *Manager) dispatch(ctx context.Context, stage stageDef, video *store.Video) error {
	var fn StageFunc
	switch stage.name {
	case "ingest":
		fn = m.handlers.Ingest
	case "transcribe":
		fn = m.handlers.Transcribe
	case "process":
		fn = m.handlers.Process
	}
	if fn == nil {
		return errors.New("no handler registered for stage " + stage.name)
	}
	return fn(ctx, video)
}

func (m *Manager) register(videoID string, cancel context.CancelFunc) {
	m.mu.Lock()
	m.cancels[videoID] = cancel
	m.mu.Unlock()
}

func (m *Manager) unregister(videoID string) {
	m.mu.Lock()
	delete(m.cancels, videoID)
	m.mu.Unlock()
}

func (m *Manager) consumeCancelled(videoID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := m.cancelled[videoID]
	delete(m.cancelled, videoID)
	return was
}

// RetryPolicyFromConfig builds the shared stage retry policy.
func RetryPolicyFromConfig(cfg *config.Config) RetryPolicy {
	return RetryPolicy{
		Attempts:  cfg.Workflow.RetryAttempts,
		BaseDelay: cfg.RetryBaseDelay(),
		MaxDelay:  cfg.RetryMaxDelay(),
	}
}
