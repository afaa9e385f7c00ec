package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
	azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
	"github.com/otherjamesbrown/azurely-cli/pkg/logging"
	"github.com/otherjamesbrown/azurely-cli/pkg/observability"
)

// Analyzer performs one analysis round trip. client.AnalysisClient implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// ErrNothingToSubmit is returned by SubmitAndWait when Submit was a no-op.
var ErrNothingToSubmit = fmt.Errorf("%w: no file selected or a request is already in flight", azerrors.ErrInvalidState)

// Option configures a Controller.
type Option func(*Controller)

// WithLanguage sets the initial language. Invalid tags are ignored.
func WithLanguage(lang analysis.Language) Option {
	return func(c *Controller) {
		if lang.IsValid() {
			c.language = lang
		}
	}
}

// WithLogger sets the controller's logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records transitions and rejections on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// Controller owns one session's candidate, language and State.
//
// Every submission is tagged with a generation number. Reset and a new
// submission bump the generation, so a response that arrives for an older
// generation is discarded instead of being applied.
type Controller struct {
	analyzer Analyzer
	logger   logging.Logger
	metrics  *observability.Metrics

	mu         sync.Mutex
	state      State
	candidate  analysis.Candidate
	language   analysis.Language
	validation string
	dragOver   bool
	generation uint64

	listeners map[int]func(Snapshot)
	nextID    int
}

// New creates a controller in the Idle state.
func New(analyzer Analyzer, opts ...Option) *Controller {
	c := &Controller{
		analyzer:  analyzer,
		logger:    logging.NewNopLogger(),
		state:     Idle(),
		language:  analysis.DefaultLanguage,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a consistent copy of the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current State.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:             c.state,
		Language:          c.language,
		ValidationMessage: c.validation,
		DragOver:          c.dragOver,
		Generation:        c.generation,
	}
	if !c.candidate.IsZero() {
		s.Candidate = &CandidateInfo{
			Name:      c.candidate.Name,
			SizeBytes: c.candidate.SizeBytes,
			Extension: c.candidate.Extension,
		}
	}
	return s
}

// Subscribe registers fn to be called with a snapshot after every change.
// Callbacks run outside the controller lock. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// notify must be called without c.mu held.
func (c *Controller) notify(s Snapshot, listeners []func(Snapshot)) {
	for _, fn := range listeners {
		fn(s)
	}
}

// commitLocked captures the snapshot and listeners to notify once unlocked.
func (c *Controller) commitLocked() (Snapshot, []func(Snapshot)) {
	listeners := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	return c.snapshotLocked(), listeners
}

// setStateLocked moves to next and records the transition.
func (c *Controller) setStateLocked(next State) {
	prev := c.state.Kind
	c.state = next
	if prev != next.Kind {
		c.metrics.RecordTransition(prev.String(), next.Kind.String())
		c.logger.Debug("session state changed",
			logging.F("from", prev.String()),
			logging.F("to", next.Kind.String()),
			logging.F("generation", int64(c.generation)),
		)
	}
}

// SelectFile validates and stores a candidate.
//
// A rejected file sets the validation message and leaves any prior candidate
// in place. An accepted file replaces the prior candidate and clears the
// validation message. Outside Loading, selecting a file returns the session to
// Idle, discarding a shown result or error. During Loading the new candidate
// is kept for the next submission and the request in flight is left alone.
func (c *Controller) SelectFile(file analysis.Candidate) error {
	c.mu.Lock()

	err := analysis.ValidateName(file.Name)

	if !c.state.IsLoading() {
		c.setStateLocked(Idle())
	}

	if err != nil {
		c.validation = analysis.UnsupportedFormatMessage
		c.metrics.RecordRejection(string(azerrors.ErrUnsupportedFormat))
		c.logger.Info("file rejected", logging.F("file", file.Name))
	} else {
		c.candidate = file
		c.validation = ""
		c.logger.Debug("file selected",
			logging.F("file", file.Name),
			logging.F("size_bytes", file.SizeBytes),
		)
	}

	snap, listeners := c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, listeners)
	return err
}

// ClearFile discards the candidate. It does not touch the State.
func (c *Controller) ClearFile() {
	c.mu.Lock()
	if c.candidate.IsZero() {
		c.mu.Unlock()
		return
	}
	c.candidate = analysis.Candidate{}
	snap, listeners := c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, listeners)
}

// SetLanguage sets the language for the next submission.
// Tags outside analysis.SupportedLanguages are refused and change nothing.
func (c *Controller) SetLanguage(lang analysis.Language) error {
	if !lang.IsValid() {
		c.metrics.RecordRejection(string(azerrors.ErrUnsupportedLanguage))
		return fmt.Errorf("%w: %q", analysis.ErrUnsupportedLanguage, string(lang))
	}

	c.mu.Lock()
	if c.language == lang {
		c.mu.Unlock()
		return nil
	}
	c.language = lang
	snap, listeners := c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, listeners)
	return nil
}

// SetDragOver sets the cosmetic drag-over flag. It never affects decisions.
func (c *Controller) SetDragOver(over bool) {
	c.mu.Lock()
	if c.dragOver == over {
		c.mu.Unlock()
		return
	}
	c.dragOver = over
	snap, listeners := c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, listeners)
}

// Submit starts an analysis of the current candidate.
//
// It is a no-op returning nil when no candidate is held or a request is
// already in flight. Otherwise the state moves to Loading, the request runs on
// its own goroutine with ctx, and the returned channel is closed once its
// outcome has been applied or discarded as stale.
func (c *Controller) Submit(ctx context.Context) <-chan struct{} {
	c.mu.Lock()

	if c.candidate.IsZero() || c.state.IsLoading() {
		c.mu.Unlock()
		return nil
	}

	req, err := analysis.NewRequest(c.candidate, c.language)
	if err != nil {
		// The candidate and language were validated on the way in.
		c.mu.Unlock()
		c.logger.Error("building request", logging.Err(err))
		return nil
	}

	c.generation++
	gen := c.generation
	c.setStateLocked(Loading(req.File.Name))
	snap, listeners := c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, listeners)

	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err := c.analyzer.Analyze(ctx, req)
		c.complete(gen, result, err)
	}()
	return done
}

// complete applies the outcome of generation gen exactly once.
func (c *Controller) complete(gen uint64, result *analysis.Result, err error) {
	c.mu.Lock()

	if gen != c.generation || !c.state.IsLoading() {
		c.mu.Unlock()
		c.metrics.RecordStale()
		c.logger.Info("discarding stale response",
			logging.F("generation", int64(gen)),
		)
		return
	}

	switch {
	case err != nil:
		c.setStateLocked(Failed(UserMessage(err)))
	case result == nil:
		c.setStateLocked(Failed(ConnectionFailedMessage))
	default:
		c.setStateLocked(Success(result))
	}

	snap, listeners := c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, listeners)
}

// SubmitAndWait submits and blocks until the outcome is applied.
// It returns ErrNothingToSubmit when Submit was a no-op.
func (c *Controller) SubmitAndWait(ctx context.Context) (Snapshot, error) {
	done := c.Submit(ctx)
	if done == nil {
		return c.Snapshot(), ErrNothingToSubmit
	}
	<-done
	return c.Snapshot(), nil
}

// Reset returns to Idle, discarding the candidate, result and messages.
// A request in flight is abandoned and its response ignored. The language
// and drag-over flag are kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.state.IsLoading() {
		c.generation++
	}
	c.candidate = analysis.Candidate{}
	c.validation = ""
	c.setStateLocked(Idle())
	snap, listeners := c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, listeners)
}
