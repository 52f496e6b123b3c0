package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
)

// Status messages shown while a submission runs.
const (
	MessageParsing   = "Parsing..."
	MessageIndexing  = "Indexing..."
	MessageCancelled = "Submission cancelled."
)

// ErrSubmissionInFlight is returned by Submit while another submission runs.
var ErrSubmissionInFlight = perrors.New(perrors.ErrCodeInFlight, "A submission is already in progress.", nil)

// Submitter posts a parsed document to the indexing endpoint and returns the
// number of records the backend indexed.
type Submitter interface {
	Submit(ctx context.Context, schema, index string, body json.RawMessage) (int64, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, schema, index string, body json.RawMessage) (int64, error)

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, schema, index string, body json.RawMessage) (int64, error) {
	return f(ctx, schema, index, body)
}

// Recorder receives every finished submission.
type Recorder interface {
	Record(ctx context.Context, outcome Outcome) error
}

// Outcome is the final result of a submission that reached the network.
type Outcome struct {
	ID        string
	Selection Selection
	Count     int64
	Err       error
	StartedAt time.Time
	Duration  time.Duration
	State     State
}

// Succeeded reports whether the backend accepted the document.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Pending is the handle of an in-flight submission.
type Pending struct {
	id      string
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

// ID returns the submission identifier used in logs and history.
func (p *Pending) ID() string { return p.id }

// Done is closed once the outcome is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Cancel aborts the request. The outcome becomes a cancellation failure
// unless the backend already answered.
func (p *Pending) Cancel() { p.cancel() }

// Result blocks until the submission finishes.
func (p *Pending) Result() Outcome {
	<-p.done
	return p.outcome
}

// Wait blocks until the submission finishes or ctx is done.
// Giving up on ctx does not cancel the submission.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for workflow events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithRecorder sets where finished submissions are recorded.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDGenerator overrides the submission ID source.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) {
		c.newID = gen
	}
}

// Controller runs the submission workflow. Only one submission may be in
// flight at a time; a second Submit is rejected with ErrSubmissionInFlight.
type Controller struct {
	submitter Submitter
	recorder  Recorder
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	state   State
	pending *Pending
	subs    map[*subscription]struct{}
	running sync.WaitGroup
}

// New creates a controller in the Idle phase.
func New(submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		submitter: submitter,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
		subs:      make(map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current workflow snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit starts a submission of buf for sel.
//
// Selection and parse failures are reported synchronously: the returned
// error is set and no request is made. A nil buf counts as empty text.
// Otherwise the canonical text is written to buf and the returned Pending
// resolves when the backend answers.
func (c *Controller) Submit(ctx context.Context, sel Selection, buf Buffer) (*Pending, error) {
	c.mu.Lock()
	if c.state.Phase.InFlight() {
		c.mu.Unlock()
		c.logger.Debug("submission_rejected", slog.String("reason", "in flight"))
		return nil, perrors.New(perrors.ErrCodeInFlight, ErrSubmissionInFlight.Message, nil)
	}

	if err := CheckSelection(sel); err != nil {
		c.setLocked(State{Phase: PhaseIdle, Message: perrors.Message(err)})
		c.mu.Unlock()
		c.logger.Debug("submission_blocked", perrors.FormatForLog(err)...)
		return nil, err
	}

	c.setLocked(State{Phase: PhaseValidating, Message: MessageParsing, Spinning: true})
	c.mu.Unlock()

	var raw string
	if buf != nil {
		raw = buf.Text()
	}
	doc, err := Validate(raw)
	if err != nil {
		c.mu.Lock()
		c.setLocked(State{Phase: PhaseFailed, Message: perrors.Message(err)})
		c.mu.Unlock()
		c.logger.Debug("submission_invalid", perrors.FormatForLog(err)...)
		return nil, err
	}
	if buf != nil {
		buf.SetText(doc.Canonical)
	}

	reqCtx, cancel := c.requestContext(ctx)
	p := &Pending{
		id:     c.newID(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	c.pending = p
	c.setLocked(State{Phase: PhaseSubmitting, Message: MessageIndexing, Spinning: true})
	c.mu.Unlock()

	c.logger.Info("submission_started",
		slog.String("submission_id", p.id),
		slog.String("schema", sel.Schema),
		slog.String("index", sel.Index),
		slog.Int("body_bytes", len(doc.Body)))

	c.running.Add(1)
	go c.run(reqCtx, p, sel, doc)

	return p, nil
}

// Cancel aborts the in-flight submission, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	p := c.pending
	c.mu.Unlock()

	if p != nil {
		p.Cancel()
	}
}

// Shutdown cancels the in-flight submission and waits until its outcome,
// including recording, is complete or ctx is done.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.Cancel()

	finished := make(chan struct{})
	go func() {
		c.running.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset clears a Succeeded or Failed display back to Idle.
// It does nothing while a submission is in flight.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase.InFlight() || c.state == (State{}) {
		return
	}
	c.setLocked(State{Phase: PhaseIdle})
}

// Subscribe returns a channel receiving every state change in order.
// Call the returned function to stop; the channel is then closed.
func (c *Controller) Subscribe() (<-chan State, func()) {
	s := newSubscription()

	c.mu.Lock()
	c.subs[s] = struct{}{}
	c.mu.Unlock()

	go s.run()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, s)
			c.mu.Unlock()
			close(s.stop)
		})
	}
	return s.out, stop
}

func (c *Controller) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// run performs the request and applies its outcome.
func (c *Controller) run(ctx context.Context, p *Pending, sel Selection, doc *Document) {
	defer c.running.Done()
	defer p.cancel()

	started := c.now()
	count, err := c.submitter.Submit(ctx, sel.Schema, sel.Index, doc.Body)
	duration := c.now().Sub(started)

	var final State
	switch {
	case err == nil:
		final = State{Phase: PhaseSucceeded, Message: Report(count)}
	case errors.Is(ctx.Err(), context.Canceled):
		err = perrors.New(perrors.ErrCodeCancelled, MessageCancelled, err)
		final = State{Phase: PhaseFailed, Message: MessageCancelled}
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		err = perrors.NetworkError(fmt.Sprintf("No response after %s.", c.timeout), err)
		final = State{Phase: PhaseFailed, Message: perrors.Message(err)}
	default:
		final = State{Phase: PhaseFailed, Message: perrors.Message(err)}
	}

	p.outcome = Outcome{
		ID:        p.id,
		Selection: sel,
		Count:     count,
		Err:       err,
		StartedAt: started,
		Duration:  duration,
		State:     final,
	}
	if err != nil {
		p.outcome.Count = 0
	}

	c.mu.Lock()
	c.pending = nil
	c.setLocked(final)
	c.mu.Unlock()

	attrs := []any{
		slog.String("submission_id", p.id),
		slog.String("phase", final.Phase.String()),
		slog.Int64("count", p.outcome.Count),
		slog.Duration("duration", duration),
	}
	if err != nil {
		c.logger.Warn("submission_failed", append(attrs, perrors.FormatForLog(err)...)...)
	} else {
		c.logger.Info("submission_completed", attrs...)
	}

	if c.recorder != nil {
		// The request context is spent; recording must not be cut short by it.
		if recErr := c.recorder.Record(context.WithoutCancel(ctx), p.outcome); recErr != nil {
			c.logger.Warn("submission_record_failed",
				slog.String("submission_id", p.id),
				slog.String("error", recErr.Error()))
		}
	}

	close(p.done)
}

// setLocked stores st and queues it for subscribers. c.mu must be held,
// which keeps deliveries in transition order.
func (c *Controller) setLocked(st State) {
	c.state = st
	for s := range c.subs {
		s.push(st)
	}
}

// subscription delivers queued states without blocking the controller.
type subscription struct {
	mu     sync.Mutex
	queue  []State
	signal chan struct{}
	stop   chan struct{}
	out    chan State
}

func newSubscription() *subscription {
	return &subscription{
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		out:    make(chan State),
	}
}

func (s *subscription) push(st State) {
	s.mu.Lock()
	s.queue = append(s.queue, st)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	defer close(s.out)
	for {
		select {
		case <-s.signal:
		case <-s.stop:
			return
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			st := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- st:
			case <-s.stop:
				return
			}
		}
	}
}
