package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kdimtricp/piiscan/internal/analysis"
)

// JobFetcher is the single capability the poller needs from the service
// client.
type JobFetcher interface {
	GetJob(ctx context.Context, jobID string) (*analysis.Result, error)
}

// PollError wraps a transient fetch failure. It does not change the job
// state and does not stop the loop on its own.
type PollError struct {
	Err error
}

func (e *PollError) Error() string {
	return "poll failed: " + e.Err.Error()
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// ErrTooManyFailures means the consecutive transient failure cap was hit
// and the poller gave up.
var ErrTooManyFailures = errors.New("too many consecutive poll failures")

// UpdateKind discriminates poller updates.
type UpdateKind string

const (
	// UpdateStatus carries a fresh non-terminal or terminal result.
	UpdateStatus UpdateKind = "status"
	// UpdateTransient carries a non-fatal *PollError.
	UpdateTransient UpdateKind = "transient"
	// UpdateFatal carries the error that stopped the poller.
	UpdateFatal UpdateKind = "fatal"
)

// Update is one event from the polling loop.
type Update struct {
	Kind   UpdateKind
	Result *analysis.Result
	Err    error
}

// Options tune the polling loop.
type Options struct {
	// Interval between the resolution of one fetch and the start of the
	// next. Defaults to 3s.
	Interval time.Duration
	// MaxFailures is the number of consecutive transient failures allowed
	// before the poller escalates and stops. Defaults to 5.
	MaxFailures int
}

// Poller owns the poll timer for one job and drives its status to a
// terminal state. Updates arrive on Updates(); the channel is closed when
// the loop exits for any reason.
//
// At most one fetch is ever in flight: the loop is a single goroutine and
// the next fetch is scheduled only after the current one resolves.
type Poller struct {
	fetcher JobFetcher
	jobID   string
	opts    Options

	updates chan Update
	refresh chan struct{}
	cancel  context.CancelFunc

	mu      sync.Mutex
	started bool
}

func New(fetcher JobFetcher, jobID string, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 3 * time.Second
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 5
	}
	return &Poller{
		fetcher: fetcher,
		jobID:   jobID,
		opts:    opts,
		updates: make(chan Update, 16),
		refresh: make(chan struct{}, 1),
	}
}

// Updates is the stream of poll events.
func (p *Poller) Updates() <-chan Update {
	return p.updates
}

// Start launches the polling loop. The first fetch happens immediately to
// establish the initial state. Start may be called once.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("poller already started")
	}
	p.started = true

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	go p.run(loopCtx)
	return nil
}

// Refresh cancels the pending scheduled fetch and fetches immediately.
// If the job is still non-terminal afterwards, polling resumes on the
// normal interval. Safe to call from any goroutine; a no-op once the
// loop has exited.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Stop cancels the poll timer. An already issued fetch may still complete
// but its result is discarded, never applied or delivered.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.updates)

	failures := 0

	for {
		result, err := p.fetcher.GetJob(ctx, p.jobID)
		if ctx.Err() != nil {
			// Tear-down raced the fetch; discard whatever came back.
			return
		}

		if err != nil {
			var protoErr *analysis.ProtocolError
			if errors.As(err, &protoErr) {
				// The server broke the field contract. Retrying the same
				// endpoint cannot help.
				p.emit(ctx, Update{Kind: UpdateFatal, Err: err})
				return
			}

			failures++
			log.Printf("[POLL] job %s: transient fetch failure %d/%d: %v",
				p.jobID, failures, p.opts.MaxFailures, err)
			if failures >= p.opts.MaxFailures {
				p.emit(ctx, Update{Kind: UpdateFatal, Err: fmt.Errorf("%w: last: %v", ErrTooManyFailures, err)})
				return
			}
			p.emit(ctx, Update{Kind: UpdateTransient, Err: &PollError{Err: err}})
		} else {
			failures = 0
			p.emit(ctx, Update{Kind: UpdateStatus, Result: result})
			if result.Job.Status.Terminal() {
				return
			}
		}

		// Exactly one pending wait; a manual refresh supersedes it.
		select {
		case <-ctx.Done():
			return
		case <-p.refresh:
			log.Printf("[POLL] job %s: manual refresh", p.jobID)
		case <-time.After(p.opts.Interval):
		}
	}
}

func (p *Poller) emit(ctx context.Context, u Update) {
	select {
	case <-ctx.Done():
	case p.updates <- u:
	}
}
