package collect

import (
	"context"
	"time"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/remote"
)

// PollInterval is the period between task status requests.
const PollInterval = 5 * time.Second

// Ticker is a periodic time source.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates tickers.
type TickerFactory func(d time.Duration) Ticker

// NewTimeTicker returns a Ticker backed by a time.Ticker.
func NewTimeTicker(d time.Duration) Ticker { return timeTicker{t: time.NewTicker(d)} }

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

type pollResult struct {
	report *model.StatusReport
	err    error
}

// poller refreshes the status of a single task on every tick.
//
// Status requests run on their own goroutine and deliver the response on a
// single-slot mailbox, the loop applies it and only then accepts a new request,
// ticks received meanwhile are dropped.
type poller struct {
	id     string
	client remote.Client
	ticker Ticker
	logger log.Logger

	// active reports if this poller is still the one tracking the current task.
	active func(p *poller) bool
	// apply handles a status response and returns true when polling must end.
	apply func(p *poller, r *model.StatusReport, err error) (done bool)

	results chan pollResult
	cancel  context.CancelFunc
	done    chan struct{}
}

func startPoller(
	id string,
	client remote.Client,
	ticker Ticker,
	logger log.Logger,
	active func(p *poller) bool,
	apply func(p *poller, r *model.StatusReport, err error) bool,
) *poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &poller{
		id:      id,
		client:  client,
		ticker:  ticker,
		logger:  logger.WithValues(log.Kv{"task-id": id}),
		active:  active,
		apply:   apply,
		results: make(chan pollResult, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go p.run(ctx)

	return p
}

func (p *poller) run(ctx context.Context) {
	defer close(p.done)
	defer p.ticker.Stop()

	p.logger.Debugf("Polling started")
	inFlight := false
	for {
		select {
		case <-ctx.Done():
			p.logger.Debugf("Polling stopped")
			return

		case <-p.ticker.C():
			if inFlight {
				p.logger.Debugf("Status request still in flight, tick skipped")
				continue
			}
			if !p.active(p) {
				p.logger.Debugf("Task no longer tracked, polling stopped")
				return
			}

			inFlight = true
			go p.request(ctx)

		case res := <-p.results:
			// A stop requested while the request was running wins over its result.
			if ctx.Err() != nil {
				return
			}
			if p.apply(p, res.report, res.err) {
				p.logger.Debugf("Task reached a final status, polling stopped")
				return
			}
			inFlight = false
		}
	}
}

func (p *poller) request(ctx context.Context) {
	// Stopping the poller doesn't abort a request already sent, its result is
	// left on the mailbox and never applied.
	r, err := p.client.Status(context.WithoutCancel(ctx), p.id)
	p.results <- pollResult{report: r, err: err}
}

// stop stops the loop and waits until the ticker is released. Safe to call more
// than once, must not be called from the loop itself.
func (p *poller) stop() {
	p.cancel()
	<-p.done
}
