package parsehub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrPollCancelled = errors.New("parsehub: poll cancelled")
	ErrPollExhausted = errors.New("parsehub: poll attempts exhausted")
)

const newDataBanner = "========================================================"

// Poll is a handle on the background poll started by RequestUpdate.
type Poll struct {
	cancel context.CancelFunc
	done   chan struct{}

	// only read after done is closed
	changed  bool
	attempts int
	err      error
}

// Cancel stops the poll, it is a no-op once the poll is over.
func (p *Poll) Cancel() {
	p.cancel()
}

// Done is closed once the poll is over.
func (p *Poll) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the poll is over. It returns whether new data was
// installed, otherwise the error says why polling stopped.
func (p *Poll) Wait() (bool, error) {
	<-p.done
	return p.changed, p.err
}

// Attempts returns the number of fetches the poll made, it is only
// meaningful once the poll is over.
func (p *Poll) Attempts() int {
	<-p.done
	return p.attempts
}

// RequestUpdate asks parsehub to run the project again. When the run is
// accepted a poll is started in the background that swaps in the first
// snapshot differing from the current one, its handle is returned.
// Otherwise nil is returned and no poll is started.
//
// `ctx` bounds both the run request and the poll.
func (c *Client) RequestUpdate(ctx context.Context) *Poll {
	fmt.Fprintln(c.out, "Fetching new updates of Covid-19 from Worldometer.com ...")

	res, err := c.http.R().
		SetContext(ctx).
		Post(runEndpoint)
	if err != nil {
		c.tel.ReportBroken(
			report_client_request_update,
			fmt.Errorf("run: %w", err),
		)
		fmt.Fprintf(c.out, "Something went wrong when updating data.  %v\n", err)
		return nil
	}
	if res.StatusCode() != http.StatusOK {
		c.tel.ReportDebug("run not accepted", res.Status())
		return nil
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p := &Poll{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.poll(pollCtx, p, c.Snapshot())
	return p
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) poll(ctx context.Context, p *Poll, old *Snapshot) {
	defer close(p.done)
	defer p.cancel()

	c.tel.ReportDebug("poll started", c.opts.PollInterval.String(), c.opts.MaxPollAttempts)

	err := sleep(ctx, c.opts.PollDelay)
	if err != nil {
		p.err = ErrPollCancelled
		return
	}

	for {
		p.attempts++

		next, err := c.FetchSnapshot(ctx)
		if err != nil && ctx.Err() != nil {
			p.err = ErrPollCancelled
			return
		}
		if err != nil {
			c.tel.ReportWarning(report_client_poll, err, p.attempts)
		} else if !next.Equal(old) {
			c.current.Store(next)
			p.changed = true
			c.tel.ReportCount("client.poll-attempts", int64(p.attempts))

			fmt.Fprintln(c.out, newDataBanner)
			fmt.Fprintln(c.out, "New data for Covid-19 from Worldometer is now available.")
			fmt.Fprintln(c.out, newDataBanner)
			return
		}

		if c.opts.MaxPollAttempts > 0 && p.attempts >= c.opts.MaxPollAttempts {
			p.err = ErrPollExhausted
			return
		}

		err = sleep(ctx, c.opts.PollInterval)
		if err != nil {
			p.err = ErrPollCancelled
			return
		}
	}
}
