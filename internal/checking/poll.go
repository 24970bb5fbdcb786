package checking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/models"
)

// cancelTimeout bounds the request that cancels an abandoned check.
const cancelTimeout = 5 * time.Second

// PollOptions controls the poll loop.
type PollOptions struct {
	MaxAttempts     int
	Interval        time.Duration
	HonorRetryAfter bool
	CancelOnAbandon bool
}

// Poller fetches a check's result URL until the result is ready.
type Poller struct {
	client  *api.Client
	session *Session
	opts    PollOptions
	logger  Logger
	wait    func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a Poller.
func NewPoller(client *api.Client, session *Session, opts PollOptions, logger Logger) *Poller {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Poller{
		client:  client,
		session: session,
		opts:    opts,
		logger:  logger,
		wait:    sleepContext,
	}
}

// PollUntilReady waits, then requests job.ResultURL, until the response
// carries data or job.MaxAttempts requests have been made. Unparseable
// responses and responses without data count as not ready. Exhausting the
// budget yields api.ErrTimeout; a done ctx yields api.ErrCanceled. Either way
// the server is asked to cancel the check when CancelOnAbandon is set.
func (p *Poller) PollUntilReady(ctx context.Context, job *models.CheckJob) (models.Result, error) {
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = p.opts.MaxAttempts
	}
	if job.Interval <= 0 {
		job.Interval = p.opts.Interval
	}

	delay := job.Interval
	for !job.Exhausted() {
		if err := p.wait(ctx, delay); err != nil {
			p.abandon(ctx, job)
			return models.Result{}, api.Wrap(api.ErrCanceled, "poll", err)
		}

		job.AttemptsMade++
		p.logger.LogPollAttempt(job.AttemptsMade, job.MaxAttempts)

		resp, err := p.client.Do(ctx, http.MethodGet, job.ResultURL, nil, nil)
		if err != nil {
			if errors.Is(err, api.ErrCanceled) {
				p.abandon(ctx, job)
			}
			return models.Result{}, err
		}
		p.session.Record(KindResult, resp.URL, resp.Status, resp.Body)

		delay = job.Interval
		payload, err := api.Decode(resp, p.logger)
		if err != nil {
			if api.IsFatal(err) {
				return models.Result{}, err
			}
			p.logger.LogDebug(fmt.Sprintf("result not ready (attempt %d): unparseable response", job.AttemptsMade))
			continue
		}

		data := api.Map(payload, "data")
		if data == nil {
			delay = p.nextDelay(payload, job.Interval)
			continue
		}
		return parseResult(data), nil
	}

	p.abandon(ctx, job)
	return models.Result{}, &api.Error{
		Kind: api.ErrTimeout,
		Op:   "poll",
		URL:  job.ResultURL,
		Err:  fmt.Errorf("no result after %d attempts; the check did not complete, start it again", job.MaxAttempts),
	}
}

// nextDelay uses the server's progress.retryAfter hint when enabled.
func (p *Poller) nextDelay(payload map[string]any, fallback time.Duration) time.Duration {
	if !p.opts.HonorRetryAfter {
		return fallback
	}
	secs, ok := api.Float(payload, "progress", "retryAfter")
	if !ok || secs <= 0 {
		return fallback
	}
	return time.Duration(secs * float64(time.Second))
}

// abandon asks the server to cancel job. Failures are only logged.
func (p *Poller) abandon(ctx context.Context, job *models.CheckJob) {
	if !p.opts.CancelOnAbandon || job.CancelURL == "" {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()

	resp, err := p.client.Do(cctx, http.MethodDelete, job.CancelURL, nil, nil)
	if err != nil {
		p.logger.LogWarn(fmt.Sprintf("could not cancel check: %v", err))
		return
	}
	if _, err := api.Decode(resp, p.logger); err != nil {
		p.logger.LogWarn(fmt.Sprintf("could not cancel check: %v", err))
		return
	}
	p.logger.LogDebug("canceled abandoned check " + job.CancelURL)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
