package checking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/marker"
	"github.com/harrison/acrocheck/internal/models"
	"github.com/harrison/acrocheck/internal/render"
)

// DocumentContext describes the document a check runs on.
type DocumentContext struct {
	// Identifier names the document for remembering its target, e.g. a
	// buffer number. Falls back to Path.
	Identifier string
	// Path is the storage path, sent as the document reference.
	Path string
	// Mode is the editor mode used to pick the content format; when empty
	// it is guessed from Path.
	Mode string
	// Text is the live document text that issue markers track.
	Text *marker.Buffer
	// Range limits the check to a region in 1-based offsets; nil checks all.
	Range *models.Range
}

// Key identifies the document among remembered targets.
func (d DocumentContext) Key() string {
	if d.Identifier != "" {
		return d.Identifier
	}
	return d.Path
}

// reference returns what the server records as the document's name.
func (d DocumentContext) reference() string {
	switch {
	case d.Path != "":
		return d.Path
	case d.Identifier != "":
		return d.Identifier
	default:
		return "urn:uuid:" + uuid.NewString()
	}
}

// CheckOptions adjusts a single check.
type CheckOptions struct {
	// OverrideTarget asks the user for a target even if one is remembered.
	OverrideTarget bool
}

// Options configures a Checker.
type Options struct {
	Client        *api.Client
	Session       *Session
	Chooser       Chooser
	DefaultTarget string
	Formats       ContentFormats
	Poll          PollOptions
	Render        render.Options
	Logger        Logger
}

// Checker runs the check workflow: choose target, submit, poll, render.
type Checker struct {
	client     *api.Client
	session    *Session
	resolver   *Resolver
	submitter  *Submitter
	poller     *Poller
	formats    ContentFormats
	poll       PollOptions
	renderOpts render.Options
	logger     Logger
}

// NewChecker creates a Checker. A nil Session gets a fresh one.
func NewChecker(opts Options) *Checker {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	session := opts.Session
	if session == nil {
		session = NewSession()
	}
	formats := opts.Formats
	if formats.modes == nil {
		formats = NewContentFormats(nil, nil)
	}
	return &Checker{
		client:     opts.Client,
		session:    session,
		resolver:   NewResolver(opts.Client, session, opts.Chooser, opts.DefaultTarget, logger),
		submitter:  NewSubmitter(opts.Client, session, logger),
		poller:     NewPoller(opts.Client, session, opts.Poll, logger),
		formats:    formats,
		poll:       opts.Poll,
		renderOpts: opts.Render,
		logger:     logger,
	}
}

// Resolver returns the target resolver.
func (c *Checker) Resolver() *Resolver {
	return c.resolver
}

// Session returns the shared session.
func (c *Checker) Session() *Session {
	return c.session
}

// Formats returns the content format tables.
func (c *Checker) Formats() ContentFormats {
	return c.formats
}

// Check runs one check of doc. Issue regions are placed over the text as it
// was submitted and follow any edits made while the check ran. On success the returned scorecard replaces
// the session's previous one, whose markers are released. On failure the
// session's targets and scorecard are left as they were.
func (c *Checker) Check(ctx context.Context, doc DocumentContext, opts CheckOptions) (*render.Scorecard, error) {
	start := time.Now()
	if doc.Text == nil {
		return nil, api.Errorf(api.ErrConfiguration, "check", "no document text")
	}
	if c.client == nil || c.client.ServerURL() == "" {
		return nil, api.Errorf(api.ErrConfiguration, "check", "no server URL configured")
	}

	target, err := c.resolver.ChooseTarget(ctx, doc, opts.OverrideTarget)
	if err != nil {
		return nil, err
	}

	mode := doc.Mode
	if mode == "" {
		mode = c.formats.ModeForPath(doc.Path)
	}
	format := c.formats.Lookup(mode)
	ref := doc.reference()

	scope := "document"
	if doc.Range != nil {
		scope = fmt.Sprintf("range %d:%d", doc.Range.Begin, doc.Range.End)
	}
	c.logger.LogInfo(fmt.Sprintf("Checking %s (%s, %s) with %s", ref, scope, format, target))

	snap := doc.Text.Snapshot()
	defer snap.Release()

	job, err := c.submitter.Submit(ctx, []byte(snap.Text()), target, format, doc.Range, ref)
	if err != nil {
		return nil, err
	}
	job.MaxAttempts = c.poll.MaxAttempts
	job.Interval = c.poll.Interval

	result, err := c.poller.PollUntilReady(ctx, &job)
	if err != nil {
		return nil, err
	}

	if snap.Edited() {
		c.logger.LogDebug(fmt.Sprintf("%s changed while checking; mapping issue offsets onto the current text", ref))
	}
	renderOpts := c.renderOpts
	renderOpts.Snapshot = snap
	sc, err := render.Render(result, doc.Text, renderOpts)
	if err != nil {
		return nil, err
	}
	c.session.ReplaceScorecard(sc)
	c.logger.LogCheckComplete(sc.Score, len(sc.Entries), time.Since(start))
	return sc, nil
}
