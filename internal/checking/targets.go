package checking

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/models"
)

// CapabilitiesPath lists the guidance profiles a client may check against.
const CapabilitiesPath = "/api/v1/checking/capabilities"

// Chooser asks the user to pick one of targets. suggested is the index to
// preselect. A negative index means the user declined.
type Chooser interface {
	Choose(ctx context.Context, targets []models.Target, suggested int) (int, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, targets []models.Target, suggested int) (int, error)

// Choose calls f.
func (f ChooserFunc) Choose(ctx context.Context, targets []models.Target, suggested int) (int, error) {
	return f(ctx, targets, suggested)
}

// Resolver finds the target a document is checked against.
type Resolver struct {
	client        *api.Client
	session       *Session
	chooser       Chooser
	defaultTarget string
	logger        Logger
	group         singleflight.Group
}

// NewResolver creates a Resolver. defaultTarget may be empty.
func NewResolver(client *api.Client, session *Session, chooser Chooser, defaultTarget string, logger Logger) *Resolver {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Resolver{
		client:        client,
		session:       session,
		chooser:       chooser,
		defaultTarget: defaultTarget,
		logger:        logger,
	}
}

// ListTargets returns the server's guidance profiles, from the session cache
// unless forceRefresh is set. Concurrent fetches share one request.
func (r *Resolver) ListTargets(ctx context.Context, forceRefresh bool) ([]models.Target, error) {
	if !forceRefresh {
		if cached := r.session.Targets(); cached != nil {
			return cached, nil
		}
	}

	v, err, _ := r.group.Do("capabilities", func() (any, error) {
		return r.fetchTargets(ctx)
	})
	if err != nil {
		return nil, err
	}
	targets := v.([]models.Target)
	out := make([]models.Target, len(targets))
	copy(out, targets)
	return out, nil
}

// Refresh refetches the target list.
func (r *Resolver) Refresh(ctx context.Context) ([]models.Target, error) {
	r.session.ForgetTargets()
	return r.ListTargets(ctx, true)
}

func (r *Resolver) fetchTargets(ctx context.Context) ([]models.Target, error) {
	if r.client.ServerURL() == "" {
		return nil, api.Errorf(api.ErrConfiguration, "capabilities", "no server URL configured")
	}

	resp, err := r.client.Do(ctx, http.MethodGet, r.client.Endpoint(CapabilitiesPath), nil, nil)
	if err != nil {
		return nil, err
	}
	r.session.Record(KindCapabilities, resp.URL, resp.Status, resp.Body)

	payload, err := api.Decode(resp, r.logger)
	if err != nil {
		return nil, err
	}

	var targets []models.Target
	for _, raw := range api.Slice(payload, "data", "guidanceProfiles") {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		t := models.Target{
			ID:          api.String(obj, "id"),
			DisplayName: api.String(obj, "displayName"),
		}
		if !t.IsZero() {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return nil, &api.Error{
			Kind: api.ErrConfiguration,
			Op:   "capabilities",
			URL:  resp.URL,
			Err:  fmt.Errorf("server offers no guidance profiles"),
		}
	}

	r.logger.LogDebug(fmt.Sprintf("server offers %d guidance profiles", len(targets)))
	r.session.SetTargets(targets)
	return targets, nil
}

// ChooseTarget returns the target for doc: the one remembered for it, else
// the configured default, else the user's choice. With override set, the
// user is always asked. The result is remembered for the document.
func (r *Resolver) ChooseTarget(ctx context.Context, doc DocumentContext, override bool) (models.Target, error) {
	key := doc.Key()

	if !override {
		if t, ok := r.session.RememberedTarget(key); ok {
			return t, nil
		}
		if r.defaultTarget != "" {
			t := r.resolveDefault()
			r.session.RememberTarget(key, t)
			return t, nil
		}
	}

	targets, err := r.ListTargets(ctx, false)
	if err != nil {
		return models.Target{}, err
	}
	if r.chooser == nil {
		return models.Target{}, api.Errorf(api.ErrSelection, "choose target", "no way to ask for a target; configure default_target")
	}

	suggested := 0
	if prev, ok := r.session.RememberedTarget(key); ok {
		for i, t := range targets {
			if t.ID == prev.ID {
				suggested = i
				break
			}
		}
	}

	idx, err := r.chooser.Choose(ctx, targets, suggested)
	if err != nil {
		if ctx.Err() != nil {
			return models.Target{}, api.Wrap(api.ErrCanceled, "choose target", ctx.Err())
		}
		return models.Target{}, api.Wrap(api.ErrSelection, "choose target", err)
	}
	if idx < 0 || idx >= len(targets) {
		return models.Target{}, api.Errorf(api.ErrSelection, "choose target", "no target selected")
	}

	chosen := targets[idx]
	r.session.RememberTarget(key, chosen)
	r.logger.LogDebug(fmt.Sprintf("using target %s for %s", chosen.ID, key))
	return chosen, nil
}

// resolveDefault matches the configured default against the cached list,
// or uses it as a bare id when nothing is cached.
func (r *Resolver) resolveDefault() models.Target {
	for _, t := range r.session.Targets() {
		if t.ID == r.defaultTarget || t.DisplayName == r.defaultTarget {
			return t
		}
	}
	return models.Target{ID: r.defaultTarget}
}
