package checking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/models"
)

// pick returns a Chooser that selects idx and counts its calls.
func pick(idx int, calls *int) Chooser {
	return ChooserFunc(func(_ context.Context, targets []models.Target, _ int) (int, error) {
		*calls++
		return idx, nil
	})
}

func TestListTargetsCaches(t *testing.T) {
	f := newFakeAcrolinx(t)
	r := NewResolver(f.client(), NewSession(), nil, "", nil)

	targets, err := r.ListTargets(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []models.Target{
		{ID: "en-tech", DisplayName: "English Technical"},
		{ID: "en-mkt", DisplayName: "English Marketing"},
	}, targets)

	_, err = r.ListTargets(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.capabilities.Load(), "second lookup served from cache")

	_, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.capabilities.Load())

	f.mu.Lock()
	headers := f.lastHeaders
	f.mu.Unlock()
	assert.Equal(t, "test-signature", headers.Get(api.HeaderClient))
	assert.Equal(t, "test-token", headers.Get(api.HeaderAuth))
}

func TestListTargetsConcurrentCallers(t *testing.T) {
	f := newFakeAcrolinx(t)
	r := NewResolver(f.client(), NewSession(), nil, "", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			targets, err := r.ListTargets(context.Background(), false)
			assert.NoError(t, err)
			assert.Len(t, targets, 2)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, f.capabilities.Load(), int32(8))
	assert.GreaterOrEqual(t, f.capabilities.Load(), int32(1))
}

func TestListTargetsEmpty(t *testing.T) {
	f := newFakeAcrolinx(t)
	f.profiles = nil
	session := NewSession()
	r := NewResolver(f.client(), session, nil, "", nil)

	_, err := r.ListTargets(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrConfiguration)
	assert.Nil(t, session.Targets(), "failed fetch caches nothing")

	seen, ok := session.LastSeen(KindCapabilities)
	require.True(t, ok)
	assert.Contains(t, string(seen.Body), "guidanceProfiles")
}

func TestListTargetsNoServer(t *testing.T) {
	r := NewResolver(api.New(api.Options{}), NewSession(), nil, "", nil)
	_, err := r.ListTargets(context.Background(), false)
	assert.ErrorIs(t, err, api.ErrConfiguration)
}

func TestListTargetsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := NewResolver(api.New(api.Options{ServerURL: srv.URL}), NewSession(), nil, "", nil)
	_, err := r.ListTargets(context.Background(), false)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.ErrorIs(t, err, api.ErrTransport)
}

func TestChooseTargetRemembered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	session := NewSession()
	want := models.Target{ID: "en-tech", DisplayName: "English Technical"}
	session.RememberTarget("README.md", want)

	calls := 0
	r := NewResolver(api.New(api.Options{ServerURL: srv.URL}), session, pick(1, &calls), "", nil)
	got, err := r.ChooseTarget(context.Background(), DocumentContext{Path: "README.md"}, false)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Zero(t, calls, "chooser not consulted")
}

func TestChooseTargetAsksAndRemembers(t *testing.T) {
	f := newFakeAcrolinx(t)
	session := NewSession()
	calls := 0
	r := NewResolver(f.client(), session, pick(1, &calls), "", nil)
	doc := DocumentContext{Identifier: "buf:3"}

	got, err := r.ChooseTarget(context.Background(), doc, false)
	require.NoError(t, err)
	assert.Equal(t, "en-mkt", got.ID)
	assert.Equal(t, 1, calls)

	again, err := r.ChooseTarget(context.Background(), doc, false)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, calls, "remembered on second check")
}

func TestChooseTargetOverrideSuggestsPrevious(t *testing.T) {
	f := newFakeAcrolinx(t)
	session := NewSession()
	session.RememberTarget("doc", models.Target{ID: "en-mkt"})

	var suggested int
	chooser := ChooserFunc(func(_ context.Context, _ []models.Target, s int) (int, error) {
		suggested = s
		return 0, nil
	})
	r := NewResolver(f.client(), session, chooser, "en-mkt", nil)

	got, err := r.ChooseTarget(context.Background(), DocumentContext{Identifier: "doc"}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, suggested)
	assert.Equal(t, "en-tech", got.ID)

	remembered, _ := session.RememberedTarget("doc")
	assert.Equal(t, "en-tech", remembered.ID)
}

func TestChooseTargetDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	session := NewSession()
	r := NewResolver(api.New(api.Options{ServerURL: srv.URL}), session, nil, "en-tech", nil)

	got, err := r.ChooseTarget(context.Background(), DocumentContext{Path: "a.md"}, false)
	require.NoError(t, err)
	assert.Equal(t, models.Target{ID: "en-tech"}, got, "bare id when nothing is cached")

	session.SetTargets([]models.Target{{ID: "en-tech", DisplayName: "English Technical"}})
	got, err = r.ChooseTarget(context.Background(), DocumentContext{Path: "b.md"}, false)
	require.NoError(t, err)
	assert.Equal(t, "English Technical", got.DisplayName)
}

func TestChooseTargetSelectionErrors(t *testing.T) {
	tests := []struct {
		name    string
		chooser Chooser
	}{
		{name: "declined", chooser: ChooserFunc(func(context.Context, []models.Target, int) (int, error) { return -1, nil })},
		{name: "out of range", chooser: ChooserFunc(func(context.Context, []models.Target, int) (int, error) { return 7, nil })},
		{name: "chooser error", chooser: ChooserFunc(func(context.Context, []models.Target, int) (int, error) { return 0, errors.New("eof") })},
		{name: "no chooser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAcrolinx(t)
			session := NewSession()
			session.RememberTarget("other", models.Target{ID: "en-tech"})
			r := NewResolver(f.client(), session, tt.chooser, "", nil)

			_, err := r.ChooseTarget(context.Background(), DocumentContext{Identifier: "doc"}, false)
			assert.ErrorIs(t, err, api.ErrSelection)

			_, ok := session.RememberedTarget("doc")
			assert.False(t, ok)
			_, ok = session.RememberedTarget("other")
			assert.True(t, ok, "other documents keep their target")
			assert.Len(t, session.Targets(), 2, "target cache survives")
		})
	}
}
