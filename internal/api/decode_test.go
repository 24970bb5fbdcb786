package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
		wantKeys []string
	}{
		{name: "object", status: http.StatusOK, body: `{"data":{"a":1}}`, wantKeys: []string{"data"}},
		{name: "created", status: http.StatusCreated, body: `{"links":{}}`, wantKeys: []string{"links"}},
		{name: "empty body", status: http.StatusOK, body: "", wantKeys: nil},
		{name: "null body", status: http.StatusOK, body: "null", wantKeys: nil},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"no"}`, wantKind: ErrTransport},
		{name: "redirect", status: http.StatusMultipleChoices, body: ``, wantKind: ErrTransport},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantKind: ErrTransport},
		{name: "bad json", status: http.StatusOK, body: `{"data":`, wantKind: ErrParse},
		{name: "array body", status: http.StatusOK, body: `[1,2]`, wantKind: ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			got, err := Decode(&Response{URL: "http://x/y", Status: tt.status, Body: []byte(tt.body)}, logger)
			if tt.wantKind != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantKind), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Len(t, got, len(tt.wantKeys))
			for _, k := range tt.wantKeys {
				assert.Contains(t, got, k)
			}
		})
	}
}

func TestDecode_ParseErrorLogsRawBody(t *testing.T) {
	logger := &recordingLogger{}
	_, err := Decode(&Response{URL: "http://x/result", Status: 200, Body: []byte("<html>busy</html>")}, logger)
	require.Error(t, err)
	assert.False(t, IsFatal(err))
	require.Len(t, logger.warn, 1)
	assert.Contains(t, logger.warn[0], "<html>busy</html>")
}

func TestDecode_TransportErrorKeepsStatus(t *testing.T) {
	_, err := Decode(&Response{URL: "http://x", Status: 401, Body: []byte("denied")}, nil)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.Status)
	assert.True(t, IsFatal(err))
	assert.True(t, strings.Contains(err.Error(), "HTTP 401"))
}

func TestPathHelpers(t *testing.T) {
	m := map[string]any{
		"data": map[string]any{
			"quality": map[string]any{"score": json.Number("87")},
			"issues":  []any{map[string]any{}},
			"name":    "x",
			"frac":    json.Number("1.5"),
			"big":     json.Number("3.0"),
		},
	}

	score, ok := Int(m, "data", "quality", "score")
	assert.True(t, ok)
	assert.Equal(t, 87, score)

	_, ok = Int(m, "data", "frac")
	assert.False(t, ok)

	big, ok := Int(m, "data", "big")
	assert.True(t, ok)
	assert.Equal(t, 3, big)

	f, ok := Float(m, "data", "frac")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, f, 1e-9)

	assert.Len(t, Slice(m, "data", "issues"), 1)
	assert.Equal(t, "x", String(m, "data", "name"))
	assert.Equal(t, "87", String(m, "data", "quality", "score"))
	assert.Nil(t, Map(m, "data", "missing"))
	_, ok = Path(m, "data", "name", "deeper")
	assert.False(t, ok)
}

func TestWrapKeepsInnerKind(t *testing.T) {
	inner := &Error{Kind: ErrTransport, Op: "decode", Status: 500}
	outer := Wrap(ErrSubmission, "submit", inner)

	assert.True(t, errors.Is(outer, ErrSubmission))
	assert.True(t, errors.Is(outer, ErrTransport))
	assert.False(t, errors.Is(outer, ErrTimeout))
	assert.Equal(t, 500, outer.Status)

	parse := &Error{Kind: ErrParse, Op: "decode"}
	assert.True(t, IsFatal(Wrap(ErrSubmission, "submit", parse)))
}

func TestWrapCarriesBody(t *testing.T) {
	inner := &Error{Kind: ErrTransport, Op: "decode", URL: "https://x/checks", Status: 502, Body: "upstream down"}
	outer := Wrap(ErrSubmission, "submit", inner)

	assert.Equal(t, "https://x/checks", outer.URL)
	assert.Equal(t, 502, outer.Status)
	assert.Equal(t, "upstream down", outer.Body)
	assert.Equal(t, 1, strings.Count(outer.Error(), "upstream down"), outer.Error())
}

func TestErrorTruncatesBodyOnRunes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantBody string
	}{
		{name: "short", body: "oops", wantBody: "oops"},
		{name: "ascii", body: strings.Repeat("a", 250), wantBody: strings.Repeat("a", 200) + "..."},
		{name: "multibyte", body: strings.Repeat("é", 250), wantBody: strings.Repeat("é", 200) + "..."},
		{name: "rune across byte limit", body: "a" + strings.Repeat("€", 120), wantBody: "a" + strings.Repeat("€", 120)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := (&Error{Kind: ErrTransport, Op: "decode", Body: tt.body}).Error()
			assert.True(t, utf8.ValidString(msg))
			assert.Equal(t, "decode: transport error (body: "+tt.wantBody+")", msg)
		})
	}
}
