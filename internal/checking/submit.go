package checking

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/models"
)

// ChecksPath is where checks are submitted.
const ChecksPath = "/api/v1/checking/checks"

// checkTypeInteractive marks checks started by a user from an editor.
const checkTypeInteractive = "interactive"

var errMissingResultLink = errors.New("response has no links.result")

type checkRequest struct {
	Content         string       `json:"content"`
	ContentEncoding string       `json:"contentEncoding"`
	CheckOptions    checkOptions `json:"checkOptions"`
	Document        documentInfo `json:"document"`
}

type checkOptions struct {
	GuidanceProfileID  string         `json:"guidanceProfileId"`
	ContentFormat      string         `json:"contentFormat"`
	PartialCheckRanges []models.Range `json:"partialCheckRanges,omitempty"`
	CheckType          string         `json:"checkType"`
}

type documentInfo struct {
	Reference string `json:"reference"`
}

// Submitter posts checks.
type Submitter struct {
	client  *api.Client
	session *Session
	logger  Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(client *api.Client, session *Session, logger Logger) *Submitter {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Submitter{client: client, session: session, logger: logger}
}

// Submit posts text for checking against target and returns the job to poll.
// rng is in 1-based host offsets and is sent 0-based.
func (s *Submitter) Submit(ctx context.Context, text []byte, target models.Target, contentFormat string, rng *models.Range, reference string) (models.CheckJob, error) {
	if target.IsZero() {
		return models.CheckJob{}, api.Errorf(api.ErrSelection, "submit", "no target")
	}
	if contentFormat == "" {
		contentFormat = AutoFormat
	}

	req := checkRequest{
		Content:         base64.StdEncoding.EncodeToString(text),
		ContentEncoding: "base64",
		CheckOptions: checkOptions{
			GuidanceProfileID: target.ID,
			ContentFormat:     contentFormat,
			CheckType:         checkTypeInteractive,
		},
		Document: documentInfo{Reference: reference},
	}
	if rng != nil {
		if !rng.Valid() {
			return models.CheckJob{}, api.Errorf(api.ErrSubmission, "submit", "invalid range %d:%d", rng.Begin, rng.End)
		}
		req.CheckOptions.PartialCheckRanges = []models.Range{rng.ZeroBased()}
	}

	resp, err := s.client.Do(ctx, http.MethodPost, s.client.Endpoint(ChecksPath), nil, req)
	if err != nil {
		return models.CheckJob{}, err
	}
	s.session.Record(KindSubmit, resp.URL, resp.Status, resp.Body)

	payload, err := api.Decode(resp, s.logger)
	if err != nil {
		return models.CheckJob{}, api.Wrap(api.ErrSubmission, "submit", err)
	}

	resultURL := api.String(payload, "links", "result")
	if resultURL == "" {
		return models.CheckJob{}, &api.Error{
			Kind:   api.ErrSubmission,
			Op:     "submit",
			URL:    resp.URL,
			Status: resp.Status,
			Body:   string(resp.Body),
			Err:    errMissingResultLink,
		}
	}

	job := models.CheckJob{
		ID:        api.String(payload, "data", "id"),
		ResultURL: resultURL,
		CancelURL: api.String(payload, "links", "cancel"),
	}
	s.logger.LogDebug("check submitted, result at " + resultURL)
	return job, nil
}
