// Package parity implements C15: an optional EVALIDator HTTP parity client
// used only by the test harness to compare point estimates against the
// published reference service (spec.md §2's "used only by the test
// harness" note). It is never imported by any estimator package and never
// dials out unless a caller explicitly supplies a base URL, so it cannot
// make unit tests flaky or network-dependent by accident.
package parity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/internal/log"
)

var logger = log.For("parity")

// Client issues read-only GET requests against an EVALIDator-compatible
// reporting endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a Client against baseURL, with a 30s default timeout
// (the published service is a batch reporting tool, not a low-latency API).
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: &http.Client{Timeout: 30 * time.Second}}
}

// PointEstimate is one (variable, group) published estimate, matching the
// shape an estimator's output row reduces to for comparison purposes.
type PointEstimate struct {
	Variable  string  `json:"variable"`
	Evalid    int     `json:"evalid"`
	Estimate  float64 `json:"estimate"`
	SEPct     float64 `json:"se_pct"`
	RequestID string  `json:"-"` // correlation id for this Query call, not part of the published payload
}

// Query fetches the published point estimate for variable ("AREA",
// "VOLCFNET", ...) under the given EVALID. Each call is tagged with a fresh
// request id (sent as X-Request-Id and echoed on PointEstimate.RequestID) so
// a failed parity run can be matched back to a specific outbound request in
// server-side logs.
func (c *Client) Query(ctx context.Context, evalid int, variable string) (*PointEstimate, error) {
	if c.BaseURL == "" {
		return nil, errs.New(errs.InvalidConfig, "parity.Client requires a BaseURL")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidConfig, "parity: invalid base URL %q", c.BaseURL)
	}
	q := u.Query()
	q.Set("evalid", fmt.Sprintf("%d", evalid))
	q.Set("variable", variable)
	u.RawQuery = q.Encode()

	reqID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "parity: building request")
	}
	req.Header.Set("X-Request-Id", reqID)

	logger.WithField("request_id", reqID).WithField("variable", variable).WithField("evalid", evalid).Debug("querying parity endpoint")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "parity: requesting %s (request_id=%s)", u.String(), reqID)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.QueryError, "parity: %s returned status %d (request_id=%s)", u.String(), resp.StatusCode, reqID)
	}

	var est PointEstimate
	if err := json.NewDecoder(resp.Body).Decode(&est); err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "parity: decoding response from %s (request_id=%s)", u.String(), reqID)
	}
	est.RequestID = reqID
	return &est, nil
}

// Tolerance reports whether got matches published within the relative
// tolerance spec.md §8 documents: 1% for point estimates, 5% for standard
// errors of GRM estimates.
func Tolerance(got, published, relTolerance float64) bool {
	if published == 0 {
		return got == 0
	}
	diff := got - published
	if diff < 0 {
		diff = -diff
	}
	return diff/absFloat(published) <= relTolerance
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
