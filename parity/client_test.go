package parity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mihiarc/gofia/errs"
)

func TestQueryRequiresBaseURL(t *testing.T) {
	c := &Client{}
	if _, err := c.Query(context.Background(), 132301, "AREA"); !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig, got %v", err)
	}
}

func TestQueryParsesPublishedEstimate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("evalid") != "132301" || r.URL.Query().Get("variable") != "AREA" {
			t.Errorf("unexpected query: %v", r.URL.Query())
		}
		json.NewEncoder(w).Encode(PointEstimate{Variable: "AREA", Evalid: 132301, Estimate: 24172679, SEPct: 0.563})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	est, err := c.Query(context.Background(), 132301, "AREA")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if est.Estimate != 24172679 {
		t.Errorf("Estimate = %v, want 24172679", est.Estimate)
	}
}

func TestQueryNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Query(context.Background(), 132301, "AREA"); !errs.Is(err, errs.QueryError) {
		t.Errorf("expected QueryError, got %v", err)
	}
}

func TestToleranceWithinBound(t *testing.T) {
	if !Tolerance(24_170_000, 24_172_679, 0.01) {
		t.Error("expected within 1% tolerance")
	}
	if Tolerance(25_000_000, 24_172_679, 0.01) {
		t.Error("expected outside 1% tolerance")
	}
}

func TestToleranceZeroPublished(t *testing.T) {
	if !Tolerance(0, 0, 0.01) {
		t.Error("expected zero == zero to be within tolerance")
	}
	if Tolerance(1, 0, 0.01) {
		t.Error("expected nonzero vs zero to be outside tolerance")
	}
}
