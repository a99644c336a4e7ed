package prom

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/forkline/pkg/observability"
)

func TestOnPassComplete(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnPassComplete(ctx, observability.PassStats{Commits: 120, Loops: 3, Skipped: 1, BackEdges: 2, Duration: time.Millisecond}, nil)
	m.OnPassComplete(ctx, observability.PassStats{CacheHit: true}, nil)
	m.OnPassComplete(ctx, observability.PassStats{Loops: 99}, errors.New("boom"))

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"success miss", testutil.ToFloat64(m.PassesTotal.WithLabelValues("success", "miss")), 1},
		{"success hit", testutil.ToFloat64(m.PassesTotal.WithLabelValues("success", "hit")), 1},
		{"error", testutil.ToFloat64(m.PassesTotal.WithLabelValues("error", "miss")), 1},
		{"loops", testutil.ToFloat64(m.LoopsTotal), 3},
		{"skipped", testutil.ToFloat64(m.SkippedTotal), 1},
		{"back edges", testutil.ToFloat64(m.BackEdgesTotal), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestSessionAndCacheHooks(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnPageLoaded(ctx, 100)
	m.OnPageLoaded(ctx, 100)
	m.OnPassApplied(ctx, 2)
	m.OnPassDiscarded(ctx, "stale")
	m.OnCacheHit(ctx, "layout")
	m.OnCacheMiss(ctx, "layout")
	m.OnCacheSet(ctx, "layout", 512)

	if got := testutil.ToFloat64(m.PagesTotal); got != 2 {
		t.Errorf("pages = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PassesDiscarded.WithLabelValues("stale")); got != 1 {
		t.Errorf("discarded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheTotal.WithLabelValues("layout", "hit")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheBytes); got != 512 {
		t.Errorf("cache bytes = %v, want 512", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.OnResponse(context.Background(), "POST", "/v1/layout", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`forkline_http_requests_total{code="200",method="POST",route="/v1/layout"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRegister(t *testing.T) {
	defer observability.Reset()
	m := New()
	m.Register()
	if observability.Layout() != m || observability.Cache() != m {
		t.Error("Register did not install the hooks")
	}
}
