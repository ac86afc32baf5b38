package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_RecordAdapter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	r.RecordAdapter("facebook", "succeeded", 1, 200*time.Millisecond)
	r.RecordAdapter("linkedin", "failed", 2, time.Second)
	r.RecordAdapter("linkedin", "succeeded", 2, time.Second)

	if got := testutil.ToFloat64(r.AdapterCalls.WithLabelValues("linkedin", "failed")); got != 1 {
		t.Fatalf("linkedin failed calls=%v", got)
	}
	if got := testutil.ToFloat64(r.AdapterRetries.WithLabelValues("linkedin")); got != 2 {
		t.Fatalf("linkedin retries=%v", got)
	}
	if got := testutil.CollectAndCount(r.AdapterRetries); got != 1 {
		t.Fatalf("facebook should have no retry series, got %d series", got)
	}
	if got := testutil.CollectAndCount(r.AdapterDuration); got != 2 {
		t.Fatalf("duration series=%d", got)
	}
}

func TestRecorder_RecordRun(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.RecordRun("done")
	r.RecordRun("done")
	r.RecordRun("all_failed")
	if got := testutil.ToFloat64(r.Runs.WithLabelValues("done")); got != 2 {
		t.Fatalf("done=%v", got)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.RecordAdapter("facebook", "succeeded", 3, time.Second)
	r.RecordRun("done")
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	New(reg)
}

func TestPush_SendsToGateway(t *testing.T) {
	var gotPath, gotMethod, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	New(reg).RecordRun("done")
	if err := Push(context.Background(), srv.URL, "leadscout", reg); err != nil {
		t.Fatalf("push: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/metrics/job/leadscout" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	if body == "" {
		t.Fatal("expected a metrics payload")
	}
}

func TestNewRegistry_HasRuntimeCollectors(t *testing.T) {
	mfs, err := NewRegistry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if strings.HasPrefix(mf.GetName(), "go_") {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected go_* runtime metrics")
	}
}
