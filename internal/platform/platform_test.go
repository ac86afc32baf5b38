package platform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/hyperifyio/leadscout/internal/search"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), Transient},
		{"canceled", context.Canceled, Transient},
		{"net timeout", timeoutErr{}, Transient},
		{"429", &StatusError{Code: 429}, Transient},
		{"502", &StatusError{Code: 502}, Transient},
		{"401", &StatusError{Code: 401}, Permanent},
		{"404", &StatusError{Code: 404}, Permanent},
		{"other", errors.New("boom"), Permanent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pe := Classify(search.Facebook, tc.err)
			if pe == nil || pe.Kind != tc.want {
				t.Fatalf("got %v want %s", pe, tc.want)
			}
			if pe.Platform != search.Facebook {
				t.Fatalf("platform not set: %q", pe.Platform)
			}
			if !errors.Is(pe, tc.err) {
				t.Fatalf("classified error does not wrap original")
			}
		})
	}
	if Classify(search.Facebook, nil) != nil {
		t.Fatal("nil error must classify to nil")
	}
}

func TestClassify_KeepsExistingPlatformError(t *testing.T) {
	orig := NewPermanent("", errors.New("bad credentials"))
	pe := Classify(search.LinkedIn, fmt.Errorf("wrapped: %w", orig))
	if pe != orig || pe.Platform != search.LinkedIn || pe.Kind != Permanent {
		t.Fatalf("unexpected: %+v", pe)
	}
}

type stubAdapter struct{ id search.PlatformID }

func (s stubAdapter) Platform() search.PlatformID { return s.id }
func (s stubAdapter) Search(context.Context, search.Query) ([]RawPosting, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	for _, id := range []search.PlatformID{search.LinkedIn, search.Facebook} {
		if err := r.Register(stubAdapter{id: id}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	if err := r.Register(stubAdapter{id: search.Facebook}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := r.Register(stubAdapter{id: "Bad ID"}); err == nil {
		t.Fatal("expected invalid id error")
	}
	if err := r.Register(nil); err == nil {
		t.Fatal("expected nil adapter error")
	}
	if _, ok := r.Lookup(search.Instagram); ok {
		t.Fatal("instagram should not be registered")
	}
	got := r.Platforms()
	if len(got) != 2 || got[0] != search.Facebook || got[1] != search.LinkedIn || r.Len() != 2 {
		t.Fatalf("unexpected platforms: %v", got)
	}
}
