package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hyperifyio/leadscout/internal/search"
)

// Adapter translates one platform's native search capability into raw
// postings. Implementations must be safe to call concurrently and must not
// return more postings than q.Limit asks for.
type Adapter interface {
	Platform() search.PlatformID
	Search(ctx context.Context, q search.Query) ([]RawPosting, error)
}

// RawPosting carries an adapter-specific payload. Only the normalizer for the
// payload type knows how to read it.
type RawPosting struct {
	Platform search.PlatformID
	Payload  any
}

// SearxHit is a single SearxNG JSON result.
type SearxHit struct {
	Title         string
	URL           string
	Content       string
	Engine        string
	PublishedDate string
}

// LinkedInCard is one job card scraped from the guest jobs listing.
type LinkedInCard struct {
	JobID    string
	Title    string
	Company  string
	Location string
	URL      string
	ListedAt string
}

// FeedItem is one RSS/Atom entry.
type FeedItem struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Published   *time.Time
}

// FixturePosting is the on-disk shape read by FileAdapter.
type FixturePosting struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Kind classifies adapter failures for retry decisions.
type Kind int

const (
	Transient Kind = iota + 1
	Permanent
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// PlatformError is the only error type adapters should surface.
type PlatformError struct {
	Platform search.PlatformID
	Kind     Kind
	Err      error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %s failure: %v", e.Platform, e.Kind, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// NewTransient wraps err as a retryable failure.
func NewTransient(p search.PlatformID, err error) *PlatformError {
	return &PlatformError{Platform: p, Kind: Transient, Err: err}
}

// NewPermanent wraps err as a failure that must not be retried in this run.
func NewPermanent(p search.PlatformID, err error) *PlatformError {
	return &PlatformError{Platform: p, Kind: Permanent, Err: err}
}

// IsTransient reports whether err is, or wraps, a transient PlatformError.
func IsTransient(err error) bool {
	var pe *PlatformError
	return errors.As(err, &pe) && pe.Kind == Transient
}

// StatusError reports a non-2xx upstream HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d %s", e.Code, http.StatusText(e.Code))
}

// Classify turns an arbitrary adapter error into a PlatformError. Deadlines,
// network faults, 408, 429 and 5xx are transient; everything else is
// permanent.
func Classify(p search.PlatformID, err error) *PlatformError {
	if err == nil {
		return nil
	}
	var pe *PlatformError
	if errors.As(err, &pe) {
		if pe.Platform == "" {
			pe.Platform = p
		}
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewTransient(p, err)
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusTooManyRequests || se.Code == http.StatusRequestTimeout || se.Code >= 500 {
			return NewTransient(p, err)
		}
		return NewPermanent(p, err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return NewTransient(p, err)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return NewTransient(p, err)
	}
	return NewPermanent(p, err)
}
