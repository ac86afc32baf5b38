package search

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// PlatformID identifies a lead source. The set is open: adapters register
// under any identifier that matches platformIDRe.
type PlatformID string

const (
	Facebook  PlatformID = "facebook"
	LinkedIn  PlatformID = "linkedin"
	Instagram PlatformID = "instagram"
)

// DefaultPriority is the tie-break order used when scores are equal.
var DefaultPriority = []PlatformID{Facebook, LinkedIn, Instagram}

var platformIDRe = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Valid reports whether p is a well-formed platform identifier.
func (p PlatformID) Valid() bool { return platformIDRe.MatchString(string(p)) }

const (
	MinRadiusKm     = 1
	MaxRadiusKm     = 200
	MinMaxResults   = 1
	MaxMaxResults   = 30
	DefaultKeywords = "job vacancy"
	DefaultLocation = "Butwal, Nepal"
)

// ErrInvalidQuery is matched by every *ValidationError via errors.Is.
var ErrInvalidQuery = errors.New("invalid query")

// ValidationError describes a malformed caller-supplied query field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidQuery }

// Query is the validated input to one aggregation run. Construct it with
// NewQuery; the zero value is not valid.
type Query struct {
	Keywords   string
	Location   string
	RadiusKm   float64 // 0 means unset
	Platforms  []PlatformID
	MaxResults int // 0 means unset
}

// NewQuery trims the free-text fields, drops duplicate platforms while keeping
// the first occurrence, and validates the result.
func NewQuery(keywords, location string, radiusKm float64, platforms []PlatformID, maxResults int) (Query, error) {
	q := Query{
		Keywords:   strings.TrimSpace(keywords),
		Location:   strings.TrimSpace(location),
		RadiusKm:   radiusKm,
		Platforms:  dedupePlatforms(platforms),
		MaxResults: maxResults,
	}
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Validate checks field bounds. It does not consult any adapter registry;
// unknown platforms are reported per entry by the engine.
func (q Query) Validate() error {
	if q.Keywords == "" {
		return &ValidationError{Field: "keywords", Message: "must not be empty"}
	}
	if q.Location == "" {
		return &ValidationError{Field: "location", Message: "must not be empty"}
	}
	if math.IsNaN(q.RadiusKm) || math.IsInf(q.RadiusKm, 0) ||
		(q.RadiusKm != 0 && (q.RadiusKm < MinRadiusKm || q.RadiusKm > MaxRadiusKm)) {
		return &ValidationError{Field: "radiusKm", Message: fmt.Sprintf("must be between %d and %d", MinRadiusKm, MaxRadiusKm)}
	}
	if q.MaxResults != 0 && (q.MaxResults < MinMaxResults || q.MaxResults > MaxMaxResults) {
		return &ValidationError{Field: "maxResults", Message: fmt.Sprintf("must be between %d and %d", MinMaxResults, MaxMaxResults)}
	}
	if len(q.Platforms) == 0 {
		return &ValidationError{Field: "platforms", Message: "at least one platform is required"}
	}
	seen := make(map[PlatformID]struct{}, len(q.Platforms))
	for _, p := range q.Platforms {
		if !p.Valid() {
			return &ValidationError{Field: "platforms", Message: fmt.Sprintf("malformed platform id %q", p)}
		}
		if _, dup := seen[p]; dup {
			return &ValidationError{Field: "platforms", Message: fmt.Sprintf("duplicate platform %q", p)}
		}
		seen[p] = struct{}{}
	}
	return nil
}

// Limit returns the effective result cap: MaxResults when set, otherwise
// ceiling. A MaxResults larger than ceiling is clamped.
func (q Query) Limit(ceiling int) int {
	if ceiling <= 0 {
		ceiling = MaxMaxResults
	}
	if q.MaxResults > 0 && q.MaxResults < ceiling {
		return q.MaxResults
	}
	return ceiling
}

func dedupePlatforms(in []PlatformID) []PlatformID {
	out := make([]PlatformID, 0, len(in))
	seen := make(map[PlatformID]struct{}, len(in))
	for _, p := range in {
		p = PlatformID(strings.ToLower(strings.TrimSpace(string(p))))
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// ParsePlatforms splits a comma-separated list such as "facebook,linkedin".
func ParsePlatforms(s string) []PlatformID {
	parts := strings.Split(s, ",")
	out := make([]PlatformID, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, PlatformID(strings.ToLower(v)))
		}
	}
	return out
}

// Result is the canonical lead shape shared by every platform.
type Result struct {
	ID             string     `json:"id"`
	Platform       PlatformID `json:"platform"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Snippet        string     `json:"snippet"`
	RelevanceScore float64    `json:"relevanceScore"`
}

// PlatformState is the per-platform substate of a run.
type PlatformState string

const (
	PlatformPending     PlatformState = "pending"
	PlatformRetrying    PlatformState = "retrying"
	PlatformSucceeded   PlatformState = "succeeded"
	PlatformFailed      PlatformState = "failed"
	PlatformUnsupported PlatformState = "unsupported"
)

// FailureKind classifies why a platform contributed no data.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureTransient   FailureKind = "transient"
	FailurePermanent   FailureKind = "permanent"
	FailureUnsupported FailureKind = "unsupported"
)

// PlatformOutcome records what happened to one requested platform.
type PlatformOutcome struct {
	Platform PlatformID    `json:"platform"`
	State    PlatformState `json:"state"`
	Attempts int           `json:"attempts"`
	Postings int           `json:"postings"`
	Kind     FailureKind   `json:"kind,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// AggregationResult is the output of a single run. Results are ordered by
// descending RelevanceScore with a deterministic tie-break.
type AggregationResult struct {
	RunID              string            `json:"runId"`
	Results            []Result          `json:"results"`
	PlatformsRequested []PlatformID      `json:"platforms"`
	PlatformsQueried   []PlatformID      `json:"platformsQueried"`
	Outcomes           []PlatformOutcome `json:"outcomes"`
	GeneratedAt        time.Time         `json:"generatedAt"`
}

// Failed returns outcomes for platforms that produced no data.
func (r AggregationResult) Failed() []PlatformOutcome {
	var out []PlatformOutcome
	for _, o := range r.Outcomes {
		if o.State != PlatformSucceeded {
			out = append(out, o)
		}
	}
	return out
}

// Digest is a short natural-language summary of an AggregationResult.
type Digest struct {
	Text       string `json:"summary"`
	TokensUsed int    `json:"tokensUsed"`
}

// Priority orders platforms for tie-breaks. Listed platforms come first in
// list order; unlisted ones follow in lexical order.
type Priority struct {
	index map[PlatformID]int
}

// NewPriority builds a Priority from list, or DefaultPriority when list is
// empty.
func NewPriority(list []PlatformID) Priority {
	if len(list) == 0 {
		list = DefaultPriority
	}
	idx := make(map[PlatformID]int, len(list))
	for i, p := range list {
		if _, ok := idx[p]; !ok {
			idx[p] = i
		}
	}
	return Priority{index: idx}
}

// IsZero reports whether p was never built by NewPriority.
func (p Priority) IsZero() bool { return p.index == nil }

var defaultPriority = NewPriority(nil)

// Before reports whether a strictly precedes b. A zero Priority uses the
// default order.
func (p Priority) Before(a, b PlatformID) bool {
	if p.index == nil {
		p = defaultPriority
	}
	ia, okA := p.index[a]
	ib, okB := p.index[b]
	switch {
	case okA && okB:
		return ia < ib
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}
