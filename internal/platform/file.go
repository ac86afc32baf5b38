package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hyperifyio/leadscout/internal/search"
)

// FileAdapter serves postings for one platform from a local JSON fixture for
// offline runs and tests. The file maps platform ids to posting arrays:
//
//	{"facebook": [{"id": "...", "title": "...", "url": "...", "snippet": "..."}]}
type FileAdapter struct {
	ID   search.PlatformID
	Path string
}

func (f *FileAdapter) Platform() search.PlatformID { return f.ID }

func (f *FileAdapter) Search(_ context.Context, q search.Query) ([]RawPosting, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, NewPermanent(f.ID, errors.New("fixture path is empty"))
	}
	fixtures, err := LoadFixtures(f.Path)
	if err != nil {
		return nil, NewPermanent(f.ID, err)
	}
	limit := q.Limit(0)
	postings := fixtures[f.ID]
	out := make([]RawPosting, 0, len(postings))
	for _, p := range postings {
		out = append(out, RawPosting{Platform: f.ID, Payload: p})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// LoadFixtures reads a fixture file.
func LoadFixtures(path string) (map[search.PlatformID][]FixturePosting, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[search.PlatformID][]FixturePosting
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return raw, nil
}
