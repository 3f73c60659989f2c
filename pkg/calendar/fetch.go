package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/log"
	"tableflip.dev/planner/pkg/timeutil"
)

// ICS reads calendars from .ics files or http(s) URLs.
type ICS struct {
	Locations []string
	Location  *time.Location
	Client    *http.Client

	mu    sync.Mutex
	cache map[string]cached
}

type cached struct {
	etag string
	body []byte
}

// NewICS returns a source over the given files and URLs.
func NewICS(locations []string, loc *time.Location) *ICS {
	if loc == nil {
		loc = time.Local
	}
	return &ICS{
		Locations: locations,
		Location:  loc,
		Client:    &http.Client{Timeout: 15 * time.Second},
		cache:     make(map[string]cached),
	}
}

// FetchEvents reads every location and returns the planner items for
// period. A location that fails with no earlier copy to fall back on fails
// the whole fetch.
func (s *ICS) FetchEvents(ctx context.Context, period string) ([]entry.CalendarItem, error) {
	dayStart, dayEnd, err := timeutil.DayBounds(period, s.Location)
	if err != nil {
		return nil, err
	}

	var occs []Occurrence
	for _, where := range s.Locations {
		where = strings.TrimSpace(where)
		if where == "" {
			continue
		}
		body, err := s.read(ctx, where)
		if err != nil {
			return nil, fmt.Errorf("calendar: read %s: %w", redact(where), err)
		}
		events, err := parseICS(redact(where), body, s.Location)
		if err != nil {
			return nil, fmt.Errorf("calendar: parse %s: %w", redact(where), err)
		}
		found, err := expand(events, dayStart, dayEnd)
		if err != nil {
			return nil, err
		}
		occs = append(occs, found...)
	}
	return PlannerItems(occs, period, s.Location)
}

func (s *ICS) read(ctx context.Context, where string) ([]byte, error) {
	if !strings.HasPrefix(where, "http://") && !strings.HasPrefix(where, "https://") {
		return os.ReadFile(strings.TrimPrefix(where, "file://"))
	}

	s.mu.Lock()
	if s.cache == nil {
		s.cache = make(map[string]cached)
	}
	prev := s.cache[where]
	s.mu.Unlock()

	body, etag, err := s.get(ctx, where, prev.etag)
	switch {
	case err == nil && body == nil:
		return prev.body, nil
	case err != nil && len(prev.body) > 0:
		log.Error("calendar: fetch failed, using previous copy", err, "url", redact(where))
		return prev.body, nil
	case err != nil:
		return nil, err
	}

	s.mu.Lock()
	s.cache[where] = cached{etag: etag, body: body}
	s.mu.Unlock()
	return body, nil
}

// get returns a nil body when the server reports the copy tagged etag is
// current.
func (s *ICS) get(ctx context.Context, url, etag string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		log.Debug("calendar: fetched", "url", redact(url), "bytes", len(body))
		return body, resp.Header.Get("ETag"), nil
	case http.StatusNotModified:
		if etag == "" {
			return nil, "", errors.New("304 without a cached copy")
		}
		return nil, etag, nil
	default:
		return nil, "", errors.New(resp.Status)
	}
}

// redact keeps only the scheme and host of a URL so tokens in paths or
// queries never reach the log.
func redact(u string) string {
	i := strings.Index(u, "://")
	if i < 0 || strings.HasPrefix(u, "file://") {
		return u
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + "/..."
}
