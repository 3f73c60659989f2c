package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/list"
)

// Persistence stores planners by period, weekday templates by day key and a
// few bookkeeping values.
type Persistence interface {
	Load(ctx context.Context, period string) ([]entry.PlannerEvent, error)
	Save(ctx context.Context, period string, events []entry.PlannerEvent) error
	Periods(ctx context.Context) ([]string, error)
	DeletePeriod(ctx context.Context, period string) error

	LoadTemplate(ctx context.Context, dayKey string) ([]entry.RecurringEvent, error)
	SaveTemplate(ctx context.Context, dayKey string, events []entry.RecurringEvent) error
	Templates(ctx context.Context) ([]string, error)

	Meta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error

	Watch(ctx context.Context) (<-chan Event, error)
	Close() error
}

const (
	kindPlanner  = "planner"
	kindTemplate = "template"
	kindMeta     = "meta"
)

// WeekdaysKey is the template shared by Monday through Friday.
const WeekdaysKey = "Weekdays"

var (
	// ErrEmptyKey is returned for a blank period, day or meta key.
	ErrEmptyKey = errors.New("store: key required")
	// ErrUnknownDriver is returned by Load for an unsupported backend.
	ErrUnknownDriver = errors.New("store: unknown driver")
)

// backend is a flat key/value space. Keys are "<kind>-<name>".
type backend interface {
	read(ctx context.Context, key string) ([]byte, bool, error)
	write(ctx context.Context, key string, data []byte) error
	erase(ctx context.Context, key string) error
	keys(ctx context.Context, prefix string) ([]string, error)
	watch(ctx context.Context) (<-chan Event, error)
	close() error
}

// Load opens the backend named by cfg. A nil cfg reads the configuration
// with LoadConfig.
func Load(cfg Config) (Persistence, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	switch cfg.Driver() {
	case "", DriverDiskv:
		return &persistence{b: newDiskv(cfg.BasePath())}, nil
	case DriverSQLite:
		b, err := newSQLite(cfg.BasePath())
		if err != nil {
			return nil, err
		}
		return &persistence{b: b}, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver())
	}
}

type plannerRecord struct {
	Datestamp string               `json:"datestamp"`
	Events    []entry.PlannerEvent `json:"events"`
}

type templateRecord struct {
	Day    string                 `json:"day"`
	Events []entry.RecurringEvent `json:"events"`
}

type persistence struct {
	b backend
}

func key(kind, name string) string {
	return kind + "-" + name
}

func splitKey(k string) (kind, name string) {
	kind, name, _ = strings.Cut(k, "-")
	return kind, name
}

func (p *persistence) Load(ctx context.Context, period string) ([]entry.PlannerEvent, error) {
	if strings.TrimSpace(period) == "" {
		return nil, ErrEmptyKey
	}
	data, ok, err := p.b.read(ctx, key(kindPlanner, period))
	if err != nil || !ok {
		return nil, err
	}
	var rec plannerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("store: decode planner %s: %w", period, err)
	}
	return list.Sorted(rec.Events), nil
}

func (p *persistence) Save(ctx context.Context, period string, events []entry.PlannerEvent) error {
	if strings.TrimSpace(period) == "" {
		return ErrEmptyKey
	}
	rec := plannerRecord{Datestamp: period, Events: list.Sorted(events)}
	if rec.Events == nil {
		rec.Events = []entry.PlannerEvent{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode planner %s: %w", period, err)
	}
	return p.b.write(ctx, key(kindPlanner, period), data)
}

func (p *persistence) Periods(ctx context.Context) ([]string, error) {
	return p.names(ctx, kindPlanner)
}

func (p *persistence) DeletePeriod(ctx context.Context, period string) error {
	if strings.TrimSpace(period) == "" {
		return ErrEmptyKey
	}
	return p.b.erase(ctx, key(kindPlanner, period))
}

func (p *persistence) LoadTemplate(ctx context.Context, dayKey string) ([]entry.RecurringEvent, error) {
	if strings.TrimSpace(dayKey) == "" {
		return nil, ErrEmptyKey
	}
	data, ok, err := p.b.read(ctx, key(kindTemplate, dayKey))
	if err != nil || !ok {
		return nil, err
	}
	var rec templateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("store: decode template %s: %w", dayKey, err)
	}
	return list.Sorted(rec.Events), nil
}

func (p *persistence) SaveTemplate(ctx context.Context, dayKey string, events []entry.RecurringEvent) error {
	if strings.TrimSpace(dayKey) == "" {
		return ErrEmptyKey
	}
	rec := templateRecord{Day: dayKey, Events: list.Sorted(events)}
	if rec.Events == nil {
		rec.Events = []entry.RecurringEvent{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode template %s: %w", dayKey, err)
	}
	return p.b.write(ctx, key(kindTemplate, dayKey), data)
}

func (p *persistence) Templates(ctx context.Context) ([]string, error) {
	return p.names(ctx, kindTemplate)
}

func (p *persistence) Meta(ctx context.Context, name string) (string, bool, error) {
	if strings.TrimSpace(name) == "" {
		return "", false, ErrEmptyKey
	}
	data, ok, err := p.b.read(ctx, key(kindMeta, name))
	if err != nil || !ok {
		return "", false, err
	}
	return string(data), true, nil
}

func (p *persistence) SetMeta(ctx context.Context, name, value string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyKey
	}
	return p.b.write(ctx, key(kindMeta, name), []byte(value))
}

func (p *persistence) Watch(ctx context.Context) (<-chan Event, error) {
	return p.b.watch(ctx)
}

func (p *persistence) Close() error {
	return p.b.close()
}

func (p *persistence) names(ctx context.Context, kind string) ([]string, error) {
	keys, err := p.b.keys(ctx, kind+"-")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, name := splitKey(k); name != "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// eventForKey classifies a change to a stored key.
func eventForKey(k string) Event {
	kind, name := splitKey(k)
	switch kind {
	case kindPlanner:
		return Event{Type: EventPeriodChanged, Key: name}
	case kindTemplate:
		return Event{Type: EventTemplateChanged, Key: name}
	default:
		return Event{Type: EventInvalidated}
	}
}
