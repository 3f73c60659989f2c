// Package mcp provides the Model Context Protocol server integration for the planner.
package mcp

import (
	"context"
	"errors"
	"strings"

	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/glyph"
)

// Service adapts the planner application service to transport-friendly values.
type Service struct {
	App *app.Service
}

var errNoApp = errors.New("planner service is not configured")

// ItemDTO is a transport-friendly projection of a planner item.
type ItemDTO struct {
	ID          string  `json:"id"`
	Period      string  `json:"period"`
	Value       string  `json:"value"`
	Status      string  `json:"status"`
	StatusGlyph string  `json:"statusGlyph"`
	Source      string  `json:"source"`
	SortKey     float64 `json:"sortKey"`
	Start       string  `json:"start,omitempty"`
	End         string  `json:"end,omitempty"`
	AllDay      bool    `json:"allDay,omitempty"`
	CalendarID  string  `json:"calendarId,omitempty"`
	RecurringID string  `json:"recurringId,omitempty"`
}

// PlannerDTO is a merged day.
type PlannerDTO struct {
	Period  string    `json:"period"`
	Items   []ItemDTO `json:"items"`
	Count   int       `json:"count"`
	Saved   bool      `json:"saved"`
	Added   []string  `json:"added,omitempty"`
	Removed []string  `json:"removed,omitempty"`
}

// TemplateDTO is a day template entry.
type TemplateDTO struct {
	ID        string `json:"id"`
	Day       string `json:"day"`
	Value     string `json:"value"`
	Status    string `json:"status"`
	At        string `json:"at,omitempty"`
	Inherited bool   `json:"inherited"`
}

// NewService wraps svc.
func NewService(svc *app.Service) *Service {
	return &Service{App: svc}
}

func (s *Service) period(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.EqualFold(p, "today") {
		return s.App.Today()
	}
	return p
}

// Planner merges and returns the items of a day.
func (s *Service) Planner(ctx context.Context, period string, all bool) (*PlannerDTO, error) {
	if s.App == nil {
		return nil, errNoApp
	}
	period = s.period(period)
	res, err := s.App.Planner(ctx, period)
	if err != nil {
		return nil, err
	}
	dto := &PlannerDTO{
		Period:  period,
		Items:   make([]ItemDTO, 0, len(res.Events)),
		Saved:   res.NeedsPersist,
		Added:   res.Added,
		Removed: res.Removed,
	}
	for _, e := range res.Events {
		if all || entry.IsVisible(e) {
			dto.Items = append(dto.Items, toDTO(period, e))
		}
	}
	dto.Count = len(dto.Items)
	return dto, nil
}

// Periods lists the stored days.
func (s *Service) Periods(ctx context.Context) ([]string, error) {
	if s.App == nil {
		return nil, errNoApp
	}
	return s.App.Periods(ctx)
}

// AddItem adds an item to a day.
func (s *Service) AddItem(ctx context.Context, period, value, at, after string) (*ItemDTO, error) {
	if s.App == nil {
		return nil, errNoApp
	}
	period = s.period(period)
	e, err := s.App.Add(ctx, period, value, at, after)
	if err != nil {
		return nil, err
	}
	dto := toDTO(period, e)
	return &dto, nil
}

// EditItem rewrites an item's value or time.
func (s *Service) EditItem(ctx context.Context, period, id, value, at string) (*ItemDTO, error) {
	if s.App == nil {
		return nil, errNoApp
	}
	period = s.period(period)
	e, err := s.App.Edit(ctx, period, id, value, at)
	if err != nil {
		return nil, err
	}
	dto := toDTO(period, e)
	return &dto, nil
}

// MoveItem places an item after another, or at the top.
func (s *Service) MoveItem(ctx context.Context, period, id, after string) (*ItemDTO, error) {
	if s.App == nil {
		return nil, errNoApp
	}
	period = s.period(period)
	e, err := s.App.Move(ctx, period, id, after)
	if err != nil {
		return nil, err
	}
	dto := toDTO(period, e)
	return &dto, nil
}

// ToggleDelete flips an item in or out of pending delete.
func (s *Service) ToggleDelete(ctx context.Context, period, id string) (*ItemDTO, error) {
	if s.App == nil {
		return nil, errNoApp
	}
	period = s.period(period)
	e, err := s.App.ToggleDelete(ctx, period, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(period, e)
	return &dto, nil
}

// ConfirmDeletes removes every pending delete of a day.
func (s *Service) ConfirmDeletes(ctx context.Context, period string) (int, error) {
	if s.App == nil {
		return 0, errNoApp
	}
	return s.App.ConfirmDeletes(ctx, s.period(period))
}

// Rollover carries unfinished items into today.
func (s *Service) Rollover(ctx context.Context) (app.RolloverResult, error) {
	if s.App == nil {
		return app.RolloverResult{}, errNoApp
	}
	return s.App.Rollover(ctx, s.App.Today())
}

// Template lists a day template.
func (s *Service) Template(ctx context.Context, day string) ([]TemplateDTO, error) {
	if s.App == nil {
		return nil, errNoApp
	}
	events, err := s.App.TemplateList(ctx, day)
	if err != nil {
		return nil, err
	}
	out := make([]TemplateDTO, 0, len(events))
	for _, e := range events {
		out = append(out, TemplateDTO{
			ID:        e.ID,
			Day:       day,
			Value:     e.Value,
			Status:    string(e.Status),
			At:        e.StartTime,
			Inherited: e.Derived(),
		})
	}
	return out, nil
}

// AddTemplate adds an entry to a day template.
func (s *Service) AddTemplate(ctx context.Context, day, value, at, after string) (*TemplateDTO, error) {
	if s.App == nil {
		return nil, errNoApp
	}
	e, err := s.App.TemplateAdd(ctx, day, value, at, after)
	if err != nil {
		return nil, err
	}
	return &TemplateDTO{ID: e.ID, Day: day, Value: e.Value, Status: string(e.Status), At: e.StartTime}, nil
}

func toDTO(period string, e entry.PlannerEvent) ItemDTO {
	dto := ItemDTO{
		ID:          e.ID,
		Period:      period,
		Value:       e.Value,
		Status:      string(e.Status),
		StatusGlyph: glyph.ForStatus(e.Status).Symbol,
		Source:      string(glyph.SourceOf(e)),
		SortKey:     e.SortKey,
		CalendarID:  e.CalendarID,
		RecurringID: e.RecurringID,
	}
	if tc := e.TimeConfig; tc != nil {
		dto.Start = tc.Start.String()
		dto.End = tc.End.String()
		dto.AllDay = tc.AllDay
	}
	return dto
}
