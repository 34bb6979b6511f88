package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRenderStart  EventType = "render_start"
	EventRenderFinish EventType = "render_finish"
	EventIncludeEnter EventType = "include_enter"
	EventIncludeLeave EventType = "include_leave"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// RenderEvent marks the start or end of a top-level render or collect call.
type RenderEvent struct {
	EventBase
	Document string        `json:"document"`
	Mode     string        `json:"mode"` // "render" or "collect"
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// IncludeEvent represents entering or leaving an included document.
type IncludeEvent struct {
	EventBase
	From   string   `json:"from"`
	Target Target   `json:"target"`
	Path   string   `json:"path"`
	Depth  int      `json:"depth"`
	Chain  []string `json:"chain,omitempty"`
}

// Hooks defines callbacks for engine observability. The engine itself never logs.
type Hooks struct {
	OnRenderStart  func(context.Context, *RenderEvent)
	OnRenderFinish func(context.Context, *RenderEvent)
	OnIncludeEnter func(context.Context, *IncludeEvent)
	OnIncludeLeave func(context.Context, *IncludeEvent)
}

// EmitRenderStart fires OnRenderStart when set.
func (h Hooks) EmitRenderStart(ctx context.Context, doc, mode string) {
	if h.OnRenderStart == nil {
		return
	}
	h.OnRenderStart(ctx, &RenderEvent{
		EventBase: EventBase{Timestamp: time.Now(), Type: EventRenderStart},
		Document:  doc,
		Mode:      mode,
	})
}

// EmitRenderFinish fires OnRenderFinish when set.
func (h Hooks) EmitRenderFinish(ctx context.Context, doc, mode string, started time.Time, err error) {
	if h.OnRenderFinish == nil {
		return
	}
	h.OnRenderFinish(ctx, &RenderEvent{
		EventBase: EventBase{Timestamp: time.Now(), Type: EventRenderFinish},
		Document:  doc,
		Mode:      mode,
		Duration:  time.Since(started),
		Err:       err,
	})
}

// EmitIncludeEnter fires OnIncludeEnter when set.
func (h Hooks) EmitIncludeEnter(ctx context.Context, e IncludeEvent) {
	if h.OnIncludeEnter == nil {
		return
	}
	e.EventBase = EventBase{Timestamp: time.Now(), Type: EventIncludeEnter}
	h.OnIncludeEnter(ctx, &e)
}

// EmitIncludeLeave fires OnIncludeLeave when set.
func (h Hooks) EmitIncludeLeave(ctx context.Context, e IncludeEvent) {
	if h.OnIncludeLeave == nil {
		return
	}
	e.EventBase = EventBase{Timestamp: time.Now(), Type: EventIncludeLeave}
	h.OnIncludeLeave(ctx, &e)
}
