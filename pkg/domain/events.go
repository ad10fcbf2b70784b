package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRenderStart   EventType = "render_start"
	EventRenderDone    EventType = "render_done"
	EventCacheLookup   EventType = "cache_lookup"
	EventLayerSkipped  EventType = "layer_skipped"
	EventDelegateReply EventType = "delegate_reply"
)

// Render kinds.
const (
	KindStatic   = "static"
	KindAnimated = "animated"
	KindTrait    = "trait"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	TokenID     int       `json:"token_id"`
	Fingerprint string    `json:"fingerprint,omitempty"`
}

// RenderEvent marks the start or end of one render.
type RenderEvent struct {
	EventBase
	Kind string `json:"kind"`
	// Outcome is one of "cache", "delegate", "local" or "error" (RenderDone only).
	Outcome  string        `json:"outcome,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// CacheEvent reports one lookup in one cache tier.
type CacheEvent struct {
	EventBase
	Namespace string `json:"namespace"`
	Hit       bool   `json:"hit"`
}

// LayerEvent reports a layer that could not be painted.
type LayerEvent struct {
	EventBase
	Layer TraitLayer `json:"layer"`
	Err   error      `json:"-"`
}

// DelegateEvent reports the outcome of an external render attempt.
type DelegateEvent struct {
	EventBase
	OK       bool          `json:"ok"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnRenderStart  func(context.Context, *RenderEvent)
	OnRenderDone   func(context.Context, *RenderEvent)
	OnCacheLookup  func(context.Context, *CacheEvent)
	OnLayerSkipped func(context.Context, *LayerEvent)
	OnDelegate     func(context.Context, *DelegateEvent)
}
