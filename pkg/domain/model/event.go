package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// EventType represents the type of CMS event received
type EventType string

const (
	EventTypePublished     EventType = "published"
	EventTypeAssetUploaded EventType = "asset_uploaded"
	EventTypeUnknown       EventType = "unknown"
)

// Event represents a CMS event that may trigger commands
type Event struct {
	ID         string         // Delivery ID, generated when the sender gives none
	Type       EventType      // Event type
	Entity     Entity         // Entity that triggered the event
	Committer  map[string]any // Serialized authenticated actor, nil if no session
	ReceivedAt time.Time      // Time when the event was received
}

// IsSupportedEvent checks if the event type and entity variant go together
func (e *Event) IsSupportedEvent() bool {
	if e.Entity == nil {
		return false
	}

	switch e.Type {
	case EventTypePublished:
		return true
	case EventTypeAssetUploaded:
		return e.Entity.Kind() == EntityKindAsset
	default:
		return false
	}
}

// EntityPayload is the wire form of an entity
type EntityPayload struct {
	Kind         EntityKind     `json:"kind"`
	Path         string         `json:"path,omitempty"`
	ResolvedPath string         `json:"resolved_path,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// EventPayload is the wire form of an event accepted by the webhook and the
// run command
type EventPayload struct {
	ID        string         `json:"id,omitempty"`
	Entity    *EntityPayload `json:"entity"`
	Committer map[string]any `json:"committer,omitempty"`
}

// ToEntity converts the payload into its Entity variant
func (p *EntityPayload) ToEntity() (Entity, error) {
	data := p.Data
	if data == nil {
		data = map[string]any{}
	}

	switch p.Kind {
	case EntityKindContent, "":
		if p.Path == "" {
			return nil, goerr.Wrap(ErrInvalidEvent, "content entity requires path")
		}
		return &ContentEntity{Path: p.Path, Data: data}, nil

	case EntityKindUser:
		if p.Path == "" {
			return nil, goerr.Wrap(ErrInvalidEvent, "user entity requires path")
		}
		return &UserEntity{Path: p.Path, Data: data}, nil

	case EntityKindAsset:
		if p.ResolvedPath == "" {
			return nil, goerr.Wrap(ErrInvalidEvent, "asset entity requires resolved_path")
		}
		return &AssetEntity{ResolvedPath: p.ResolvedPath, Data: data}, nil

	default:
		return nil, goerr.Wrap(ErrInvalidEvent, "unknown entity kind", goerr.V("kind", p.Kind))
	}
}

// ParseEventPayload decodes a JSON event payload of the given type. Numbers
// are kept in their literal form so that large integers render exactly.
func ParseEventPayload(eventType EventType, data []byte) (*Event, error) {
	var payload EventPayload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, goerr.Wrap(ErrInvalidEvent, "failed to decode event payload", goerr.V("error", err.Error()))
	}

	if payload.Entity == nil {
		return nil, goerr.Wrap(ErrInvalidEvent, "event payload has no entity")
	}

	entity, err := payload.Entity.ToEntity()
	if err != nil {
		return nil, err
	}

	event := &Event{
		ID:         payload.ID,
		Type:       eventType,
		Entity:     entity,
		Committer:  payload.Committer,
		ReceivedAt: time.Now(),
	}
	if !event.IsSupportedEvent() {
		return nil, goerr.Wrap(ErrInvalidEvent, "unsupported event",
			goerr.V("type", eventType),
			goerr.V("kind", entity.Kind()),
		)
	}

	return event, nil
}
