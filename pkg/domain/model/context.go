package model

import (
	"strconv"
	"strings"
)

// Keys injected into every event context
const (
	ContextKeyFullPath  = "full_path"
	ContextKeyCommitter = "committer"
)

// optionalContextKeys are root keys that may be absent without making a
// placeholder unresolvable.
var optionalContextKeys = map[string]struct{}{
	ContextKeyCommitter: {},
}

// IsOptionalContextKey reports whether a missing root key renders as empty
func IsOptionalContextKey(key string) bool {
	_, ok := optionalContextKeys[key]
	return ok
}

// EventContext holds the values available to command templates while one event
// is handled. It is immutable after construction.
type EventContext struct {
	values map[string]any
}

// NewEventContext creates an EventContext from entity fields, the full path of
// the entity and an optional committer. A nil committer omits the key.
func NewEventContext(fields map[string]any, fullPath string, committer map[string]any) *EventContext {
	values := cloneMap(fields)
	values[ContextKeyFullPath] = fullPath
	if committer != nil {
		values[ContextKeyCommitter] = cloneMap(committer)
	} else {
		delete(values, ContextKeyCommitter)
	}

	return &EventContext{values: values}
}

// FullPath returns the full_path value
func (c *EventContext) FullPath() string {
	s, _ := c.values[ContextKeyFullPath].(string)
	return s
}

// Has reports whether a root key is present
func (c *EventContext) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Map returns a copy of the context values
func (c *EventContext) Map() map[string]any {
	return cloneMap(c.values)
}

// Lookup resolves a dotted key path such as "committer.name" or "tags.0".
// Numeric segments index into lists.
func (c *EventContext) Lookup(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var cur any = c.values
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v

		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]

		case []string:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]

		default:
			return nil, false
		}
	}

	return cloneValue(cur), true
}
