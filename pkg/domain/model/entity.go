package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// EntityKind identifies the variant of an Entity
type EntityKind string

const (
	EntityKindContent EntityKind = "content"
	EntityKindUser    EntityKind = "user"
	EntityKindAsset   EntityKind = "asset"
)

// Disk names used to look up path prefixes
const (
	DiskContent = "content"
	DiskUsers   = "users"
)

// PathPrefixFunc returns the filesystem path prefix of a named disk
type PathPrefixFunc func(disk string) (string, error)

// Entity is the record that triggered an event. The set of implementations is
// closed: ContentEntity, UserEntity and AssetEntity.
type Entity interface {
	// Kind returns the variant of the entity
	Kind() EntityKind
	// Fields returns a copy of the serialized attributes of the entity
	Fields() map[string]any
	// FullPath returns the absolute filesystem path of the entity
	FullPath(prefix PathPrefixFunc) (string, error)

	sealed()
}

// ContentEntity is a generic content record (entry, page, taxonomy term, ...)
// stored on the "content" disk.
type ContentEntity struct {
	Path string         // Path relative to the content disk root
	Data map[string]any // Serialized attributes
}

// UserEntity is a user record stored on the "users" disk
type UserEntity struct {
	Path string
	Data map[string]any
}

// AssetEntity is an uploaded asset. Its path is already resolved against the
// asset container, so no disk prefix is applied.
type AssetEntity struct {
	ResolvedPath string
	Data         map[string]any
}

func (ContentEntity) sealed() {}
func (UserEntity) sealed()    {}
func (AssetEntity) sealed()   {}

func (e *ContentEntity) Kind() EntityKind { return EntityKindContent }
func (e *UserEntity) Kind() EntityKind    { return EntityKindUser }
func (e *AssetEntity) Kind() EntityKind   { return EntityKindAsset }

// A nil variant pointer has no fields and no path.

func (e *ContentEntity) Fields() map[string]any {
	if e == nil {
		return map[string]any{}
	}
	return cloneMap(e.Data)
}

func (e *UserEntity) Fields() map[string]any {
	if e == nil {
		return map[string]any{}
	}
	return cloneMap(e.Data)
}

func (e *AssetEntity) Fields() map[string]any {
	if e == nil {
		return map[string]any{}
	}
	return cloneMap(e.Data)
}

func (e *ContentEntity) FullPath(prefix PathPrefixFunc) (string, error) {
	if e == nil {
		return "", goerr.Wrap(ErrInvalidEntity, "content entity is nil")
	}
	return diskPath(prefix, DiskContent, e.Path)
}

func (e *UserEntity) FullPath(prefix PathPrefixFunc) (string, error) {
	if e == nil {
		return "", goerr.Wrap(ErrInvalidEntity, "user entity is nil")
	}
	return diskPath(prefix, DiskUsers, e.Path)
}

func (e *AssetEntity) FullPath(_ PathPrefixFunc) (string, error) {
	if e == nil {
		return "", goerr.Wrap(ErrInvalidEntity, "asset entity is nil")
	}
	if e.ResolvedPath == "" {
		return "", goerr.Wrap(ErrInvalidEntity, "asset has no resolved path")
	}
	return e.ResolvedPath, nil
}

// diskPath concatenates the disk prefix and the relative path. Prefixes are
// treated as directories, so a missing trailing separator is added.
func diskPath(prefix PathPrefixFunc, disk, path string) (string, error) {
	if path == "" {
		return "", goerr.Wrap(ErrInvalidEntity, "entity has no path", goerr.V("disk", disk))
	}
	if prefix == nil {
		return "", goerr.Wrap(ErrUnknownDisk, "no path prefix resolver", goerr.V("disk", disk))
	}

	p, err := prefix(disk)
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve disk path prefix", goerr.V("disk", disk))
	}
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}

	return p + strings.TrimPrefix(path, "/"), nil
}

// cloneMap deep-copies nested maps and slices so callers cannot mutate the
// entity through the returned value.
func cloneMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
