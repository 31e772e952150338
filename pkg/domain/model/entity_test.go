package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/spock/pkg/domain/model"
)

func TestEntity_FullPath(t *testing.T) {
	prefixes := map[string]string{
		model.DiskContent: "/var/www/content/",
		model.DiskUsers:   "/var/www/users",
	}
	var requested []string
	prefix := func(disk string) (string, error) {
		requested = append(requested, disk)
		p, ok := prefixes[disk]
		if !ok {
			return "", model.ErrUnknownDisk
		}
		return p, nil
	}

	t.Run("content uses content disk", func(t *testing.T) {
		requested = nil
		e := &model.ContentEntity{Path: "blog/post.md"}
		path, err := e.FullPath(prefix)
		gt.NoError(t, err)
		gt.Value(t, path).Equal("/var/www/content/blog/post.md")
		gt.Array(t, requested).Length(1)
		gt.Value(t, requested[0]).Equal(model.DiskContent)
	})

	t.Run("user uses users disk and adds separator", func(t *testing.T) {
		requested = nil
		e := &model.UserEntity{Path: "alice.yaml"}
		path, err := e.FullPath(prefix)
		gt.NoError(t, err)
		gt.Value(t, path).Equal("/var/www/users/alice.yaml")
		gt.Array(t, requested).Length(1)
		gt.Value(t, requested[0]).Equal(model.DiskUsers)
	})

	t.Run("asset never consults prefix", func(t *testing.T) {
		requested = nil
		e := &model.AssetEntity{ResolvedPath: "/storage/assets/img.png"}
		path, err := e.FullPath(prefix)
		gt.NoError(t, err)
		gt.Value(t, path).Equal("/storage/assets/img.png")
		gt.Array(t, requested).Length(0)
	})

	t.Run("prefix error is propagated", func(t *testing.T) {
		e := &model.ContentEntity{Path: "blog/post.md"}
		_, err := e.FullPath(func(string) (string, error) { return "", model.ErrUnknownDisk })
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrUnknownDisk))
	})

	t.Run("empty path is invalid", func(t *testing.T) {
		e := &model.ContentEntity{}
		_, err := e.FullPath(prefix)
		gt.True(t, errors.Is(err, model.ErrInvalidEntity))
	})

	t.Run("asset without path is invalid", func(t *testing.T) {
		e := &model.AssetEntity{}
		_, err := e.FullPath(prefix)
		gt.True(t, errors.Is(err, model.ErrInvalidEntity))
	})
}

func TestEntity_FieldsAreCopied(t *testing.T) {
	e := &model.ContentEntity{
		Path: "blog/post.md",
		Data: map[string]any{
			"title": "Hello",
			"meta":  map[string]any{"draft": false},
		},
	}

	fields := e.Fields()
	fields["title"] = "changed"
	fields["meta"].(map[string]any)["draft"] = true

	gt.Value(t, e.Data["title"]).Equal(any("Hello"))
	gt.Value(t, e.Data["meta"].(map[string]any)["draft"]).Equal(any(false))
}

func TestEntity_NilVariants(t *testing.T) {
	for _, entity := range []model.Entity{
		(*model.ContentEntity)(nil),
		(*model.UserEntity)(nil),
		(*model.AssetEntity)(nil),
	} {
		gt.Number(t, len(entity.Fields())).Equal(0)

		_, err := entity.FullPath(func(string) (string, error) { return "/srv/", nil })
		gt.True(t, errors.Is(err, model.ErrInvalidEntity))
	}
}
