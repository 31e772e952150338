package usecase

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/domain/interfaces"
	"github.com/m-mizutani/spock/pkg/domain/model"
)

// BuildContext builds the template context for an entity. committer may be nil
// when there is no authenticated actor.
func BuildContext(entity model.Entity, committer map[string]any, disks interfaces.PathPrefixer) (*model.EventContext, error) {
	if entity == nil {
		return nil, goerr.Wrap(model.ErrInvalidEntity, "entity is nil")
	}

	var prefix model.PathPrefixFunc
	if disks != nil {
		prefix = disks.PathPrefix
	}

	fullPath, err := entity.FullPath(prefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compute full path", goerr.V("kind", entity.Kind()))
	}
	if fullPath == "" {
		return nil, goerr.Wrap(model.ErrInvalidEntity, "full path is empty", goerr.V("kind", entity.Kind()))
	}

	return model.NewEventContext(entity.Fields(), fullPath, committer), nil
}
