package group

import (
	"github.com/smallplates/plates/internal/group/repository"
	"github.com/smallplates/plates/internal/group/service"
	"go.uber.org/fx"
)

var Module = fx.Module("group.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
