package invitation

import (
	"github.com/smallplates/plates/internal/invitation/repository"
	"github.com/smallplates/plates/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
