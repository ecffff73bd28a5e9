package guest

import (
	"github.com/smallplates/plates/internal/guest/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("guest",
	fx.Provide(repository.NewRepository),
)
