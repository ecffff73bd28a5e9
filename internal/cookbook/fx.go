package cookbook

import (
	"github.com/smallplates/plates/internal/cookbook/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("cookbook",
	fx.Provide(repository.NewRepository),
)
