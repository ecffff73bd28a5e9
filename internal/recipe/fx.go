package recipe

import (
	"github.com/smallplates/plates/internal/recipe/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("recipe",
	fx.Provide(repository.NewRepository),
)
