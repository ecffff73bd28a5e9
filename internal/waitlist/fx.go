package waitlist

import (
	"github.com/smallplates/plates/internal/waitlist/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("waitlist",
	fx.Provide(repository.NewRepository),
)
