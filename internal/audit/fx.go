package audit

import (
	"github.com/smallplates/plates/internal/audit/repository"
	"github.com/smallplates/plates/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewRecorder),
)
