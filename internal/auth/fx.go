package auth

import (
	"github.com/smallplates/plates/internal/auth/local"
	"github.com/smallplates/plates/internal/auth/repository"
	"github.com/smallplates/plates/internal/auth/service"
	"github.com/smallplates/plates/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
	fx.Provide(local.NewHandler),
)
