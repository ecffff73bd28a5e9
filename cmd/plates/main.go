package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/internal/account"
	"github.com/smallplates/plates/internal/audit"
	"github.com/smallplates/plates/internal/auth"
	"github.com/smallplates/plates/internal/authorization"
	"github.com/smallplates/plates/internal/clock"
	"github.com/smallplates/plates/internal/config"
	"github.com/smallplates/plates/internal/cookbook"
	"github.com/smallplates/plates/internal/group"
	"github.com/smallplates/plates/internal/guest"
	"github.com/smallplates/plates/internal/invitation"
	"github.com/smallplates/plates/internal/migration"
	"github.com/smallplates/plates/internal/observability"
	"github.com/smallplates/plates/internal/providers/email"
	"github.com/smallplates/plates/internal/ratelimit"
	"github.com/smallplates/plates/internal/recipe"
	"github.com/smallplates/plates/internal/server"
	"github.com/smallplates/plates/internal/waitlist"
	"github.com/smallplates/plates/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services
		auth.Module,
		group.Module,
		audit.Module,
		authorization.Module,
		email.Module,
		invitation.Module,
		account.Module,
		recipe.Module,
		guest.Module,
		cookbook.Module,
		waitlist.Module,
		ratelimit.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
