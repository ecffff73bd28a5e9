package migration

import (
	auditdomain "github.com/smallplates/plates/internal/audit/domain"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
	"github.com/smallplates/plates/internal/config"
	cookbookdomain "github.com/smallplates/plates/internal/cookbook/domain"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	guestdomain "github.com/smallplates/plates/internal/guest/domain"
	invitationdomain "github.com/smallplates/plates/internal/invitation/domain"
	recipedomain "github.com/smallplates/plates/internal/recipe/domain"
	"github.com/smallplates/plates/internal/seed"
	waitlistdomain "github.com/smallplates/plates/internal/waitlist/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite dev mode has no versioned schema; gorm keeps it in sync.
			if err := conn.AutoMigrate(
				&authdomain.User{}, &authdomain.Session{},
				&groupdomain.Group{}, &groupdomain.GroupMember{},
				&invitationdomain.Invitation{}, &invitationdomain.CollectionLink{}, &invitationdomain.ActivationToken{},
				&recipedomain.GuestRecipe{}, &recipedomain.GroupRecipe{},
				&guestdomain.Guest{}, &guestdomain.CommunicationLog{},
				&cookbookdomain.Cookbook{}, &cookbookdomain.ShippingAddress{},
				&waitlistdomain.Entry{},
				&auditdomain.Event{},
			); err != nil {
				return err
			}
		}

		if cfg.Bootstrap.EnsureAdminUser && !cfg.IsProduction() {
			return seed.EnsureAdminAndDemoGroup(conn, cfg)
		}
		return nil
	}),
)
