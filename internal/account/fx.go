package account

import (
	"github.com/smallplates/plates/internal/account/service"
	auditservice "github.com/smallplates/plates/internal/audit/service"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
	"github.com/smallplates/plates/internal/clock"
	cookbookdomain "github.com/smallplates/plates/internal/cookbook/domain"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	guestdomain "github.com/smallplates/plates/internal/guest/domain"
	invitationdomain "github.com/smallplates/plates/internal/invitation/domain"
	"github.com/smallplates/plates/internal/providers/email"
	recipedomain "github.com/smallplates/plates/internal/recipe/domain"
	waitlistdomain "github.com/smallplates/plates/internal/waitlist/domain"
	"go.uber.org/fx"

	accountdomain "github.com/smallplates/plates/internal/account/domain"
)

var Module = fx.Module("account.service",
	fx.Provide(newService),
)

func newService(
	auth authdomain.Service,
	groups groupdomain.Service,
	groupRepo groupdomain.Repository,
	invitations invitationdomain.Repository,
	recipes recipedomain.Repository,
	guests guestdomain.Repository,
	cookbooks cookbookdomain.Repository,
	waitlist waitlistdomain.Repository,
	mail email.Provider,
	audit auditservice.Recorder,
	clk clock.Clock,
) accountdomain.Service {
	return service.NewService(service.Deps{
		Auth:        auth,
		Groups:      groups,
		GroupRepo:   groupRepo,
		Invitations: invitations,
		Recipes:     recipes,
		Guests:      guests,
		Cookbooks:   cookbooks,
		Waitlist:    waitlist,
		Mail:        mail,
		Audit:       audit,
		Clock:       clk,
	})
}
