package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/internal/audit/domain"
	"github.com/smallplates/plates/internal/clock"
	"github.com/smallplates/plates/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Recorder appends audit events. Recording is best-effort: failures are
// logged and never propagate into the recorded operation.
type Recorder interface {
	Record(ctx context.Context, actorID snowflake.ID, action, targetType, targetID string, detail map[string]any)
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Event, *pagination.PageInfo, error)
}

type recorder struct {
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
	log   *zap.Logger
}

func NewRecorder(repo domain.Repository, genID *snowflake.Node, clk clock.Clock) Recorder {
	return &recorder{
		repo:  repo,
		genID: genID,
		clock: clk,
		log:   zap.L().Named("audit"),
	}
}

func (r *recorder) Record(ctx context.Context, actorID snowflake.ID, action, targetType, targetID string, detail map[string]any) {
	event := &domain.Event{
		ID:         r.genID.Generate(),
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     maskDetail(detail),
		CreatedAt:  r.clock.Now(),
	}
	if err := r.repo.Append(ctx, event); err != nil {
		r.log.Warn("audit append failed",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (r *recorder) List(ctx context.Context, filter domain.ListFilter) ([]domain.Event, *pagination.PageInfo, error) {
	return r.repo.List(ctx, filter)
}

func maskDetail(detail map[string]any) datatypes.JSONMap {
	if detail == nil {
		return nil
	}
	masked := make(datatypes.JSONMap, len(detail))
	for k, v := range detail {
		if s, ok := v.(string); ok && strings.Contains(k, "email") {
			masked[k] = MaskEmail(s)
			continue
		}
		masked[k] = v
	}
	return masked
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
