package repository

import (
	"context"
	"time"

	"github.com/smallplates/plates/internal/audit/domain"
	"github.com/smallplates/plates/pkg/db/pagination"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, event *domain.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Event, *pagination.PageInfo, error) {
	size := filter.PageSize
	if size <= 0 {
		size = 25
	}

	q := r.db.WithContext(ctx).Model(&domain.Event{})
	if filter.ActorID != 0 {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}

	if filter.PageToken != "" {
		cursor, err := pagination.DecodeCursor(filter.PageToken)
		if err != nil {
			return nil, nil, err
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, nil, err
		}
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, cursor.ID)
	}

	var events []domain.Event
	if err := q.Order("created_at DESC, id DESC").Limit(size + 1).Find(&events).Error; err != nil {
		return nil, nil, err
	}

	info := &pagination.PageInfo{}
	if len(events) > size {
		events = events[:size]
		last := events[len(events)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, nil, err
		}
		info.NextPageToken = token
		info.HasMore = true
	}
	return events, info, nil
}
