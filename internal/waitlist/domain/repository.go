package domain

import "context"

type Repository interface {
	Add(ctx context.Context, entry *Entry) error
	FindByEmail(ctx context.Context, email string) (*Entry, error)
	DeleteByEmail(ctx context.Context, email string) error
}
