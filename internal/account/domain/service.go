package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// DeleteOwnAccount verifies the caller's password, scans their owned
	// content, transfers ownership of their groups, and then soft- or
	// hard-deletes the account.
	DeleteOwnAccount(ctx context.Context, userID snowflake.ID, password string) (*Result, error)

	// PlanDeletion runs only the content scan and reports which branch a
	// deletion would take, without mutating anything.
	PlanDeletion(ctx context.Context, userID snowflake.ID) (DeletionPlan, error)
}
