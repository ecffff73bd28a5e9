// Package domain contains the account deletion plan types.
package domain

const (
	DeletionTypeSoft = "soft"
	DeletionTypeHard = "hard"
)

// DeletionPlan is the outcome of the content scan: either the account is
// anonymized in place or every dependent row is removed. Modeling the
// branch as a closed sum keeps the cascade order and the anonymize fields
// testable on their own.
type DeletionPlan interface {
	Type() string
	deletionPlan()
}

// SoftDelete preserves every row other users' content references and
// rewrites the account to a tombstone.
type SoftDelete struct {
	TombstoneEmail string
}

func (SoftDelete) Type() string  { return DeletionTypeSoft }
func (SoftDelete) deletionPlan() {}

// HardDelete removes the account and all dependent rows.
type HardDelete struct{}

func (HardDelete) Type() string  { return DeletionTypeHard }
func (HardDelete) deletionPlan() {}

// Result is what the self-deletion endpoint returns to the caller.
type Result struct {
	DeletionType string
	Message      string
}
