package domain

import "errors"

var ErrEntryNotFound = errors.New("waitlist entry not found")
