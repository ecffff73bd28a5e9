package domain

import "errors"

var (
	ErrAlreadyDeleted   = errors.New("account already deleted")
	ErrPasswordRequired = errors.New("password required")
)
