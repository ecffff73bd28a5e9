package domain

import "errors"

var (
	ErrInvitationNotFound    = errors.New("invalid invitation link")
	ErrInvitationExpired     = errors.New("invitation expired")
	ErrInvitationAccepted    = errors.New("invitation already accepted")
	ErrTokenRequired         = errors.New("token required")
	ErrEmailRequired         = errors.New("email required")
	ErrPasswordRequired      = errors.New("password required to verify account")
	ErrPasswordRequiredNew   = errors.New("password required for new account")
	ErrFirstNameRequired     = errors.New("first name required")
	ErrNotInvitationManager  = errors.New("not allowed to manage invitations")
	ErrCollectionLinkInvalid = errors.New("invalid collection link")
	ErrActivationNotFound    = errors.New("activation token not found")
	ErrActivationExpired     = errors.New("activation token expired")
	ErrActivationUsed        = errors.New("activation token already used")
)
