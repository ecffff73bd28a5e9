package domain

import "errors"

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrInvalidName    = errors.New("invalid group name")
	ErrInvalidRole    = errors.New("invalid role")
	ErrNotMember      = errors.New("not a group member")
	ErrSoleOwner      = errors.New("sole owner cannot be removed")
	ErrNoOtherMembers = errors.New("no other members to transfer ownership to")
)
