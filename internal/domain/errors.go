package domain

import "errors"

var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrEmailExists       = errors.New("email already registered")
	ErrNicknameExists    = errors.New("nickname already taken")
	ErrLoginFailure      = errors.New("invalid credentials")
)
