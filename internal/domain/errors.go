package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyJoined    = errors.New("platform already joined")
	ErrSoldOut          = errors.New("platform sold out")
	ErrDuplicateTrigger = errors.New("duplicate trigger")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinimum        = errors.New("amount below minimum withdrawal")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidProof        = errors.New("proof reference is empty")
	ErrInvalidDecision     = errors.New("invalid audit decision")
	ErrNoPayoutAccount     = errors.New("no payout account")

	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrAccountBanned      = errors.New("account banned")
)

var (
	ErrAccountNotFound  = fmt.Errorf("account %w", ErrNotFound)
	ErrPlatformNotFound = fmt.Errorf("platform %w", ErrNotFound)
	ErrClaimNotFound    = fmt.Errorf("claim %w", ErrNotFound)
	ErrReferrerNotFound = fmt.Errorf("invite code %w", ErrNotFound)

	ErrPlatformOffline = fmt.Errorf("platform offline: %w", ErrInvalidState)
)
