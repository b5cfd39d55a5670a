package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ClaimStatus string

const (
	ClaimOngoing   ClaimStatus = "ongoing"
	ClaimReviewing ClaimStatus = "reviewing"
	ClaimCompleted ClaimStatus = "completed"
	ClaimRejected  ClaimStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimCompleted || s == ClaimRejected
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Claim is one account's attempt at one platform. Reward is frozen at join time.
type Claim struct {
	ID           uuid.UUID
	AccountID    int64
	PlatformID   int64
	PlatformName string
	LogoURL      string
	Reward       decimal.Decimal
	Status       ClaimStatus
	StartedAt    time.Time
	SubmittedAt  *time.Time
	AuditedAt    *time.Time
	ProofRef     string
	RejectReason string
}

func NewClaim(accountID int64, p *Platform, now time.Time) *Claim {
	return &Claim{
		ID:           uuid.New(),
		AccountID:    accountID,
		PlatformID:   p.ID,
		PlatformName: p.Name,
		LogoURL:      p.LogoURL,
		Reward:       p.Reward,
		Status:       ClaimOngoing,
		StartedAt:    now,
	}
}

func (c *Claim) SubmitProof(proofRef string, now time.Time) error {
	if c.Status != ClaimOngoing {
		return ErrInvalidState
	}
	if proofRef == "" {
		return ErrInvalidProof
	}
	c.Status = ClaimReviewing
	c.ProofRef = proofRef
	c.SubmittedAt = &now
	return nil
}

func (c *Claim) Approve(now time.Time) error {
	if c.Status != ClaimReviewing {
		return ErrInvalidState
	}
	c.Status = ClaimCompleted
	c.AuditedAt = &now
	return nil
}

func (c *Claim) Reject(reason string, now time.Time) error {
	if c.Status != ClaimReviewing {
		return ErrInvalidState
	}
	c.Status = ClaimRejected
	c.RejectReason = reason
	c.AuditedAt = &now
	return nil
}
