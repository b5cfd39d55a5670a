package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/set-night/bountyhub/internal/metrics"
)

// AuditResult describes what an audit committed. CommissionErr is set when
// the fan-out stopped early; the owner's reward is committed regardless.
type AuditResult struct {
	Claim         *domain.Claim
	Reward        *domain.Transaction
	VIPBonus      *domain.Transaction
	Commissions   []Credit
	CommissionErr error
}

type TaskService struct {
	dir         Directory
	platforms   PlatformStore
	ledger      *LedgerService
	tiers       *TierEvaluator
	commissions *CommissionService
	now         func() time.Time
}

func NewTaskService(dir Directory, platforms PlatformStore, ledger *LedgerService, tiers *TierEvaluator, commissions *CommissionService) *TaskService {
	return &TaskService{
		dir:         dir,
		platforms:   platforms,
		ledger:      ledger,
		tiers:       tiers,
		commissions: commissions,
		now:         time.Now,
	}
}

func rewardKey(claimID uuid.UUID) string {
	return "reward:" + claimID.String()
}

// Join opens a claim for accountID on platformID and takes one unit of the
// platform's capacity.
func (s *TaskService) Join(ctx context.Context, accountID, platformID int64) (*domain.Claim, error) {
	acc, err := s.dir.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.Banned {
		return nil, domain.ErrAccountBanned
	}
	if acc.ClaimForPlatform(platformID) != nil {
		metrics.JoinsTotal.WithLabelValues("already_joined").Inc()
		return nil, domain.ErrAlreadyJoined
	}

	p, err := s.platforms.Reserve(ctx, platformID)
	if err != nil {
		if errors.Is(err, domain.ErrSoldOut) {
			metrics.JoinsTotal.WithLabelValues("sold_out").Inc()
		}
		return nil, err
	}

	var claim domain.Claim
	_, err = s.dir.UpdateAccount(ctx, accountID, func(acc *domain.Account) error {
		if acc.ClaimForPlatform(platformID) != nil {
			return domain.ErrAlreadyJoined
		}
		c := domain.NewClaim(accountID, p, s.now())
		acc.Tasks = append(acc.Tasks, c)
		claim = *c
		return nil
	})
	if err != nil {
		if relErr := s.platforms.Release(ctx, platformID); relErr != nil {
			slog.Error("failed to release platform slot",
				"platform_id", platformID,
				"account_id", accountID,
				"error", relErr,
			)
		}
		if errors.Is(err, domain.ErrAlreadyJoined) {
			metrics.JoinsTotal.WithLabelValues("already_joined").Inc()
		}
		return nil, err
	}

	metrics.JoinsTotal.WithLabelValues("joined").Inc()
	slog.Info("platform joined",
		"account_id", accountID,
		"platform_id", platformID,
		"claim_id", claim.ID,
		"remaining", p.RemainingQty,
	)
	return &claim, nil
}

// SubmitProof moves an ongoing claim to review.
func (s *TaskService) SubmitProof(ctx context.Context, accountID int64, claimID uuid.UUID, proofRef string) (*domain.Claim, error) {
	owner, err := s.dir.ClaimOwner(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if owner != accountID {
		return nil, domain.ErrClaimNotFound
	}

	var claim domain.Claim
	_, err = s.dir.UpdateAccount(ctx, owner, func(acc *domain.Account) error {
		c := acc.Claim(claimID)
		if c == nil {
			return domain.ErrClaimNotFound
		}
		if err := c.SubmitProof(proofRef, s.now()); err != nil {
			return err
		}
		claim = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// Audit decides a claim under review. Approval books the frozen reward and
// any VIP promotion in the owner's transaction, then fans commissions out
// to the owner's uplines.
func (s *TaskService) Audit(ctx context.Context, claimID uuid.UUID, decision domain.Decision, reason string) (*AuditResult, error) {
	if decision != domain.DecisionApprove && decision != domain.DecisionReject {
		return nil, domain.ErrInvalidDecision
	}
	owner, err := s.dir.ClaimOwner(ctx, claimID)
	if err != nil {
		return nil, err
	}

	res := &AuditResult{}
	_, _, err = s.ledger.Update(ctx, owner, func(tx *Txn) error {
		c := tx.Account.Claim(claimID)
		if c == nil {
			return domain.ErrClaimNotFound
		}
		if decision == domain.DecisionReject {
			if err := c.Reject(reason, tx.Now); err != nil {
				return err
			}
			res.Claim = c
			return nil
		}

		if err := c.Approve(tx.Now); err != nil {
			return err
		}
		reward, err := tx.Append(Entry{
			Type:        domain.TxTypeTaskReward,
			Amount:      c.Reward,
			Description: fmt.Sprintf("Task reward: %s", c.PlatformName),
			Key:         rewardKey(c.ID),
		})
		if err != nil {
			return err
		}
		res.Reward = &reward
		res.VIPBonus, err = s.tiers.Evaluate(tx)
		if err != nil {
			return err
		}
		res.Claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	cp := *res.Claim
	res.Claim = &cp
	metrics.AuditDecisionsTotal.WithLabelValues(string(decision)).Inc()

	if decision == domain.DecisionApprove {
		res.Commissions, res.CommissionErr = s.commissions.Distribute(ctx, owner, claimID, cp.Reward)
		if res.CommissionErr != nil {
			slog.Error("commission fan-out incomplete",
				"claim_id", claimID,
				"account_id", owner,
				"credited", len(res.Commissions),
				"error", res.CommissionErr,
			)
		}
	}

	slog.Info("claim audited",
		"claim_id", claimID,
		"account_id", owner,
		"decision", decision,
	)
	return res, nil
}

// RetryFanOut re-runs the commission fan-out of a completed claim. Levels
// already credited are skipped.
func (s *TaskService) RetryFanOut(ctx context.Context, claimID uuid.UUID) ([]Credit, error) {
	owner, err := s.dir.ClaimOwner(ctx, claimID)
	if err != nil {
		return nil, err
	}
	acc, err := s.dir.GetAccount(ctx, owner)
	if err != nil {
		return nil, err
	}
	c := acc.Claim(claimID)
	if c == nil {
		return nil, domain.ErrClaimNotFound
	}
	if c.Status != domain.ClaimCompleted {
		return nil, domain.ErrInvalidState
	}
	return s.commissions.Distribute(ctx, owner, claimID, c.Reward)
}

// ReviewQueue lists claims waiting for audit, oldest submission first.
func (s *TaskService) ReviewQueue(ctx context.Context) ([]*domain.Claim, error) {
	claims, err := s.dir.ClaimsByStatus(ctx, domain.ClaimReviewing)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(claims, func(a, b *domain.Claim) int {
		return submittedAt(a).Compare(submittedAt(b))
	})
	return claims, nil
}

// Claims returns the account's claims, newest first.
func (s *TaskService) Claims(ctx context.Context, accountID int64) ([]*domain.Claim, error) {
	acc, err := s.dir.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	claims := slices.Clone(acc.Tasks)
	slices.SortFunc(claims, func(a, b *domain.Claim) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return claims, nil
}

func submittedAt(c *domain.Claim) time.Time {
	if c.SubmittedAt == nil {
		return c.StartedAt
	}
	return *c.SubmittedAt
}
