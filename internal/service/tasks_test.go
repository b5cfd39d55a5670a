package service_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/set-night/bountyhub/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestJoinTwiceReturnsAlreadyJoined(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	p := h.platform(t, 100, 5)

	claim, err := h.tasks.Join(h.ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ClaimOngoing, claim.Status)
	requireAmount(t, d(100), claim.Reward)

	_, err = h.tasks.Join(h.ctx, u.ID, p.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyJoined)

	got, err := h.platforms.Get(h.ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 4, got.RemainingQty)
	require.Len(t, h.account(t, u.ID).Tasks, 1)
}

func TestJoinSoldOutAndOffline(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	v := h.register(t, "+10000000002", nil)
	p := h.platform(t, 100, 1)

	_, err := h.tasks.Join(h.ctx, u.ID, p.ID)
	require.NoError(t, err)
	_, err = h.tasks.Join(h.ctx, v.ID, p.ID)
	require.ErrorIs(t, err, domain.ErrSoldOut)
	require.Empty(t, h.account(t, v.ID).Tasks)

	q := h.platform(t, 100, 5)
	require.NoError(t, h.platforms.SetStatus(h.ctx, q.ID, domain.PlatformOffline))
	_, err = h.tasks.Join(h.ctx, v.ID, q.ID)
	require.ErrorIs(t, err, domain.ErrPlatformOffline)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = h.tasks.Join(h.ctx, v.ID, 404)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentJoinsNeverOversell(t *testing.T) {
	h := newHarness(t)
	p := h.platform(t, 100, 3)

	const joiners = 10
	accs := make([]*domain.Account, joiners)
	for i := range accs {
		accs[i] = h.register(t, fmt.Sprintf("+4000000%04d", i), nil)
	}

	var joined, soldOut atomic.Int32
	var wg sync.WaitGroup
	for _, acc := range accs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.tasks.Join(h.ctx, acc.ID, p.ID)
			switch {
			case err == nil:
				joined.Add(1)
			case errors.Is(err, domain.ErrSoldOut):
				soldOut.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 3, joined.Load())
	require.EqualValues(t, joiners-3, soldOut.Load())
	got, err := h.platforms.Get(h.ctx, p.ID)
	require.NoError(t, err)
	require.Zero(t, got.RemainingQty)
}

func TestClaimRewardIsFrozenAtJoin(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	p := h.platform(t, 100, 5)
	claim := h.submitted(t, u, p)
	requireAmount(t, d(100), claim.Reward)

	// Taking the platform offline does not affect the in-flight claim.
	require.NoError(t, h.platforms.SetStatus(h.ctx, p.ID, domain.PlatformOffline))

	res, err := h.tasks.Audit(h.ctx, claim.ID, domain.DecisionApprove, "")
	require.NoError(t, err)
	requireAmount(t, d(100), res.Reward.Amount)
}

func TestJoinReturnsDetachedClaim(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	p := h.platform(t, 100, 5)

	claim, err := h.tasks.Join(h.ctx, u.ID, p.ID)
	require.NoError(t, err)
	claim.Reward = d(999999)
	claim.Status = domain.ClaimCompleted

	stored := h.account(t, u.ID).Claim(claim.ID)
	require.NotNil(t, stored)
	requireAmount(t, d(100), stored.Reward)
	require.Equal(t, domain.ClaimOngoing, stored.Status)

	claim, err = h.tasks.SubmitProof(h.ctx, u.ID, claim.ID, "proof.png")
	require.NoError(t, err)
	res, err := h.tasks.Audit(h.ctx, claim.ID, domain.DecisionApprove, "")
	require.NoError(t, err)
	requireAmount(t, d(100), res.Reward.Amount)
}

func TestSubmitProofTransitions(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	other := h.register(t, "+10000000002", nil)
	claim, err := h.tasks.Join(h.ctx, u.ID, h.platform(t, 100, 5).ID)
	require.NoError(t, err)

	_, err = h.tasks.SubmitProof(h.ctx, u.ID, claim.ID, "")
	require.ErrorIs(t, err, domain.ErrInvalidProof)

	_, err = h.tasks.SubmitProof(h.ctx, other.ID, claim.ID, "proof.png")
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := h.tasks.SubmitProof(h.ctx, u.ID, claim.ID, "proof.png")
	require.NoError(t, err)
	require.Equal(t, domain.ClaimReviewing, got.Status)
	require.Equal(t, "proof.png", got.ProofRef)
	require.NotNil(t, got.SubmittedAt)

	_, err = h.tasks.SubmitProof(h.ctx, u.ID, claim.ID, "again.png")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = h.tasks.SubmitProof(h.ctx, u.ID, uuid.New(), "proof.png")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuditApproveTwicePaysOnce(t *testing.T) {
	h := newHarness(t)
	accs := h.chain(t, 2)
	a, u := accs[0], accs[1]
	claim := h.submitted(t, u, h.platform(t, 100, 5))

	_, err := h.tasks.Audit(h.ctx, claim.ID, domain.DecisionApprove, "")
	require.NoError(t, err)
	_, err = h.tasks.Audit(h.ctx, claim.ID, domain.DecisionApprove, "")
	require.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = h.tasks.Audit(h.ctx, claim.ID, domain.DecisionReject, "late")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	owner := h.account(t, u.ID)
	require.Len(t, entriesOf(owner, domain.TxTypeTaskReward), 1)
	require.Equal(t, domain.ClaimCompleted, owner.Tasks[0].Status)
	require.Len(t, entriesOf(h.account(t, a.ID), domain.TxTypeReferralBonus), 1)
}

func TestConcurrentApprovalsPayOnce(t *testing.T) {
	h := newHarness(t)
	accs := h.chain(t, 2)
	a, u := accs[0], accs[1]
	claim := h.submitted(t, u, h.platform(t, 100, 5))

	var ok atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.tasks.Audit(h.ctx, claim.ID, domain.DecisionApprove, ""); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, ok.Load())
	require.Len(t, entriesOf(h.account(t, u.ID), domain.TxTypeTaskReward), 1)
	require.Len(t, entriesOf(h.account(t, a.ID), domain.TxTypeReferralBonus), 1)
}

func TestAuditRejectHasNoLedgerEffect(t *testing.T) {
	h := newHarness(t)
	accs := h.chain(t, 2)
	a, u := accs[0], accs[1]
	claim := h.submitted(t, u, h.platform(t, 100, 5))

	res, err := h.tasks.Audit(h.ctx, claim.ID, domain.DecisionReject, "blurry screenshot")
	require.NoError(t, err)
	require.Equal(t, domain.ClaimRejected, res.Claim.Status)
	require.Equal(t, "blurry screenshot", res.Claim.RejectReason)
	require.Nil(t, res.Reward)
	require.Empty(t, res.Commissions)

	owner := h.account(t, u.ID)
	require.Len(t, owner.Ledger, 1)
	requireAmount(t, d(50), owner.Balance)
	require.Empty(t, entriesOf(h.account(t, a.ID), domain.TxTypeReferralBonus))
}

func TestAuditErrors(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	claim, err := h.tasks.Join(h.ctx, u.ID, h.platform(t, 100, 5).ID)
	require.NoError(t, err)

	_, err = h.tasks.Audit(h.ctx, claim.ID, domain.DecisionApprove, "")
	require.ErrorIs(t, err, domain.ErrInvalidState, "ongoing claims cannot be audited")

	_, err = h.tasks.Audit(h.ctx, claim.ID, domain.Decision("maybe"), "")
	require.ErrorIs(t, err, domain.ErrInvalidDecision)

	_, err = h.tasks.Audit(h.ctx, uuid.New(), domain.DecisionApprove, "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewQueueListsSubmittedClaims(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	v := h.register(t, "+10000000002", nil)
	p := h.platform(t, 100, 5)

	first := h.submitted(t, u, p)
	second := h.submitted(t, v, p)
	_, err := h.tasks.Join(h.ctx, u.ID, h.platform(t, 50, 5).ID)
	require.NoError(t, err)

	queue, err := h.tasks.ReviewQueue(h.ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	require.Equal(t, first.ID, queue[0].ID)
	require.Equal(t, second.ID, queue[1].ID)

	_, err = h.tasks.Audit(h.ctx, first.ID, domain.DecisionApprove, "")
	require.NoError(t, err)
	queue, err = h.tasks.ReviewQueue(h.ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
}

func TestBannedAccountCannotJoin(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "+10000000001", nil)
	_, err := h.accounts.SetBanned(h.ctx, u.ID, true)
	require.NoError(t, err)

	_, err = h.tasks.Join(h.ctx, u.ID, h.platform(t, 100, 5).ID)
	require.ErrorIs(t, err, domain.ErrAccountBanned)
}
