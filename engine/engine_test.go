// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuonetwork/stakevault/lvldb"
	"github.com/nuonetwork/stakevault/nuo"
	"github.com/nuonetwork/stakevault/stake"
	"github.com/nuonetwork/stakevault/token"
	"github.com/nuonetwork/stakevault/vault"
)

const (
	day     = nuo.SecondsPerDay
	t0      = uint64(1_700_000_000)
	reserve = int64(10_000_000)
)

var (
	custody = nuo.BytesToAddress([]byte("custody"))
	admin   = nuo.BytesToAddress([]byte("admin"))
	alice   = nuo.BytesToAddress([]byte("alice"))
	bob     = nuo.BytesToAddress([]byte("bob"))
)

type testEnv struct {
	engine *Engine
	token  *token.Token
}

// vault 2 has a deliberately tiny capacity for saturation tests
func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry, err := vault.NewRegistry([]vault.Vault{
		{ID: 0, AnnualRate: 60, Capacity: nuo.WholeTokens(1_000_000_000_000), CliffDuration: 360 * day},
		{ID: 1, AnnualRate: 30, Capacity: nuo.WholeTokens(500_000_000_000), CliffDuration: 180 * day},
		{ID: 2, AnnualRate: 15, Capacity: big.NewInt(1500), CliffDuration: 90 * day},
	})
	require.NoError(t, err)

	tok := token.New(db)
	require.NoError(t, tok.Mint(alice, big.NewInt(1_000_000)))
	require.NoError(t, tok.Mint(bob, big.NewInt(1_000_000)))
	// custody carries the reward reserve
	require.NoError(t, tok.Mint(custody, big.NewInt(reserve)))
	require.NoError(t, tok.Approve(alice, custody, big.NewInt(1_000_000)))
	require.NoError(t, tok.Approve(bob, custody, big.NewInt(1_000_000)))

	eng := New(registry, stake.NewLedger(db), tok, db, Options{
		Custody: custody,
		Admin:   admin,
	})
	return &testEnv{engine: eng, token: tok}
}

func (env *testEnv) balance(t *testing.T, addr nuo.Address) *big.Int {
	balance, err := env.token.BalanceOf(addr)
	require.NoError(t, err)
	return balance
}

func TestStake(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.engine.Stake(alice, big.NewInt(1000), 0, t0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id) // ids start at 1

	assert.Equal(t, big.NewInt(999_000), env.balance(t, alice))
	assert.Equal(t, big.NewInt(reserve+1000), env.balance(t, custody))

	entry, err := env.engine.GetStakeInfo(id)
	require.NoError(t, err)
	assert.Equal(t, alice, entry.Owner)
	assert.Equal(t, uint32(0), entry.VaultID)
	assert.Equal(t, big.NewInt(1000), entry.Principal)
	assert.Equal(t, t0, entry.CreatedAt)
	assert.False(t, entry.Unstaked)

	total, err := env.engine.VaultTotal(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), total)

	count, err := env.engine.TotalStakes()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	id2, err := env.engine.Stake(bob, big.NewInt(500), 1, t0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id2)
}

func TestStakePreconditions(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Stake(alice, big.NewInt(0), 0, t0)
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = env.engine.Stake(alice, big.NewInt(-5), 0, t0)
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = env.engine.Stake(alice, big.NewInt(1), 9, t0)
	assert.ErrorIs(t, err, vault.ErrNotFound)

	_, err = env.engine.Stake(alice, big.NewInt(2_000_000), 0, t0)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.EqualError(t, err, "insufficient token balance")

	// allowance below amount but balance sufficient
	require.NoError(t, env.token.Approve(alice, custody, big.NewInt(10)))
	_, err = env.engine.Stake(alice, big.NewInt(100), 0, t0)
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
	assert.EqualError(t, err, "insufficient token allowance")

	// nothing was recorded
	count, err := env.engine.TotalStakes()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
	assert.Equal(t, big.NewInt(1_000_000), env.balance(t, alice))
}

func TestStakeCapacity(t *testing.T) {
	env := newTestEnv(t)

	// vault 2 capacity is 1500
	_, err := env.engine.Stake(alice, big.NewInt(1000), 2, t0)
	require.NoError(t, err)

	_, err = env.engine.Stake(bob, big.NewInt(600), 2, t0)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.EqualError(t, err, "vault capacity exceeded")

	// staking exactly the remaining headroom saturates the vault
	_, err = env.engine.Stake(bob, big.NewInt(500), 2, t0)
	require.NoError(t, err)

	total, err := env.engine.VaultTotal(2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), total)

	_, err = env.engine.Stake(alice, big.NewInt(1), 2, t0)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

// Full lifecycle against vault 0: 60% over a 360 day cliff.
func TestClaimLifecycle(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.engine.Stake(alice, big.NewInt(1000), 0, t0)
	require.NoError(t, err)

	// pre-cliff claims are gated
	_, err = env.engine.ClaimReward(alice, id, t0+179*day)
	assert.ErrorIs(t, err, ErrNotMatured)
	assert.EqualError(t, err, "stake is not matured yet")

	// at the cliff the full 60% is claimable
	claimable, err := env.engine.GetClaimableTokens(id, t0+360*day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), claimable)

	claimed, err := env.engine.ClaimReward(alice, id, t0+360*day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), claimed)
	assert.Equal(t, big.NewInt(999_600), env.balance(t, alice))

	entry, err := env.engine.GetStakeInfo(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), entry.ClaimedReward)

	// settlement is exactly-once, even much later
	_, err = env.engine.ClaimReward(alice, id, t0+360*day)
	assert.ErrorIs(t, err, ErrNoClaimsAvailable)
	assert.EqualError(t, err, "no claims available")
	_, err = env.engine.ClaimReward(alice, id, t0+720*day)
	assert.ErrorIs(t, err, ErrNoClaimsAvailable)

	// accrued-to-date stays capped at max
	accrued, err := env.engine.GetStakingReward(id, t0+720*day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), accrued)
}

func TestUnstake(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.engine.Stake(alice, big.NewInt(1000), 0, t0)
	require.NoError(t, err)

	_, err = env.engine.Unstake(alice, id, t0+359*day)
	assert.ErrorIs(t, err, ErrCannotUnstakeBeforeCliff)
	assert.EqualError(t, err, "cannot unstake before the cliff period")

	principal, err := env.engine.Unstake(alice, id, t0+360*day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), principal)

	entry, err := env.engine.GetStakeInfo(id)
	require.NoError(t, err)
	assert.True(t, entry.Unstaked)

	// unstake succeeds at most once
	_, err = env.engine.Unstake(alice, id, t0+361*day)
	assert.ErrorIs(t, err, ErrAlreadyUnstaked)
	assert.EqualError(t, err, "no staked tokens in the vault")

	// record retained after unstaking
	entry, err = env.engine.GetStakeInfo(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), entry.Principal)
}

func TestUnstakeDoesNotSettleReward(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.engine.Stake(alice, big.NewInt(1000), 0, t0)
	require.NoError(t, err)

	mature := t0 + 360*day
	_, err = env.engine.Unstake(alice, id, mature)
	require.NoError(t, err)

	// reward stays claimable after principal withdrawal
	claimed, err := env.engine.ClaimReward(alice, id, mature)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), claimed)

	// 1000 principal back plus 600 reward
	assert.Equal(t, big.NewInt(1_000_600), env.balance(t, alice))
}

func TestOwnership(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.engine.Stake(alice, big.NewInt(1000), 0, t0)
	require.NoError(t, err)

	mature := t0 + 360*day
	for _, now := range []uint64{t0 + 1, mature} {
		_, err = env.engine.ClaimReward(bob, id, now)
		assert.ErrorIs(t, err, ErrNotStaker)
		assert.EqualError(t, err, "caller is not the staker")

		_, err = env.engine.Unstake(bob, id, now)
		assert.ErrorIs(t, err, ErrNotStaker)

		_, err = env.engine.RestakeRewards(bob, id, 0, now)
		assert.ErrorIs(t, err, ErrNotStaker)
	}
}

func TestStakeNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.ClaimReward(alice, 42, t0)
	assert.ErrorIs(t, err, stake.ErrNotFound)

	_, err = env.engine.GetStakeInfo(42)
	assert.ErrorIs(t, err, stake.ErrNotFound)

	_, err = env.engine.GetClaimableTokens(42, t0)
	assert.ErrorIs(t, err, stake.ErrNotFound)

	_, err = env.engine.VaultTotal(9)
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestRestakeRewards(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.engine.Stake(alice, big.NewInt(1000), 0, t0)
	require.NoError(t, err)

	// not before maturity
	_, err = env.engine.RestakeRewards(alice, id, 1, t0+100*day)
	assert.ErrorIs(t, err, ErrNotMatured)

	mature := t0 + 360*day
	newID, err := env.engine.RestakeRewards(alice, id, 1, mature)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), newID)

	// the new stake carries the reward as principal in the target vault
	entry, err := env.engine.GetStakeInfo(newID)
	require.NoError(t, err)
	assert.Equal(t, alice, entry.Owner)
	assert.Equal(t, uint32(1), entry.VaultID)
	assert.Equal(t, big.NewInt(600), entry.Principal)
	assert.Equal(t, mature, entry.CreatedAt)

	// source is settled in full
	claimable, err := env.engine.GetClaimableTokens(id, mature)
	require.NoError(t, err)
	assert.Zero(t, claimable.Sign())
	_, err = env.engine.ClaimReward(alice, id, mature)
	assert.ErrorIs(t, err, ErrNoClaimsAvailable)
	_, err = env.engine.RestakeRewards(alice, id, 1, mature)
	assert.ErrorIs(t, err, ErrInsufficientReward)
	assert.EqualError(t, err, "insufficient reward to restake")

	// target vault total grew by exactly the reward
	total, err := env.engine.VaultTotal(1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), total)

	// compounding never touches external balances
	assert.Equal(t, big.NewInt(999_000), env.balance(t, alice))
	assert.Equal(t, big.NewInt(reserve+1000), env.balance(t, custody))

	// the compounded stake matures on its own cliff: 30% of 600
	claimed, err := env.engine.ClaimReward(alice, newID, mature+180*day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(180), claimed)
}

func TestRestakeCapacity(t *testing.T) {
	env := newTestEnv(t)

	// vault 2 capacity is 1500; fill it almost up
	_, err := env.engine.Stake(alice, big.NewInt(1400), 2, t0)
	require.NoError(t, err)

	id, err := env.engine.Stake(alice, big.NewInt(1000), 0, t0)
	require.NoError(t, err)

	// 600 reward does not fit into vault 2 headroom of 100
	_, err = env.engine.RestakeRewards(alice, id, 2, t0+360*day)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// rejection left the source untouched
	claimable, err := env.engine.GetClaimableTokens(id, t0+360*day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), claimable)
}

func TestPause(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.engine.Stake(alice, big.NewInt(1000), 0, t0)
	require.NoError(t, err)

	assert.ErrorIs(t, env.engine.Pause(alice, t0), ErrNotAdmin)
	require.NoError(t, env.engine.Pause(admin, t0))

	paused, err := env.engine.Paused()
	require.NoError(t, err)
	assert.True(t, paused)

	mature := t0 + 360*day
	_, err = env.engine.Stake(alice, big.NewInt(1), 0, t0)
	assert.ErrorIs(t, err, ErrPaused)
	_, err = env.engine.ClaimReward(alice, id, mature)
	assert.ErrorIs(t, err, ErrPaused)
	assert.EqualError(t, err, "staking is paused")
	_, err = env.engine.RestakeRewards(alice, id, 0, mature)
	assert.ErrorIs(t, err, ErrPaused)
	_, err = env.engine.Unstake(alice, id, mature)
	assert.ErrorIs(t, err, ErrPaused)

	// queries remain available while paused
	total, err := env.engine.VaultTotal(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), total)
	claimable, err := env.engine.GetClaimableTokens(id, mature)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), claimable)

	// after unpause, previously valid operations succeed unchanged
	require.NoError(t, env.engine.Unpause(admin, t0))
	claimed, err := env.engine.ClaimReward(alice, id, mature)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), claimed)
	principal, err := env.engine.Unstake(alice, id, mature)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), principal)
}

func TestStakesOf(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Stake(alice, big.NewInt(100), 0, t0)
	require.NoError(t, err)
	_, err = env.engine.Stake(bob, big.NewInt(200), 0, t0)
	require.NoError(t, err)
	_, err = env.engine.Stake(alice, big.NewInt(300), 1, t0)
	require.NoError(t, err)

	stakes, err := env.engine.StakesOf(alice)
	require.NoError(t, err)
	require.Len(t, stakes, 2)
	assert.Equal(t, big.NewInt(100), stakes[0].Principal)
	assert.Equal(t, big.NewInt(300), stakes[1].Principal)
}

func TestEvents(t *testing.T) {
	env := newTestEnv(t)

	events, unsubscribe := env.engine.SubscribeEvents(16)
	defer unsubscribe()

	id, err := env.engine.Stake(alice, big.NewInt(1000), 0, t0)
	require.NoError(t, err)

	mature := t0 + 360*day
	_, err = env.engine.ClaimReward(alice, id, mature)
	require.NoError(t, err)
	_, err = env.engine.Unstake(alice, id, mature)
	require.NoError(t, err)
	require.NoError(t, env.engine.Pause(admin, mature))

	ev := <-events
	assert.Equal(t, EventStaked, ev.Type)
	assert.Equal(t, id, ev.StakeID)
	assert.Equal(t, big.NewInt(1000), ev.Amount)

	ev = <-events
	assert.Equal(t, EventClaimed, ev.Type)
	assert.Equal(t, big.NewInt(600), ev.Amount)

	ev = <-events
	assert.Equal(t, EventUnstaked, ev.Type)

	ev = <-events
	assert.Equal(t, EventPaused, ev.Type)
	assert.Equal(t, admin, ev.Owner)
}

// claimed reward can never exceed the stake's max reward
func TestClaimedBoundedByMax(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.engine.Stake(alice, big.NewInt(1000), 0, t0)
	require.NoError(t, err)

	for _, now := range []uint64{t0 + 360*day, t0 + 400*day, t0 + 1000*day} {
		_, _ = env.engine.ClaimReward(alice, id, now)

		entry, err := env.engine.GetStakeInfo(id)
		require.NoError(t, err)
		assert.True(t, entry.ClaimedReward.Cmp(big.NewInt(600)) <= 0)
	}

	entry, err := env.engine.GetStakeInfo(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), entry.ClaimedReward)
}
