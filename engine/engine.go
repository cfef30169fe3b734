// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/nuonetwork/stakevault/kv"
	"github.com/nuonetwork/stakevault/log"
	"github.com/nuonetwork/stakevault/metrics"
	"github.com/nuonetwork/stakevault/nuo"
	"github.com/nuonetwork/stakevault/reward"
	"github.com/nuonetwork/stakevault/stake"
	"github.com/nuonetwork/stakevault/vault"
)

var (
	logger = log.WithContext("pkg", "engine")

	metricOpCount = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("staking_ops_total", []string{"op"})
	})
	metricRejectCount = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("staking_rejections_total", []string{"op"})
	})
)

var pausedKey = []byte("ep-paused")

// TokenLedger is the external fungible-token collaborator the engine debits
// and credits. Implementations must apply each transfer fully or not at all.
type TokenLedger interface {
	BalanceOf(addr nuo.Address) (*big.Int, error)
	Allowance(owner, spender nuo.Address) (*big.Int, error)
	TransferFrom(spender, from, to nuo.Address, amount *big.Int) error
	Transfer(from, to nuo.Address, amount *big.Int) error
}

// Options configure the engine accounts.
type Options struct {
	// Custody is the account holding staked principal and reward reserves.
	Custody nuo.Address
	// Admin is the only caller allowed to pause and unpause.
	Admin nuo.Address
}

// Engine orchestrates the stake/claim/restake/unstake state machine.
//
// It is the single writer of the stake ledger: every mutating operation runs
// under one lock and observes a consistent view of stakes and vault totals.
// Time is an input, supplied per call, never read from a clock.
type Engine struct {
	mu sync.Mutex

	registry *vault.Registry
	ledger   *stake.Ledger
	token    TokenLedger
	store    kv.Store
	feed     *Feed

	custody nuo.Address
	admin   nuo.Address
}

// New creates an engine instance.
func New(registry *vault.Registry, ledger *stake.Ledger, token TokenLedger, store kv.Store, opts Options) *Engine {
	return &Engine{
		registry: registry,
		ledger:   ledger,
		token:    token,
		store:    store,
		feed:     NewFeed(),
		custody:  opts.Custody,
		admin:    opts.Admin,
	}
}

//
// Getters - no state change
//

// Custody returns the custody account address.
func (e *Engine) Custody() nuo.Address { return e.custody }

// GetVaults lists all vault configurations in id order.
func (e *Engine) GetVaults() []vault.Vault {
	return e.registry.List()
}

// GetVault returns a single vault configuration.
func (e *Engine) GetVault(vaultID uint32) (*vault.Vault, error) {
	return e.registry.Get(vaultID)
}

// VaultTotal returns the cumulative principal ever staked into the vault.
func (e *Engine) VaultTotal(vaultID uint32) (*big.Int, error) {
	if _, err := e.registry.Get(vaultID); err != nil {
		return nil, err
	}
	return e.ledger.VaultTotal(vaultID)
}

// TotalStakes returns the number of stakes ever created.
func (e *Engine) TotalStakes() (uint64, error) {
	return e.ledger.TotalStakes()
}

// GetStakeInfo returns the stake record.
func (e *Engine) GetStakeInfo(stakeID uint64) (*stake.Stake, error) {
	return e.ledger.Get(stakeID)
}

// StakesOf returns all stakes ever created by the owner, in id order.
func (e *Engine) StakesOf(owner nuo.Address) ([]*stake.Stake, error) {
	return e.ledger.StakesOf(owner)
}

// GetStakingReward returns the reward accrued to date, before subtracting
// what was already claimed.
func (e *Engine) GetStakingReward(stakeID uint64, now uint64) (*big.Int, error) {
	entry, err := e.ledger.Get(stakeID)
	if err != nil {
		return nil, err
	}
	v, err := e.registry.Get(entry.VaultID)
	if err != nil {
		return nil, err
	}
	return reward.Accrued(entry, v, now), nil
}

// GetClaimableTokens returns the reward claimable right now.
func (e *Engine) GetClaimableTokens(stakeID uint64, now uint64) (*big.Int, error) {
	entry, err := e.ledger.Get(stakeID)
	if err != nil {
		return nil, err
	}
	v, err := e.registry.Get(entry.VaultID)
	if err != nil {
		return nil, err
	}
	return reward.Claimable(entry, v, now), nil
}

// Paused returns the pause switch state.
func (e *Engine) Paused() (bool, error) {
	data, err := e.store.Get(pausedKey)
	if err != nil {
		if e.store.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to get pause state")
	}
	return len(data) == 1 && data[0] == 1, nil
}

// SubscribeEvents registers a subscriber on the engine event feed.
func (e *Engine) SubscribeEvents(buffer int) (<-chan Event, func()) {
	return e.feed.Subscribe(buffer)
}

//
// Setters - state change
//

// Stake deposits amount into the vault, debiting the caller's token balance
// into custody. Returns the new stake id.
func (e *Engine) Stake(caller nuo.Address, amount *big.Int, vaultID uint32, now uint64) (uint64, error) {
	logger.Debug("staking", "caller", caller, "amount", amount, "vault", vaultID)

	e.mu.Lock()
	defer e.mu.Unlock()

	id, err := e.stake(caller, amount, vaultID, now)
	if err != nil {
		logger.Info("stake failed", "caller", caller, "vault", vaultID, "error", err)
		metricRejectCount().AddWithLabel(1, map[string]string{"op": "stake"})
		return 0, err
	}

	logger.Info("staked", "id", id, "caller", caller, "amount", amount, "vault", vaultID)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "stake"})
	e.feed.Publish(Event{
		Type:    EventStaked,
		StakeID: id,
		VaultID: vaultID,
		Owner:   caller,
		Amount:  new(big.Int).Set(amount),
		Time:    now,
	})
	return id, nil
}

func (e *Engine) stake(caller nuo.Address, amount *big.Int, vaultID uint32, now uint64) (uint64, error) {
	if err := e.checkNotPaused(); err != nil {
		return 0, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrZeroAmount
	}
	v, err := e.registry.Get(vaultID)
	if err != nil {
		return 0, err
	}

	balance, err := e.token.BalanceOf(caller)
	if err != nil {
		return 0, err
	}
	if balance.Cmp(amount) < 0 {
		return 0, ErrInsufficientBalance
	}
	allowance, err := e.token.Allowance(caller, e.custody)
	if err != nil {
		return 0, err
	}
	if allowance.Cmp(amount) < 0 {
		return 0, ErrInsufficientAllowance
	}
	if err := e.checkCapacity(v, amount); err != nil {
		return 0, err
	}

	// ledger mutation happens only after the transfer succeeded
	if err := e.token.TransferFrom(e.custody, caller, e.custody, amount); err != nil {
		return 0, err
	}
	entry, err := e.ledger.Create(caller, vaultID, amount, now)
	if err != nil {
		return 0, err
	}
	return entry.ID, nil
}

// ClaimReward transfers the stake's claimable reward from custody to the
// caller. A second call after full settlement yields ErrNoClaimsAvailable.
func (e *Engine) ClaimReward(caller nuo.Address, stakeID uint64, now uint64) (*big.Int, error) {
	logger.Debug("claiming reward", "caller", caller, "id", stakeID)

	e.mu.Lock()
	defer e.mu.Unlock()

	entry, claimed, err := e.claimReward(caller, stakeID, now)
	if err != nil {
		logger.Info("claim failed", "caller", caller, "id", stakeID, "error", err)
		metricRejectCount().AddWithLabel(1, map[string]string{"op": "claim"})
		return nil, err
	}

	logger.Info("claimed reward", "id", stakeID, "caller", caller, "amount", claimed)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "claim"})
	e.feed.Publish(Event{
		Type:    EventClaimed,
		StakeID: stakeID,
		VaultID: entry.VaultID,
		Owner:   caller,
		Amount:  claimed,
		Time:    now,
	})
	return claimed, nil
}

func (e *Engine) claimReward(caller nuo.Address, stakeID uint64, now uint64) (*stake.Stake, *big.Int, error) {
	entry, v, err := e.getOwnedStake(caller, stakeID)
	if err != nil {
		return nil, nil, err
	}
	if !reward.IsMatured(entry, v, now) {
		return nil, nil, ErrNotMatured
	}
	claimable := reward.Claimable(entry, v, now)
	if claimable.Sign() <= 0 {
		return nil, nil, ErrNoClaimsAvailable
	}

	if err := e.token.Transfer(e.custody, caller, claimable); err != nil {
		return nil, nil, err
	}
	if err := e.ledger.AddClaimed(stakeID, claimable); err != nil {
		return nil, nil, err
	}
	return entry, claimable, nil
}

// RestakeRewards compounds the stake's claimable reward into a brand-new
// stake in the target vault. The reward never leaves custody: the source
// stake is marked fully claimed and the new stake opens atomically.
func (e *Engine) RestakeRewards(caller nuo.Address, stakeID uint64, targetVaultID uint32, now uint64) (uint64, error) {
	logger.Debug("restaking rewards", "caller", caller, "id", stakeID, "targetVault", targetVaultID)

	e.mu.Lock()
	defer e.mu.Unlock()

	newEntry, err := e.restakeRewards(caller, stakeID, targetVaultID, now)
	if err != nil {
		logger.Info("restake failed", "caller", caller, "id", stakeID, "error", err)
		metricRejectCount().AddWithLabel(1, map[string]string{"op": "restake"})
		return 0, err
	}

	logger.Info("restaked rewards", "id", stakeID, "newId", newEntry.ID, "amount", newEntry.Principal)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "restake"})
	e.feed.Publish(Event{
		Type:    EventRestaked,
		StakeID: newEntry.ID,
		VaultID: targetVaultID,
		Owner:   caller,
		Amount:  new(big.Int).Set(newEntry.Principal),
		Time:    now,
	})
	return newEntry.ID, nil
}

func (e *Engine) restakeRewards(caller nuo.Address, stakeID uint64, targetVaultID uint32, now uint64) (*stake.Stake, error) {
	entry, v, err := e.getOwnedStake(caller, stakeID)
	if err != nil {
		return nil, err
	}
	if !reward.IsMatured(entry, v, now) {
		return nil, ErrNotMatured
	}
	claimable := reward.Claimable(entry, v, now)
	if claimable.Sign() <= 0 {
		return nil, ErrInsufficientReward
	}

	target, err := e.registry.Get(targetVaultID)
	if err != nil {
		return nil, err
	}
	if err := e.checkCapacity(target, claimable); err != nil {
		return nil, err
	}
	return e.ledger.Compound(entry, claimable, targetVaultID, now)
}

// Unstake returns the stake's principal from custody to the caller.
// Reward settlement is independent: unstaking does not auto-claim.
func (e *Engine) Unstake(caller nuo.Address, stakeID uint64, now uint64) (*big.Int, error) {
	logger.Debug("unstaking", "caller", caller, "id", stakeID)

	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.unstake(caller, stakeID, now)
	if err != nil {
		logger.Info("unstake failed", "caller", caller, "id", stakeID, "error", err)
		metricRejectCount().AddWithLabel(1, map[string]string{"op": "unstake"})
		return nil, err
	}

	logger.Info("unstaked", "id", stakeID, "caller", caller, "amount", entry.Principal)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "unstake"})
	e.feed.Publish(Event{
		Type:    EventUnstaked,
		StakeID: stakeID,
		VaultID: entry.VaultID,
		Owner:   caller,
		Amount:  new(big.Int).Set(entry.Principal),
		Time:    now,
	})
	return new(big.Int).Set(entry.Principal), nil
}

func (e *Engine) unstake(caller nuo.Address, stakeID uint64, now uint64) (*stake.Stake, error) {
	entry, v, err := e.getOwnedStake(caller, stakeID)
	if err != nil {
		return nil, err
	}
	if !reward.IsMatured(entry, v, now) {
		return nil, ErrCannotUnstakeBeforeCliff
	}
	if entry.Unstaked {
		return nil, ErrAlreadyUnstaked
	}

	if err := e.token.Transfer(e.custody, caller, entry.Principal); err != nil {
		return nil, err
	}
	if err := e.ledger.MarkUnstaked(stakeID); err != nil {
		return nil, err
	}
	return entry, nil
}

// Pause disables all mutating operations. Admin only.
func (e *Engine) Pause(caller nuo.Address, now uint64) error {
	return e.setPaused(caller, true, now)
}

// Unpause re-enables mutating operations. Admin only.
func (e *Engine) Unpause(caller nuo.Address, now uint64) error {
	return e.setPaused(caller, false, now)
}

func (e *Engine) setPaused(caller nuo.Address, paused bool, now uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return ErrNotAdmin
	}
	val := []byte{0}
	evType := EventUnpaused
	if paused {
		val = []byte{1}
		evType = EventPaused
	}
	if err := e.store.Put(pausedKey, val); err != nil {
		return errors.Wrap(err, "failed to set pause state")
	}

	logger.Info("pause state changed", "paused", paused)
	e.feed.Publish(Event{Type: evType, Owner: caller, Time: now})
	return nil
}

// getOwnedStake loads the stake and its vault, enforcing caller ownership
// and the pause switch.
func (e *Engine) getOwnedStake(caller nuo.Address, stakeID uint64) (*stake.Stake, *vault.Vault, error) {
	if err := e.checkNotPaused(); err != nil {
		return nil, nil, err
	}
	entry, err := e.ledger.Get(stakeID)
	if err != nil {
		return nil, nil, err
	}
	if entry.Owner != caller {
		return nil, nil, ErrNotStaker
	}
	v, err := e.registry.Get(entry.VaultID)
	if err != nil {
		return nil, nil, err
	}
	return entry, v, nil
}

func (e *Engine) checkNotPaused() error {
	paused, err := e.Paused()
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	return nil
}

func (e *Engine) checkCapacity(v *vault.Vault, amount *big.Int) error {
	total, err := e.ledger.VaultTotal(v.ID)
	if err != nil {
		return err
	}
	if new(big.Int).Add(total, amount).Cmp(v.Capacity) > 0 {
		return ErrCapacityExceeded
	}
	return nil
}
