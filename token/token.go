// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/nuonetwork/stakevault/kv"
	"github.com/nuonetwork/stakevault/nuo"
	"github.com/nuonetwork/stakevault/reverts"
)

// Rejections of token operations.
var (
	ErrPaused                = reverts.New("token transfers paused")
	ErrNegativeAmount        = reverts.New("negative amount")
	ErrInsufficientBalance   = reverts.New("insufficient balance")
	ErrInsufficientAllowance = reverts.New("insufficient allowance")
)

var (
	balanceBucket   = kv.Bucket("tb-")
	allowanceBucket = kv.Bucket("ta-")
	supplyKey       = []byte("ts-supply")
	pausedKey       = []byte("tp-paused")
)

// Token is the NUO fungible-token ledger: balances, allowances and a pause
// switch, persisted in the backing store. Every mutation either applies fully
// or not at all.
type Token struct {
	mu    sync.RWMutex
	store kv.Store
}

// New creates a token ledger over the given store.
func New(store kv.Store) *Token {
	return &Token{store: store}
}

// Mint credits amount to addr and grows total supply. Used at genesis only;
// supply is constant afterwards.
func (t *Token) Mint(addr nuo.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	balance, err := t.balanceOf(addr)
	if err != nil {
		return err
	}
	supply, err := t.totalSupply()
	if err != nil {
		return err
	}

	batch := t.store.NewBatch()
	putter := balanceBucket.NewPutter(batch)
	if err := putter.Put(addr.Bytes(), new(big.Int).Add(balance, amount).Bytes()); err != nil {
		return err
	}
	if err := batch.Put(supplyKey, new(big.Int).Add(supply, amount).Bytes()); err != nil {
		return err
	}
	return errors.Wrap(batch.Write(), "failed to write mint")
}

// TotalSupply returns the minted supply.
func (t *Token) TotalSupply() (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSupply()
}

// BalanceOf returns the balance of an account.
func (t *Token) BalanceOf(addr nuo.Address) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balanceOf(addr)
}

// Allowance returns the remaining amount spender may transfer out of owner.
func (t *Token) Allowance(owner, spender nuo.Address) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowance(owner, spender)
}

// Approve sets spender's allowance over owner's balance.
func (t *Token) Approve(owner, spender nuo.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	return allowanceBucket.NewPutter(t.store).Put(allowanceKey(owner, spender), amount.Bytes())
}

// Transfer moves amount from one account to another.
func (t *Token) Transfer(from, to nuo.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transfer(from, to, amount, nil)
}

// TransferFrom moves amount from one account to another on behalf of spender,
// consuming spender's allowance.
func (t *Token) TransferFrom(spender, from, to nuo.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transfer(from, to, amount, &spender)
}

// SetPaused toggles the transfer pause switch.
func (t *Token) SetPaused(paused bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	val := []byte{0}
	if paused {
		val = []byte{1}
	}
	return t.store.Put(pausedKey, val)
}

// Paused returns the pause switch state.
func (t *Token) Paused() (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused()
}

func (t *Token) transfer(from, to nuo.Address, amount *big.Int, spender *nuo.Address) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	paused, err := t.paused()
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}

	fromBalance, err := t.balanceOf(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := t.balanceOf(to)
	if err != nil {
		return err
	}

	batch := t.store.NewBatch()
	putter := balanceBucket.NewPutter(batch)

	if spender != nil && *spender != from {
		allowed, err := t.allowance(from, *spender)
		if err != nil {
			return err
		}
		if allowed.Cmp(amount) < 0 {
			return ErrInsufficientAllowance
		}
		remaining := new(big.Int).Sub(allowed, amount)
		if err := allowanceBucket.NewPutter(batch).Put(allowanceKey(from, *spender), remaining.Bytes()); err != nil {
			return err
		}
	}

	if from == to {
		return errors.Wrap(batch.Write(), "failed to write transfer")
	}
	if err := putter.Put(from.Bytes(), new(big.Int).Sub(fromBalance, amount).Bytes()); err != nil {
		return err
	}
	if err := putter.Put(to.Bytes(), new(big.Int).Add(toBalance, amount).Bytes()); err != nil {
		return err
	}
	return errors.Wrap(batch.Write(), "failed to write transfer")
}

func (t *Token) balanceOf(addr nuo.Address) (*big.Int, error) {
	return t.readAmount(balanceBucket, addr.Bytes())
}

func (t *Token) allowance(owner, spender nuo.Address) (*big.Int, error) {
	return t.readAmount(allowanceBucket, allowanceKey(owner, spender))
}

func (t *Token) totalSupply() (*big.Int, error) {
	data, err := t.store.Get(supplyKey)
	if err != nil {
		if t.store.IsNotFound(err) {
			return new(big.Int), nil
		}
		return nil, errors.Wrap(err, "failed to get supply")
	}
	return new(big.Int).SetBytes(data), nil
}

func (t *Token) paused() (bool, error) {
	data, err := t.store.Get(pausedKey)
	if err != nil {
		if t.store.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to get pause state")
	}
	return len(data) == 1 && data[0] == 1, nil
}

func (t *Token) readAmount(bucket kv.Bucket, key []byte) (*big.Int, error) {
	data, err := bucket.NewGetter(t.store).Get(key)
	if err != nil {
		if t.store.IsNotFound(err) {
			return new(big.Int), nil
		}
		return nil, errors.Wrap(err, "failed to read amount")
	}
	return new(big.Int).SetBytes(data), nil
}

func allowanceKey(owner, spender nuo.Address) []byte {
	key := make([]byte, 0, nuo.AddressLength*2)
	key = append(key, owner.Bytes()...)
	return append(key, spender.Bytes()...)
}
