// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/nuonetwork/stakevault/kv"
	"github.com/nuonetwork/stakevault/nuo"
	"github.com/nuonetwork/stakevault/reverts"
)

// ErrNotFound no stake with the requested id.
var ErrNotFound = reverts.New("stake not found")

var (
	stakeBucket = kv.Bucket("st-")
	ownerBucket = kv.Bucket("so-")
	totalBucket = kv.Bucket("sv-")
	counterKey  = []byte("sc-counter")
)

// Ledger is the durable record of every stake, keyed by a monotonically
// increasing id starting at 1 (0 is reserved as "no stake"). It also tracks
// per-vault cumulative staked totals and a per-owner index.
//
// The ledger performs no validation beyond record existence; capacity and
// lifecycle gates are owned by the engine, which serializes all mutations.
type Ledger struct {
	store kv.Store
}

// NewLedger creates a ledger over the given store.
func NewLedger(store kv.Store) *Ledger {
	return &Ledger{store: store}
}

// Create allocates the next id and stores a new stake, incrementing the
// vault's cumulative total by principal. All writes apply atomically.
func (l *Ledger) Create(owner nuo.Address, vaultID uint32, principal *big.Int, now uint64) (*Stake, error) {
	batch := l.store.NewBatch()
	entry, err := l.create(batch, owner, vaultID, principal, now)
	if err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "failed to write stake")
	}
	return entry, nil
}

// Compound records reward as fully claimed on the source stake and creates a
// brand-new stake of that reward in the target vault, as one atomic write.
func (l *Ledger) Compound(src *Stake, reward *big.Int, vaultID uint32, now uint64) (*Stake, error) {
	updated := *src
	updated.ClaimedReward = new(big.Int).Add(src.ClaimedReward, reward)

	batch := l.store.NewBatch()
	if err := saveStake(batch, &updated); err != nil {
		return nil, err
	}
	entry, err := l.create(batch, src.Owner, vaultID, reward, now)
	if err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "failed to write compound")
	}
	*src = updated
	return entry, nil
}

// Get returns the stake with the given id, ErrNotFound if absent.
func (l *Ledger) Get(id uint64) (*Stake, error) {
	data, err := stakeBucket.NewGetter(l.store).Get(idKey(id))
	if err != nil {
		if l.store.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get stake")
	}
	var entry Stake
	if err := rlp.DecodeBytes(data, &entry); err != nil {
		return nil, errors.Wrap(err, "failed to decode stake")
	}
	return &entry, nil
}

// MarkUnstaked flips the unstaked flag. The flag is monotonic; gating on its
// previous value is the engine's concern.
func (l *Ledger) MarkUnstaked(id uint64) error {
	entry, err := l.Get(id)
	if err != nil {
		return err
	}
	entry.Unstaked = true
	return saveStake(l.store, entry)
}

// AddClaimed increases the stake's claimed reward by amount.
func (l *Ledger) AddClaimed(id uint64, amount *big.Int) error {
	entry, err := l.Get(id)
	if err != nil {
		return err
	}
	entry.ClaimedReward = new(big.Int).Add(entry.ClaimedReward, amount)
	return saveStake(l.store, entry)
}

// VaultTotal returns the cumulative principal ever staked into the vault.
// Totals are a high-water mark: unstaking does not decrease them.
func (l *Ledger) VaultTotal(vaultID uint32) (*big.Int, error) {
	data, err := totalBucket.NewGetter(l.store).Get(vaultKey(vaultID))
	if err != nil {
		if l.store.IsNotFound(err) {
			return new(big.Int), nil
		}
		return nil, errors.Wrap(err, "failed to get vault total")
	}
	return new(big.Int).SetBytes(data), nil
}

// TotalStakes returns the number of stakes ever created.
func (l *Ledger) TotalStakes() (uint64, error) {
	data, err := l.store.Get(counterKey)
	if err != nil {
		if l.store.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to get stake counter")
	}
	return binary.BigEndian.Uint64(data), nil
}

// StakesOf returns all stakes ever created by the owner, in id order.
func (l *Ledger) StakesOf(owner nuo.Address) ([]*Stake, error) {
	var stakes []*Stake
	prefix := []byte(ownerBucket)
	prefix = append(prefix, owner.Bytes()...)
	err := l.store.Iterate(prefix, func(key, _ []byte) error {
		id := binary.BigEndian.Uint64(key[len(key)-8:])
		entry, err := l.Get(id)
		if err != nil {
			return err
		}
		stakes = append(stakes, entry)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stakes")
	}
	return stakes, nil
}

func (l *Ledger) create(batch kv.Batch, owner nuo.Address, vaultID uint32, principal *big.Int, now uint64) (*Stake, error) {
	count, err := l.TotalStakes()
	if err != nil {
		return nil, err
	}
	id := count + 1

	entry := &Stake{
		ID:            id,
		Owner:         owner,
		VaultID:       vaultID,
		Principal:     new(big.Int).Set(principal),
		CreatedAt:     now,
		ClaimedReward: new(big.Int),
	}
	if err := saveStake(batch, entry); err != nil {
		return nil, err
	}

	ownerKey := append(owner.Bytes(), idKey(id)...)
	if err := ownerBucket.NewPutter(batch).Put(ownerKey, []byte{}); err != nil {
		return nil, err
	}

	total, err := l.VaultTotal(vaultID)
	if err != nil {
		return nil, err
	}
	total.Add(total, principal)
	if err := totalBucket.NewPutter(batch).Put(vaultKey(vaultID), total.Bytes()); err != nil {
		return nil, err
	}

	counterVal := make([]byte, 8)
	binary.BigEndian.PutUint64(counterVal, id)
	if err := batch.Put(counterKey, counterVal); err != nil {
		return nil, err
	}
	return entry, nil
}

func saveStake(putter kv.Putter, entry *Stake) error {
	data, err := rlp.EncodeToBytes(entry)
	if err != nil {
		return errors.Wrap(err, "failed to encode stake")
	}
	return stakeBucket.NewPutter(putter).Put(idKey(entry.ID), data)
}

func idKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func vaultKey(id uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, id)
	return key
}
