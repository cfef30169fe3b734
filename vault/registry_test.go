// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuonetwork/stakevault/nuo"
)

func testVaults() []Vault {
	return []Vault{
		{ID: 0, AnnualRate: 60, Capacity: nuo.WholeTokens(1_000_000), CliffDuration: 360 * nuo.SecondsPerDay},
		{ID: 1, AnnualRate: 30, Capacity: nuo.WholeTokens(500_000), CliffDuration: 180 * nuo.SecondsPerDay},
	}
}

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry(testVaults())
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	v, err := registry.Get(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(60), v.AnnualRate)

	v, err = registry.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 180*nuo.SecondsPerDay, v.CliffDuration)

	_, err = registry.Get(2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRegistryRejectsBadConfig(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.EqualError(t, err, "no vaults configured")

	_, err = NewRegistry([]Vault{
		{ID: 1, AnnualRate: 60, Capacity: big.NewInt(1), CliffDuration: 1},
	})
	assert.EqualError(t, err, "vault 1: id does not match position 0")

	_, err = NewRegistry([]Vault{
		{ID: 0, AnnualRate: 60, Capacity: big.NewInt(0), CliffDuration: 1},
	})
	assert.EqualError(t, err, "vault 0: capacity must be positive")

	_, err = NewRegistry([]Vault{
		{ID: 0, AnnualRate: 60, Capacity: big.NewInt(1), CliffDuration: 0},
	})
	assert.EqualError(t, err, "vault 0: cliff duration must be positive")
}

func TestRegistryListIsCopy(t *testing.T) {
	registry, err := NewRegistry(testVaults())
	require.NoError(t, err)

	list := registry.List()
	list[0].AnnualRate = 99

	v, err := registry.Get(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(60), v.AnnualRate)
}
