package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func supportedCoin(requiresSettings bool, kinds ...PlatformKind) FullCoin {
	fc := FullCoin{Coin: Coin{UID: "coin", Name: "Coin", Code: "C"}}
	for _, k := range kinds {
		fc.Platforms = append(fc.Platforms, Platform{CoinUID: "coin", Kind: k, RequiresSettings: requiresSettings})
	}
	return fc
}

func TestStateFor(t *testing.T) {
	t.Run("UnsupportedWhenNoKnownPlatform", func(t *testing.T) {
		fc := FullCoin{
			Coin:      Coin{UID: "weird"},
			Platforms: []Platform{{CoinUID: "weird", Kind: PlatformKind("solana")}},
		}
		assert.Equal(t, CoinState{Kind: CoinUnsupported}, StateFor(fc, false))
		assert.Equal(t, CoinState{Kind: CoinUnsupported}, StateFor(fc, true))
	})

	t.Run("DisabledWhenNotEnabled", func(t *testing.T) {
		state := StateFor(supportedCoin(false, PlatformEvm), false)
		assert.Equal(t, CoinState{Kind: CoinSupportedDisabled}, state)
		assert.False(t, state.Enabled())
	})

	t.Run("EnabledCarriesHasSettings", func(t *testing.T) {
		multi := StateFor(supportedCoin(false, PlatformEvm, PlatformBinance), true)
		assert.True(t, multi.Enabled())
		assert.True(t, multi.HasSettings)

		single := StateFor(supportedCoin(false, PlatformEvm), true)
		assert.True(t, single.Enabled())
		assert.False(t, single.HasSettings)

		derivation := StateFor(supportedCoin(true, PlatformBitcoin), true)
		assert.True(t, derivation.HasSettings)
	})
}

func TestCoinStateTransitions(t *testing.T) {
	t.Run("EnableThenDisableRoundTrips", func(t *testing.T) {
		state := CoinState{Kind: CoinSupportedDisabled}
		enabled := state.Enable(true)
		assert.Equal(t, CoinState{Kind: CoinSupportedEnabled, HasSettings: true}, enabled)
		assert.Equal(t, CoinState{Kind: CoinSupportedDisabled}, enabled.Disable())
	})

	t.Run("UnsupportedNeverTransitions", func(t *testing.T) {
		state := CoinState{Kind: CoinUnsupported}
		assert.Equal(t, state, state.Enable(false))
		assert.Equal(t, state, state.Disable())
	})
}
