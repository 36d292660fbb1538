// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

import (
	"testing"

	"github.com/ChainSafe/approval-voting/dot/types"
	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/stretchr/testify/require"
)

// signedVRFDigest produces a BABE primary pre-runtime digest with a VRF
// output actually signed by the keypair over the epoch's transcript.
func signedVRFDigest(t *testing.T, keypair *sr25519.Keypair, slot uint64,
	epoch *types.BabeEpoch) types.DigestItem {
	t.Helper()

	transcript := makeTranscript(epoch.Randomness, slot, epoch.EpochIndex)
	output, proof, err := keypair.VrfSign(transcript)
	require.NoError(t, err)

	preDigest := types.NewBabePrimaryPreDigest(0, slot, output, proof)
	preRuntime, err := preDigest.ToPreRuntimeDigest()
	require.NoError(t, err)

	item := types.NewDigestItem()
	require.NoError(t, item.SetValue(*preRuntime))
	return item
}

func testBabeEpoch(t *testing.T, keypair *sr25519.Keypair) *types.BabeEpoch {
	t.Helper()

	var authority types.AuthorityRaw
	copy(authority.Key[:], keypair.Public().Encode())

	return &types.BabeEpoch{
		EpochIndex:  7,
		StartSlot:   100,
		Duration:    200,
		Authorities: []types.AuthorityRaw{authority},
		Randomness:  types.Randomness{0x01, 0x02, 0x03},
	}
}

func TestExtractBabeVRFInfo(t *testing.T) {
	t.Parallel()

	keypair, err := sr25519.GenerateKeypair()
	require.NoError(t, err)
	epoch := testBabeEpoch(t, keypair)

	t.Run("primary_pre_digest", func(t *testing.T) {
		t.Parallel()

		digest := types.NewDigest()
		digest = append(digest, signedVRFDigest(t, keypair, 123, epoch))
		header := types.NewHeader(common.Hash{0x01}, common.Hash{}, common.Hash{}, 1, digest)

		info, err := extractBabeVRFInfo(header)
		require.NoError(t, err)
		require.NotNil(t, info)
		require.Equal(t, uint64(123), info.slot)
		require.Equal(t, uint32(0), info.authorityIndex)
	})

	t.Run("secondary_plain_carries_no_vrf", func(t *testing.T) {
		t.Parallel()

		preDigest := types.NewBabeSecondaryPlainPreDigest(0, 123)
		preRuntime, err := preDigest.ToPreRuntimeDigest()
		require.NoError(t, err)

		item := types.NewDigestItem()
		require.NoError(t, item.SetValue(*preRuntime))

		digest := types.NewDigest()
		digest = append(digest, item)
		header := types.NewHeader(common.Hash{0x01}, common.Hash{}, common.Hash{}, 1, digest)

		info, err := extractBabeVRFInfo(header)
		require.NoError(t, err)
		require.Nil(t, info)
	})

	t.Run("no_pre_digest", func(t *testing.T) {
		t.Parallel()

		header := types.NewHeader(common.Hash{0x01}, common.Hash{}, common.Hash{}, 1,
			types.NewDigest())

		info, err := extractBabeVRFInfo(header)
		require.NoError(t, err)
		require.Nil(t, info)
	})
}

func TestComputeRelayVRFStory(t *testing.T) {
	t.Parallel()

	keypair, err := sr25519.GenerateKeypair()
	require.NoError(t, err)
	epoch := testBabeEpoch(t, keypair)

	const slot = uint64(123)
	transcript := makeTranscript(epoch.Randomness, slot, epoch.EpochIndex)
	output, _, err := keypair.VrfSign(transcript)
	require.NoError(t, err)

	vrfInfo := &babeUnsafeVRFInfo{
		slot:           slot,
		authorityIndex: 0,
		vrfOutput:      output,
	}

	story, err := computeRelayVRFStory(vrfInfo, epoch)
	require.NoError(t, err)

	// The story is a deterministic function of the VRF in-out.
	again, err := computeRelayVRFStory(vrfInfo, epoch)
	require.NoError(t, err)
	require.Equal(t, story, again)

	t.Run("authority_index_out_of_bounds", func(t *testing.T) {
		t.Parallel()

		outOfBounds := &babeUnsafeVRFInfo{
			slot:           slot,
			authorityIndex: uint32(len(epoch.Authorities)),
			vrfOutput:      output,
		}

		_, err := computeRelayVRFStory(outOfBounds, epoch)
		require.ErrorIs(t, err, errAuthorityOutOfBounds)
	})
}
