// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

import (
	"errors"
	"fmt"

	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/approval-voting/dot/types"
	"github.com/ChainSafe/gossamer/lib/crypto"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/gtank/merlin"
)

// relayVRFStoryContext is the context used to draw the relay VRF story
// bytes out of the block author's VRF in-out.
var relayVRFStoryContext = []byte("A&V RC-VRF")

var errAuthorityOutOfBounds = errors.New("authority index out of bounds")

// babeUnsafeVRFInfo is the VRF information extracted from a BABE pre-runtime
// digest. Unsafe because the VRF output has not been verified against the
// author's claim to the slot.
type babeUnsafeVRFInfo struct {
	slot           uint64
	authorityIndex uint32
	vrfOutput      [sr25519.VRFOutputLength]byte
}

// extractBabeVRFInfo returns the VRF information carried by the header's
// BABE pre-runtime digest, or nil if the header carries none. Secondary
// plain pre-digests carry no VRF output.
func extractBabeVRFInfo(header *types.Header) (*babeUnsafeVRFInfo, error) {
	for _, digestItem := range header.Digest {
		value, err := digestItem.Value()
		if err != nil {
			return nil, fmt.Errorf("getting digest item value: %w", err)
		}

		preRuntime, ok := value.(types.PreRuntimeDigest)
		if !ok || preRuntime.ConsensusEngineID != types.BabeEngineID {
			continue
		}

		preDigest, err := types.DecodeBabePreDigest(preRuntime.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding babe pre-digest: %w", err)
		}

		switch preDigest := preDigest.(type) {
		case types.BabePrimaryPreDigest:
			return &babeUnsafeVRFInfo{
				slot:           preDigest.SlotNumber,
				authorityIndex: preDigest.AuthorityIndex,
				vrfOutput:      preDigest.VRFOutput,
			}, nil
		case types.BabeSecondaryVRFPreDigest:
			return &babeUnsafeVRFInfo{
				slot:           preDigest.SlotNumber,
				authorityIndex: preDigest.AuthorityIndex,
				vrfOutput:      preDigest.VrfOutput,
			}, nil
		default:
			return nil, nil
		}
	}

	return nil, nil
}

// makeTranscript builds the BABE VRF transcript the block author signed
// over when claiming the slot.
func makeTranscript(randomness types.Randomness, slot, epochIndex uint64) *merlin.Transcript {
	t := merlin.NewTranscript(string(types.BabeEngineID[:]))
	crypto.AppendUint64(t, []byte("slot number"), slot)
	crypto.AppendUint64(t, []byte("current epoch"), epochIndex)
	t.AppendMessage([]byte("chain randomness"), randomness[:])
	return t
}

// computeRelayVRFStory derives the relay VRF story from the block author's
// VRF output by re-attaching the transcript input and drawing story bytes.
func computeRelayVRFStory(vrf *babeUnsafeVRFInfo, epoch *types.BabeEpoch) (
	parachaintypes.RelayVRFStory, error) {
	var story parachaintypes.RelayVRFStory

	if int(vrf.authorityIndex) >= len(epoch.Authorities) {
		return story, fmt.Errorf("%w: index %d with %d authorities",
			errAuthorityOutOfBounds, vrf.authorityIndex, len(epoch.Authorities))
	}

	authority := epoch.Authorities[vrf.authorityIndex]
	publicKey, err := sr25519.NewPublicKey(authority.Key[:])
	if err != nil {
		return story, fmt.Errorf("creating authority public key: %w", err)
	}

	transcript := makeTranscript(epoch.Randomness, vrf.slot, epoch.EpochIndex)
	inout, err := sr25519.AttachInput(vrf.vrfOutput, publicKey, transcript)
	if err != nil {
		return story, fmt.Errorf("attaching vrf input: %w", err)
	}

	storyBytes, err := inout.MakeBytes(len(story), relayVRFStoryContext)
	if err != nil {
		return story, fmt.Errorf("making vrf story bytes: %w", err)
	}

	copy(story[:], storyBytes)
	return story, nil
}
