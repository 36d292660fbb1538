// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
)

// RandomnessLength is the length of the epoch randomness (32 bytes)
const RandomnessLength = 32

// Randomness is the epoch randomness
type Randomness [RandomnessLength]byte

// AuthorityRaw represents a BABE authority with its public key in raw form
type AuthorityRaw struct {
	Key    [sr25519.PublicKeyLength]byte `scale:"1"`
	Weight uint64                        `scale:"2"`
}

// BabeEpoch is a BABE epoch as returned by the BabeApi_current_epoch
// runtime call.
type BabeEpoch struct {
	// EpochIndex is the epoch index
	EpochIndex uint64 `scale:"1"`
	// StartSlot is the starting slot of the epoch
	StartSlot uint64 `scale:"2"`
	// Duration is the duration of the epoch in slots
	Duration uint64 `scale:"3"`
	// Authorities are the authorities allowed to produce blocks in the epoch
	Authorities []AuthorityRaw `scale:"4"`
	// Randomness is the randomness for the epoch
	Randomness Randomness `scale:"5"`
}
