// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package parachaintypes holds the primitive types shared by the
// parachain subsystems.
package parachaintypes

import (
	"fmt"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/ChainSafe/gossamer/pkg/scale"
)

// BlockNumber is the relay chain block number
type BlockNumber uint32

// SessionIndex is a session index
type SessionIndex uint32

// ValidatorIndex is the index of a validator in the validator set of a session
type ValidatorIndex uint32

// ValidatorID is the public key of a validator
type ValidatorID [sr25519.PublicKeyLength]byte

// AuthorityDiscoveryID is an authority discovery public key
type AuthorityDiscoveryID [sr25519.PublicKeyLength]byte

// AssignmentID is a public key used by a validator for determining
// assignments to approve included parachain candidates
type AssignmentID [sr25519.PublicKeyLength]byte

// CollatorID is a collator public key
type CollatorID [sr25519.PublicKeyLength]byte

// CollatorSignature is the signature on a candidate's block data signed by a collator
type CollatorSignature [sr25519.SignatureLength]byte

// ValidatorSignature is the signature with which parachain validators sign blocks
type ValidatorSignature [sr25519.SignatureLength]byte

// ValidationCodeHash is the blake2-256 hash of the validation code blob
type ValidationCodeHash common.Hash

// GroupIndex is the index of a validator group
type GroupIndex uint32

// CoreIndex is the unique (during session) index of a core
type CoreIndex struct {
	Index uint32 `scale:"1"`
}

// HeadData is the parachain head data included in the chain
type HeadData struct {
	Data []byte `scale:"1"`
}

// CandidateHash is the hash of a candidate receipt
type CandidateHash struct {
	Value common.Hash `scale:"1"`
}

func (c CandidateHash) String() string {
	return c.Value.String()
}

// CandidateDescriptor is a unique descriptor of a candidate receipt
type CandidateDescriptor struct {
	// ParaID is the ID of the parachain this is a candidate for
	ParaID uint32 `scale:"1"`
	// RelayParent is the hash of the relay chain block this candidate is
	// executed in the context of
	RelayParent common.Hash `scale:"2"`
	// Collator is the collator's relay chain account ID
	Collator CollatorID `scale:"3"`
	// PersistedValidationDataHash is the blake2-256 hash of the persisted
	// validation data
	PersistedValidationDataHash common.Hash `scale:"4"`
	// PovHash is the hash of the proof of validity
	PovHash common.Hash `scale:"5"`
	// ErasureRoot is the root of the block's erasure encoding merkle tree
	ErasureRoot common.Hash `scale:"6"`
	// Signature on the candidate's block data by the collator
	Signature CollatorSignature `scale:"7"`
	// ParaHead is the hash of the parachain head data produced by this candidate
	ParaHead common.Hash `scale:"8"`
	// ValidationCodeHash is the hash of the validation code used by this candidate
	ValidationCodeHash ValidationCodeHash `scale:"9"`
}

// CandidateReceipt is a candidate receipt, with its commitments hashed
type CandidateReceipt struct {
	Descriptor      CandidateDescriptor `scale:"1"`
	CommitmentsHash common.Hash         `scale:"2"`
}

// Hash returns the blake2-256 hash of the scale encoded candidate receipt
func (c CandidateReceipt) Hash() (CandidateHash, error) {
	encoded, err := scale.Marshal(c)
	if err != nil {
		return CandidateHash{}, fmt.Errorf("marshalling candidate receipt: %w", err)
	}

	hash, err := common.Blake2bHash(encoded)
	if err != nil {
		return CandidateHash{}, fmt.Errorf("hashing candidate receipt: %w", err)
	}

	return CandidateHash{Value: hash}, nil
}

// SessionInfo is the session info of a particular session, as stored by the
// runtime for approval checking and dispute resolution.
type SessionInfo struct {
	// ActiveValidatorIndices are the validators in canonical ordering
	ActiveValidatorIndices []ValidatorIndex `scale:"1"`
	// RandomSeed is the freshly generated random seed, for the VRFs used
	// by validators in the session
	RandomSeed [32]byte `scale:"2"`
	// DisputePeriod is the dispute period in blocks
	DisputePeriod SessionIndex `scale:"3"`
	// Validators in shuffled order
	Validators []ValidatorID `scale:"4"`
	// DiscoveryKeys are the authority discovery keys for the session,
	// in canonical ordering
	DiscoveryKeys []AuthorityDiscoveryID `scale:"5"`
	// AssignmentKeys are the assignment keys for validators, in the
	// shuffled order of Validators
	AssignmentKeys []AssignmentID `scale:"6"`
	// ValidatorGroups are the validators grouped by parachain core
	ValidatorGroups [][]ValidatorIndex `scale:"7"`
	// NCores is the number of availability cores used by the protocol
	// during the session
	NCores uint32 `scale:"8"`
	// ZerothDelayTrancheWidth is the zeroth delay tranche width
	ZerothDelayTrancheWidth uint32 `scale:"9"`
	// RelayVRFModuloSamples is the number of samples we do of RelayVRFModulo
	RelayVRFModuloSamples uint32 `scale:"10"`
	// NDelayTranches is the number of delay tranches in total
	NDelayTranches uint32 `scale:"11"`
	// NoShowSlots is how many slots (BABE slot duration) must pass before
	// an assignment is considered a no-show
	NoShowSlots uint32 `scale:"12"`
	// NeededApprovals is the number of validators needed to approve a candidate
	NeededApprovals uint32 `scale:"13"`
}
