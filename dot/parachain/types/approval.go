// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachaintypes

import (
	"fmt"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/ChainSafe/gossamer/pkg/scale"
)

// CandidateIndex is the index of the candidate in the list of candidates
// fully included as-of the block.
type CandidateIndex uint32

// DelayTranche is an offset from the relay-chain slot at which an assignment
// becomes active, in ticks.
type DelayTranche uint32

// RelayVRFStory is random bytes derived from the VRF submitted within the block
// by the block author as a credential and used as input to approval assignment criteria.
type RelayVRFStory [32]byte

// VrfSignature represents a VRF signature, which itself consists of a VRF
// pre-output and DLEQ proof
type VrfSignature struct {
	// Output VRF output
	Output [sr25519.VRFOutputLength]byte `scale:"1"`
	// Proof VRF proof
	Proof [sr25519.VRFProofLength]byte `scale:"2"`
}

// RelayVRFModulo is an assignment story based on the VRF that authorized the
// relay-chain block where the candidate was included combined with a sample number.
type RelayVRFModulo struct {
	// Sample the sample number used in this cert.
	Sample uint32
}

// RelayVRFDelay is an assignment story based on the VRF that authorized the
// relay-chain block where the candidate was included combined with the index
// of a particular core.
type RelayVRFDelay struct {
	// CoreIndex the unique (during session) index of a core.
	CoreIndex uint32
}

// AssignmentCertKindValues are the possible assignment cert kind values.
type AssignmentCertKindValues interface {
	RelayVRFModulo | RelayVRFDelay
}

// AssignmentCertKind different kinds of input or criteria that can prove
// a validator's assignment to check a particular parachain.
type AssignmentCertKind struct {
	inner any
}

func setAssignmentCertKind[Value AssignmentCertKindValues](mvdt *AssignmentCertKind, value Value) {
	mvdt.inner = value
}

func (mvdt *AssignmentCertKind) SetValue(value any) (err error) {
	switch value := value.(type) {
	case RelayVRFModulo:
		setAssignmentCertKind(mvdt, value)
		return

	case RelayVRFDelay:
		setAssignmentCertKind(mvdt, value)
		return

	default:
		return fmt.Errorf("unsupported type")
	}
}

func (mvdt AssignmentCertKind) IndexValue() (index uint, value any, err error) {
	switch mvdt.inner.(type) {
	case RelayVRFModulo:
		return 0, mvdt.inner, nil

	case RelayVRFDelay:
		return 1, mvdt.inner, nil

	}
	return 0, nil, scale.ErrUnsupportedVaryingDataTypeValue
}

func (mvdt AssignmentCertKind) Value() (value any, err error) {
	_, value, err = mvdt.IndexValue()
	return
}

func (mvdt AssignmentCertKind) ValueAt(index uint) (value any, err error) {
	switch index {
	case 0:
		return *new(RelayVRFModulo), nil

	case 1:
		return *new(RelayVRFDelay), nil

	}
	return nil, scale.ErrUnknownVaryingDataTypeValue
}

// NewAssignmentCertKindVDT constructor for AssignmentCertKind
func NewAssignmentCertKindVDT() AssignmentCertKind {
	return AssignmentCertKind{}
}

// AssignmentCert is a certification of assignment
type AssignmentCert struct {
	// Kind the criterion which is claimed to be met by this cert.
	Kind AssignmentCertKind `scale:"1"`
	// Vrf the VRF signature showing the criterion is met.
	Vrf VrfSignature `scale:"2"`
}

// IndirectAssignmentCert is an assignment criterion which refers to the candidate
// under which the assignment is relevant by block hash.
type IndirectAssignmentCert struct {
	// BlockHash a block hash where the candidate appears.
	BlockHash common.Hash `scale:"1"`
	// Validator the validator index.
	Validator ValidatorIndex `scale:"2"`
	// Cert the cert itself.
	Cert AssignmentCert `scale:"3"`
}
