// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvaldistribution

import (
	"fmt"

	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/pkg/scale"
)

// BlockApprovalMeta is metadata about a new block relevant to approval distribution.
type BlockApprovalMeta struct {
	// Hash is the hash of the block.
	Hash common.Hash
	// Number is the number of the block.
	Number parachaintypes.BlockNumber
	// ParentHash is the hash of the parent block.
	ParentHash common.Hash
	// Candidates are the candidates included by the block, in the order
	// of the candidate-included events of the block.
	Candidates []parachaintypes.CandidateHash
	// Slot is the consensus slot the block was produced in.
	Slot uint64
	// Session is the session the block belongs to.
	Session parachaintypes.SessionIndex
}

// NewBlocks informs the approval distribution subsystem of blocks newly
// imported by approval voting, oldest first.
type NewBlocks []BlockApprovalMeta

// Assignment holds an indirect assignment cert and the candidate index it
// is relevant to.
type Assignment struct {
	IndirectAssignmentCert parachaintypes.IndirectAssignmentCert `scale:"1"`
	CandidateIndex         parachaintypes.CandidateIndex         `scale:"2"`
}

// Assignments for candidates in recent, unfinalized blocks.
type Assignments []Assignment

// IndirectSignedApprovalVote represents a signed approval vote which references
// the candidate indirectly via the block.
type IndirectSignedApprovalVote struct {
	// BlockHash a block hash where the candidate appears.
	BlockHash common.Hash `scale:"1"`
	// CandidateIndex the index of the candidate in the list of candidates
	// fully included as-of the block.
	CandidateIndex parachaintypes.CandidateIndex `scale:"2"`
	// ValidatorIndex the validator index.
	ValidatorIndex parachaintypes.ValidatorIndex `scale:"3"`
	// Signature the signature of the validator.
	Signature parachaintypes.ValidatorSignature `scale:"4"`
}

// Approvals for candidates in some recent, unfinalized block.
type Approvals []IndirectSignedApprovalVote

// ApprovalDistributionMessageValues are the network messages used by the
// approval distribution subsystem.
type ApprovalDistributionMessageValues interface {
	Assignments | Approvals
}

// ApprovalDistributionMessage network messages used by approval distribution subsystem.
type ApprovalDistributionMessage struct {
	inner any
}

func setApprovalDistributionMessage[Value ApprovalDistributionMessageValues](
	mvdt *ApprovalDistributionMessage, value Value) {
	mvdt.inner = value
}

func (mvdt *ApprovalDistributionMessage) SetValue(value any) (err error) {
	switch value := value.(type) {
	case Assignments:
		setApprovalDistributionMessage(mvdt, value)
		return

	case Approvals:
		setApprovalDistributionMessage(mvdt, value)
		return

	default:
		return fmt.Errorf("unsupported type")
	}
}

func (mvdt ApprovalDistributionMessage) IndexValue() (index uint, value any, err error) {
	switch mvdt.inner.(type) {
	case Assignments:
		return 0, mvdt.inner, nil

	case Approvals:
		return 1, mvdt.inner, nil

	}
	return 0, nil, scale.ErrUnsupportedVaryingDataTypeValue
}

func (mvdt ApprovalDistributionMessage) Value() (value any, err error) {
	_, value, err = mvdt.IndexValue()
	return
}

func (mvdt ApprovalDistributionMessage) ValueAt(index uint) (value any, err error) {
	switch index {
	case 0:
		return *new(Assignments), nil

	case 1:
		return *new(Approvals), nil

	}
	return nil, scale.ErrUnknownVaryingDataTypeValue
}

// NewApprovalDistributionMessageVDT returns a new ApprovalDistributionMessage
// varying data type
func NewApprovalDistributionMessageVDT() ApprovalDistributionMessage {
	return ApprovalDistributionMessage{}
}
