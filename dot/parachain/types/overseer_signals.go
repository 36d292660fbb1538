// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachaintypes

import (
	"errors"

	"github.com/ChainSafe/gossamer/lib/common"
)

var ErrUnknownOverseerMessage = errors.New("unknown overseer message type")

// SubSystemName is the name of a subsystem registered with the overseer
type SubSystemName string

const (
	// ApprovalDistribution is the approval distribution subsystem name
	ApprovalDistribution SubSystemName = "ApprovalDistribution"
	// ApprovalVoting is the approval voting subsystem name
	ApprovalVoting SubSystemName = "ApprovalVoting"
	// ChainAPI is the chain api subsystem name
	ChainAPI SubSystemName = "ChainAPI"
	// RuntimeAPI is the runtime api subsystem name
	RuntimeAPI SubSystemName = "RuntimeAPI"
)

// ActivatedLeaf is a parachain head which we care to work on.
type ActivatedLeaf struct {
	Hash   common.Hash
	Number uint32
}

// ActiveLeavesUpdateSignal changes in the set of active leaves: the parachain heads
// which we care to work on.
//
// note: activated field indicates deltas, not complete sets.
type ActiveLeavesUpdateSignal struct {
	Activated *ActivatedLeaf
	// Relay chain block hashes no longer of interest.
	Deactivated []common.Hash
}

// BlockFinalizedSignal is used to inform subsystems of a finalized block.
type BlockFinalizedSignal struct {
	Hash        common.Hash
	BlockNumber uint32
}
