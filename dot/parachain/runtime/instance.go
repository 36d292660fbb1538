// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package parachain exposes the runtime calls used by the approval
// voting subsystems.
package parachain

import (
	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/approval-voting/dot/types"
	"github.com/ChainSafe/gossamer/lib/common"
)

//go:generate mockgen -destination=mock_instance.go -package=parachain . RuntimeInstance

// RuntimeInstance for runtime methods
type RuntimeInstance interface {
	// ParachainHostSessionIndexForChild returns the session index expected
	// at a child of the block with the given hash
	ParachainHostSessionIndexForChild(blockHash common.Hash) (parachaintypes.SessionIndex, error)
	// ParachainHostSessionInfo returns the session info of the given session,
	// if stored by the runtime
	ParachainHostSessionInfo(blockHash common.Hash, sessionIndex parachaintypes.SessionIndex) (
		*parachaintypes.SessionInfo, error)
	// ParachainHostCandidateEvents returns the candidate events that occurred
	// within the block with the given hash
	ParachainHostCandidateEvents(blockHash common.Hash) (parachaintypes.CandidateEvents, error)
	// BabeAPICurrentEpoch returns the BABE epoch the block with the given
	// hash belongs to
	BabeAPICurrentEpoch(blockHash common.Hash) (*types.BabeEpoch, error)
}
