// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

import (
	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/gossamer/lib/keystore"
)

// Config holds the session parameters relevant to assignment computation.
type Config struct {
	// AssignmentKeys are the assignment keys of the session validators.
	AssignmentKeys []parachaintypes.AssignmentID
	// ValidatorGroups are the validators grouped by parachain core.
	ValidatorGroups [][]parachaintypes.ValidatorIndex
	// NCores is the number of availability cores of the session.
	NCores uint32
	// ZerothDelayTrancheWidth is the zeroth delay tranche width.
	ZerothDelayTrancheWidth uint32
	// RelayVRFModuloSamples is the number of samples of RelayVRFModulo to take.
	RelayVRFModuloSamples uint32
	// NDelayTranches is the number of delay tranches in total.
	NDelayTranches uint32
}

// newConfig derives the assignment configuration from the session info.
func newConfig(sessionInfo *parachaintypes.SessionInfo) Config {
	return Config{
		AssignmentKeys:          sessionInfo.AssignmentKeys,
		ValidatorGroups:         sessionInfo.ValidatorGroups,
		NCores:                  sessionInfo.NCores,
		ZerothDelayTrancheWidth: sessionInfo.ZerothDelayTrancheWidth,
		RelayVRFModuloSamples:   sessionInfo.RelayVRFModuloSamples,
		NDelayTranches:          sessionInfo.NDelayTranches,
	}
}

// OurAssignment is this validator's assignment to check a candidate occupying
// a core, not triggered until the assignment's tranche is reached.
type OurAssignment struct {
	Cert           parachaintypes.AssignmentCert `scale:"1"`
	Tranche        parachaintypes.DelayTranche   `scale:"2"`
	ValidatorIndex parachaintypes.ValidatorIndex `scale:"3"`
	Triggered      bool                          `scale:"4"`
}

// LeavingCore is a core occupied by a candidate included in a block, along
// with the group that backed the candidate.
type LeavingCore struct {
	CandidateHash parachaintypes.CandidateHash
	CoreIndex     parachaintypes.CoreIndex
	GroupIndex    parachaintypes.GroupIndex
}

// AssignmentCriteria computes the local validator's approval assignments
// for the candidates included by a block.
type AssignmentCriteria interface {
	ComputeAssignments(
		ks keystore.Keystore,
		relayVRFStory parachaintypes.RelayVRFStory,
		config Config,
		leavingCores []LeavingCore,
	) map[parachaintypes.CoreIndex]OurAssignment
}
