// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

import (
	parachain "github.com/ChainSafe/approval-voting/dot/parachain/runtime"
	"github.com/ChainSafe/approval-voting/internal/database"
	"github.com/ChainSafe/gossamer/lib/keystore"
)

// CreateAndRegister creates the approval voting subsystem on top of the given
// database and wires it to the overseer channel.
func CreateAndRegister(overseerChan chan<- any, db database.Database,
	runtime parachain.RuntimeInstance, ks keystore.Keystore,
	criteria AssignmentCriteria) (*ApprovalVotingSubsystem, error) {
	approvalVoting := NewApprovalVoting(db, runtime, ks, criteria)
	approvalVoting.SubSystemToOverseer = overseerChan
	return approvalVoting, nil
}
