// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

import (
	"context"
	"sync"

	parachain "github.com/ChainSafe/approval-voting/dot/parachain/runtime"
	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/approval-voting/internal/database"
	"github.com/ChainSafe/approval-voting/internal/log"
	"github.com/ChainSafe/gossamer/lib/keystore"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "parachain-approval-voting"))

// defaultSlotDurationMillis is the relay chain slot duration used to convert
// slots to ticks.
const defaultSlotDurationMillis = uint64(6000)

// ApprovalVotingSubsystem tracks blocks under approval and the candidates
// they include, importing new chain heads as the overseer announces them.
type ApprovalVotingSubsystem struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	SubSystemToOverseer chan<- any
	OverseerToSubSystem <-chan any

	runtime  parachain.RuntimeInstance
	keystore keystore.Keystore
	criteria AssignmentCriteria

	window *RollingSessionWindow
	store  *approvalStore

	slotDurationMillis uint64
	finalizedNumber    *parachaintypes.BlockNumber
}

// NewApprovalVoting creates the approval voting subsystem with an empty
// session window on top of the given database.
func NewApprovalVoting(db database.Database, runtime parachain.RuntimeInstance,
	ks keystore.Keystore, criteria AssignmentCriteria) *ApprovalVotingSubsystem {
	return &ApprovalVotingSubsystem{
		runtime:            runtime,
		keystore:           ks,
		criteria:           criteria,
		window:             NewRollingSessionWindow(),
		store:              newApprovalStore(db),
		slotDurationMillis: defaultSlotDurationMillis,
	}
}

// Run starts the subsystem.
func (av *ApprovalVotingSubsystem) Run(ctx context.Context, overseerToSubSystem chan any,
	subSystemToOverseer chan any) {
	av.ctx, av.cancel = context.WithCancel(ctx)
	av.OverseerToSubSystem = overseerToSubSystem
	av.SubSystemToOverseer = subSystemToOverseer

	av.wg.Add(1)
	go av.processMessages()
}

// Name returns the name of the subsystem.
func (*ApprovalVotingSubsystem) Name() parachaintypes.SubSystemName {
	return parachaintypes.ApprovalVoting
}

func (av *ApprovalVotingSubsystem) processMessages() {
	defer av.wg.Done()

	for {
		select {
		case msg, ok := <-av.OverseerToSubSystem:
			if !ok {
				return
			}

			switch msg := msg.(type) {
			case parachaintypes.ActiveLeavesUpdateSignal:
				err := av.ProcessActiveLeavesUpdateSignal(msg)
				if err != nil {
					logger.Errorf("processing active leaves update signal: %s", err)
				}
			case parachaintypes.BlockFinalizedSignal:
				err := av.ProcessBlockFinalizedSignal(msg)
				if err != nil {
					logger.Errorf("processing block finalized signal: %s", err)
				}
			default:
				logger.Errorf("%s: %T", parachaintypes.ErrUnknownOverseerMessage, msg)
			}

		case <-av.ctx.Done():
			if err := av.ctx.Err(); err != nil {
				logger.Errorf("ctx error: %s", err)
			}
			return
		}
	}
}

// ProcessActiveLeavesUpdateSignal imports the activated leaf and all its
// unknown ancestors above the finalized height.
func (av *ApprovalVotingSubsystem) ProcessActiveLeavesUpdateSignal(
	signal parachaintypes.ActiveLeavesUpdateSignal) error {
	if signal.Activated == nil {
		return nil
	}

	_, err := av.HandleNewHead(signal.Activated.Hash)
	return err
}

// ProcessBlockFinalizedSignal records the new finalized height as the lower
// bound of future ancestry walks.
func (av *ApprovalVotingSubsystem) ProcessBlockFinalizedSignal(
	signal parachaintypes.BlockFinalizedSignal) error {
	finalized := parachaintypes.BlockNumber(signal.BlockNumber)
	av.finalizedNumber = &finalized
	return nil
}

// Stop stops the subsystem.
func (av *ApprovalVotingSubsystem) Stop() {
	av.cancel()
	av.wg.Wait()
}
