// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package approvaldistribution tracks the metadata of blocks under approval
// and distributes assignments and approvals over the network.
package approvaldistribution

import (
	"context"
	"sync"

	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/approval-voting/internal/log"
	"github.com/ChainSafe/gossamer/lib/common"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "parachain-approval-distribution"))

// ApprovalDistributionSubsystem keeps the view of blocks under approval.
type ApprovalDistributionSubsystem struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	SubSystemToOverseer chan<- any
	OverseerToSubSystem <-chan any

	// blocks under approval, keyed by block hash
	blocks map[common.Hash]BlockApprovalMeta
	// block hashes at each height, used for pruning on finality
	blocksByNumber map[parachaintypes.BlockNumber][]common.Hash
}

// CreateAndRegister creates the approval distribution subsystem.
func CreateAndRegister(overseerChan chan<- any) *ApprovalDistributionSubsystem {
	ctx, cancel := context.WithCancel(context.Background())

	return &ApprovalDistributionSubsystem{
		ctx:                 ctx,
		cancel:              cancel,
		SubSystemToOverseer: overseerChan,
		blocks:              make(map[common.Hash]BlockApprovalMeta),
		blocksByNumber:      make(map[parachaintypes.BlockNumber][]common.Hash),
	}
}

// Run runs the approval distribution subsystem.
func (ad *ApprovalDistributionSubsystem) Run(ctx context.Context, overseerToSubSystem chan any,
	subSystemToOverseer chan any) {
	ad.OverseerToSubSystem = overseerToSubSystem
	ad.wg.Add(1)
	go ad.processMessages()
}

// Name returns the name of the approval distribution subsystem
func (*ApprovalDistributionSubsystem) Name() parachaintypes.SubSystemName {
	return parachaintypes.ApprovalDistribution
}

// Stop stops the approval distribution subsystem.
func (ad *ApprovalDistributionSubsystem) Stop() {
	ad.cancel()
	ad.wg.Wait()
}

func (ad *ApprovalDistributionSubsystem) processMessages() {
	for {
		select {
		case msg := <-ad.OverseerToSubSystem:
			logger.Debugf("received message %T", msg)
			switch msg := msg.(type) {
			case NewBlocks:
				ad.handleNewBlocks(msg)
			case parachaintypes.ActiveLeavesUpdateSignal:
				err := ad.ProcessActiveLeavesUpdateSignal(msg)
				if err != nil {
					logger.Errorf("processing active leaves update signal: %s", err)
				}
			case parachaintypes.BlockFinalizedSignal:
				err := ad.ProcessBlockFinalizedSignal(msg)
				if err != nil {
					logger.Errorf("processing block finalized signal: %s", err)
				}
			default:
				logger.Error(parachaintypes.ErrUnknownOverseerMessage.Error())
			}

		case <-ad.ctx.Done():
			if err := ad.ctx.Err(); err != nil {
				logger.Errorf("ctx error: %v", err)
			}
			ad.wg.Done()
			return
		}
	}
}

// ProcessActiveLeavesUpdateSignal processes an active leaves update signal.
// New blocks are only tracked once approval voting has imported them and
// sent NewBlocks, so there is nothing to do here.
func (ad *ApprovalDistributionSubsystem) ProcessActiveLeavesUpdateSignal(
	parachaintypes.ActiveLeavesUpdateSignal) error {
	return nil
}

// ProcessBlockFinalizedSignal prunes the view of everything at or below the
// finalized height.
func (ad *ApprovalDistributionSubsystem) ProcessBlockFinalizedSignal(
	signal parachaintypes.BlockFinalizedSignal) error {
	for number, hashes := range ad.blocksByNumber {
		if number > parachaintypes.BlockNumber(signal.BlockNumber) {
			continue
		}
		for _, hash := range hashes {
			delete(ad.blocks, hash)
		}
		delete(ad.blocksByNumber, number)
	}
	return nil
}

func (ad *ApprovalDistributionSubsystem) handleNewBlocks(metas NewBlocks) {
	for _, meta := range metas {
		if _, ok := ad.blocks[meta.Hash]; ok {
			continue
		}
		ad.blocks[meta.Hash] = meta
		ad.blocksByNumber[meta.Number] = append(ad.blocksByNumber[meta.Number], meta.Hash)
	}

	logger.Debugf("got new blocks, tracking %d blocks under approval", len(ad.blocks))
}
