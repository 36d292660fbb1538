// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvaldistribution

import (
	"testing"

	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/stretchr/testify/require"
)

func testMeta(hash common.Hash, number parachaintypes.BlockNumber) BlockApprovalMeta {
	return BlockApprovalMeta{
		Hash:    hash,
		Number:  number,
		Slot:    uint64(number) + 100,
		Session: 1,
	}
}

func TestHandleNewBlocks(t *testing.T) {
	t.Parallel()

	subsystem := CreateAndRegister(make(chan any))

	blockA := testMeta(common.Hash{0x0a}, 1)
	blockB := testMeta(common.Hash{0x0b}, 2)
	subsystem.handleNewBlocks(NewBlocks{blockA, blockB})

	require.Len(t, subsystem.blocks, 2)
	require.Equal(t, blockA, subsystem.blocks[blockA.Hash])

	// Metadata already tracked is not overwritten.
	changed := blockA
	changed.Session = 9
	subsystem.handleNewBlocks(NewBlocks{changed})
	require.Equal(t, blockA, subsystem.blocks[blockA.Hash])
}

func TestProcessBlockFinalizedSignal_PrunesOldBlocks(t *testing.T) {
	t.Parallel()

	subsystem := CreateAndRegister(make(chan any))

	subsystem.handleNewBlocks(NewBlocks{
		testMeta(common.Hash{0x0a}, 1),
		testMeta(common.Hash{0x0b}, 2),
		testMeta(common.Hash{0x0c}, 2),
		testMeta(common.Hash{0x0d}, 3),
	})

	err := subsystem.ProcessBlockFinalizedSignal(parachaintypes.BlockFinalizedSignal{
		Hash:        common.Hash{0x0b},
		BlockNumber: 2,
	})
	require.NoError(t, err)

	require.Len(t, subsystem.blocks, 1)
	require.Contains(t, subsystem.blocks, common.Hash{0x0d})
	require.Len(t, subsystem.blocksByNumber, 1)
}
