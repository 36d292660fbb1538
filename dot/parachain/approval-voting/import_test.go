// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

import (
	"sync"
	"testing"

	approvaldistribution "github.com/ChainSafe/approval-voting/dot/parachain/approval-distribution"
	parachain "github.com/ChainSafe/approval-voting/dot/parachain/runtime"
	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/approval-voting/dot/parachain/util"
	"github.com/ChainSafe/approval-voting/dot/types"
	"github.com/ChainSafe/approval-voting/internal/database"
	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/lib/crypto"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/ChainSafe/gossamer/lib/keystore"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// testChainAPI answers the chain api messages the subsystem sends through
// the overseer channel and records what it saw.
type testChainAPI struct {
	headers   map[common.Hash]*types.Header
	ancestors map[common.Hash][]common.Hash

	ancestryCalls int

	mu        sync.Mutex
	newBlocks []approvaldistribution.NewBlocks
}

// newBlocksSeen returns the NewBlocks messages received so far.
func (c *testChainAPI) newBlocksSeen() []approvaldistribution.NewBlocks {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]approvaldistribution.NewBlocks{}, c.newBlocks...)
}

func newTestChainAPI() *testChainAPI {
	return &testChainAPI{
		headers:   make(map[common.Hash]*types.Header),
		ancestors: make(map[common.Hash][]common.Hash),
	}
}

// serve answers messages until the returned stop function is called.
func (c *testChainAPI) serve(t *testing.T, overseerChan chan any) {
	t.Helper()

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	go func() {
		for {
			select {
			case msg := <-overseerChan:
				switch msg := msg.(type) {
				case util.ChainAPIMessage[util.BlockHeader]:
					var response util.BlockHeaderResponse
					if header, ok := c.headers[msg.Message.Hash]; ok {
						headerCopy := *header
						response.Header = &headerCopy
					}
					msg.ResponseChannel <- response
				case util.ChainAPIMessage[util.Ancestors]:
					c.ancestryCalls++
					ancestors := c.ancestors[msg.Message.Hash]
					k := int(msg.Message.K)
					if k > len(ancestors) {
						k = len(ancestors)
					}
					msg.ResponseChannel <- util.AncestorsResponse{Ancestors: ancestors[:k]}
				case approvaldistribution.NewBlocks:
					c.mu.Lock()
					c.newBlocks = append(c.newBlocks, msg)
					c.mu.Unlock()
				default:
					t.Errorf("unexpected overseer message %T", msg)
				}
			case <-done:
				return
			}
		}
	}()
}

// testChain is a linear chain of headers served by a testChainAPI.
type testChain struct {
	api     *testChainAPI
	headers []*types.Header
	hashes  []common.Hash
}

// buildTestChain builds count chained headers starting at startNumber. The
// digestFor function, if not nil, provides the digest of each block.
func buildTestChain(t *testing.T, startNumber, count uint,
	digestFor func(number uint) types.Digest) *testChain {
	t.Helper()

	chain := &testChain{api: newTestChainAPI()}

	parentHash := common.Hash{0xff}
	for i := uint(0); i < count; i++ {
		number := startNumber + i
		digest := types.NewDigest()
		if digestFor != nil {
			digest = digestFor(number)
		}

		header := types.NewHeader(parentHash, common.Hash{}, common.Hash{}, number, digest)
		hash := header.Hash()

		// Ancestors are returned closest parent first, the block excluded.
		ancestors := []common.Hash{parentHash}
		ancestors = append(ancestors, chain.api.ancestors[parentHash]...)

		chain.api.headers[hash] = header
		chain.api.ancestors[hash] = ancestors
		chain.headers = append(chain.headers, header)
		chain.hashes = append(chain.hashes, hash)

		parentHash = hash
	}

	return chain
}

func (c *testChain) head() (common.Hash, *types.Header) {
	last := len(c.headers) - 1
	return c.hashes[last], c.headers[last]
}

// headerAt returns the chain's header with the given block number.
func (c *testChain) headerAt(t *testing.T, number uint) (common.Hash, *types.Header) {
	t.Helper()
	for i, header := range c.headers {
		if header.Number == number {
			return c.hashes[i], header
		}
	}
	t.Fatalf("no block with number %d", number)
	return common.Hash{}, nil
}

func newTestSubsystem(t *testing.T, overseerChan chan any, runtime parachain.RuntimeInstance,
	criteria AssignmentCriteria) *ApprovalVotingSubsystem {
	t.Helper()

	inmemoryDB, err := database.NewPebble("", true)
	require.NoError(t, err)

	ks := keystore.NewBasicKeystore("test", crypto.Sr25519Type)
	subsystem := NewApprovalVoting(inmemoryDB, runtime, ks, criteria)
	subsystem.SubSystemToOverseer = overseerChan
	return subsystem
}

// storeTestBlock puts a block entry with no candidates in the store.
func storeTestBlock(t *testing.T, av *ApprovalVotingSubsystem, header *types.Header) {
	t.Helper()

	entry := BlockEntry{
		BlockHash:        header.Hash(),
		ParentHash:       header.ParentHash,
		BlockNumber:      parachaintypes.BlockNumber(header.Number),
		Session:          1,
		ApprovedBitfield: newBitfield(0),
	}
	_, err := av.store.addBlockEntry(entry, 1,
		func(parachaintypes.CandidateHash) *candidateInfo { return nil })
	require.NoError(t, err)
}

func blockNumbersOf(blocks []util.HashHeader) []uint {
	numbers := make([]uint, 0, len(blocks))
	for _, block := range blocks {
		numbers = append(numbers, block.Header.Number)
	}
	return numbers
}

func TestDetermineNewBlocks_KnownHeadIsEmpty(t *testing.T) {
	t.Parallel()

	overseerChan := make(chan any)
	chain := buildTestChain(t, 10, 5, nil)
	chain.api.serve(t, overseerChan)

	av := newTestSubsystem(t, overseerChan, nil, nil)
	head, header := chain.head()
	storeTestBlock(t, av, header)

	blocks, err := av.determineNewBlocks(head, header, 9)
	require.NoError(t, err)
	require.Empty(t, blocks)
	require.Zero(t, chain.api.ancestryCalls)
}

func TestDetermineNewBlocks_HeadBelowFinalizedIsEmpty(t *testing.T) {
	t.Parallel()

	overseerChan := make(chan any)
	chain := buildTestChain(t, 10, 5, nil)
	chain.api.serve(t, overseerChan)

	av := newTestSubsystem(t, overseerChan, nil, nil)
	head, header := chain.head()

	blocks, err := av.determineNewBlocks(head, header, 14)
	require.NoError(t, err)
	require.Empty(t, blocks)
	require.Zero(t, chain.api.ancestryCalls)
}

func TestDetermineNewBlocks_KnownParentFastPath(t *testing.T) {
	t.Parallel()

	overseerChan := make(chan any)
	chain := buildTestChain(t, 10, 5, nil)
	chain.api.serve(t, overseerChan)

	av := newTestSubsystem(t, overseerChan, nil, nil)
	_, parent := chain.headerAt(t, 13)
	storeTestBlock(t, av, parent)

	head, header := chain.head()
	blocks, err := av.determineNewBlocks(head, header, 9)
	require.NoError(t, err)
	require.Equal(t, []uint{14}, blockNumbersOf(blocks))
	// The fast path needs no ancestry lookups at all.
	require.Zero(t, chain.api.ancestryCalls)
}

func TestDetermineNewBlocks_HeadAtMinimumFastPath(t *testing.T) {
	t.Parallel()

	overseerChan := make(chan any)
	chain := buildTestChain(t, 10, 5, nil)
	chain.api.serve(t, overseerChan)

	av := newTestSubsystem(t, overseerChan, nil, nil)
	head, header := chain.head()

	blocks, err := av.determineNewBlocks(head, header, 13)
	require.NoError(t, err)
	require.Equal(t, []uint{14}, blockNumbersOf(blocks))
	require.Zero(t, chain.api.ancestryCalls)
}

func TestDetermineNewBlocks_WalksBackToFinalized(t *testing.T) {
	t.Parallel()

	overseerChan := make(chan any)
	chain := buildTestChain(t, 10, 9, nil)
	chain.api.serve(t, overseerChan)

	av := newTestSubsystem(t, overseerChan, nil, nil)
	head, header := chain.head()

	blocks, err := av.determineNewBlocks(head, header, 12)
	require.NoError(t, err)
	require.Equal(t, []uint{13, 14, 15, 16, 17, 18}, blockNumbersOf(blocks))
	// One batch of four ancestors, then the remaining one.
	require.Equal(t, 2, chain.api.ancestryCalls)
}

func TestDetermineNewBlocks_StopsAtKnownBlock(t *testing.T) {
	t.Parallel()

	overseerChan := make(chan any)
	chain := buildTestChain(t, 10, 9, nil)
	chain.api.serve(t, overseerChan)

	av := newTestSubsystem(t, overseerChan, nil, nil)
	_, known := chain.headerAt(t, 15)
	storeTestBlock(t, av, known)

	head, header := chain.head()
	blocks, err := av.determineNewBlocks(head, header, 10)
	require.NoError(t, err)
	require.Equal(t, []uint{16, 17, 18}, blockNumbersOf(blocks))
	require.Equal(t, 1, chain.api.ancestryCalls)
}

func TestDetermineNewBlocks_MissingHeaderEndsWalk(t *testing.T) {
	t.Parallel()

	overseerChan := make(chan any)
	chain := buildTestChain(t, 10, 9, nil)

	// Drop the header of block 17: the whole ancestry batch is discarded.
	missing, _ := chain.headerAt(t, 17)
	delete(chain.api.headers, missing)
	chain.api.serve(t, overseerChan)

	av := newTestSubsystem(t, overseerChan, nil, nil)
	head, header := chain.head()

	blocks, err := av.determineNewBlocks(head, header, 12)
	require.NoError(t, err)
	require.Equal(t, []uint{18}, blockNumbersOf(blocks))
	require.Equal(t, 1, chain.api.ancestryCalls)
}

func TestImportedBlockInfo_NoVRFPreDigest(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	overseerChan := make(chan any)
	chain := buildTestChain(t, 1, 1, nil)
	chain.api.serve(t, overseerChan)
	head, header := chain.head()

	keypair, err := sr25519.GenerateKeypair()
	require.NoError(t, err)

	mockRuntime := parachain.NewMockRuntimeInstance(ctrl)
	mockRuntime.EXPECT().ParachainHostCandidateEvents(head).
		Return(parachaintypes.NewCandidateEvents(), nil)
	mockRuntime.EXPECT().ParachainHostSessionIndexForChild(header.ParentHash).
		Return(parachaintypes.SessionIndex(1), nil)
	mockRuntime.EXPECT().BabeAPICurrentEpoch(head).
		Return(testBabeEpoch(t, keypair), nil)

	av := newTestSubsystem(t, overseerChan, mockRuntime, nil)
	earliest := parachaintypes.SessionIndex(1)
	av.window.earliestSession = &earliest
	av.window.sessionInfo = []parachaintypes.SessionInfo{*testSessionInfo(1)}

	info, err := av.importedBlockInfo(head, header)
	require.NoError(t, err)
	require.Nil(t, info)
}

func TestImportedBlockInfo_UndecodableCandidateEvent(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	overseerChan := make(chan any)
	chain := buildTestChain(t, 1, 1, nil)
	chain.api.serve(t, overseerChan)
	head, header := chain.head()

	// An event with no value set cannot be decoded; the block is skipped
	// before any further runtime query.
	mockRuntime := parachain.NewMockRuntimeInstance(ctrl)
	mockRuntime.EXPECT().ParachainHostCandidateEvents(head).
		Return(parachaintypes.CandidateEvents{parachaintypes.NewCandidateEvent()}, nil)

	av := newTestSubsystem(t, overseerChan, mockRuntime, nil)

	info, err := av.importedBlockInfo(head, header)
	require.NoError(t, err)
	require.Nil(t, info)
}

func TestImportedBlockInfo_MalformedVRFPreDigest(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	overseerChan := make(chan any)
	chain := buildTestChain(t, 1, 1, func(uint) types.Digest {
		// A BABE pre-runtime digest whose data is not a babe digest.
		item := types.NewDigestItem()
		require.NoError(t, item.SetValue(*types.NewBABEPreRuntimeDigest([]byte{0x2a})))

		digest := types.NewDigest()
		digest = append(digest, item)
		return digest
	})
	chain.api.serve(t, overseerChan)
	head, header := chain.head()

	keypair, err := sr25519.GenerateKeypair()
	require.NoError(t, err)

	mockRuntime := parachain.NewMockRuntimeInstance(ctrl)
	mockRuntime.EXPECT().ParachainHostCandidateEvents(head).
		Return(parachaintypes.NewCandidateEvents(), nil)
	mockRuntime.EXPECT().ParachainHostSessionIndexForChild(header.ParentHash).
		Return(parachaintypes.SessionIndex(1), nil)
	mockRuntime.EXPECT().BabeAPICurrentEpoch(head).
		Return(testBabeEpoch(t, keypair), nil)

	av := newTestSubsystem(t, overseerChan, mockRuntime, nil)
	earliest := parachaintypes.SessionIndex(1)
	av.window.earliestSession = &earliest
	av.window.sessionInfo = []parachaintypes.SessionInfo{*testSessionInfo(1)}

	info, err := av.importedBlockInfo(head, header)
	require.NoError(t, err)
	require.Nil(t, info)
}

func TestImportedBlockInfo_AncientSession(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	overseerChan := make(chan any)
	chain := buildTestChain(t, 1, 1, nil)
	chain.api.serve(t, overseerChan)
	head, header := chain.head()

	mockRuntime := parachain.NewMockRuntimeInstance(ctrl)
	mockRuntime.EXPECT().ParachainHostCandidateEvents(head).
		Return(parachaintypes.NewCandidateEvents(), nil)
	mockRuntime.EXPECT().ParachainHostSessionIndexForChild(header.ParentHash).
		Return(parachaintypes.SessionIndex(1), nil)

	av := newTestSubsystem(t, overseerChan, mockRuntime, nil)
	earliest := parachaintypes.SessionIndex(2)
	av.window.earliestSession = &earliest
	av.window.sessionInfo = []parachaintypes.SessionInfo{*testSessionInfo(2)}

	info, err := av.importedBlockInfo(head, header)
	require.NoError(t, err)
	require.Nil(t, info)
}

func includedCandidateEvent(t *testing.T, receipt parachaintypes.CandidateReceipt,
	core parachaintypes.CoreIndex, group parachaintypes.GroupIndex) parachaintypes.CandidateEvent {
	t.Helper()

	event := parachaintypes.NewCandidateEvent()
	require.NoError(t, event.SetValue(parachaintypes.CandidateIncluded{
		CandidateReceipt: receipt,
		CoreIndex:        core,
		GroupIndex:       group,
	}))
	return event
}

func TestHandleNewHead(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	keypair, err := sr25519.GenerateKeypair()
	require.NoError(t, err)
	epoch := testBabeEpoch(t, keypair)

	slotOf := func(number uint) uint64 { return 100 + uint64(number) }

	overseerChan := make(chan any)
	chain := buildTestChain(t, 1, 3, func(number uint) types.Digest {
		digest := types.NewDigest()
		digest = append(digest, signedVRFDigest(t, keypair, slotOf(number), epoch))
		return digest
	})
	chain.api.serve(t, overseerChan)
	head, _ := chain.head()

	receipt, candidateHash := testCandidateReceipt(t, common.Hash{0x01})
	core := parachaintypes.CoreIndex{Index: 2}
	includingBlock, _ := chain.headerAt(t, 2)

	mockRuntime := parachain.NewMockRuntimeInstance(ctrl)
	mockRuntime.EXPECT().ParachainHostSessionIndexForChild(gomock.Any()).
		Return(parachaintypes.SessionIndex(1), nil).AnyTimes()
	mockRuntime.EXPECT().ParachainHostSessionInfo(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ common.Hash, index parachaintypes.SessionIndex) (
			*parachaintypes.SessionInfo, error) {
			return testSessionInfo(index), nil
		}).AnyTimes()
	mockRuntime.EXPECT().BabeAPICurrentEpoch(gomock.Any()).Return(epoch, nil).AnyTimes()
	mockRuntime.EXPECT().ParachainHostCandidateEvents(gomock.Any()).
		DoAndReturn(func(blockHash common.Hash) (parachaintypes.CandidateEvents, error) {
			events := parachaintypes.NewCandidateEvents()
			if blockHash == includingBlock {
				events = append(events, includedCandidateEvent(t, receipt, core, 4))
			}
			return events, nil
		}).AnyTimes()

	mockCriteria := NewMockAssignmentCriteria(ctrl)
	mockCriteria.EXPECT().
		ComputeAssignments(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(map[parachaintypes.CoreIndex]OurAssignment{}).AnyTimes()

	av := newTestSubsystem(t, overseerChan, mockRuntime, mockCriteria)
	finalized := parachaintypes.BlockNumber(0)
	av.finalizedNumber = &finalized

	imported, err := av.HandleNewHead(head)
	require.NoError(t, err)
	require.Len(t, imported, 3)

	for i, result := range imported {
		number := uint(i + 1)
		expectedHash, _ := chain.headerAt(t, number)
		require.Equal(t, expectedHash, result.BlockHash)
		require.Equal(t, parachaintypes.BlockNumber(number), result.BlockNumber)
		// Default six second slots are twelve ticks each.
		require.Equal(t, Tick(slotOf(number)*12), result.BlockTick)
		require.Equal(t, Tick(24), result.NoShowDuration)

		known, err := av.store.isKnown(result.BlockHash)
		require.NoError(t, err)
		require.True(t, known)
	}

	require.Empty(t, imported[0].ImportedCandidates)
	require.Len(t, imported[1].ImportedCandidates, 1)
	require.Equal(t, candidateHash, imported[1].ImportedCandidates[0].CandidateHash)
	require.Empty(t, imported[2].ImportedCandidates)

	// Importing the same head again finds nothing new and announces nothing.
	importedAgain, err := av.HandleNewHead(head)
	require.NoError(t, err)
	require.Empty(t, importedAgain)

	// One batched announcement covering all imported blocks.
	announcements := chain.api.newBlocksSeen()
	require.Len(t, announcements, 1)
	metas := announcements[0]
	require.Len(t, metas, 3)
	for i, meta := range metas {
		number := uint(i + 1)
		expectedHash, expectedHeader := chain.headerAt(t, number)
		require.Equal(t, expectedHash, meta.Hash)
		require.Equal(t, expectedHeader.ParentHash, meta.ParentHash)
		require.Equal(t, parachaintypes.BlockNumber(number), meta.Number)
		require.Equal(t, slotOf(number), meta.Slot)
		require.Equal(t, parachaintypes.SessionIndex(1), meta.Session)
	}
	require.Equal(t, []parachaintypes.CandidateHash{candidateHash}, metas[1].Candidates)
}

func TestHandleNewHead_MissingHeader(t *testing.T) {
	t.Parallel()

	overseerChan := make(chan any)
	chainAPI := newTestChainAPI()
	chainAPI.serve(t, overseerChan)

	av := newTestSubsystem(t, overseerChan, nil, nil)

	imported, err := av.HandleNewHead(common.Hash{0x01})
	require.NoError(t, err)
	require.Empty(t, imported)
	require.Zero(t, chainAPI.ancestryCalls)
}

func TestHandleNewHead_SessionsUnavailable(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	overseerChan := make(chan any)
	chain := buildTestChain(t, 1, 1, nil)
	chain.api.serve(t, overseerChan)
	head, _ := chain.head()

	mockRuntime := parachain.NewMockRuntimeInstance(ctrl)
	mockRuntime.EXPECT().ParachainHostSessionIndexForChild(gomock.Any()).
		Return(parachaintypes.SessionIndex(1), nil)
	mockRuntime.EXPECT().ParachainHostSessionInfo(gomock.Any(), gomock.Any()).
		Return(nil, nil)

	av := newTestSubsystem(t, overseerChan, mockRuntime, nil)

	imported, err := av.HandleNewHead(head)
	require.NoError(t, err)
	require.Empty(t, imported)

	// Nothing was persisted and the window stayed empty.
	known, err := av.store.isKnown(head)
	require.NoError(t, err)
	require.False(t, known)
	require.Nil(t, av.window.EarliestSession())
}
