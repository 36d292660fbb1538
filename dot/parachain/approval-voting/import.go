// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

import (
	"context"
	"errors"
	"fmt"
	"time"

	approvaldistribution "github.com/ChainSafe/approval-voting/dot/parachain/approval-distribution"
	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/approval-voting/dot/parachain/util"
	"github.com/ChainSafe/approval-voting/dot/types"
	"github.com/ChainSafe/gossamer/lib/common"
)

// ancestryChunkSize is the number of ancestor hashes requested per batch
// while walking back to the last known block.
const ancestryChunkSize = uint(4)

const headerFetchTimeout = 10 * time.Second

// IncludedCandidate is a candidate included by a block, with the core it
// occupied and the group that backed it.
type IncludedCandidate struct {
	CandidateHash parachaintypes.CandidateHash
	Receipt       parachaintypes.CandidateReceipt
	Core          parachaintypes.CoreIndex
	Group         parachaintypes.GroupIndex
}

// ImportedBlockInfo is the per-block information gathered while importing a
// block, consumed immediately to build the persisted entries.
type ImportedBlockInfo struct {
	IncludedCandidates []IncludedCandidate
	SessionIndex       parachaintypes.SessionIndex
	Assignments        map[parachaintypes.CoreIndex]OurAssignment
	NValidators        uint32
	RelayVRFStory      parachaintypes.RelayVRFStory
	Slot               uint64
}

// BlockImportedCandidates is the result of importing one block: the
// candidates now pending approval and the scheduling parameters for them.
type BlockImportedCandidates struct {
	BlockHash          common.Hash
	BlockNumber        parachaintypes.BlockNumber
	BlockTick          Tick
	NoShowDuration     Tick
	ImportedCandidates []CandidateHashEntry
}

// determineNewBlocks returns the blocks above the lower bound not yet
// tracked in the store, walking back from the given head, oldest first. The
// walk is best-effort: ancestry or header lookup failures end the walk with
// what has been gathered so far.
func (av *ApprovalVotingSubsystem) determineNewBlocks(head common.Hash, header *types.Header,
	lowerBound parachaintypes.BlockNumber) ([]util.HashHeader, error) {
	minBlockNeeded := uint(lowerBound) + 1

	// Early exit if the block is in the store or too early.
	alreadyKnown, err := av.store.isKnown(head)
	if err != nil {
		return nil, fmt.Errorf("checking block entry for head: %w", err)
	}

	beforeRelevant := header.Number < minBlockNeeded
	if alreadyKnown || beforeRelevant {
		return []util.HashHeader{}, nil
	}

	headerClone, err := header.DeepCopy()
	if err != nil {
		return nil, fmt.Errorf("deep copying header: %w", err)
	}

	ancestry := []util.HashHeader{{Hash: head, Header: *headerClone}}

	// Early exit if the parent hash is in the store or no further blocks
	// are needed.
	parentKnown, err := av.store.isKnown(header.ParentHash)
	if err != nil {
		return nil, fmt.Errorf("checking block entry for parent: %w", err)
	}
	if parentKnown || header.Number == minBlockNeeded {
		return ancestry, nil
	}

walk:
	for {
		last := ancestry[len(ancestry)-1]
		// This is always non-zero as determined by the loop invariant above.
		ancestryStep := min(ancestryChunkSize, last.Header.Number-minBlockNeeded)

		batchHashes, err := util.GetBlockAncestors(av.SubSystemToOverseer, last.Hash,
			uint32(ancestryStep))
		if err != nil {
			logger.Debugf("ending ancestry walk at %s: %s", last.Hash, err)
			break walk
		}

		// All headers of the batch must resolve, or the batch is discarded
		// and the walk ends here.
		batchHeaders, err := av.fetchBlockHeaders(batchHashes)
		if err != nil {
			logger.Debugf("ending ancestry walk at %s: %s", last.Hash, err)
			break walk
		}

		for i, hash := range batchHashes {
			batchHeader := batchHeaders[i]

			known, err := av.store.isKnown(hash)
			if err != nil {
				return nil, fmt.Errorf("checking block entry for ancestor: %w", err)
			}

			relevant := batchHeader.Number >= minBlockNeeded
			if known || !relevant {
				break walk
			}

			ancestry = append(ancestry, util.HashHeader{Hash: hash, Header: batchHeader})

			if batchHeader.Number == minBlockNeeded {
				break walk
			}
		}
	}

	// Reverse so the oldest block comes first.
	for i, j := 0, len(ancestry)-1; i < j; i, j = i+1, j-1 {
		ancestry[i], ancestry[j] = ancestry[j], ancestry[i]
	}

	return ancestry, nil
}

// fetchBlockHeaders requests the headers of all given hashes concurrently
// and awaits them in order. A missing header fails the whole batch.
func (av *ApprovalVotingSubsystem) fetchBlockHeaders(hashes []common.Hash) ([]types.Header, error) {
	responseChannels := make([]chan any, len(hashes))
	for i, hash := range hashes {
		respChan := make(chan any, 1)
		responseChannels[i] = respChan

		message := util.ChainAPIMessage[util.BlockHeader]{
			Message:         util.BlockHeader{Hash: hash},
			ResponseChannel: respChan,
		}
		if err := util.SendMessage(av.SubSystemToOverseer, message); err != nil {
			return nil, fmt.Errorf("sending message to get block header: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), headerFetchTimeout)
	defer cancel()

	headers := make([]types.Header, 0, len(hashes))
	for i, respChan := range responseChannels {
		var res any
		select {
		case res = <-respChan:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		response, ok := res.(util.BlockHeaderResponse)
		if !ok {
			return nil, fmt.Errorf("getting block header: got unexpected response type %T", res)
		}
		if response.Error != nil {
			return nil, fmt.Errorf("getting block header: %w", response.Error)
		}
		if response.Header == nil {
			return nil, fmt.Errorf("unknown block header %s", hashes[i])
		}

		headers = append(headers, *response.Header)
	}

	return headers, nil
}

// importedBlockInfo gathers the information needed to import the given
// block. A nil result means the block cannot be used for approvals and is
// skipped, never an abort of the whole import.
func (av *ApprovalVotingSubsystem) importedBlockInfo(blockHash common.Hash,
	header *types.Header) (*ImportedBlockInfo, error) {
	events, err := av.runtime.ParachainHostCandidateEvents(blockHash)
	if err != nil {
		logger.Debugf("skipping block %s: getting candidate events: %s", blockHash, err)
		return nil, nil
	}

	includedCandidates, err := includedCandidates(events)
	if err != nil {
		logger.Debugf("skipping block %s: extracting included candidates: %s", blockHash, err)
		return nil, nil
	}

	// The session of a block is the session of its parent state, since
	// session changes take effect at the first block of the new session.
	sessionIndex, err := av.runtime.ParachainHostSessionIndexForChild(header.ParentHash)
	if err != nil {
		logger.Debugf("skipping block %s: getting session index: %s", blockHash, err)
		return nil, nil
	}

	earliest := av.window.EarliestSession()
	if earliest == nil || sessionIndex < *earliest {
		logger.Debugf("block %s is from ancient session %d, skipping", blockHash, sessionIndex)
		return nil, nil
	}

	// The BABE epoch is queried at the block's own post-state: epoch
	// transitions are announced by the block itself, unlike session changes.
	babeEpoch, err := av.runtime.BabeAPICurrentEpoch(blockHash)
	if err != nil {
		logger.Debugf("skipping block %s: getting babe epoch: %s", blockHash, err)
		return nil, nil
	}

	vrfInfo, err := extractBabeVRFInfo(header)
	if err != nil {
		logger.Debugf("skipping block %s: extracting babe vrf info: %s", blockHash, err)
		return nil, nil
	}
	if vrfInfo == nil {
		logger.Debugf("block %s has no vrf pre-digest, skipping", blockHash)
		return nil, nil
	}

	relayVRFStory, err := computeRelayVRFStory(vrfInfo, babeEpoch)
	if err != nil {
		logger.Debugf("skipping block %s: computing relay vrf story: %s", blockHash, err)
		return nil, nil
	}

	sessionInfo := av.window.SessionInfo(sessionIndex)
	if sessionInfo == nil {
		logger.Debugf("session %d is not cached, skipping block %s", sessionIndex, blockHash)
		return nil, nil
	}

	leavingCores := make([]LeavingCore, 0, len(includedCandidates))
	for _, included := range includedCandidates {
		leavingCores = append(leavingCores, LeavingCore{
			CandidateHash: included.CandidateHash,
			CoreIndex:     included.Core,
			GroupIndex:    included.Group,
		})
	}

	assignments := av.criteria.ComputeAssignments(av.keystore, relayVRFStory,
		newConfig(sessionInfo), leavingCores)

	return &ImportedBlockInfo{
		IncludedCandidates: includedCandidates,
		SessionIndex:       sessionIndex,
		Assignments:        assignments,
		NValidators:        uint32(len(sessionInfo.Validators)),
		RelayVRFStory:      relayVRFStory,
		Slot:               vrfInfo.slot,
	}, nil
}

// includedCandidates extracts the candidate-included events.
func includedCandidates(events parachaintypes.CandidateEvents) ([]IncludedCandidate, error) {
	included := make([]IncludedCandidate, 0, len(events))
	for _, event := range events {
		value, err := event.Value()
		if err != nil {
			return nil, fmt.Errorf("getting candidate event value: %w", err)
		}

		includedEvent, ok := value.(parachaintypes.CandidateIncluded)
		if !ok {
			continue
		}

		candidateHash, err := includedEvent.CandidateReceipt.Hash()
		if err != nil {
			return nil, fmt.Errorf("hashing candidate receipt: %w", err)
		}

		included = append(included, IncludedCandidate{
			CandidateHash: candidateHash,
			Receipt:       includedEvent.CandidateReceipt,
			Core:          includedEvent.CoreIndex,
			Group:         includedEvent.GroupIndex,
		})
	}
	return included, nil
}

// HandleNewHead imports all new blocks discovered walking back from the
// given head and returns the candidate-import results of the blocks that
// were imported, oldest first. Failures degrade to an empty result; the
// next head notification re-attempts discovery.
func (av *ApprovalVotingSubsystem) HandleNewHead(head common.Hash) ([]BlockImportedCandidates, error) {
	header, err := util.GetBlockHeader(av.SubSystemToOverseer, head)
	if err != nil {
		logger.Warnf("getting header for new head %s: %s", head, err)
		return nil, nil
	}
	if header == nil {
		logger.Warnf("missing header for new head %s", head)
		return nil, nil
	}

	// Stale session info must never be used to derive assignments, so a
	// failed cache update stops the import of this head entirely.
	err = av.window.CacheSessionInfoForHead(av.runtime, head, header)
	if err != nil {
		if errors.Is(err, ErrSessionsUnavailable) {
			logger.Debugf("sessions unavailable for head %s: %s", head, err)
		} else {
			logger.Warnf("updating session window for head %s: %s", head, err)
		}
		return nil, nil
	}

	lowerBound := av.finalizedNumber
	if lowerBound == nil {
		// No finality notification yet: assume nothing below the parent
		// is of interest.
		number := parachaintypes.BlockNumber(saturatingSubUint(header.Number, 1))
		lowerBound = &number
	}

	newBlocks, err := av.determineNewBlocks(head, header, *lowerBound)
	if err != nil {
		logger.Warnf("determining new blocks for head %s: %s", head, err)
		return nil, nil
	}

	imported := make([]BlockImportedCandidates, 0, len(newBlocks))
	approvalMeta := make(approvaldistribution.NewBlocks, 0, len(newBlocks))

	for _, block := range newBlocks {
		blockHeader := block.Header
		info, err := av.importedBlockInfo(block.Hash, &blockHeader)
		if err != nil {
			return nil, fmt.Errorf("gathering block info for %s: %w", block.Hash, err)
		}
		if info == nil {
			continue
		}

		result, err := av.importBlock(block.Hash, &blockHeader, info)
		if err != nil {
			return nil, fmt.Errorf("importing block %s: %w", block.Hash, err)
		}

		candidateHashes := make([]parachaintypes.CandidateHash, 0, len(info.IncludedCandidates))
		for _, included := range info.IncludedCandidates {
			candidateHashes = append(candidateHashes, included.CandidateHash)
		}

		approvalMeta = append(approvalMeta, approvaldistribution.BlockApprovalMeta{
			Hash:       block.Hash,
			Number:     parachaintypes.BlockNumber(blockHeader.Number),
			ParentHash: blockHeader.ParentHash,
			Candidates: candidateHashes,
			Slot:       info.Slot,
			Session:    info.SessionIndex,
		})

		imported = append(imported, *result)
	}

	if len(approvalMeta) > 0 {
		if err := util.SendMessage(av.SubSystemToOverseer, approvalMeta); err != nil {
			logger.Errorf("sending approval meta downstream: %s", err)
		}
	}

	logger.Tracef("head %s imported %d new blocks", head, len(imported))
	return imported, nil
}

// importBlock persists the entries of one block and computes its approval
// scheduling parameters.
func (av *ApprovalVotingSubsystem) importBlock(blockHash common.Hash, header *types.Header,
	info *ImportedBlockInfo) (*BlockImportedCandidates, error) {
	sessionInfo := av.window.SessionInfo(info.SessionIndex)
	if sessionInfo == nil {
		return nil, fmt.Errorf("session %d dropped from window during import", info.SessionIndex)
	}

	coreCandidates := make([]CoreCandidate, 0, len(info.IncludedCandidates))
	infoByCandidate := make(map[parachaintypes.CandidateHash]*candidateInfo,
		len(info.IncludedCandidates))
	for _, included := range info.IncludedCandidates {
		coreCandidates = append(coreCandidates, CoreCandidate{
			Core:      included.Core,
			Candidate: included.CandidateHash,
		})

		var ourAssignment *OurAssignment
		if assignment, ok := info.Assignments[included.Core]; ok {
			assignment := assignment
			ourAssignment = &assignment
		}
		infoByCandidate[included.CandidateHash] = &candidateInfo{
			receipt:       included.Receipt,
			backingGroup:  included.Group,
			ourAssignment: ourAssignment,
		}
	}

	entry := BlockEntry{
		BlockHash:        blockHash,
		ParentHash:       header.ParentHash,
		BlockNumber:      parachaintypes.BlockNumber(header.Number),
		Session:          info.SessionIndex,
		Slot:             info.Slot,
		RelayVRFStory:    info.RelayVRFStory,
		Candidates:       coreCandidates,
		ApprovedBitfield: newBitfield(uint32(len(coreCandidates))),
	}

	candidates, err := av.store.addBlockEntry(entry, info.NValidators,
		func(hash parachaintypes.CandidateHash) *candidateInfo {
			return infoByCandidate[hash]
		})
	if err != nil {
		return nil, err
	}

	return &BlockImportedCandidates{
		BlockHash:          blockHash,
		BlockNumber:        entry.BlockNumber,
		BlockTick:          slotNumberToTick(av.slotDurationMillis, info.Slot),
		NoShowDuration:     slotNumberToTick(av.slotDurationMillis, uint64(sessionInfo.NoShowSlots)),
		ImportedCandidates: candidates,
	}, nil
}

func min(a, b uint) uint {
	if a < b {
		return a
	}
	return b
}

func saturatingSubUint(a, b uint) uint {
	if a < b {
		return 0
	}
	return a - b
}
