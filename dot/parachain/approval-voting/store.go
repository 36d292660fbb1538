// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

import (
	"encoding/binary"
	"errors"
	"fmt"

	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/approval-voting/internal/database"
	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/pkg/scale"
)

const (
	blockEntryPrefix     = "blockentry"
	candidateEntryPrefix = "candidateentry"
	blocksAtHeightPrefix = "blocksatheight"
)

var errMissingCandidateInfo = errors.New("missing candidate info for included candidate")

// Bitfield is a fixed-size bitfield, one bit per tracked entity.
type Bitfield struct {
	Size uint32 `scale:"1"`
	Bits []byte `scale:"2"`
}

// newBitfield returns a bitfield of the given size with all bits unset.
func newBitfield(size uint32) Bitfield {
	return Bitfield{
		Size: size,
		Bits: make([]byte, (size+7)/8),
	}
}

// Set sets the bit at the given index.
func (b Bitfield) Set(index uint32) {
	if index >= b.Size {
		return
	}
	b.Bits[index/8] |= 1 << (index % 8)
}

// Get returns true if the bit at the given index is set.
func (b Bitfield) Get(index uint32) bool {
	if index >= b.Size {
		return false
	}
	return b.Bits[index/8]&(1<<(index%8)) != 0
}

// CoreCandidate is a candidate included by a block on a core, in the order
// of the candidate-included events of the block.
type CoreCandidate struct {
	Core      parachaintypes.CoreIndex     `scale:"1"`
	Candidate parachaintypes.CandidateHash `scale:"2"`
}

// BlockEntry is the persisted metadata of a block under approval.
type BlockEntry struct {
	BlockHash        common.Hash                  `scale:"1"`
	ParentHash       common.Hash                  `scale:"2"`
	BlockNumber      parachaintypes.BlockNumber   `scale:"3"`
	Session          parachaintypes.SessionIndex  `scale:"4"`
	Slot             uint64                       `scale:"5"`
	RelayVRFStory    parachaintypes.RelayVRFStory `scale:"6"`
	Candidates       []CoreCandidate              `scale:"7"`
	ApprovedBitfield Bitfield                     `scale:"8"`
	Children         []common.Hash                `scale:"9"`
}

// ApprovalEntry is the approval state of a candidate under a particular block.
type ApprovalEntry struct {
	BackingGroup  parachaintypes.GroupIndex `scale:"1"`
	OurAssignment *OurAssignment            `scale:"2"`
	Assignments   Bitfield                  `scale:"3"`
	Approved      bool                      `scale:"4"`
}

// BlockAssignment pairs a block hash with the approval entry of a candidate
// under that block.
type BlockAssignment struct {
	BlockHash common.Hash   `scale:"1"`
	Entry     ApprovalEntry `scale:"2"`
}

// CandidateEntry is the persisted state of a candidate under approval. The
// same candidate may be included by blocks on multiple forks, one block
// assignment per including block.
type CandidateEntry struct {
	Candidate        parachaintypes.CandidateReceipt `scale:"1"`
	Session          parachaintypes.SessionIndex     `scale:"2"`
	BlockAssignments []BlockAssignment               `scale:"3"`
	Approvals        Bitfield                        `scale:"4"`
}

// hasBlockAssignment returns true if the entry has an assignment under the
// given block.
func (c *CandidateEntry) hasBlockAssignment(blockHash common.Hash) bool {
	for _, assignment := range c.BlockAssignments {
		if assignment.BlockHash == blockHash {
			return true
		}
	}
	return false
}

// candidateInfo is the per-candidate data needed to create a candidate entry.
type candidateInfo struct {
	receipt       parachaintypes.CandidateReceipt
	backingGroup  parachaintypes.GroupIndex
	ourAssignment *OurAssignment
}

// CandidateHashEntry pairs a candidate hash with its stored entry.
type CandidateHashEntry struct {
	CandidateHash parachaintypes.CandidateHash
	Entry         CandidateEntry
}

// approvalStore persists block and candidate entries.
type approvalStore struct {
	blockEntries     database.Table
	candidateEntries database.Table
	blocksAtHeight   database.Table
}

// newApprovalStore creates a new approval store backed by the given database.
func newApprovalStore(db database.Database) *approvalStore {
	return &approvalStore{
		blockEntries:     database.NewTable(db, blockEntryPrefix),
		candidateEntries: database.NewTable(db, candidateEntryPrefix),
		blocksAtHeight:   database.NewTable(db, blocksAtHeightPrefix),
	}
}

type approvalStoreBatch struct {
	blockEntries     database.Batch
	candidateEntries database.Batch
	blocksAtHeight   database.Batch
}

func newApprovalStoreBatch(as *approvalStore) *approvalStoreBatch {
	return &approvalStoreBatch{
		blockEntries:     as.blockEntries.NewBatch(),
		candidateEntries: as.candidateEntries.NewBatch(),
		blocksAtHeight:   as.blocksAtHeight.NewBatch(),
	}
}

// flush flushes the batch and resets the batch if error during flushing.
// Candidate entries are flushed before the block entries referencing them.
func (asb *approvalStoreBatch) flush() error {
	err := asb.flushAll()
	if err != nil {
		asb.reset()
	}
	return err
}

func (asb *approvalStoreBatch) flushAll() error {
	err := asb.candidateEntries.Flush()
	if err != nil {
		return fmt.Errorf("writing candidate entries batch: %w", err)
	}
	err = asb.blockEntries.Flush()
	if err != nil {
		return fmt.Errorf("writing block entries batch: %w", err)
	}
	err = asb.blocksAtHeight.Flush()
	if err != nil {
		return fmt.Errorf("writing blocks at height batch: %w", err)
	}
	return nil
}

func (asb *approvalStoreBatch) reset() {
	asb.blockEntries.Reset()
	asb.candidateEntries.Reset()
	asb.blocksAtHeight.Reset()
}

// loadBlockEntry loads the block entry of the given block, nil if not stored.
func (as *approvalStore) loadBlockEntry(blockHash common.Hash) (*BlockEntry, error) {
	resultBytes, err := as.blockEntries.Get(blockHash[:])
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting block entry %s: %w", blockHash, err)
	}

	entry := BlockEntry{}
	err = scale.Unmarshal(resultBytes, &entry)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling block entry: %w", err)
	}
	return &entry, nil
}

// loadCandidateEntry loads the candidate entry of the given candidate, nil
// if not stored.
func (as *approvalStore) loadCandidateEntry(candidateHash parachaintypes.CandidateHash) (
	*CandidateEntry, error) {
	resultBytes, err := as.candidateEntries.Get(candidateHash.Value[:])
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting candidate entry %s: %w", candidateHash, err)
	}

	entry := CandidateEntry{}
	err = scale.Unmarshal(resultBytes, &entry)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling candidate entry: %w", err)
	}
	return &entry, nil
}

// loadBlocksAtHeight loads the hashes of the stored blocks at the given height.
func (as *approvalStore) loadBlocksAtHeight(number parachaintypes.BlockNumber) (
	[]common.Hash, error) {
	resultBytes, err := as.blocksAtHeight.Get(uint32ToBytesBigEndian(uint32(number)))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting blocks at height %d: %w", number, err)
	}

	var hashes []common.Hash
	err = scale.Unmarshal(resultBytes, &hashes)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling blocks at height: %w", err)
	}
	return hashes, nil
}

// isKnown returns true if a block entry is stored for the given block.
func (as *approvalStore) isKnown(blockHash common.Hash) (bool, error) {
	entry, err := as.loadBlockEntry(blockHash)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// addBlockEntry atomically stores the block entry, creates or merges the
// candidate entries of the candidates it includes, registers the block as a
// child of its parent and indexes it by height. Re-adding a stored block is
// a no-op returning the stored candidate entries. The candidateInfoFn must
// return the info of every candidate the entry references.
func (as *approvalStore) addBlockEntry(entry BlockEntry, nValidators uint32,
	candidateInfoFn func(parachaintypes.CandidateHash) *candidateInfo,
) ([]CandidateHashEntry, error) {
	stored, err := as.loadBlockEntry(entry.BlockHash)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return as.candidateEntriesOf(stored)
	}

	batch := newApprovalStoreBatch(as)
	candidates := make([]CandidateHashEntry, 0, len(entry.Candidates))

	for _, coreCandidate := range entry.Candidates {
		candidateEntry, err := as.loadCandidateEntry(coreCandidate.Candidate)
		if err != nil {
			return nil, err
		}

		if candidateEntry == nil {
			info := candidateInfoFn(coreCandidate.Candidate)
			if info == nil {
				return nil, fmt.Errorf("%w: %s", errMissingCandidateInfo, coreCandidate.Candidate)
			}

			candidateEntry = &CandidateEntry{
				Candidate: info.receipt,
				Session:   entry.Session,
				Approvals: newBitfield(nValidators),
			}
		}

		if !candidateEntry.hasBlockAssignment(entry.BlockHash) {
			info := candidateInfoFn(coreCandidate.Candidate)
			if info == nil {
				return nil, fmt.Errorf("%w: %s", errMissingCandidateInfo, coreCandidate.Candidate)
			}

			candidateEntry.BlockAssignments = append(candidateEntry.BlockAssignments,
				BlockAssignment{
					BlockHash: entry.BlockHash,
					Entry: ApprovalEntry{
						BackingGroup:  info.backingGroup,
						OurAssignment: info.ourAssignment,
						Assignments:   newBitfield(nValidators),
					},
				})
		}

		err = writeScale(batch.candidateEntries, coreCandidate.Candidate.Value[:], *candidateEntry)
		if err != nil {
			return nil, fmt.Errorf("writing candidate entry: %w", err)
		}

		candidates = append(candidates, CandidateHashEntry{
			CandidateHash: coreCandidate.Candidate,
			Entry:         *candidateEntry,
		})
	}

	err = writeScale(batch.blockEntries, entry.BlockHash[:], entry)
	if err != nil {
		return nil, fmt.Errorf("writing block entry: %w", err)
	}

	// Register the block as a child of its parent for chain traversal.
	parentEntry, err := as.loadBlockEntry(entry.ParentHash)
	if err != nil {
		return nil, err
	}
	if parentEntry != nil {
		parentEntry.Children = append(parentEntry.Children, entry.BlockHash)
		err = writeScale(batch.blockEntries, parentEntry.BlockHash[:], *parentEntry)
		if err != nil {
			return nil, fmt.Errorf("writing parent block entry: %w", err)
		}
	}

	atHeight, err := as.loadBlocksAtHeight(entry.BlockNumber)
	if err != nil {
		return nil, err
	}
	atHeight = append(atHeight, entry.BlockHash)
	err = writeScale(batch.blocksAtHeight, uint32ToBytesBigEndian(uint32(entry.BlockNumber)), atHeight)
	if err != nil {
		return nil, fmt.Errorf("writing blocks at height: %w", err)
	}

	if err := batch.flush(); err != nil {
		return nil, err
	}

	return candidates, nil
}

// candidateEntriesOf loads the stored candidate entries referenced by the
// given block entry.
func (as *approvalStore) candidateEntriesOf(entry *BlockEntry) ([]CandidateHashEntry, error) {
	candidates := make([]CandidateHashEntry, 0, len(entry.Candidates))
	for _, coreCandidate := range entry.Candidates {
		candidateEntry, err := as.loadCandidateEntry(coreCandidate.Candidate)
		if err != nil {
			return nil, err
		}
		if candidateEntry == nil {
			return nil, fmt.Errorf("%w: %s", errMissingCandidateInfo, coreCandidate.Candidate)
		}
		candidates = append(candidates, CandidateHashEntry{
			CandidateHash: coreCandidate.Candidate,
			Entry:         *candidateEntry,
		})
	}
	return candidates, nil
}

func writeScale(batch database.Batch, key []byte, value any) error {
	encoded, err := scale.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling value for key 0x%x: %w", key, err)
	}
	return batch.Put(key, encoded)
}

func uint32ToBytesBigEndian(value uint32) []byte {
	result := make([]byte, 4)
	binary.BigEndian.PutUint32(result, value)
	return result
}
