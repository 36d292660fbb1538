// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package util holds the message envelopes and helpers shared by the
// parachain subsystems to talk to the chain api through the overseer.
package util

import (
	"context"
	"fmt"
	"time"

	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/approval-voting/dot/types"
	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/ChainSafe/gossamer/lib/keystore"
)

const timeout = 10 * time.Second

// SigningKeyAndIndex finds the first key we can sign with from the given set of validators,
// if any, and returns it along with the validator index.
func SigningKeyAndIndex(
	validators []parachaintypes.ValidatorID,
	ks keystore.Keystore,
) (*parachaintypes.ValidatorID, parachaintypes.ValidatorIndex) {
	for i, validator := range validators {
		publicKey, _ := sr25519.NewPublicKey(validator[:])
		keypair := ks.GetKeypair(publicKey)

		if keypair != nil {
			return &validator, parachaintypes.ValidatorIndex(i)
		}
	}
	return nil, 0
}

// HashHeader is a header along with its hash.
type HashHeader struct {
	Hash   common.Hash
	Header types.Header
}

// ChainAPIMessage is a message to the chain api subsystem with a
// channel for the response.
type ChainAPIMessage[message any] struct {
	Message         message
	ResponseChannel chan any
}

// Ancestors requests the k ancestors of the block with the given hash,
// not including the block itself.
type Ancestors struct {
	Hash common.Hash
	K    uint32
}

// AncestorsResponse is the response to an Ancestors request, hashes in
// descending order by block height.
type AncestorsResponse struct {
	Ancestors []common.Hash
	Error     error
}

// BlockHeader requests the header of the block with the given hash.
type BlockHeader struct {
	Hash common.Hash
}

// BlockHeaderResponse is the response to a BlockHeader request. The header
// is nil if the block is not known.
type BlockHeaderResponse struct {
	Header *types.Header
	Error  error
}

// FinalizedBlockNumber requests the block number of the last finalized block.
type FinalizedBlockNumber struct{}

// FinalizedBlockNumberResponse is the response to a FinalizedBlockNumber request.
type FinalizedBlockNumberResponse struct {
	Number parachaintypes.BlockNumber
	Error  error
}

// GetBlockAncestors sends a message to the overseer to get the ancestors of a block.
func GetBlockAncestors(
	overseerChannel chan<- any,
	head common.Hash,
	numAncestors uint32,
) ([]common.Hash, error) {
	respChan := make(chan any, 1)
	message := ChainAPIMessage[Ancestors]{
		Message: Ancestors{
			Hash: head,
			K:    numAncestors,
		},
		ResponseChannel: respChan,
	}
	res, err := Call(overseerChannel, message, message.ResponseChannel)
	if err != nil {
		return nil, fmt.Errorf("sending message to get block ancestors: %w", err)
	}

	response, ok := res.(AncestorsResponse)
	if !ok {
		return nil, fmt.Errorf("getting block ancestors: got unexpected response type %T", res)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("getting block ancestors: %w", response.Error)
	}

	return response.Ancestors, nil
}

// GetBlockHeader sends a message to the overseer to get the header of a block.
// The returned header is nil if the block is not known to the chain api.
func GetBlockHeader(overseerChannel chan<- any, hash common.Hash) (*types.Header, error) {
	respChan := make(chan any, 1)
	message := ChainAPIMessage[BlockHeader]{
		Message: BlockHeader{
			Hash: hash,
		},
		ResponseChannel: respChan,
	}
	res, err := Call(overseerChannel, message, message.ResponseChannel)
	if err != nil {
		return nil, fmt.Errorf("sending message to get block header: %w", err)
	}

	response, ok := res.(BlockHeaderResponse)
	if !ok {
		return nil, fmt.Errorf("getting block header: got unexpected response type %T", res)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("getting block header: %w", response.Error)
	}

	return response.Header, nil
}

// GetFinalizedBlockNumber sends a message to the overseer to get the number of
// the last finalized block.
func GetFinalizedBlockNumber(overseerChannel chan<- any) (parachaintypes.BlockNumber, error) {
	respChan := make(chan any, 1)
	message := ChainAPIMessage[FinalizedBlockNumber]{
		Message:         FinalizedBlockNumber{},
		ResponseChannel: respChan,
	}
	res, err := Call(overseerChannel, message, message.ResponseChannel)
	if err != nil {
		return 0, fmt.Errorf("sending message to get finalized block number: %w", err)
	}

	response, ok := res.(FinalizedBlockNumberResponse)
	if !ok {
		return 0, fmt.Errorf("getting finalized block number: got unexpected response type %T", res)
	}
	if response.Error != nil {
		return 0, fmt.Errorf("getting finalized block number: %w", response.Error)
	}

	return response.Number, nil
}

// Call sends the given message to the given channel and waits for a response with a timeout
func Call(channel chan<- any, message any, responseChan chan any) (any, error) {
	if err := SendMessage(channel, message); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case response := <-responseChan:
		return response, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendMessage sends the given message to the given channel with a timeout
func SendMessage(channel chan<- any, message any) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case channel <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
