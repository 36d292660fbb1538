// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

// ConsensusEngineID is a 4-character identifier of the consensus engine
// that produced the digest.
type ConsensusEngineID [4]byte

// BabeEngineID is the hard-coded babe ID
var BabeEngineID = ConsensusEngineID{'B', 'A', 'B', 'E'}

// GrandpaEngineID is the hard-coded grandpa ID
var GrandpaEngineID = ConsensusEngineID{'F', 'R', 'N', 'K'}

// PreRuntimeDigest contains messages from the consensus engines to the runtime.
type PreRuntimeDigest struct {
	ConsensusEngineID ConsensusEngineID
	Data              []byte
}

// NewBABEPreRuntimeDigest returns a PreRuntimeDigest with the BABE consensus ID
func NewBABEPreRuntimeDigest(data []byte) *PreRuntimeDigest {
	return &PreRuntimeDigest{
		ConsensusEngineID: BabeEngineID,
		Data:              data,
	}
}

// String returns the digest as a string
func (d PreRuntimeDigest) String() string {
	return fmt.Sprintf("PreRuntimeDigest ConsensusEngineID=%s Data=0x%x",
		d.ConsensusEngineID, d.Data)
}

// ConsensusDigest contains messages from the runtime to the consensus engine.
type ConsensusDigest struct {
	ConsensusEngineID ConsensusEngineID
	Data              []byte
}

// String returns the digest as a string
func (d ConsensusDigest) String() string {
	return fmt.Sprintf("ConsensusDigest ConsensusEngineID=%s Data=0x%x",
		d.ConsensusEngineID, d.Data)
}

// SealDigest contains the seal or signature. This is only used by native code.
type SealDigest struct {
	ConsensusEngineID ConsensusEngineID
	Data              []byte
}

// String returns the digest as a string
func (d SealDigest) String() string {
	return fmt.Sprintf("SealDigest ConsensusEngineID=%s Data=0x%x",
		d.ConsensusEngineID, d.Data)
}

// DigestItemValues are the possible digest item values.
type DigestItemValues interface {
	PreRuntimeDigest | ConsensusDigest | SealDigest
}

// DigestItem is a varying date type that can accept different
// digest item values.
type DigestItem struct {
	inner any
}

func setDigestItem[Value DigestItemValues](mvdt *DigestItem, value Value) {
	mvdt.inner = value
}

func (mvdt *DigestItem) SetValue(value any) (err error) {
	switch value := value.(type) {
	case PreRuntimeDigest:
		setDigestItem(mvdt, value)
		return

	case ConsensusDigest:
		setDigestItem(mvdt, value)
		return

	case SealDigest:
		setDigestItem(mvdt, value)
		return

	default:
		return fmt.Errorf("unsupported type")
	}
}

func (mvdt DigestItem) IndexValue() (index uint, value any, err error) {
	switch mvdt.inner.(type) {
	case PreRuntimeDigest:
		return 6, mvdt.inner, nil

	case ConsensusDigest:
		return 4, mvdt.inner, nil

	case SealDigest:
		return 5, mvdt.inner, nil

	}
	return 0, nil, scale.ErrUnsupportedVaryingDataTypeValue
}

func (mvdt DigestItem) Value() (value any, err error) {
	_, value, err = mvdt.IndexValue()
	return
}

func (mvdt DigestItem) ValueAt(index uint) (value any, err error) {
	switch index {
	case 6:
		return *new(PreRuntimeDigest), nil

	case 4:
		return *new(ConsensusDigest), nil

	case 5:
		return *new(SealDigest), nil

	}
	return nil, scale.ErrUnknownVaryingDataTypeValue
}

// String returns the digest item value as a string
func (mvdt DigestItem) String() string {
	value, err := mvdt.Value()
	if err != nil {
		return "DigestItem()"
	}
	stringer, ok := value.(fmt.Stringer)
	if !ok {
		return fmt.Sprintf("DigestItem(%v)", value)
	}
	return stringer.String()
}

// NewDigestItem returns a new digest item varying data type
func NewDigestItem() DigestItem {
	return DigestItem{}
}

// Digest is a block digest, a slice of digest items.
type Digest []DigestItem

// NewDigest returns a new Digest
func NewDigest() Digest {
	return Digest{}
}
