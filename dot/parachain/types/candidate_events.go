// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachaintypes

import (
	"fmt"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

// CandidateBacked means this candidate receipt was backed in the most recent block.
type CandidateBacked struct {
	CandidateReceipt CandidateReceipt `scale:"1"`
	HeadData         HeadData         `scale:"2"`
	CoreIndex        CoreIndex        `scale:"3"`
	GroupIndex       GroupIndex       `scale:"4"`
}

// CandidateIncluded means this candidate receipt was included and became
// a parablock at the most recent block.
type CandidateIncluded struct {
	CandidateReceipt CandidateReceipt `scale:"1"`
	HeadData         HeadData         `scale:"2"`
	CoreIndex        CoreIndex        `scale:"3"`
	GroupIndex       GroupIndex       `scale:"4"`
}

// CandidateTimedOut means this candidate receipt was not made available
// in time and timed out.
type CandidateTimedOut struct {
	CandidateReceipt CandidateReceipt `scale:"1"`
	HeadData         HeadData         `scale:"2"`
	CoreIndex        CoreIndex        `scale:"3"`
}

// CandidateEventValues are the possible candidate event values.
type CandidateEventValues interface {
	CandidateBacked | CandidateIncluded | CandidateTimedOut
}

// CandidateEvent is a candidate event emitted by the runtime for a block.
type CandidateEvent struct {
	inner any
}

func setCandidateEvent[Value CandidateEventValues](mvdt *CandidateEvent, value Value) {
	mvdt.inner = value
}

func (mvdt *CandidateEvent) SetValue(value any) (err error) {
	switch value := value.(type) {
	case CandidateBacked:
		setCandidateEvent(mvdt, value)
		return

	case CandidateIncluded:
		setCandidateEvent(mvdt, value)
		return

	case CandidateTimedOut:
		setCandidateEvent(mvdt, value)
		return

	default:
		return fmt.Errorf("unsupported type")
	}
}

func (mvdt CandidateEvent) IndexValue() (index uint, value any, err error) {
	switch mvdt.inner.(type) {
	case CandidateBacked:
		return 0, mvdt.inner, nil

	case CandidateIncluded:
		return 1, mvdt.inner, nil

	case CandidateTimedOut:
		return 2, mvdt.inner, nil

	}
	return 0, nil, scale.ErrUnsupportedVaryingDataTypeValue
}

func (mvdt CandidateEvent) Value() (value any, err error) {
	_, value, err = mvdt.IndexValue()
	return
}

func (mvdt CandidateEvent) ValueAt(index uint) (value any, err error) {
	switch index {
	case 0:
		return *new(CandidateBacked), nil

	case 1:
		return *new(CandidateIncluded), nil

	case 2:
		return *new(CandidateTimedOut), nil

	}
	return nil, scale.ErrUnknownVaryingDataTypeValue
}

// NewCandidateEvent returns a new candidate event varying data type
func NewCandidateEvent() CandidateEvent {
	return CandidateEvent{}
}

// CandidateEvents is a slice of candidate events
type CandidateEvents []CandidateEvent

// NewCandidateEvents returns a new empty CandidateEvents
func NewCandidateEvents() CandidateEvents {
	return CandidateEvents{}
}
