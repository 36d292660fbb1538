// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

import (
	"errors"
	"fmt"

	parachain "github.com/ChainSafe/approval-voting/dot/parachain/runtime"
	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/approval-voting/dot/types"
	"github.com/ChainSafe/gossamer/lib/common"
)

// approvalSessions is the number of sessions the rolling window covers.
const approvalSessions = parachaintypes.SessionIndex(6)

// ErrSessionsUnavailable is returned when one of the sessions in the
// requested range could not be loaded from the runtime.
var ErrSessionsUnavailable = errors.New("could not load all sessions of the window")

// RollingSessionWindow is a rolling cache of the session info of the last
// few sessions, contiguous and keyed by offset from the earliest session.
type RollingSessionWindow struct {
	earliestSession *parachaintypes.SessionIndex
	sessionInfo     []parachaintypes.SessionInfo
	windowSize      parachaintypes.SessionIndex
}

// NewRollingSessionWindow returns a new, empty rolling session window.
func NewRollingSessionWindow() *RollingSessionWindow {
	return &RollingSessionWindow{
		windowSize: approvalSessions,
	}
}

// EarliestSession returns the earliest cached session, nil if the window
// is empty.
func (w *RollingSessionWindow) EarliestSession() *parachaintypes.SessionIndex {
	return w.earliestSession
}

// SessionInfo returns the session info of the given session, nil if the
// session is not cached.
func (w *RollingSessionWindow) SessionInfo(index parachaintypes.SessionIndex) *parachaintypes.SessionInfo {
	if w.earliestSession == nil || index < *w.earliestSession {
		return nil
	}

	offset := int(index - *w.earliestSession)
	if offset >= len(w.sessionInfo) {
		return nil
	}
	return &w.sessionInfo[offset]
}

// LatestSession returns the latest cached session, nil if the window is empty.
func (w *RollingSessionWindow) LatestSession() *parachaintypes.SessionIndex {
	if w.earliestSession == nil || len(w.sessionInfo) == 0 {
		return nil
	}

	latest := *w.earliestSession + parachaintypes.SessionIndex(len(w.sessionInfo)-1)
	return &latest
}

// CacheSessionInfoForHead synchronizes the window with the session governing
// the given block. The window either stays as is, rolls forward keeping the
// overlapping sessions, or is replaced wholesale when the new session is
// beyond the current window. Any session that cannot be loaded aborts the
// whole update, leaving the window untouched.
func (w *RollingSessionWindow) CacheSessionInfoForHead(instance parachain.RuntimeInstance,
	blockHash common.Hash, blockHeader *types.Header) error {
	// The genesis is guaranteed to be at the beginning of the session and its
	// parent state is non-existent, so request using its own state instead.
	sessionStateHash := blockHeader.ParentHash
	if blockHeader.Number == 0 {
		sessionStateHash = blockHash
	}

	sessionIndex, err := instance.ParachainHostSessionIndexForChild(sessionStateHash)
	if err != nil {
		return fmt.Errorf("getting session index for child: %w", err)
	}

	windowStart := saturatingSub(sessionIndex, w.windowSize-1)

	if w.earliestSession == nil {
		sessions, err := loadAllSessions(instance, blockHash, windowStart, sessionIndex)
		if err != nil {
			return fmt.Errorf("%w: loading sessions %d to %d: %s",
				ErrSessionsUnavailable, windowStart, sessionIndex, err)
		}

		w.earliestSession = &windowStart
		w.sessionInfo = sessions
		return nil
	}

	latest := *w.LatestSession()
	if sessionIndex <= latest {
		// Some backwards drift in session index is acceptable.
		return nil
	}

	if latest < windowStart {
		// Window jumped: no overlap, replace wholesale.
		sessions, err := loadAllSessions(instance, blockHash, windowStart, sessionIndex)
		if err != nil {
			return fmt.Errorf("%w: loading sessions %d to %d: %s",
				ErrSessionsUnavailable, windowStart, sessionIndex, err)
		}

		w.earliestSession = &windowStart
		w.sessionInfo = sessions
		return nil
	}

	// Overlapping: load only the missing tail, then drain the prefix that
	// fell out of the window.
	sessions, err := loadAllSessions(instance, blockHash, latest+1, sessionIndex)
	if err != nil {
		return fmt.Errorf("%w: loading sessions %d to %d: %s",
			ErrSessionsUnavailable, latest+1, sessionIndex, err)
	}

	overlapStart := windowStart - *w.earliestSession
	w.sessionInfo = append(w.sessionInfo[overlapStart:], sessions...)
	w.earliestSession = &windowStart
	return nil
}

// loadAllSessions loads the session info of all sessions start..=end at the
// state of the given block. All sessions must be available.
func loadAllSessions(instance parachain.RuntimeInstance, blockHash common.Hash,
	start, end parachaintypes.SessionIndex) ([]parachaintypes.SessionInfo, error) {
	sessions := make([]parachaintypes.SessionInfo, 0, end-start+1)
	for i := start; i <= end; i++ {
		sessionInfo, err := instance.ParachainHostSessionInfo(blockHash, i)
		if err != nil {
			return nil, fmt.Errorf("getting session info for session %d: %w", i, err)
		}
		if sessionInfo == nil {
			return nil, fmt.Errorf("missing session info for session %d", i)
		}

		sessions = append(sessions, *sessionInfo)
	}

	return sessions, nil
}

func saturatingSub(a, b parachaintypes.SessionIndex) parachaintypes.SessionIndex {
	if a < b {
		return 0
	}
	return a - b
}
