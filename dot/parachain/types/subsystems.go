// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachaintypes

import (
	"context"
)

// Subsystem is an interface for subsystems to be registered with the overseer.
type Subsystem interface {
	// Run runs the subsystem.
	Run(ctx context.Context, overseerToSubSystem chan any, subSystemToOverseer chan any)
	Name() SubSystemName
	ProcessActiveLeavesUpdateSignal(signal ActiveLeavesUpdateSignal) error
	ProcessBlockFinalizedSignal(signal BlockFinalizedSignal) error
	Stop()
}

// OverseerSystem is an interface for the overseer.
type OverseerSystem interface {
	// GetSubsystemToOverseerChannel returns the channel the subsystems use
	// to send messages to the overseer.
	GetSubsystemToOverseerChannel() chan any
	// RegisterSubsystem registers a subsystem with the overseer and returns
	// the channel the overseer will use to send messages to the subsystem.
	RegisterSubsystem(subsystem Subsystem) chan any
	Start() error
	Stop()
}
