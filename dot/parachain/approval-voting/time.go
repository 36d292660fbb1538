// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package approvalvoting

// Tick is a discretized unit of time used to schedule approval checks.
type Tick uint64

// tickDurationMillis is the duration of one tick.
const tickDurationMillis uint64 = 500

// slotNumberToTick converts a slot number to a tick, given the slot
// duration of the chain.
func slotNumberToTick(slotDurationMillis uint64, slot uint64) Tick {
	ticksPerSlot := slotDurationMillis / tickDurationMillis
	return Tick(slot * ticksPerSlot)
}
