// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package overseer

import (
	"context"
	"sync"
	"time"

	approvaldistribution "github.com/ChainSafe/approval-voting/dot/parachain/approval-distribution"
	parachaintypes "github.com/ChainSafe/approval-voting/dot/parachain/types"
	"github.com/ChainSafe/approval-voting/dot/parachain/util"
	"github.com/ChainSafe/approval-voting/internal/log"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "parachain-overseer"))

type Overseer struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	errChan              chan error
	SubsystemsToOverseer chan any
	subsystems           map[parachaintypes.Subsystem]chan any
	nameToSubsystem      map[parachaintypes.SubSystemName]parachaintypes.Subsystem
}

// NewOverseer returns a new overseer with no subsystems registered.
func NewOverseer() *Overseer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Overseer{
		ctx:                  ctx,
		cancel:               cancel,
		errChan:              make(chan error),
		SubsystemsToOverseer: make(chan any),
		subsystems:           make(map[parachaintypes.Subsystem]chan any),
		nameToSubsystem:      make(map[parachaintypes.SubSystemName]parachaintypes.Subsystem),
	}
}

// GetSubsystemToOverseerChannel returns the channel the subsystems use to
// send messages to the overseer.
func (o *Overseer) GetSubsystemToOverseerChannel() chan any {
	return o.SubsystemsToOverseer
}

// RegisterSubsystem registers a subsystem with the overseer and returns the
// channel the overseer will use to send messages to the subsystem.
func (o *Overseer) RegisterSubsystem(subsystem parachaintypes.Subsystem) chan any {
	overseerToSubSystem := make(chan any)
	o.subsystems[subsystem] = overseerToSubSystem
	o.nameToSubsystem[subsystem.Name()] = subsystem

	return overseerToSubSystem
}

func (o *Overseer) Start() error {
	for subsystem, overseerToSubSystem := range o.subsystems {
		o.wg.Add(1)
		go func(sub parachaintypes.Subsystem, overseerToSubSystem chan any) {
			sub.Run(o.ctx, overseerToSubSystem, o.SubsystemsToOverseer)
			logger.Infof("subsystem %s stopped", sub.Name())
			o.wg.Done()
		}(subsystem, overseerToSubSystem)
	}

	go o.processMessages()
	return nil
}

func (o *Overseer) processMessages() {
	for {
		select {
		case msg := <-o.SubsystemsToOverseer:
			switch msg.(type) {
			case approvaldistribution.NewBlocks:
				o.routeMessage(parachaintypes.ApprovalDistribution, msg)
			case util.ChainAPIMessage[util.Ancestors],
				util.ChainAPIMessage[util.BlockHeader],
				util.ChainAPIMessage[util.FinalizedBlockNumber]:
				o.routeMessage(parachaintypes.ChainAPI, msg)
			default:
				logger.Errorf("unknown message type %T", msg)
			}
		case <-o.ctx.Done():
			if err := o.ctx.Err(); err != nil {
				logger.Errorf("ctx error: %v", err)
			}
			logger.Info("overseer stopping")
			return
		}
	}
}

// routeMessage forwards the message to the subsystem registered under the
// given name, if any.
func (o *Overseer) routeMessage(name parachaintypes.SubSystemName, msg any) {
	subsystem, ok := o.nameToSubsystem[name]
	if !ok {
		logger.Warnf("no %s subsystem registered, dropping %T", name, msg)
		return
	}
	if err := util.SendMessage(o.subsystems[subsystem], msg); err != nil {
		logger.Errorf("sending message to %s: %s", name, err)
	}
}

// BroadcastSignal sends the given overseer signal to all registered subsystems.
func (o *Overseer) BroadcastSignal(signal any) {
	for _, overseerToSubSystem := range o.subsystems {
		if err := util.SendMessage(overseerToSubSystem, signal); err != nil {
			logger.Errorf("broadcasting signal: %s", err)
		}
	}
}

func (o *Overseer) Stop() {
	o.cancel()

	for subsystem := range o.subsystems {
		subsystem.Stop()
	}

	// close the errorChan to unblock any listeners on the errChan
	close(o.errChan)

	timedOut := waitTimeout(&o.wg, 5*time.Second)
	if timedOut {
		logger.Warn("timed out waiting for subsystems to stop")
	}
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) (timeouted bool) {
	c := make(chan struct{})
	go func() {
		defer close(c)
		wg.Wait()
	}()
	timeoutTimer := time.NewTimer(timeout)
	select {
	case <-c:
		if !timeoutTimer.Stop() {
			<-timeoutTimer.C
		}
		return false // completed normally
	case <-timeoutTimer.C:
		return true // timed out
	}
}
