/*
ppc32jit - Outer cooperative run loop.

Adapted from the teacher's emu/core (_examples/rcornwell-S370/emu/core):
a goroutine owns the guest CPU, runs while core.running is true, and
drains a command channel between instruction slices. The teacher's
version drives an S/370 CPU and a telnet/device master channel; this
one drives internal/executor's PPC JIT engine instead and trims the
command set to what a JIT-focused harness needs (IPL, start, stop) —
there is no telnet console or device subsystem in this spec's scope.
*/
package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/ppc32jit/internal/codebuf"
	"github.com/rcornwell/ppc32jit/internal/cpu"
	"github.com/rcornwell/ppc32jit/internal/executor"
)

// Command is one control message sent to a running Core, mirroring the
// teacher's master.Packet in shape (a tag plus a small payload) but
// scoped to what this core actually needs.
type Command struct {
	Msg  CommandMsg
	Addr uint32 // IPL / entry address for CmdIPL
}

// CommandMsg enumerates the commands a Core accepts.
type CommandMsg int

const (
	CmdStart CommandMsg = iota
	CmdStop
	CmdIPL
)

// Core owns one guest CPU's compile-then-run loop in its own goroutine,
// matching the teacher's core.Start/core.Stop lifecycle exactly:
// a done channel for shutdown, a running flag gating the step loop, and
// a command channel drained once per iteration via a non-blocking select.
type Core struct {
	wg      sync.WaitGroup
	done    chan struct{}
	cmd     chan Command
	running bool

	Engine *executor.Engine
}

// New constructs a Core around a freshly constructed guest CPU with
// ramBytes of physical memory.
func New(ramBytes uint32) *Core {
	c := cpu.New(ramBytes)
	pages := codebuf.NewPool(false)
	return &Core{
		done:   make(chan struct{}),
		cmd:    make(chan Command, 8),
		Engine: executor.New(c, pages),
	}
}

// Send enqueues a command for the running core, matching the teacher's
// pattern of posting master.Packet values into core.master.
func (c *Core) Send(cmd Command) { c.cmd <- cmd }

// Start runs the compile-then-run loop until Stop is called, stepping
// in small slices so command processing and shutdown stay responsive
// (the teacher's CycleCPU plays the same role with an instruction-count
// return value).
func (c *Core) Start() {
	c.wg.Add(1)
	defer c.wg.Done()

	const slice = 4096
	for {
		select {
		case <-c.done:
			slog.Info("ppc32jit: core shutting down")
			return
		case cmd := <-c.cmd:
			c.process(cmd)
		default:
		}

		if !c.running {
			time.Sleep(time.Millisecond)
			continue
		}

		if _, exc := c.Engine.Run(slice); exc != 0 {
			slog.Error(fmt.Sprintf("ppc32jit: guest exception %d at IA %#x", exc, c.Engine.CPU.IA))
			c.running = false
		}
	}
}

// Stop signals Start's loop to return and waits (bounded) for it to
// exit, exactly as the teacher's core.Stop does.
func (c *Core) Stop() {
	close(c.done)
	waited := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		slog.Warn("ppc32jit: timed out waiting for core to stop")
	}
}

func (c *Core) process(cmd Command) {
	switch cmd.Msg {
	case CmdStart:
		c.running = true
	case CmdStop:
		c.running = false
	case CmdIPL:
		c.Engine.CPU.IA = cmd.Addr
		c.running = true
	}
}
