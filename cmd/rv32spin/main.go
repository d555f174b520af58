// Command rv32spin boots an FE310-class RV32I+Zicsr board from a flat
// firmware image and runs it until it halts, is interrupted, or a GDB
// command mailbox asks it to stop. It is a minimal demonstration driver,
// not a full debugger front end: the GDB Remote Serial Protocol wire
// format itself is out of scope (see gdbstub's package doc), so this
// binary wires the mailbox to nothing but a Ctrl-C handler and, optionally,
// a live statsview dashboard.
//
// Grounded on the teacher's gopher2600.go main() (flag parsing, mode
// selection) and hardware.Run's continueCheckFreq polling loop
// (hardware/run.go), adapted from "poll a GUI event queue every 100
// iterations" to "drain a gdbstub.Mailbox every MailboxPollQuotient ticks".
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rv32spin/alloc"
	"rv32spin/board"
	"rv32spin/cpu"
	"rv32spin/curated"
	"rv32spin/gdbstub"
	"rv32spin/logger"
	"rv32spin/metrics"
	"rv32spin/notifications"
	"rv32spin/prefs"
	"rv32spin/timeline"
)

func main() {
	firmwarePath := flag.String("firmware", "", "path to a flat RV32I firmware image (required)")
	dashboardAddr := flag.String("dashboard", "", "address to serve a live statsview dashboard on, e.g. 127.0.0.1:18080 (disabled if empty)")
	ramSize := flag.Int("ram", prefs.DefaultBoardConfig().RAMSize.Get(), "DRAM size in bytes")
	romSize := flag.Int("rom", prefs.DefaultBoardConfig().ROMSize.Get(), "flash ROM size in bytes")
	cadence := flag.Int("snapshot-cadence", prefs.DefaultBoardConfig().SnapshotCadence.Get(), "ticks between automatic timeline snapshots")
	flag.Parse()

	if *firmwarePath == "" {
		fmt.Println("* no firmware image specified")
		os.Exit(10)
	}

	if err := run(*firmwarePath, *dashboardAddr, *ramSize, *romSize, *cadence); err != nil {
		fmt.Printf("* %s\n", err)
		os.Exit(10)
	}
}

func run(firmwarePath, dashboardAddr string, ramSize, romSize, cadence int) error {
	firmware, err := os.ReadFile(firmwarePath)
	if err != nil {
		return curated.New(curated.HostIOError, err)
	}

	cfg := prefs.DefaultBoardConfig()
	cfg.RAMSize.Set(ramSize)
	cfg.ROMSize.Set(romSize)
	cfg.SnapshotCadence.Set(cadence)

	host, err := board.NewTerminalHostIO()
	if err != nil {
		logger.Logf("main", "no controlling terminal, UART I/O discarded: %v", err)
		host = discardHostIO{}
	}
	defer host.Close()

	// board.NewBoard constructs its CLINT as part of assembly, but the
	// core's CSR file needs a TimeSource closure at construction time,
	// before the board (and therefore the CLINT) exists. clintRef is
	// filled in once assembly completes; every tick thereafter reads
	// through it.
	var clintRef *board.CLINT
	timeSource := func(a *alloc.Arena) uint64 {
		if clintRef == nil {
			return 0
		}
		return clintRef.MTime(a)
	}

	var core *cpu.Core
	var assembleErr error
	sim := timeline.New(func(a *alloc.Arena) *board.Board {
		core = cpu.NewCore(a, 0, board.ResetVector, cfg.MisalignedLoadStoreSupport.Get(), timeSource)
		brd, err := board.NewBoard(a, core, cfg, firmware, host)
		if err != nil {
			assembleErr = err
			return nil
		}
		clintRef = brd.CLINT()
		core.SetNotify(logNotify{})
		brd.UART().SetNotify(logNotify{})
		return brd
	}, cfg.SnapshotCadence)
	if assembleErr != nil {
		return fmt.Errorf("assembling board: %w", assembleErr)
	}

	mailbox := gdbstub.NewMailbox(8)
	breakpoints := gdbstub.NewBreakpoints()

	if dashboardAddr != "" {
		dash := metrics.NewDashboard(metrics.Source{
			MCycle:   func() uint64 { a, _ := sim.Inspect(); return core.MCycle(a) },
			MInstret: func() uint64 { a, _ := sim.Inspect(); return core.MInstret(a) },
			StateIndex: func() uint64 { return uint64(sim.StateIndex()) },
			SnapshotCount: func() int { a, _ := sim.Inspect(); return a.SnapshotCount() },
		}, dashboardAddr)
		go func() {
			if err := dash.Start(); err != nil {
				logger.Logf("main", "dashboard stopped: %v", err)
			}
		}()
		logger.Logf("main", "dashboard serving at %s", dash.URL())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		mailbox.Send(gdbstub.Command{Kind: gdbstub.KindExit})
	}()

	return runLoop(sim, core, mailbox, breakpoints, cfg.MailboxPollQuotient.Get())
}

// runLoop free-runs the simulator, draining the command mailbox every
// pollQuotient ticks (spec.md §5, prefs.BoardConfig.MailboxPollQuotient)
// while running, and on every iteration while paused so a debugger front
// end stays responsive. Grounded on hardware.Run's continueCheckFreq loop:
// checking an external stop condition every iteration is too frequent, so
// a free-running sim only checks every quotient ticks, same as the
// teacher's every-100 GUI-event check.
func runLoop(sim *timeline.Simulator[*board.Board], core *cpu.Core, mailbox *gdbstub.Mailbox, breakpoints *gdbstub.Breakpoints, pollQuotient int) error {
	paused := false
	exiting := false

	pc := func() uint32 {
		a, _ := sim.Inspect()
		return core.PC(a)
	}

	handle := func(cmd gdbstub.Command) {
		reply := gdbstub.Reply{}
		switch cmd.Kind {
		case gdbstub.KindExit:
			exiting = true
		case gdbstub.KindPause:
			paused = true
		case gdbstub.KindContinue:
			paused = false
		case gdbstub.KindStep:
			sim.Step()
			paused = true
		case gdbstub.KindStepBack:
			sim.UndoStep()
			paused = true
		case gdbstub.KindRangeStep:
			for i := 0; i < pollQuotient; i++ {
				sim.Step()
				if p := pc(); p < cmd.Low || p >= cmd.High || breakpoints.Has(p) {
					break
				}
			}
			paused = true
		case gdbstub.KindReverseContinue:
			for sim.UndoStep() {
				if breakpoints.Has(pc()) {
					break
				}
			}
			paused = true
		case gdbstub.KindGoTo:
			for sim.StateIndex() < cmd.StateIdx && sim.RedoStep() {
			}
			for sim.StateIndex() > cmd.StateIdx && sim.UndoStep() {
			}
			paused = true
		case gdbstub.KindDeleteFuture:
			// Redo history beyond HEAD is discarded automatically by the
			// next Step/StepWith; nothing to do eagerly here.
		case gdbstub.KindAddBreakpoint:
			breakpoints.Add(cmd.Addr)
		case gdbstub.KindRemoveBreakpoint:
			breakpoints.Remove(cmd.Addr)
		case gdbstub.KindReadRegister:
			a, _ := sim.Inspect()
			reply.Value = core.ReadX(a, cpu.RegSpecifier(cmd.RegSpecifier))
		case gdbstub.KindWriteRegister:
			a, _ := sim.Inspect()
			core.WriteX(a, cpu.RegSpecifier(cmd.RegSpecifier), cmd.RegValue)
		case gdbstub.KindReadRegisters:
			a, _ := sim.Inspect()
			regs := make([]uint32, 33)
			for i := 0; i < 32; i++ {
				regs[i] = core.ReadX(a, cpu.RegSpecifier(i))
			}
			regs[32] = core.PC(a)
			reply.Registers = regs
		case gdbstub.KindWriteRegisters:
			a, _ := sim.Inspect()
			for i, v := range cmd.Registers {
				if i < 32 {
					core.WriteX(a, cpu.RegSpecifier(i), v)
				} else if i == 32 {
					core.SetPC(a, v)
				}
			}
		case gdbstub.KindReadAddrs:
			a, b := sim.Inspect()
			buf := make([]byte, cmd.Length)
			reply.Err = b.Bus().ReadDebug(buf, a, cmd.Addr)
			reply.Data = buf
		case gdbstub.KindWriteAddrs:
			a, b := sim.Inspect()
			b.Bus().Write(a, cmd.Addr, cmd.Data)
		}
		// Every command but a register read reports the resulting pc;
		// KindReadRegister already populated Value above.
		if cmd.Kind != gdbstub.KindReadRegister {
			reply.Value = pc()
		}
		if cmd.Reply != nil {
			cmd.Reply <- reply
		}
	}

	ticksSinceDrain := 0
	for !exiting {
		if paused {
			if n := mailbox.TryDrain(handle); n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
			continue
		}

		if ticksSinceDrain >= pollQuotient {
			mailbox.TryDrain(handle)
			ticksSinceDrain = 0
			continue
		}

		sim.Step()
		if p := pc(); breakpoints.Has(p) {
			paused = true
			notifications.Dispatch(logNotify{}, notifications.NoticeBreakpoint, p)
		}
		ticksSinceDrain++
	}
	logger.Log("main", "exiting")
	return nil
}

// logNotify is the demonstration driver's only Notify: it forwards every
// notice straight to the logger ring buffer instead of, say, a GDB "stop
// reply" packet, since the wire protocol itself is out of scope here.
type logNotify struct{}

func (logNotify) Notify(notice notifications.Notice, args ...interface{}) error {
	logger.Logf("notify", "%s %v", notice, args)
	return nil
}

// discardHostIO is used when the process has no controlling terminal
// (e.g. run under a test harness or CI), so the UART is still usable.
type discardHostIO struct{}

func (discardHostIO) TryReadByte() (byte, bool) { return 0, false }
func (discardHostIO) WriteByte(byte) error      { return nil }
func (discardHostIO) Close() error              { return nil }
