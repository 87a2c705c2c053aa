/*
ppc32jit - Main process.

Modeled on the teacher's main.go (_examples/rcornwell-S370/main.go): getopt
flags for the config file and log file, a slog.Logger installed as the
process default, LoadConfigFile driving registered option callbacks, a
goroutine running the CPU, and a signal-driven shutdown. Trimmed of the
teacher's telnet console and master.Packet device-command channel (out
of scope here per spec.md's Non-goals) in favor of this package's own
RAM/IPL config directives and emu/core.Command.
*/
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	config "github.com/rcornwell/ppc32jit/config/configparser"
	core "github.com/rcornwell/ppc32jit/emu/core"
	logger "github.com/rcornwell/ppc32jit/util/logger"

	_ "github.com/rcornwell/ppc32jit/util/debug"
)

var Logger *slog.Logger

// ramBytes and iplAddr are populated by the RAM/IPL config directives
// registered in init below, read by configparser while parsing the
// config file named on the command line.
var (
	ramBytes uint32 = 16 << 20
	iplAddr  uint32
)

func init() {
	config.RegisterOption("RAM", setRAM)
	config.RegisterOption("IPL", setIPL)
}

// setRAM handles a "RAM <megabytes>" config line.
func setRAM(_ uint16, value string, _ []config.Option) error {
	mb, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return fmt.Errorf("RAM: invalid size %q: %w", value, err)
	}
	ramBytes = uint32(mb) << 20
	return nil
}

// setIPL handles an "IPL <hex address>" config line.
func setIPL(_ uint16, value string, _ []config.Option) error {
	addr, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return fmt.Errorf("IPL: invalid address %q: %w", value, err)
	}
	iplAddr = uint32(addr)
	return nil
}

func main() {
	optConfig := getopt.StringLong("config", 'c', "ppc32jit.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Enable debug logging to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if optLogFile != nil && *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, optDebug))
	slog.SetDefault(Logger)

	Logger.Info("ppc32jit started")

	if optConfig != nil && *optConfig != "" {
		if _, err := os.Stat(*optConfig); err == nil {
			if err := config.LoadConfigFile(*optConfig); err != nil {
				Logger.Error(err.Error())
				os.Exit(1)
			}
		} else {
			Logger.Info("no configuration file found, using defaults", "path", *optConfig)
		}
	}

	c := core.New(ramBytes)

	c.Send(core.Command{Msg: core.CmdIPL, Addr: iplAddr})
	go c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msg := make(chan string, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		for {
			input, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			msg <- input
		}
	}()

loop:
	for {
		select {
		case <-sigChan:
			fmt.Println("Got quit signal")
			break loop
		case <-msg:
			fmt.Printf("performance counter: %d, IA: %#x\n", c.Engine.CPU.PerfCounter, c.Engine.CPU.IA)
		}
	}

	Logger.Info("shutting down core")
	c.Stop()
	Logger.Info("shutdown complete")
}
