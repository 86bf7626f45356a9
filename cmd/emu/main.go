// Command emu loads a ROM image and enters an interactive debugging shell
// over the brianiac CPU.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/brijohn/brianiac/pkg/bus"
	"github.com/brijohn/brianiac/pkg/cpu"
	"github.com/brijohn/brianiac/pkg/debugger"
	"github.com/brijohn/brianiac/pkg/device"
	"github.com/spf13/cobra"
)

// Fixed memory map.
const (
	romStart, romEnd       = 0x0000, 0x1FFF
	ramStart, ramEnd       = 0x2000, 0xEFFF
	serialStart, serialEnd = 0xF000, 0xF001
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "emu <rom>",
		Short: "Run a brianiac ROM image under an interactive debugger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(args[0])
		},
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "emu:", err)
		os.Exit(1)
	}
}

// runShell wires the fixed memory map, loads the ROM, and drives the
// read-eval-print loop. The same os.Stdin feeds both the shell's command
// reader and the serial device's host endpoint; this module does not
// attempt to allocate a real pseudo-terminal to separate the two uses.
func runShell(romPath string) error {
	data, err := os.ReadFile(romPath)
	if err != nil {
		return err
	}

	b := bus.New()
	if err := b.Map(romStart, romEnd, device.NewROM(romEnd-romStart+1, data)); err != nil {
		return err
	}
	if err := b.Map(ramStart, ramEnd, device.NewRAM(ramEnd-ramStart+1)); err != nil {
		return err
	}
	endpoint := device.NewTerminalEndpoint(os.Stdin, os.Stdout)
	if err := b.Map(serialStart, serialEnd, device.NewSerial(endpoint)); err != nil {
		return err
	}

	dbg := debugger.New(cpu.New(b))

	fmt.Println("brianiac emulator")
	fmt.Print(dbg.Registers())

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print(">> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			// Rebuilt fresh each line: cobra/pflag bind flag values (e.g.
			// break's --delete) to variables that persist across Execute()
			// calls on a reused *Command, which would leak a flag from one
			// shell line into the next.
			repl := newReplCommand(dbg)
			repl.SetArgs(strings.Fields(line))
			if err := repl.Execute(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		fmt.Print(">> ")
	}
	return nil
}

// newReplCommand builds the subcommand tree re-parsed once per shell line.
func newReplCommand(dbg *debugger.Debugger) *cobra.Command {
	root := &cobra.Command{Use: "emu", SilenceErrors: true, SilenceUsage: true}

	root.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "reset the CPU and run to the first breakpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dbg.Reset(context.Background()); err != nil {
				return err
			}
			fmt.Print(dbg.Registers())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "step until pc matches a breakpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dbg.Run(context.Background()); err != nil {
				return err
			}
			fmt.Print(dbg.Registers())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "registers",
		Short: "show pc, status, and all general registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(dbg.Registers())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "step",
		Short: "execute one CPU cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dbg.Step(context.Background()); err != nil {
				return err
			}
			fmt.Print(dbg.Registers())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "step, treating CALL as a single step over the callee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dbg.Next(context.Background()); err != nil {
				return err
			}
			fmt.Print(dbg.Registers())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list [start] [count]",
		Short: "disassemble count instructions starting at start",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := dbg.CPU.PC
			count := 16
			if len(args) > 0 {
				v, err := parseAddr(args[0])
				if err != nil {
					return err
				}
				start = v
			}
			if len(args) > 1 {
				n, err := strconv.ParseInt(args[1], 0, 32)
				if err != nil {
					return err
				}
				count = int(n)
			}
			for _, line := range dbg.List(start, count) {
				fmt.Println(line)
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "memory <start> [end]",
		Short: "hex+ASCII dump of memory from start to end",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseAddr(args[0])
			if err != nil {
				return err
			}
			end := start + 256
			if len(args) > 1 {
				end, err = parseAddr(args[1])
				if err != nil {
					return err
				}
			}
			for _, line := range dbg.Memory(start, end) {
				fmt.Println(line)
			}
			return nil
		},
	})

	var deleteBreak bool
	breakCmd := &cobra.Command{
		Use:   "break [addr]",
		Short: "set, delete, or list breakpoints",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, addr := range dbg.ListBreaks() {
					fmt.Printf("0x%04X\n", addr)
				}
				return nil
			}
			addr, err := parseAddr(args[0])
			if err != nil {
				return err
			}
			if deleteBreak {
				dbg.DeleteBreak(addr)
			} else {
				dbg.SetBreak(addr)
			}
			return nil
		},
	}
	breakCmd.Flags().BoolVar(&deleteBreak, "delete", false, "remove the given breakpoint instead of setting it")
	root.AddCommand(breakCmd)

	return root
}

// parseAddr accepts 0x…, 0… (octal), or decimal.
func parseAddr(s string) (uint16, error) {
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}
