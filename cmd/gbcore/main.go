// Command gbcore runs a Game Boy ROM: gbcore <rom-path>.
package main

import (
	"flag"
	"fmt"
	"os"

	"gbcore/internal/emulator"
	"gbcore/internal/ui"
)

const defaultScale = 3

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <rom-path>\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	romPath := flag.Arg(0)

	romData, err := os.ReadFile(romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gbcore: read ROM: %v\n", err)
		os.Exit(1)
	}

	window, err := ui.New(defaultScale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gbcore: %v\n", err)
		os.Exit(1)
	}

	emu, err := emulator.New(romData, window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gbcore: %v\n", err)
		os.Exit(1)
	}
	window.Attach(emu)

	if err := emu.LoadBattery(romPath); err != nil {
		fmt.Fprintf(os.Stderr, "gbcore: load battery RAM: %v\n", err)
	}

	runErr := window.Run()

	if err := emu.SaveBattery(romPath); err != nil {
		fmt.Fprintf(os.Stderr, "gbcore: save battery RAM: %v\n", err)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "gbcore: %v\n", runErr)
		os.Exit(1)
	}
}
