// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ezrec/uvm/vm"
)

func main() {
	var compile string
	var load string
	var limit int
	var verbose bool

	flag.StringVar(&compile, "c", "", ".uvm file to assemble")
	flag.StringVar(&load, "l", "", "raw big-endian binary image to load")
	flag.IntVar(&limit, "n", 0, "cycle limit, 0 is unbounded")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	var image []byte

	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &vm.Assembler{Verbose: verbose}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		image = prog.Binary()
	case len(load) != 0:
		var err error
		image, err = os.ReadFile(load)
		if err != nil {
			log.Fatalf("%v: %v", load, err)
		}
	default:
		log.Fatalf("%v: nothing to run", os.Args[0])
	}

	machine := vm.NewMachine()
	machine.Verbose = verbose
	machine.Limit = limit

	if err := machine.Load(image); err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	if err := machine.Run(); err != nil {
		log.Fatal(err)
	}

	fmt.Print(machine.String())
}
