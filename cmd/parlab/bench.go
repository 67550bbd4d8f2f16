package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/parlab-go/parlab/bench"
)

func cmdBench(args []string) int {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	config := fs.String("config", "", "TOML suite file (default: the full suite)")
	jsonOut := fs.String("json", "", "also write the suite as JSON to this path")
	fs.Parse(args)

	cfg, err := bench.LoadConfig(*config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
		return 1
	}
	s, err := bench.Run(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
		return 1
	}
	s.Transcript(os.Stdout)

	path := *jsonOut
	if path == "" {
		path = cfg.JSON
	}
	if path != "" {
		if err := s.WriteJSON(path); err != nil {
			fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
			return 1
		}
		fmt.Printf("wrote %s\n", path)
	}
	return 0
}
