// Package main provides the parlab CLI: each parallel-computing lab
// as a subcommand.
package main

import (
	"fmt"
	"io"
	"os"
)

const version = "v0.1.0-dev"

// commands maps subcommand names to runners. Runners print their own
// errors and return the process exit code: 0 ok, 1 runtime error,
// 2 usage.
var commands = map[string]func(args []string) int{
	"info":         cmdInfo,
	"race":         cmdRace,
	"philosophers": cmdPhilosophers,
	"simd":         cmdSIMD,
	"gpu":          cmdGPU,
	"mpi":          cmdMPI,
	"bench":        cmdBench,
	"master":       cmdMaster,
	"worker":       cmdWorker,
	"mapreduce":    cmdMapReduce,
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	name, args := os.Args[1], os.Args[2:]
	switch name {
	case "version":
		fmt.Printf("parlab %s\n", version)
		return
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "parlab: unknown command %q\n\n", name)
		usage(os.Stderr)
		os.Exit(2)
	}
	os.Exit(cmd(args))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "parlab - flavors of parallel computing, one lab per subcommand")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: parlab <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  info          hardware the labs will run on")
	fmt.Fprintln(w, "  race          shared-counter race demonstration")
	fmt.Fprintln(w, "  philosophers  dining philosophers under a fork strategy")
	fmt.Fprintln(w, "  simd          vector kernel timings")
	fmt.Fprintln(w, "  gpu           saxpy and matmul on a compute device")
	fmt.Fprintln(w, "  mpi           message-passing demos over in-process ranks")
	fmt.Fprintln(w, "  bench         the full measurement suite")
	fmt.Fprintln(w, "  master        cluster master daemon")
	fmt.Fprintln(w, "  worker        cluster worker daemon")
	fmt.Fprintln(w, "  mapreduce     run a job on the local cluster harness")
	fmt.Fprintln(w, "  version       print the version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'parlab <command> -h' for that command's flags.")
}
