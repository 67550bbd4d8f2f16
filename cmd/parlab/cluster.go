package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/parlab-go/parlab/cluster"
)

func daemonLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func cmdMaster(args []string) int {
	fs := flag.NewFlagSet("master", flag.ExitOnError)
	addr := fs.String("addr", ":8077", "listen address for workers and /status")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	log := daemonLogger(*verbose)
	m := cluster.NewMaster(*addr, cluster.WithLogger(log))
	if err := m.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("master: shutting down")
	m.Drain()
	m.Close()
	return 0
}

func cmdWorker(args []string) int {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	master := fs.String("master", "ws://127.0.0.1:8077/ws", "master websocket endpoint")
	cores := fs.Int("cores", 0, "concurrent tasks (default: CPU count)")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	opts := []cluster.WorkerOption{cluster.WithWorkerLogger(daemonLogger(*verbose))}
	if *cores > 0 {
		opts = append(opts, cluster.WithCores(*cores))
	}
	w := cluster.NewWorker(*master, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
		return 1
	}
	return 0
}

func cmdMapReduce(args []string) int {
	fs := flag.NewFlagSet("mapreduce", flag.ExitOnError)
	jobName := fs.String("job", "wordcount", "job: wordcount or tokencount")
	in := fs.String("in", "", "input text file (default: stdin)")
	workers := fs.Int("workers", runtime.NumCPU(), "local workers")
	fs.Parse(args)

	var text []byte
	var err error
	if *in == "" {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(*in)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "parlab: read input: %v\n", err)
		return 1
	}

	var job cluster.Job
	switch *jobName {
	case "wordcount":
		job = cluster.WordCount{}
	case "tokencount":
		tc, err := cluster.NewTokenCount()
		if err != nil {
			fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
			return 1
		}
		job = tc
	default:
		fmt.Fprintf(os.Stderr, "parlab: unknown job %q (want wordcount or tokencount)\n", *jobName)
		return 2
	}

	shards := cluster.TextShards(text, *workers*4)
	out, err := cluster.RunLocal(job, shards, *workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
		return 1
	}
	counts, err := cluster.DecodeCounts(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
		return 1
	}

	switch *jobName {
	case "wordcount":
		fmt.Printf("%d distinct words over %d shards\n", len(counts), len(shards))
		for _, word := range cluster.TopCounts(counts, 20) {
			fmt.Printf("  %6d  %s\n", counts[word], word)
		}
	case "tokencount":
		total := 0
		for _, c := range counts {
			total += c
		}
		fmt.Printf("%d tokens, %d distinct, over %d shards\n", total, len(counts), len(shards))
	}
	return 0
}
