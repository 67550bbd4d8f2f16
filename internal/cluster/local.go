package cluster

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// RunLocal runs job over input with an in-process master and workers
// wired over loopback websockets. The full wire protocol and scheduler
// are exercised; only the network is local. Each worker takes one task
// at a time, so the parallelism is the worker count.
func RunLocal(job Job, input Input, workers int) (Output, error) {
	if workers < 1 {
		workers = 1
	}
	if _, ok := lookupJob(job.Name()); !ok {
		if err := Register(job); err != nil {
			return nil, err
		}
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	m := NewMaster("127.0.0.1:0", WithLogger(log))
	if err := m.Start(); err != nil {
		return nil, err
	}
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		w := NewWorker(m.URL(), WithWorkerLogger(log), WithCores(1))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				log.Warn("local worker exited", "name", w.Name(), "err", err)
			}
		}()
	}

	out, err := m.Run(ctx, job, input)
	m.Drain()
	cancel()
	wg.Wait()
	return out, err
}
