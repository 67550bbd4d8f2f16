package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger routes the worker's lifecycle logging.
func WithWorkerLogger(log *slog.Logger) WorkerOption {
	return func(w *Worker) { w.log = log }
}

// WithCores overrides how many tasks the worker runs concurrently.
// The default is runtime.NumCPU.
func WithCores(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.cores = n
		}
	}
}

// Worker connects to a master, announces itself with a hello frame,
// and executes task frames until drained or disconnected.
type Worker struct {
	masterURL string
	name      string
	cores     int
	log       *slog.Logger

	// writeMu serializes replies; task goroutines share the
	// connection.
	writeMu sync.Mutex
	conn    *websocket.Conn
}

// NewWorker configures a worker for one master endpoint, e.g.
// "ws://127.0.0.1:8077/ws". Each worker gets a generated identity.
func NewWorker(masterURL string, opts ...WorkerOption) *Worker {
	w := &Worker{
		masterURL: masterURL,
		name:      uuid.NewString(),
		cores:     runtime.NumCPU(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the worker's generated identity.
func (w *Worker) Name() string { return w.name }

// Run connects and serves tasks until the master drains this worker,
// the connection drops, or ctx is canceled. A drain is a clean nil
// return; Run does not reconnect.
func (w *Worker) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.masterURL, nil)
	if err != nil {
		return fmt.Errorf("cluster: dial master %s: %w", w.masterURL, err)
	}
	w.conn = conn
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	if err := w.write(helloMsg(w.name, w.cores)); err != nil {
		return fmt.Errorf("cluster: hello: %w", err)
	}
	w.log.Info("worker: connected", "name", w.name, "master", w.masterURL, "cores", w.cores)

	sem := make(chan struct{}, w.cores)
	var tasks sync.WaitGroup
	defer tasks.Wait()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			tasks.Wait()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("cluster: connection to master lost: %w", err)
		}
		if err := f.checkVersion(); err != nil {
			return err
		}
		switch f.Type {
		case frameTask:
			if f.Task == nil {
				w.log.Error("worker: task frame without body")
				continue
			}
			t := *f.Task
			sem <- struct{}{}
			tasks.Add(1)
			go func() {
				defer tasks.Done()
				defer func() { <-sem }()
				w.execute(t)
			}()
		case frameDrain:
			tasks.Wait()
			w.log.Info("worker: drained", "name", w.name)
			return nil
		default:
			w.log.Error("worker: unexpected frame", "type", f.Type)
		}
	}
}

// execute runs one task and replies with its result frame.
func (w *Worker) execute(t taskFrame) {
	payload, err := w.runMap(t)
	if err != nil {
		w.log.Warn("worker: task failed", "task", t.ID, "job", t.Job, "shard", t.Shard, "err", err)
	}
	if werr := w.write(resultMsg(t.ID, payload, err)); werr != nil {
		w.log.Debug("worker: reply", "task", t.ID, "err", werr)
	}
}

// runMap looks the job up and maps one shard. A panicking Map becomes
// a failed result rather than killing the worker.
func (w *Worker) runMap(t taskFrame) (payload []byte, err error) {
	job, ok := lookupJob(t.Job)
	if !ok {
		return nil, fmt.Errorf("unknown job %q", t.Job)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("map panicked: %v", r)
		}
	}()
	return job.Map(t.Shard, t.Payload)
}

func (w *Worker) write(f frame) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteJSON(f)
}
