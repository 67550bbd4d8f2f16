package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// defaultMaxAttempts bounds how often one shard is tried before the
// job fails with the shard's last error.
const defaultMaxAttempts = 3

// Option configures a Master.
type Option func(*Master)

// WithLogger routes the master's lifecycle logging.
func WithLogger(log *slog.Logger) Option {
	return func(m *Master) { m.log = log }
}

// WithMaxAttempts overrides how often a shard may be tried.
func WithMaxAttempts(n int) Option {
	return func(m *Master) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// Master accepts workers on /ws, dispatches job shards to them
// round-robin, and serves a JSON snapshot on /status. One job runs at
// a time; concurrent Run calls queue.
type Master struct {
	addr        string
	log         *slog.Logger
	maxAttempts int

	upgrader websocket.Upgrader
	srv      *http.Server
	ln       net.Listener

	runMu sync.Mutex // serializes Run

	// mu guards the worker table and the active run.
	mu      sync.Mutex
	workers map[string]*remoteWorker
	order   []string // join order, the round-robin circle
	rr      int
	current *run
}

// remoteWorker is the master's view of one connected worker. Its send
// channel is the single writer to the websocket; capacity covers the
// worker's task slots plus a drain frame, so the scheduler never
// blocks on it.
type remoteWorker struct {
	name     string
	cores    int
	conn     *websocket.Conn
	send     chan frame
	inflight map[string]struct{} // attempt IDs assigned here
}

// task tracks one shard's dispatch state across attempts.
type task struct {
	id       string // current attempt ID
	shard    int
	payload  []byte
	worker   string
	attempts int
	lastErr  error
}

// run is the master-side state of one Run call.
type run struct {
	job      Job
	shards   int
	pending  []*task
	inflight map[string]*task
	partials [][]byte
	done     int
	over     bool
	failed   error
	doneCh   chan struct{}
}

// finish ends the run once; later completions and failures are
// ignored. Called with the master's mu held.
func (r *run) finish(err error) {
	if r.over {
		return
	}
	r.over = true
	r.failed = err
	close(r.doneCh)
}

// NewMaster configures a master for addr. Call Start to bind it.
func NewMaster(addr string, opts ...Option) *Master {
	m := &Master{
		addr:        addr,
		log:         slog.Default(),
		maxAttempts: defaultMaxAttempts,
		workers:     make(map[string]*remoteWorker),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start binds the listener and serves /ws and /status until Close.
func (m *Master) Start() error {
	if m.ln != nil {
		return errors.New("cluster: master already started")
	}
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("cluster: listen %s: %w", m.addr, err)
	}
	m.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.handleWS)
	mux.HandleFunc("/status", m.handleStatus)
	m.srv = &http.Server{Handler: mux}
	go func() {
		if err := m.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Error("master: serve", "err", err)
		}
	}()
	m.log.Info("master: listening", "addr", ln.Addr().String())
	return nil
}

// URL returns the websocket endpoint workers dial.
func (m *Master) URL() string {
	if m.ln == nil {
		return ""
	}
	return "ws://" + m.ln.Addr().String() + "/ws"
}

// Addr returns the bound listen address once started.
func (m *Master) Addr() string {
	if m.ln == nil {
		return m.addr
	}
	return m.ln.Addr().String()
}

// Drain asks every connected worker to finish its in-flight tasks and
// hang up.
func (m *Master) Drain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rw := range m.workers {
		select {
		case rw.send <- drainMsg():
		default:
		}
	}
}

// Close stops the server and hangs up on every worker.
func (m *Master) Close() error {
	m.mu.Lock()
	for _, rw := range m.workers {
		rw.conn.Close()
	}
	m.mu.Unlock()
	if m.srv == nil {
		return nil
	}
	return m.srv.Close()
}

// Run dispatches one shard per Input element to the connected workers
// and reduces the results. It blocks until the job completes, a shard
// runs out of attempts, or ctx expires. Workers may join mid-run;
// shards queue until capacity frees up.
func (m *Master) Run(ctx context.Context, job Job, input Input) (Output, error) {
	if m.ln == nil {
		return nil, errors.New("cluster: master not started")
	}
	if _, ok := lookupJob(job.Name()); !ok {
		return nil, fmt.Errorf("cluster: job %q not registered", job.Name())
	}
	m.runMu.Lock()
	defer m.runMu.Unlock()

	r := &run{
		job:      job,
		shards:   len(input),
		inflight: make(map[string]*task),
		partials: make([][]byte, len(input)),
		doneCh:   make(chan struct{}),
	}
	for shard, payload := range input {
		r.pending = append(r.pending, &task{shard: shard, payload: payload})
	}

	m.mu.Lock()
	m.current = r
	if r.shards == 0 {
		r.finish(nil)
	} else {
		m.schedule()
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.current == r {
			m.current = nil
		}
		m.mu.Unlock()
	}()

	m.log.Info("master: job started", "job", job.Name(), "shards", r.shards)

	select {
	case <-r.doneCh:
	case <-ctx.Done():
		m.mu.Lock()
		r.finish(fmt.Errorf("cluster: job %q: %w", job.Name(), ctx.Err()))
		m.mu.Unlock()
		<-r.doneCh
	}
	if r.failed != nil {
		return nil, r.failed
	}

	out, err := job.Reduce(r.partials)
	if err != nil {
		return nil, fmt.Errorf("cluster: job %q reduce: %w", job.Name(), err)
	}
	m.log.Info("master: job done", "job", job.Name(), "shards", r.shards)
	return Output(out), nil
}

// schedule hands queued shards to idle workers round-robin. Called
// with mu held.
func (m *Master) schedule() {
	r := m.current
	if r == nil || r.over {
		return
	}
	for len(r.pending) > 0 {
		rw := m.nextIdle()
		if rw == nil {
			return
		}
		t := r.pending[0]
		r.pending = r.pending[1:]
		t.id = uuid.NewString()
		t.worker = rw.name
		t.attempts++
		r.inflight[t.id] = t
		rw.inflight[t.id] = struct{}{}
		rw.send <- taskMsg(t.id, r.job.Name(), t.shard, t.payload)
		m.log.Debug("master: assigned", "shard", t.shard, "worker", rw.name, "attempt", t.attempts)
	}
}

// nextIdle returns the next worker in the round-robin circle with a
// free task slot, or nil when everyone is busy. Called with mu held.
func (m *Master) nextIdle() *remoteWorker {
	n := len(m.order)
	for i := 0; i < n; i++ {
		rw := m.workers[m.order[(m.rr+i)%n]]
		if len(rw.inflight) < rw.cores {
			m.rr = (m.rr + i + 1) % n
			return rw
		}
	}
	return nil
}

// retryOrFail requeues a failed shard or fails the whole job once its
// attempts are spent. Called with mu held.
func (m *Master) retryOrFail(r *run, t *task) {
	if r.over {
		return
	}
	if t.attempts >= m.maxAttempts {
		r.finish(fmt.Errorf("cluster: job %q shard %d failed after %d attempts: %w",
			r.job.Name(), t.shard, t.attempts, t.lastErr))
		return
	}
	r.pending = append(r.pending, t)
	m.schedule()
}

// handleWS upgrades a worker connection, waits for its hello, and
// serves it until disconnect.
func (m *Master) handleWS(w http.ResponseWriter, req *http.Request) {
	conn, err := m.upgrader.Upgrade(w, req, nil)
	if err != nil {
		m.log.Error("master: upgrade", "err", err)
		return
	}

	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		m.log.Error("master: read hello", "err", err)
		conn.Close()
		return
	}
	if err := f.checkVersion(); err != nil {
		m.log.Error("master: reject worker", "err", err)
		conn.Close()
		return
	}
	if f.Type != frameHello || f.Hello == nil {
		m.log.Error("master: reject worker", "err", fmt.Sprintf("first frame is %q, want hello", f.Type))
		conn.Close()
		return
	}

	rw := &remoteWorker{
		name:     f.Hello.Worker,
		cores:    f.Hello.Cores,
		conn:     conn,
		inflight: make(map[string]struct{}),
	}
	if rw.cores < 1 {
		rw.cores = 1
	}
	rw.send = make(chan frame, rw.cores+1)

	m.mu.Lock()
	if _, dup := m.workers[rw.name]; dup {
		m.mu.Unlock()
		m.log.Error("master: reject worker", "name", rw.name, "err", "name already connected")
		conn.Close()
		return
	}
	m.workers[rw.name] = rw
	m.order = append(m.order, rw.name)
	m.log.Info("master: worker joined", "name", rw.name, "cores", rw.cores)
	m.schedule()
	m.mu.Unlock()

	go rw.writePump(m.log)
	m.readLoop(rw)
}

// writePump is the single websocket writer for one worker.
func (rw *remoteWorker) writePump(log *slog.Logger) {
	for f := range rw.send {
		if err := rw.conn.WriteJSON(f); err != nil {
			log.Debug("master: write", "worker", rw.name, "err", err)
			return
		}
	}
}

// readLoop routes result frames from one worker until its connection
// drops, then reassigns whatever it was running.
func (m *Master) readLoop(rw *remoteWorker) {
	for {
		var f frame
		if err := rw.conn.ReadJSON(&f); err != nil {
			m.unregister(rw, err)
			return
		}
		if err := f.checkVersion(); err != nil {
			m.log.Error("master: drop frame", "worker", rw.name, "err", err)
			continue
		}
		if f.Type != frameResult || f.Result == nil {
			m.log.Error("master: drop frame", "worker", rw.name, "type", f.Type)
			continue
		}
		m.handleResult(rw, *f.Result)
	}
}

// handleResult applies one result frame to the active run. Results for
// unknown attempt IDs are stale replies from reassigned tasks and are
// dropped.
func (m *Master) handleResult(rw *remoteWorker, res resultFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, mine := rw.inflight[res.ID]; !mine {
		m.log.Debug("master: stale result", "worker", rw.name, "task", res.ID)
		return
	}
	delete(rw.inflight, res.ID)

	r := m.current
	if r == nil || r.over {
		return
	}
	t := r.inflight[res.ID]
	if t == nil {
		return
	}
	delete(r.inflight, res.ID)

	if res.OK {
		r.partials[t.shard] = res.Payload
		r.done++
		m.log.Debug("master: shard done", "shard", t.shard, "worker", rw.name, "done", r.done, "total", r.shards)
		if r.done == r.shards {
			r.finish(nil)
			return
		}
		m.schedule()
		return
	}

	t.lastErr = errors.New(res.Error)
	m.log.Warn("master: shard failed", "shard", t.shard, "worker", rw.name, "attempt", t.attempts, "err", res.Error)
	m.retryOrFail(r, t)
}

// unregister removes a disconnected worker and requeues its in-flight
// shards.
func (m *Master) unregister(rw *remoteWorker, cause error) {
	m.mu.Lock()
	if _, ok := m.workers[rw.name]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.workers, rw.name)
	for i, name := range m.order {
		if name == rw.name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if len(m.order) > 0 {
		m.rr %= len(m.order)
	} else {
		m.rr = 0
	}
	m.log.Info("master: worker left", "name", rw.name, "err", cause)

	if r := m.current; r != nil && !r.over {
		for id := range rw.inflight {
			t := r.inflight[id]
			if t == nil {
				continue
			}
			delete(r.inflight, id)
			t.lastErr = fmt.Errorf("worker %s disconnected", rw.name)
			m.retryOrFail(r, t)
		}
	}
	m.mu.Unlock()

	close(rw.send)
	rw.conn.Close()
}

// Status is the /status document.
type Status struct {
	Workers []WorkerStatus `json:"workers"`
	Job     string         `json:"job,omitempty"`
	Done    int            `json:"done"`
	Total   int            `json:"total"`
}

// WorkerStatus is one connected worker in Status.
type WorkerStatus struct {
	Name  string `json:"name"`
	Cores int    `json:"cores"`
	Busy  int    `json:"busy"`
}

func (m *Master) handleStatus(w http.ResponseWriter, req *http.Request) {
	m.mu.Lock()
	st := Status{Workers: make([]WorkerStatus, 0, len(m.order))}
	for _, name := range m.order {
		rw := m.workers[name]
		st.Workers = append(st.Workers, WorkerStatus{Name: rw.name, Cores: rw.cores, Busy: len(rw.inflight)})
	}
	if r := m.current; r != nil {
		st.Job = r.job.Name()
		st.Done = r.done
		st.Total = r.shards
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		m.log.Debug("master: status write", "err", err)
	}
}
