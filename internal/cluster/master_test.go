package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startMaster(t *testing.T) *Master {
	t.Helper()
	m := NewMaster("127.0.0.1:0", WithLogger(quietLogger()))
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func getStatus(t *testing.T, m *Master) Status {
	t.Helper()
	resp, err := http.Get("http://" + m.Addr() + "/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("status decode failed: %v", err)
	}
	return st
}

func waitWorkers(t *testing.T, m *Master, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if st := getStatus(t, m); len(st.Workers) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("never saw %d connected workers", want)
}

// echoJob passes payloads through and joins them, so outputs show
// exactly which shard results arrived and in what order.
type echoJob struct{ name string }

func (j echoJob) Name() string { return j.name }
func (j echoJob) Map(shard int, payload []byte) ([]byte, error) {
	return payload, nil
}
func (j echoJob) Reduce(partials [][]byte) ([]byte, error) {
	return bytes.Join(partials, []byte(" ")), nil
}

func TestMasterWorkerEndToEnd(t *testing.T) {
	m := startMaster(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		w := NewWorker(m.URL(), WithWorkerLogger(quietLogger()), WithCores(1))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Run(ctx)
		}()
	}
	waitWorkers(t, m, 3)

	text := []byte(strings.Repeat("to be or not to be ", 50))
	out, err := m.Run(ctx, WordCount{}, TextShards(text, 6))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	counts, err := DecodeCounts(out)
	if err != nil {
		t.Fatalf("DecodeCounts failed: %v", err)
	}
	want := map[string]int{"to": 100, "be": 100, "or": 50, "not": 50}
	for word, n := range want {
		if counts[word] != n {
			t.Errorf("counts[%q] = %d, want %d", word, counts[word], n)
		}
	}

	m.Drain()
	cancel()
	wg.Wait()
}

func TestStatusEndpoint(t *testing.T) {
	m := startMaster(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		w := NewWorker(m.URL(), WithWorkerLogger(quietLogger()), WithCores(3))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Run(ctx)
		}()
	}
	waitWorkers(t, m, 2)

	st := getStatus(t, m)
	if st.Job != "" || st.Total != 0 {
		t.Errorf("idle status reports job %q total %d", st.Job, st.Total)
	}
	for _, ws := range st.Workers {
		if ws.Cores != 3 || ws.Busy != 0 {
			t.Errorf("worker %s: cores %d busy %d, want 3 and 0", ws.Name, ws.Cores, ws.Busy)
		}
	}

	cancel()
	wg.Wait()
}

func TestShardOrderPreserved(t *testing.T) {
	m := startMaster(t)
	job := echoJob{name: "echo-order"}
	if err := Register(job); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		w := NewWorker(m.URL(), WithWorkerLogger(quietLogger()), WithCores(2))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Run(ctx)
		}()
	}
	waitWorkers(t, m, 3)

	var input Input
	for i := 0; i < 8; i++ {
		input = append(input, []byte(fmt.Sprintf("s%d", i)))
	}
	out, err := m.Run(ctx, job, input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if want := "s0 s1 s2 s3 s4 s5 s6 s7"; string(out) != want {
		t.Errorf("output = %q, want shards reduced in shard order %q", out, want)
	}

	m.Drain()
	cancel()
	wg.Wait()
}

// flakyJob fails one shard's first attempts, so a retried run still
// completes.
type flakyJob struct {
	name      string
	failShard int
	failUpTo  int

	mu       sync.Mutex
	attempts map[int]int
}

func (j *flakyJob) Name() string { return j.name }
func (j *flakyJob) Map(shard int, payload []byte) ([]byte, error) {
	j.mu.Lock()
	j.attempts[shard]++
	n := j.attempts[shard]
	j.mu.Unlock()
	if shard == j.failShard && n <= j.failUpTo {
		return nil, fmt.Errorf("synthetic failure %d", n)
	}
	return payload, nil
}
func (j *flakyJob) Reduce(partials [][]byte) ([]byte, error) {
	return bytes.Join(partials, []byte(" ")), nil
}

func TestShardRetriesThenSucceeds(t *testing.T) {
	m := startMaster(t)
	job := &flakyJob{name: "flaky-retry", failShard: 1, failUpTo: 2, attempts: make(map[int]int)}
	if err := Register(job); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWorker(m.URL(), WithWorkerLogger(quietLogger()), WithCores(1))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = w.Run(ctx)
	}()
	waitWorkers(t, m, 1)

	out, err := m.Run(ctx, job, Input{[]byte("alpha"), []byte("beta"), []byte("gamma")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if string(out) != "alpha beta gamma" {
		t.Errorf("output = %q, want shards joined in order", out)
	}
	if got := job.attempts[1]; got != 3 {
		t.Errorf("shard 1 ran %d times, want 3", got)
	}
	if got := job.attempts[0]; got != 1 {
		t.Errorf("shard 0 ran %d times, want 1", got)
	}

	m.Drain()
	cancel()
	wg.Wait()
}

func TestJobFailsAfterMaxAttempts(t *testing.T) {
	m := startMaster(t)
	job := &flakyJob{name: "always-fails", failShard: 0, failUpTo: 1 << 30, attempts: make(map[int]int)}
	if err := Register(job); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWorker(m.URL(), WithWorkerLogger(quietLogger()), WithCores(1))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = w.Run(ctx)
	}()
	waitWorkers(t, m, 1)

	_, err := m.Run(ctx, job, Input{[]byte("doomed")})
	if err == nil {
		t.Fatal("Run of an always-failing job succeeded")
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Errorf("error %q does not report exhausted attempts", err)
	}
	if !strings.Contains(err.Error(), "synthetic failure") {
		t.Errorf("error %q does not wrap the shard's last error", err)
	}
	if errors.Unwrap(err) == nil {
		t.Error("job failure does not wrap the underlying error")
	}

	m.Drain()
	cancel()
	wg.Wait()
}

// blockJob parks its first Map call until released, giving the test a
// window to kill the worker that holds it.
type blockJob struct {
	name    string
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (j *blockJob) Name() string { return j.name }
func (j *blockJob) Map(shard int, payload []byte) ([]byte, error) {
	j.mu.Lock()
	j.calls++
	n := j.calls
	j.mu.Unlock()
	if n == 1 {
		close(j.entered)
		<-j.release
		return nil, errors.New("interrupted")
	}
	return payload, nil
}
func (j *blockJob) Reduce(partials [][]byte) ([]byte, error) {
	return bytes.Join(partials, nil), nil
}

func TestReassignOnWorkerDisconnect(t *testing.T) {
	m := startMaster(t)
	job := &blockJob{name: "block-reassign", entered: make(chan struct{}), release: make(chan struct{})}
	if err := Register(job); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()
	w1 := NewWorker(m.URL(), WithWorkerLogger(quietLogger()), WithCores(1))
	var wg1 sync.WaitGroup
	wg1.Add(1)
	go func() {
		defer wg1.Done()
		_ = w1.Run(ctx1)
	}()
	waitWorkers(t, m, 1)

	type runResult struct {
		out Output
		err error
	}
	runDone := make(chan runResult, 1)
	go func() {
		out, err := m.Run(context.Background(), job, Input{[]byte("payload")})
		runDone <- runResult{out, err}
	}()

	// The only worker now holds the only shard.
	<-job.entered

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	w2 := NewWorker(m.URL(), WithWorkerLogger(quietLogger()), WithCores(1))
	var wg2 sync.WaitGroup
	wg2.Add(1)
	go func() {
		defer wg2.Done()
		_ = w2.Run(ctx2)
	}()
	waitWorkers(t, m, 2)

	// Kill the first worker mid-task; the master must reassign the
	// shard to the survivor.
	cancel1()

	res := <-runDone
	if res.err != nil {
		t.Fatalf("Run failed after reassignment: %v", res.err)
	}
	if string(res.out) != "payload" {
		t.Errorf("output = %q, want %q", res.out, "payload")
	}

	close(job.release)
	wg1.Wait()

	job.mu.Lock()
	calls := job.calls
	job.mu.Unlock()
	if calls != 2 {
		t.Errorf("Map ran %d times, want 2 (original + reassigned)", calls)
	}

	m.Drain()
	cancel2()
	wg2.Wait()
}

func TestRunRequiresStart(t *testing.T) {
	m := NewMaster("127.0.0.1:0", WithLogger(quietLogger()))
	if _, err := m.Run(context.Background(), WordCount{}, nil); err == nil {
		t.Error("Run on an unstarted master succeeded")
	}
}

func TestRunRequiresRegisteredJob(t *testing.T) {
	m := startMaster(t)
	_, err := m.Run(context.Background(), jobNamed{name: "never-registered", Job: WordCount{}}, nil)
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Errorf("Run = %v, want unregistered job error", err)
	}
}

func TestRunCanceledByContext(t *testing.T) {
	m := startMaster(t)

	// No workers connect, so the shard can never be served.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := m.Run(ctx, WordCount{}, Input{[]byte("stuck")})
	if err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run = %v, want deadline error", err)
	}
}

func TestProtocolVersionGate(t *testing.T) {
	m := startMaster(t)

	conn, _, err := websocket.DefaultDialer.Dial(m.URL(), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(frame{V: 99, Type: frameHello, Hello: &helloFrame{Worker: "relic", Cores: 1}}); err != nil {
		t.Fatalf("write hello failed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("master kept the connection to a version-99 worker open")
	}
}

func TestWorkerUnknownJob(t *testing.T) {
	w := NewWorker("ws://unused", WithWorkerLogger(quietLogger()))
	_, err := w.runMap(taskFrame{ID: "t1", Job: "no-such-job"})
	if err == nil || !strings.Contains(err.Error(), "unknown job") {
		t.Errorf("runMap = %v, want unknown job error", err)
	}
}

// panicJob proves a panicking Map fails the task without killing the
// worker: the same worker serves all retry attempts.
type panicJob struct{ name string }

func (j panicJob) Name() string { return j.name }
func (j panicJob) Map(shard int, payload []byte) ([]byte, error) {
	panic("kaboom")
}
func (j panicJob) Reduce(partials [][]byte) ([]byte, error) {
	return nil, nil
}

func TestMapPanicBecomesTaskFailure(t *testing.T) {
	m := startMaster(t)
	job := panicJob{name: "panics"}
	if err := Register(job); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWorker(m.URL(), WithWorkerLogger(quietLogger()), WithCores(1))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = w.Run(ctx)
	}()
	waitWorkers(t, m, 1)

	_, err := m.Run(ctx, job, Input{[]byte("x")})
	if err == nil || !strings.Contains(err.Error(), "map panicked") || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("Run = %v, want wrapped panic report", err)
	}

	m.Drain()
	cancel()
	wg.Wait()
}
