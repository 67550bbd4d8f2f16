package cluster

import "fmt"

// protocolVersion is carried on every frame; both sides reject frames
// from a different version instead of guessing.
const protocolVersion = 1

// Frame types.
const (
	frameHello  = "hello"
	frameTask   = "task"
	frameResult = "result"
	frameDrain  = "drain"
)

// frame is the wire envelope: one JSON object per websocket message,
// with exactly one body field set according to Type. Drain frames have
// no body; they tell a worker to finish in-flight tasks and hang up.
type frame struct {
	V      int          `json:"v"`
	Type   string       `json:"type"`
	Hello  *helloFrame  `json:"hello,omitempty"`
	Task   *taskFrame   `json:"task,omitempty"`
	Result *resultFrame `json:"result,omitempty"`
}

// helloFrame is the worker's first message: who it is and how many
// tasks it will run concurrently.
type helloFrame struct {
	Worker string `json:"worker"`
	Cores  int    `json:"cores"`
}

// taskFrame carries one shard to a worker. ID names this attempt, not
// the shard: a retried shard gets a fresh ID so stale replies from a
// presumed-dead worker cannot be mistaken for the retry's result.
type taskFrame struct {
	ID      string `json:"id"`
	Job     string `json:"job"`
	Shard   int    `json:"shard"`
	Payload []byte `json:"payload"`
}

// resultFrame answers a task by attempt ID.
type resultFrame struct {
	ID      string `json:"id"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Payload []byte `json:"payload,omitempty"`
}

// checkVersion rejects frames from another protocol version.
func (f *frame) checkVersion() error {
	if f.V != protocolVersion {
		return fmt.Errorf("cluster: frame has protocol version %d, want %d", f.V, protocolVersion)
	}
	return nil
}

func helloMsg(worker string, cores int) frame {
	return frame{V: protocolVersion, Type: frameHello, Hello: &helloFrame{Worker: worker, Cores: cores}}
}

func taskMsg(id, job string, shard int, payload []byte) frame {
	return frame{V: protocolVersion, Type: frameTask, Task: &taskFrame{ID: id, Job: job, Shard: shard, Payload: payload}}
}

func resultMsg(id string, payload []byte, err error) frame {
	res := &resultFrame{ID: id, OK: err == nil, Payload: payload}
	if err != nil {
		res.Error = err.Error()
		res.Payload = nil
	}
	return frame{V: protocolVersion, Type: frameResult, Result: res}
}

func drainMsg() frame {
	return frame{V: protocolVersion, Type: frameDrain}
}
