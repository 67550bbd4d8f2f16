// Package cluster is the distributed multiprocessing lab: a master
// dispatches map tasks to workers over websockets and reduces their
// results. The moving parts of a real map-reduce deployment are all
// here at teaching scale: a versioned JSON wire protocol, worker
// registration, round-robin dispatch, retry on failure, and
// reassignment on disconnect.
package cluster

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Input is the job input split into one payload per shard.
type Input [][]byte

// Output is the reduced result of a job.
type Output []byte

// Job is a map-reduce computation. Map runs on workers, one call per
// shard; Reduce runs on the master over the partial results in shard
// order. Implementations must be safe for concurrent Map calls.
type Job interface {
	Name() string
	Map(shard int, payload []byte) ([]byte, error)
	Reduce(partials [][]byte) ([]byte, error)
}

// registry maps job names to implementations. Workers look jobs up by
// the name carried in task frames, so both sides must register a job
// before running it.
var registry = struct {
	sync.RWMutex
	jobs map[string]Job
}{jobs: make(map[string]Job)}

// Register makes a job available to workers by name.
func Register(job Job) error {
	registry.Lock()
	defer registry.Unlock()
	name := job.Name()
	if _, dup := registry.jobs[name]; dup {
		return fmt.Errorf("cluster: job %q already registered", name)
	}
	registry.jobs[name] = job
	return nil
}

func lookupJob(name string) (Job, bool) {
	registry.RLock()
	defer registry.RUnlock()
	job, ok := registry.jobs[name]
	return job, ok
}

// mergeCounts sums JSON string→count maps, the reduce shared by the
// counting jobs.
func mergeCounts(partials [][]byte) ([]byte, error) {
	total := make(map[string]int)
	for i, p := range partials {
		if len(p) == 0 {
			continue
		}
		var counts map[string]int
		if err := json.Unmarshal(p, &counts); err != nil {
			return nil, fmt.Errorf("cluster: partial %d is not a count map: %w", i, err)
		}
		for k, v := range counts {
			total[k] += v
		}
	}
	return json.Marshal(total)
}

// DecodeCounts decodes the output of a counting job back into a map.
func DecodeCounts(out Output) (map[string]int, error) {
	counts := make(map[string]int)
	if err := json.Unmarshal(out, &counts); err != nil {
		return nil, fmt.Errorf("cluster: output is not a count map: %w", err)
	}
	return counts, nil
}

// TopCounts returns the n highest-count keys in descending order, ties
// broken alphabetically. The transcript helper for count outputs.
func TopCounts(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n > len(keys) {
		n = len(keys)
	}
	return keys[:n]
}
