package cluster

import (
	"strings"
	"testing"
)

func TestRunLocalWordCount(t *testing.T) {
	text := []byte("the quick brown fox jumps over the lazy dog the end")
	out, err := RunLocal(WordCount{}, TextShards(text, 4), 2)
	if err != nil {
		t.Fatalf("RunLocal failed: %v", err)
	}
	counts, err := DecodeCounts(out)
	if err != nil {
		t.Fatalf("DecodeCounts failed: %v", err)
	}
	if counts["the"] != 3 {
		t.Errorf(`counts["the"] = %d, want 3`, counts["the"])
	}
	for _, word := range []string{"quick", "brown", "fox", "jumps", "over", "lazy", "dog", "end"} {
		if counts[word] != 1 {
			t.Errorf("counts[%q] = %d, want 1", word, counts[word])
		}
	}
}

func TestRunLocalMatchesSingleWorker(t *testing.T) {
	text := []byte(strings.Repeat("pack my box with five dozen liquor jugs ", 20))
	input := TextShards(text, 8)

	single, err := RunLocal(WordCount{}, input, 1)
	if err != nil {
		t.Fatalf("single-worker run failed: %v", err)
	}
	parallel, err := RunLocal(WordCount{}, input, 4)
	if err != nil {
		t.Fatalf("four-worker run failed: %v", err)
	}

	a, err := DecodeCounts(single)
	if err != nil {
		t.Fatalf("DecodeCounts failed: %v", err)
	}
	b, err := DecodeCounts(parallel)
	if err != nil {
		t.Fatalf("DecodeCounts failed: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("worker count changed the result: %d words vs %d", len(a), len(b))
	}
	for word, n := range a {
		if b[word] != n {
			t.Errorf("counts[%q] = %d with 4 workers, %d with 1", word, b[word], n)
		}
	}
}

func TestRunLocalEmptyInput(t *testing.T) {
	out, err := RunLocal(WordCount{}, nil, 3)
	if err != nil {
		t.Fatalf("RunLocal failed: %v", err)
	}
	counts, err := DecodeCounts(out)
	if err != nil {
		t.Fatalf("DecodeCounts failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("empty input produced counts %v", counts)
	}
}

func TestRunLocalRegistersUnknownJobs(t *testing.T) {
	job := echoJob{name: "local-auto-register"}
	out, err := RunLocal(job, Input{[]byte("a"), []byte("b")}, 2)
	if err != nil {
		t.Fatalf("RunLocal failed: %v", err)
	}
	if string(out) != "a b" {
		t.Errorf("output = %q, want %q", out, "a b")
	}
	if _, ok := lookupJob(job.Name()); !ok {
		t.Error("RunLocal did not register the job")
	}
}
