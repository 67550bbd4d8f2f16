package cluster

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
)

// WordCount is the canonical map-reduce job: Map counts words in
// one shard of text, Reduce sums the per-shard maps. Words are
// lowercased and stripped of surrounding punctuation, so "Flynn," and
// "flynn" count together.
//
// WordCount registers itself, so workers know it out of the box.
type WordCount struct{}

func init() {
	_ = Register(WordCount{})
}

func (WordCount) Name() string { return "wordcount" }

func (WordCount) Map(shard int, payload []byte) ([]byte, error) {
	counts := make(map[string]int)
	for _, field := range strings.Fields(string(payload)) {
		word := strings.ToLower(strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if word != "" {
			counts[word]++
		}
	}
	return json.Marshal(counts)
}

func (WordCount) Reduce(partials [][]byte) ([]byte, error) {
	return mergeCounts(partials)
}

// TextShards splits text into at most n payloads, cutting only at
// whitespace so no word straddles a shard boundary. Short inputs
// produce fewer shards; the result always has at least one.
func TextShards(text []byte, n int) Input {
	if n < 1 {
		n = 1
	}
	shards := make(Input, 0, n)
	for len(shards) < n-1 && len(text) > 0 {
		target := len(text) / (n - len(shards))
		if target >= len(text) {
			break
		}
		cut := target
		for cut < len(text) && !isSpace(text[cut]) {
			cut++
		}
		if cut == len(text) {
			break
		}
		shards = append(shards, bytes.TrimSpace(text[:cut]))
		text = bytes.TrimSpace(text[cut:])
	}
	shards = append(shards, bytes.TrimSpace(text))
	return shards
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
