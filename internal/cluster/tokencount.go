package cluster

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkoukk/tiktoken-go"
)

// encodingCL100kBase is the encoding used by GPT-4 class models.
const encodingCL100kBase = "cl100k_base"

// TokenCount is WordCount with a real tokenizer as the map function:
// Map runs cl100k_base BPE over its shard and counts token IDs, Reduce
// sums the per-shard maps. Keys are decimal token IDs, since a single
// BPE token need not be valid UTF-8 on its own.
type TokenCount struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCount loads the cl100k_base encoding. The first load fetches
// the BPE ranks, so this can fail without network access.
func NewTokenCount() (*TokenCount, error) {
	enc, err := tiktoken.GetEncoding(encodingCL100kBase)
	if err != nil {
		return nil, fmt.Errorf("cluster: load tiktoken encoding %q: %w", encodingCL100kBase, err)
	}
	return &TokenCount{enc: enc}, nil
}

func (*TokenCount) Name() string { return "tokencount" }

func (t *TokenCount) Map(shard int, payload []byte) ([]byte, error) {
	counts := make(map[string]int)
	for _, id := range t.enc.Encode(string(payload), nil, nil) {
		counts[strconv.Itoa(id)]++
	}
	return json.Marshal(counts)
}

func (t *TokenCount) Reduce(partials [][]byte) ([]byte, error) {
	return mergeCounts(partials)
}

// TotalTokens sums a TokenCount output into one number.
func TotalTokens(out Output) (int, error) {
	counts, err := DecodeCounts(out)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}
