package chunker

import "github.com/pkoukk/tiktoken-go"

// TiktokenTokenizer measures chunk_size/chunk_overlap in model tokens rather
// than whitespace-delimited words, for callers that pass it as the Tokenizer
// of a token-unit splitter config to match an LLM's real context budget
// rather than an approximation of it. No configuration key selects it, and
// ChunkElements does not use it.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the encoding used by the given model name,
// falling back to "cl100k_base" when the model is unrecognized.
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Tokenize(text string) []string {
	ids := t.enc.Encode(text, nil, nil)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = t.enc.Decode([]int{id})
	}
	return out
}

func (t *TiktokenTokenizer) Detokenize(tokens []string) string {
	var out string
	for _, tok := range tokens {
		out += tok
	}
	return out
}
