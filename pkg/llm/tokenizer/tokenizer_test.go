package tokenizer

import (
	"testing"

	"github.com/entrhq/pagepilot/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestNilTokenizerEstimates(t *testing.T) {
	var tok *Tokenizer
	assert.Equal(t, 0, tok.CountTokens(""))
	assert.Equal(t, 1, tok.CountTokens("abc"))
	assert.Equal(t, 3, tok.CountTokens("0123456789"))
}

func TestCountMessagesTokensAddsOverhead(t *testing.T) {
	var tok *Tokenizer
	msgs := []*types.Message{types.NewUserMessage("abcd"), nil}
	// overhead + "user" + "abcd"
	assert.Equal(t, perMessageOverhead+1+1, tok.CountMessagesTokens(msgs))
}

func TestCountTokensWithEncoding(t *testing.T) {
	tok, err := New()
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	assert.Equal(t, 0, tok.CountTokens(""))
	short := tok.CountTokens("Fill the dosage field")
	long := tok.CountTokens("Fill the dosage field and then click the submit button on the form")
	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}
