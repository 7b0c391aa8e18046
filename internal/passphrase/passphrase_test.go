package passphrase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_WordCount(t *testing.T) {
	p, err := Generate()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(p), defaultWordCount)
}

func TestGenerateN_WordsComeFromList(t *testing.T) {
	known := make(map[string]struct{}, len(words))
	for _, w := range words {
		known[w] = struct{}{}
	}

	p, err := GenerateN(10)
	require.NoError(t, err)

	for _, w := range strings.Fields(p) {
		_, ok := known[w]
		assert.True(t, ok, "unexpected word %q", w)
	}
}

func TestGenerateN_RejectsNonPositive(t *testing.T) {
	_, err := GenerateN(0)
	assert.Error(t, err)
	_, err = GenerateN(-3)
	assert.Error(t, err)
}
