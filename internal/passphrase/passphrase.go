// Package passphrase generates short human-comparable word sequences. They
// are shown after pairing so the operator can confirm out-of-band that the
// server really talked to their device.
package passphrase

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Deliberately small and unambiguous word list; the codes are comparison
// aids, not secrets with entropy requirements.
var words = []string{
	"acorn", "amber", "anchor", "apple", "arrow", "badge", "basil", "beach",
	"berry", "birch", "blaze", "brick", "brook", "candle", "canyon", "cedar",
	"chalk", "cherry", "cliff", "cloud", "clover", "coral", "crane", "creek",
	"daisy", "dawn", "delta", "drift", "eagle", "ember", "fable", "falcon",
	"fern", "flint", "forest", "frost", "garnet", "glade", "grove", "harbor",
	"hazel", "heron", "ivory", "jade", "juniper", "kelp", "lagoon", "lantern",
	"lark", "lily", "linen", "maple", "marble", "meadow", "mint", "moss",
	"north", "oak", "ocean", "olive", "onyx", "opal", "orchid", "otter",
	"pearl", "pebble", "pine", "plume", "prairie", "quartz", "raven", "reef",
	"ridge", "river", "robin", "rowan", "saffron", "sage", "shale", "slate",
	"sparrow", "spruce", "stone", "summit", "thorn", "tidal", "topaz", "trail",
	"tulip", "umber", "valley", "violet", "walnut", "willow", "wren", "zephyr",
}

const defaultWordCount = 4

// Generate returns a passphrase of the default length.
func Generate() (string, error) {
	return GenerateN(defaultWordCount)
}

// GenerateN returns n random words joined by spaces.
func GenerateN(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("word count must be positive, got %d", n)
	}
	picked := make([]string, n)
	max := big.NewInt(int64(len(words)))
	for i := range picked {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("passphrase generation: %w", err)
		}
		picked[i] = words[idx.Int64()]
	}
	return strings.Join(picked, " "), nil
}
