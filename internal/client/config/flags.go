package config

import (
	"flag"
	"os"

	"github.com/onionkeep/onionkeep/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-e string   server base URL (e.g., "http://127.0.0.1:52477")
//	-f string   session file path
//
// Args are first filtered to the flags handled here, avoiding collisions
// with flags owned by other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-e", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "e", config.EndpointAddr, "server base URL")
	fs.StringVar(&config.SessionFile, "f", config.SessionFile, "session file path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
