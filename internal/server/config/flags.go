package config

import (
	"flag"
	"os"
	"time"

	"github.com/onionkeep/onionkeep/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address (e.g., "127.0.0.1:52477")
//	-x          allow binding a non-loopback address
//	-s string   storage backend: memory | postgres | s3
//	-d string   PostgreSQL DSN
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-t int      storage timeout, seconds
//
// Args are first filtered to the flags handled here, avoiding collisions
// with flags owned by other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-x", "-s", "-d", "-u", "-p", "-b", "-g", "-e", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.BoolVar(&config.AllowNonLoopback, "x", config.AllowNonLoopback, "allow non-loopback bind address")
	fs.StringVar(&config.StorageBackend, "s", config.StorageBackend, "storage backend (memory|postgres|s3)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	storageTimeout := fs.Int("t", int(config.StorageTimeout.Seconds()), "storage timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.StorageTimeout = time.Duration(*storageTimeout) * time.Second
}
