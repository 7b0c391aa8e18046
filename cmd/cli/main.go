package main

import (
	"context"
	"log"

	"github.com/onionkeep/onionkeep/internal/client/cli"
	"github.com/onionkeep/onionkeep/internal/client/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(context.Background())
}
