package main

import (
	"context"
	"log"

	"github.com/onionkeep/onionkeep/internal/server"
	"github.com/onionkeep/onionkeep/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatal(err)
	}

	app.Run(ctx)
}
