// Package cli implements the interactive operator client: pairing with a
// server and managing the vault from a terminal.
package cli

import (
	"bufio"
	"context"
	"errors"
	"os"

	"github.com/onionkeep/onionkeep/internal/client"
	"github.com/onionkeep/onionkeep/internal/client/config"
)

type App struct {
	config  *config.Config
	session *client.Session
	api     *client.Client
	reader  *bufio.Reader
}

// NewApp loads the session file if one exists. A missing session just means
// the device is not paired yet; every other read error is fatal.
func NewApp(c *config.Config) (*App, error) {
	a := &App{config: c, reader: bufio.NewReader(os.Stdin)}

	session, err := client.LoadSession(c.SessionFile)
	if err == nil {
		a.session = session
		a.api = client.New(session)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return a, nil
}

func (a *App) isPaired() bool {
	return a.session != nil
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}
