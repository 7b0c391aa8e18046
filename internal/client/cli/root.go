package cli

import (
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the loop needs to operate.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isPaired() bool
	Pair(ctx context.Context) error
	Status(ctx context.Context) error
	List(ctx context.Context) error
	Add(ctx context.Context) error
	Show(ctx context.Context) error
	Update(ctx context.Context) error
	Delete(ctx context.Context) error
	Devices(ctx context.Context) error
	Rename(ctx context.Context) error
	Revoke(ctx context.Context) error
}

type lineReader interface {
	ReadString(delim byte) (string, error)
}

// Root runs the command loop until EOF or an exit command. Handler errors
// are reported by the handlers themselves; the loop only routes input.
func (a *App) Root(ctx context.Context) {
	printlnFn("onionkeep CLI (type 'help' for commands)")
	runLoop(ctx, a, a.reader)
}

func runLoop(ctx context.Context, a execIface, reader lineReader) {
	for {
		fmt.Print("okeep> ")
		line, err := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}

		switch parts[0] {
		case "help":
			if a.isPaired() {
				printlnFn("Available commands: list, add, show, update, delete, devices, rename, revoke, status, exit")
			} else {
				printlnFn("Available commands: pair, status, exit")
			}
		case "pair":
			a.Pair(ctx)
		case "status":
			a.Status(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			if !a.isPaired() {
				printlnFn("Not paired. Run 'pair' first.")
				break
			}
			switch parts[0] {
			case "list":
				a.List(ctx)
			case "add":
				a.Add(ctx)
			case "show":
				a.Show(ctx)
			case "update":
				a.Update(ctx)
			case "delete":
				a.Delete(ctx)
			case "devices":
				a.Devices(ctx)
			case "rename":
				a.Rename(ctx)
			case "revoke":
				a.Revoke(ctx)
			default:
				printlnFn("Unknown command. Type 'help' for the list.")
			}
		}

		if err != nil {
			return
		}
	}
}
