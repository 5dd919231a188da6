package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/lifevault/internal/client/services"
	"github.com/dmitrijs2005/lifevault/internal/common"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	state() services.GateState
	Setup(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error
	Lock(ctx context.Context, args []string) error
	Wipe(ctx context.Context, args []string) error
	Tasks(ctx context.Context, args []string) error
	Money(ctx context.Context, args []string) error
	Contacts(ctx context.Context, args []string) error
	Records(ctx context.Context, args []string) error
	Undo(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Size(ctx context.Context, args []string) error
	Currency(ctx context.Context, args []string) error
}

const lockedHelp = `Available commands:
  setup            create the PIN (first run or after wipe)
  unlock           enter the PIN
  wipe             delete all data and the PIN
  exit | quit      leave the program`

const unlockedHelp = `Available commands:
  tasks [add|done|edit|rm|remind]      to-do list
  money [in|out|edit|rm]               income and expenses
  contacts [find|add|edit|rm]          address book
  records [add|open|rename|rm]         stored documents
  undo                                 restore the last deleted item
  export | import <file>               backup to and from JSON
  size                                 record counts
  currency [code]                      show or change the currency
  lock | wipe | exit`

// runREPL starts the read-eval-print loop.
//
// Commands and the prompts issued by handlers share reader, so scripted
// input is consumed in order. The prompt shows statusFn. While the vault
// is not unlocked only setup, unlock, wipe, help and exit are accepted.
// Handler errors are printed and the loop continues. It returns on EOF,
// on "exit" or "quit", or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "lifevault (%s)> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		unlocked := a.state() == services.Unlocked
		guarded := func(fn func(context.Context, []string) error) error {
			if !unlocked {
				return common.ErrLocked
			}
			return fn(ctx, args)
		}

		switch cmd {
		case "help", "?":
			if unlocked {
				fmt.Fprintln(w, unlockedHelp)
			} else {
				fmt.Fprintln(w, lockedHelp)
			}
			err = nil

		case "setup":
			err = a.Setup(ctx, args)

		case "unlock":
			err = a.Unlock(ctx, args)

		case "wipe":
			err = a.Wipe(ctx, args)

		case "lock":
			err = guarded(a.Lock)

		case "tasks", "t":
			err = guarded(a.Tasks)

		case "money", "m":
			err = guarded(a.Money)

		case "contacts", "c":
			err = guarded(a.Contacts)

		case "records", "r":
			err = guarded(a.Records)

		case "undo", "u":
			err = guarded(a.Undo)

		case "export":
			err = guarded(a.Export)

		case "import":
			err = guarded(a.Import)

		case "size":
			err = guarded(a.Size)

		case "currency":
			err = guarded(a.Currency)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
			err = nil
		}

		if err != nil {
			fmt.Fprintln(w, Error.Sprint("Error: ")+describeError(err))
		}
	}
}
