package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dmitrijs2005/lifevault/internal/client/validation"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/fatih/color"
)

// Formatter applies semantic formatting to text.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f Formatter) Sprint(a ...any) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

func (f Formatter) Sprintf(format string, a ...any) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

// noColor reports whether colour output is disabled, either through
// NO_COLOR or because fatih/color found no capable terminal.
func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}
	Info    = Formatter{color.New(color.FgCyan), "", ""}
	Heading = Formatter{color.New(color.Bold), "", ""}
	Muted   = Formatter{color.New(color.FgHiBlack), "(", ")"}
)

// describeError turns a service error into the line shown to the user.
func describeError(err error) string {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, common.ErrLocked):
		return "Vault is locked. Type 'unlock' first."
	case errors.Is(err, common.ErrDuplicate):
		return "Contact with this phone number already exists"
	case errors.Is(err, common.ErrIDTaken):
		return "Could not restore: its id is already in use"
	case errors.Is(err, common.ErrDecryption):
		return "Could not open the file: wrong PIN or corrupted data"
	case errors.Is(err, common.ErrNotFound):
		return "Not found"
	case errors.Is(err, common.ErrCancelled):
		return "Cancelled"
	case errors.Is(err, common.ErrFormat):
		return "Not a valid backup file: " + err.Error()
	}
	return err.Error()
}

// syncWriter serializes writes from the REPL and reminder timers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func ensureNewline(s string) string {
	if !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}

// startSpinner shows a spinner on w while a slow operation runs. When
// enabled is false nothing is drawn. The returned cleanup stops the
// spinner and prints s.FinalMSG, if set, on its own line.
func startSpinner(w io.Writer, message string, enabled bool) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	_ = s.Color("cyan")

	if enabled {
		s.Start()
	}

	cleanup := func() {
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ensureNewline(s.FinalMSG)
			s.FinalMSG = ""
		}
		if enabled {
			s.Stop()
		}
		if finalMsg != "" {
			fmt.Fprint(w, finalMsg)
		}
	}
	return s, cleanup
}
