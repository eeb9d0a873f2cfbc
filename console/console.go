// Package console installs a console object (log, info, warn, error) into a
// jsbridge.Context, writing to Go io.Writers.
//
// log and info write their arguments, space separated, to Stdout. warn and
// error write to Stderr and include the script location of the call:
//
//	> [filename.js:4] Where's mah bucket?
package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/joeycumines/jsbridge"
)

var (
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Config describes one console. The zero value writes to os.Stdout and
// os.Stderr without a prefix.
type Config struct {
	// Prefix starts every line written.
	Prefix string
	// Stdout receives console.log and console.info.
	Stdout io.Writer
	// Stderr receives console.warn and console.error.
	Stderr io.Writer
	// ErrorsAsErrors makes console.error throw an Error carrying the
	// formatted line instead of writing it.
	ErrorsAsErrors bool
	// Colorize styles warn output yellow and error output red.
	Colorize bool
}

type level int

const (
	levelLog level = iota
	levelInfo
	levelWarn
	levelError
)

var levelNames = [...]string{"log", "info", "warn", "error"}

// Inject sets the global console of ctx, replacing any existing one.
func (c Config) Inject(ctx *jsbridge.Context) error {
	obj, err := ctx.Create(map[string]any{})
	if err != nil {
		return err
	}
	for lvl, name := range levelNames {
		fn, err := ctx.NewFunction(name, func(in jsbridge.CallbackArgs) (*jsbridge.Value, error) {
			args := make([]string, len(in.Args))
			for i, a := range in.Args {
				args[i] = a.String()
			}
			return nil, c.write(level(lvl), in.Caller, args)
		})
		if err != nil {
			return err
		}
		if err := obj.Set(name, fn); err != nil {
			return err
		}
	}
	return ctx.Global().Set("console", obj)
}

func (c Config) write(lvl level, caller jsbridge.Loc, args []string) error {
	var b strings.Builder
	b.WriteString(c.Prefix)
	if lvl >= levelWarn {
		fmt.Fprintf(&b, "[%s:%d] ", caller.Filename, caller.Line)
	}
	b.WriteString(strings.Join(args, " "))
	line := b.String()

	if lvl == levelError && c.ErrorsAsErrors {
		return errors.New(line)
	}
	if c.Colorize {
		switch lvl {
		case levelWarn:
			line = warnStyle.Render(line)
		case levelError:
			line = errorStyle.Render(line)
		}
	}

	w := c.Stdout
	if lvl >= levelWarn {
		w = c.Stderr
	}
	if w == nil {
		w = os.Stdout
		if lvl >= levelWarn {
			w = os.Stderr
		}
	}
	_, err := io.WriteString(w, line+"\n")
	return err
}
