package bridge

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"
	"github.com/rivo/uniseg"
)

// location is where an exception was raised. line and column are 1-based;
// column counts bytes.
type location struct {
	file   string
	line   int
	column int
}

// report renders an uncaught exception:
//
//	Uncaught exception: <message>
//	at <file>:<line>:<column>
//	  <source line>
//	  <caret underline>
//	Stack trace: <stack>
//
// The reported column is 0-based. Pieces that are unknown are left out.
type report struct {
	message string
	loc     *location
	stack   string
}

func (r report) String() string {
	var b strings.Builder
	b.WriteString("Uncaught exception: ")
	b.WriteString(r.message)
	if r.loc != nil && r.loc.file != "" {
		start := max(r.loc.column-1, 0)
		b.WriteString("\nat ")
		b.WriteString(r.loc.file)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(r.loc.line))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(start))
	}
	return b.String()
}

func (r report) render(lookup func(string) (string, bool)) string {
	var b strings.Builder
	b.WriteString(r.String())
	if r.loc != nil && r.loc.file != "" && lookup != nil {
		if src, ok := lookup(r.loc.file); ok {
			if line, ok := sourceLine(src, r.loc.line); ok {
				b.WriteString("\n  ")
				b.WriteString(line)
				b.WriteString("\n  ")
				writeCaret(&b, line, max(r.loc.column-1, 0))
			}
		}
	}
	if r.stack != "" {
		b.WriteString("\nStack trace: ")
		b.WriteString(r.stack)
	}
	return b.String()
}

func sourceLine(src string, n int) (string, bool) {
	if n < 1 {
		return "", false
	}
	for i := 1; i < n; i++ {
		_, rest, ok := strings.Cut(src, "\n")
		if !ok {
			return "", false
		}
		src = rest
	}
	line, _, _ := strings.Cut(src, "\n")
	return strings.TrimSuffix(line, "\r"), true
}

// writeCaret underlines the token of line that starts at byte offset start.
// The padding keeps tabs and uses display widths, so the carets line up
// under wide characters too.
func writeCaret(b *strings.Builder, line string, start int) {
	start = min(start, len(line))
	g := uniseg.NewGraphemes(line[:start])
	for g.Next() {
		if s := g.Str(); s == "\t" {
			b.WriteByte('\t')
		} else {
			b.WriteString(strings.Repeat(" ", uniseg.StringWidth(s)))
		}
	}
	end := start
	for end < len(line) && isIdentByte(line[end]) {
		end++
	}
	b.WriteString(strings.Repeat("^", max(uniseg.StringWidth(line[start:end]), 1)))
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

// compile parses and compiles src. Parsing is done separately so that
// syntax errors keep their position.
func compile(name, src string) (*goja.Program, error) {
	prg, err := parser.ParseFile(nil, name, src, 0, parser.WithDisableSourceMaps)
	if err != nil {
		return nil, err
	}
	return goja.CompileAST(prg, false)
}

// formatCompileError turns a compile failure into an *Error.
func formatCompileError(err error, lookup func(string) (string, bool)) error {
	var (
		r    report
		list parser.ErrorList
		perr *parser.Error
		serr *goja.CompilerSyntaxError
		rerr *goja.CompilerReferenceError
	)
	switch {
	case errors.As(err, &list) && len(list) > 0:
		r = report{message: "SyntaxError: " + list[0].Message, loc: positionLocation(list[0].Position)}
	case errors.As(err, &perr):
		r = report{message: "SyntaxError: " + perr.Message, loc: positionLocation(perr.Position)}
	case errors.As(err, &serr):
		r = report{message: "SyntaxError: " + serr.Message}
		if serr.File != nil {
			r.loc = positionLocation(serr.File.Position(serr.Offset))
		}
	case errors.As(err, &rerr):
		r = report{message: "ReferenceError: " + rerr.Message}
		if rerr.File != nil {
			r.loc = positionLocation(rerr.File.Position(rerr.Offset))
		}
	default:
		r = report{message: err.Error()}
	}
	return &Error{Msg: r.render(lookup), Cause: err}
}

func positionLocation(p file.Position) *location {
	if p.Line == 0 {
		return nil
	}
	return &location{file: p.Filename, line: p.Line, column: p.Column}
}

// frameLocation finds the innermost script frame; native frames have no
// source.
func frameLocation(frames []goja.StackFrame) *location {
	for i := range frames {
		f := &frames[i]
		if f.SrcName() == "<native>" {
			continue
		}
		p := f.Position()
		if p.Line == 0 {
			continue
		}
		name := p.Filename
		if name == "" {
			name = f.SrcName()
		}
		return &location{file: name, line: p.Line, column: p.Column}
	}
	return nil
}

// exceptionError converts an engine error raised in c into an *Error with
// the formatted report. The caller holds the runtime lock.
func (c *Context) exceptionError(err error) error {
	if err == nil {
		return nil
	}
	var (
		r   report
		ie  *goja.InterruptedError
		ex  *goja.Exception
		bre *Error
	)
	switch {
	case errors.As(err, &bre):
		return err
	case errors.As(err, &ie):
		r.message = fmt.Sprint(ie.Value())
		r.loc = frameLocation(ie.Stack())
		r.stack = frameStack(ie.Stack())
	case errors.As(err, &ex):
		val := ex.Value()
		if val == nil {
			r.message = ex.Error()
		} else {
			r.message = c.toString(val)
		}
		r.loc = frameLocation(ex.Stack())
		if obj, ok := val.(*goja.Object); ok {
			if st, err := c.call(c.in.get, goja.Undefined(), obj, c.vm.ToValue("stack")); err == nil && !goja.IsUndefined(st) && !goja.IsNull(st) {
				r.stack = c.toString(st)
			}
		}
	default:
		return formatCompileError(err, c.lookupSource)
	}
	return &Error{Msg: r.render(c.lookupSource), Cause: err}
}

func frameStack(frames []goja.StackFrame) string {
	var b bytes.Buffer
	for i := range frames {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("    at ")
		frames[i].Write(&b)
	}
	return b.String()
}

func (c *Context) lookupSource(name string) (string, bool) {
	src, ok := c.sources[name]
	return src, ok
}
