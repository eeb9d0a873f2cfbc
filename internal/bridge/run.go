package bridge

import (
	"unicode/utf8"
)

// DefaultFilename names scripts run without a filename.
const DefaultFilename = "(no file)"

// Run compiles and runs source in c. Syntax errors, uncaught exceptions
// and termination are reported through Result.Err as formatted text
// (see Error); they never escape as panics.
func (c *Context) Run(source, filename string) Result {
	if filename == "" {
		filename = DefaultFilename
	}
	if !utf8.ValidString(filename) {
		return c.failure(ErrInvalidFilename)
	}

	s, err := c.enter()
	if err != nil {
		return c.failure(err)
	}
	defer s.exit()

	c.sources[filename] = source

	prg, err := compile(filename, source)
	if err != nil {
		c.log.Debug("compile failed", "filename", filename, "error", err)
		return c.failure(formatCompileError(err, c.lookupSource))
	}

	val, err := c.vm.RunProgram(prg)
	if err != nil {
		c.log.Debug("run failed", "filename", filename, "error", err)
		return c.failure(c.exceptionError(err))
	}
	return c.result(val)
}
