// Command jsrun runs JavaScript files, or an interactive prompt, on an
// embedded engine.
//
//	jsrun [flags] [file.js ...] [-- script args]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/jsbridge"
	"github.com/joeycumines/jsbridge/console"
	"github.com/joeycumines/jsbridge/internal/builtin"
	"github.com/joeycumines/jsbridge/internal/config"
	"github.com/joeycumines/jsbridge/internal/logfile"
	"golang.org/x/term"
)

const version = "0.1.0"

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

// errSilent marks an error that has already been reported.
var errSilent = errors.New("jsrun: failed")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errSilent) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	eval        string
	interactive bool
	logLevel    string
	snapshot    string
	showVersion bool
	showConfig  bool
	files       []string
	scriptArgs  []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var opts options
	fs := flag.NewFlagSet("jsrun", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or ~/.jsrun/config)")
	fs.StringVar(&opts.eval, "e", "", "evaluate `code` and print the result")
	fs.BoolVar(&opts.interactive, "i", false, "start the prompt after running files")
	fs.StringVar(&opts.logLevel, "log-level", "", "override log.level")
	fs.StringVar(&opts.snapshot, "snapshot", "", "override script.snapshot")
	fs.BoolVar(&opts.showVersion, "version", false, "print the version and exit")
	fs.BoolVar(&opts.showConfig, "help-config", false, "describe the config options and exit")
	fs.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "Usage: jsrun [flags] [file.js ...] [-- script args]")
		_, _ = fmt.Fprintln(stderr, "\nOptions:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()
	for i, a := range rest {
		if a == "--" {
			opts.files, opts.scriptArgs = rest[:i], rest[i+1:]
			return &opts, nil
		}
	}
	opts.files = rest
	return &opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.showVersion {
		_, _ = fmt.Fprintf(stdout, "jsrun %s\n", version)
		return nil
	}
	schema := config.DefaultSchema()
	if opts.showConfig {
		_, _ = fmt.Fprint(stdout, schema.FormatHelp())
		return nil
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.snapshot != "" {
		cfg.Set("script.snapshot", opts.snapshot)
	}

	logger, logs, closeLog, err := openLogger(schema, cfg, opts.logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := newSession(schema, cfg, opts.scriptArgs, logger, stdout, stderr)
	if err != nil {
		return err
	}
	s.logs = logs
	defer s.close()

	for _, file := range opts.files {
		if err := s.runFile(file); err != nil {
			return err
		}
	}
	if opts.eval != "" {
		if err := s.evalAndPrint(opts.eval, "<eval>"); err != nil {
			return errSilent
		}
	}
	if opts.interactive || (len(opts.files) == 0 && opts.eval == "") {
		return newREPL(s, schema, cfg, stdin).run()
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

// recentLogs is how many log entries the prompt's .logs command can show.
const recentLogs = 200

// openLogger returns the logger configured by log.*, with levelFlag taking
// precedence over log.level. Records are kept in the returned Memory and,
// when log.file is set, written there as JSON lines.
func openLogger(schema *config.Schema, cfg *config.Config, levelFlag string) (*slog.Logger, *logfile.Memory, func(), error) {
	if levelFlag == "" {
		levelFlag = schema.Resolve(cfg, "log.level")
	}
	level, err := logfile.ParseLevel(levelFlag)
	if err != nil {
		return nil, nil, nil, err
	}
	mem := logfile.NewMemory(recentLogs)
	closeFn := func() {}
	var w io.Writer
	if path := schema.Resolve(cfg, "log.file"); path != "" {
		f, err := logfile.Open(path, schema.ResolveInt(cfg, "log.max-size-mb"), schema.ResolveInt(cfg, "log.max-files"))
		if err != nil {
			return nil, nil, nil, err
		}
		w, closeFn = f, func() { _ = f.Close() }
	}
	logger := logfile.NewLogger(w, level, mem)
	for _, warning := range cfg.Warnings {
		logger.Warn("config", "issue", warning)
	}
	return logger, mem, closeFn, nil
}

// session is one isolate and context with jsrun's globals installed.
type session struct {
	iso    *jsbridge.Isolate
	ctx    *jsbridge.Context
	logger *slog.Logger
	logs   *logfile.Memory
	stdout io.Writer
	stderr io.Writer
	color  bool
}

func newSession(schema *config.Schema, cfg *config.Config, scriptArgs []string, logger *slog.Logger, stdout, stderr io.Writer) (*session, error) {
	registry := require.NewRegistry(require.WithGlobalFolders(schema.ResolvePathList(cfg, "script.module-paths")...))
	builtin.Register(registry, scriptArgs)
	isoOpts := []jsbridge.Option{jsbridge.WithLogger(logger), jsbridge.WithRegistry(registry)}

	var (
		iso *jsbridge.Isolate
		err error
	)
	snapshotPath := schema.Resolve(cfg, "script.snapshot")
	if snapshotPath != "" {
		src, readErr := os.ReadFile(snapshotPath)
		if readErr != nil {
			return nil, fmt.Errorf("reading snapshot: %w", readErr)
		}
		snap, snapErr := jsbridge.CreateSnapshot(console.WrapForSnapshot(string(src)))
		if snapErr != nil {
			return nil, fmt.Errorf("snapshot %s: %w", snapshotPath, snapErr)
		}
		logger.Debug("created snapshot", "path", snapshotPath, "bytes", len(snap.Export()))
		iso, err = jsbridge.NewIsolateWithSnapshot(snap, isoOpts...)
	} else {
		iso, err = jsbridge.NewIsolate(isoOpts...)
	}
	if err != nil {
		return nil, err
	}

	ctx, err := iso.NewContext()
	if err != nil {
		iso.Release()
		return nil, err
	}

	s := &session{
		iso:    iso,
		ctx:    ctx,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
		color:  colorEnabled(schema.Resolve(cfg, "console.color"), stderr),
	}
	con := console.Config{Stdout: stdout, Stderr: stderr, Colorize: s.color}
	if snapshotPath != "" {
		err = console.FlushSnapshotAndInject(ctx, con)
	} else {
		err = con.Inject(ctx)
	}
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *session) close() {
	s.ctx.Release()
	s.iso.Release()
}

func (s *session) runFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s.logger.Debug("running script", "file", path)
	if _, err := s.ctx.Eval(string(src), path); err != nil {
		s.reportError(err)
		return errSilent
	}
	return nil
}

func (s *session) evalAndPrint(code, filename string) error {
	v, err := s.ctx.Eval(code, filename)
	if err != nil {
		s.reportError(err)
		return err
	}
	_, _ = fmt.Fprintln(s.stdout, formatValue(v))
	return nil
}

func (s *session) reportError(err error) {
	s.logger.Info("script error", "error", err)
	msg := err.Error()
	if s.color {
		msg = errorStyle.Render(msg)
	}
	_, _ = fmt.Fprintln(s.stderr, msg)
}

// formatValue renders a result for display: objects as JSON where they
// serialize, everything else as its string conversion.
func formatValue(v *jsbridge.Value) string {
	switch {
	case v.IsKind(jsbridge.KindUndefined):
		return "undefined"
	case v.IsKind(jsbridge.KindString):
		b, err := v.MarshalJSON()
		if err == nil {
			return string(b)
		}
	case v.IsKind(jsbridge.KindFunction), v.IsKind(jsbridge.KindNativeError), v.IsKind(jsbridge.KindDate):
	case v.IsKind(jsbridge.KindObject):
		if b, err := v.MarshalJSON(); err == nil && string(b) != "null" {
			return string(b)
		}
	}
	return v.String()
}
