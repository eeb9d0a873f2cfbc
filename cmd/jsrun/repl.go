package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joeycumines/go-prompt"
	istrings "github.com/joeycumines/go-prompt/strings"
	"github.com/joeycumines/jsbridge"
	"github.com/joeycumines/jsbridge/internal/config"
	"golang.org/x/term"
)

const replHelp = `Commands:
  .exit      leave the prompt
  .help      show this help
  .globals   list global names
  .logs [q]  show recent log entries, optionally only those matching q
Anything else is evaluated as JavaScript.
`

type repl struct {
	s           *session
	in          io.Reader
	prefix      string
	historyFile string
	historySize int
	history     []string
	exited      bool
}

func newREPL(s *session, schema *config.Schema, cfg *config.Config, in io.Reader) *repl {
	return &repl{
		s:           s,
		in:          in,
		prefix:      schema.Resolve(cfg, "repl.prompt"),
		historyFile: expandHome(schema.Resolve(cfg, "repl.history-file")),
		historySize: schema.ResolveInt(cfg, "repl.history-size"),
	}
}

func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~/")
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}

func (r *repl) run() error {
	r.history = loadHistory(r.historyFile)
	defer r.saveHistory()

	if f, ok := r.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.runPrompt()
		return nil
	}
	return r.runLines()
}

// runLines reads one input per line, for piped input.
func (r *repl) runLines() error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for !r.exited && scanner.Scan() {
		r.execute(scanner.Text())
	}
	return scanner.Err()
}

func (r *repl) runPrompt() {
	_, _ = fmt.Fprintf(r.s.stdout, "jsrun %s. Type .help for commands.\n", version)
	options := []prompt.Option{
		prompt.WithPrefix(r.prefix),
		prompt.WithTitle("jsrun"),
		prompt.WithCompleter(r.complete),
		prompt.WithExitChecker(func(string, bool) bool { return r.exited }),
	}
	if len(r.history) > 0 {
		options = append(options, prompt.WithHistory(r.history))
	}
	prompt.New(r.execute, options...).Run()
}

func (r *repl) execute(line string) {
	input := strings.TrimSpace(line)
	if input == "" {
		return
	}
	r.remember(input)

	if q, ok := strings.CutPrefix(input, ".logs"); ok && (q == "" || q[0] == ' ') {
		r.showLogs(strings.TrimSpace(q))
		return
	}

	switch input {
	case ".exit":
		r.exited = true
		return
	case ".help":
		_, _ = fmt.Fprint(r.s.stdout, replHelp)
		return
	case ".globals":
		keys, err := jsbridge.GetObjKeys(r.s.ctx.Global())
		if err != nil {
			r.s.reportError(err)
			return
		}
		slices.Sort(keys)
		_, _ = fmt.Fprintln(r.s.stdout, strings.Join(keys, " "))
		return
	}
	_ = r.s.evalAndPrint(input, "<repl>")
}

func (r *repl) showLogs(query string) {
	if r.s.logs == nil {
		return
	}
	entries := r.s.logs.Recent(0)
	if query != "" {
		entries = r.s.logs.Search(query)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(r.s.stdout, "no log entries")
		return
	}
	for _, e := range entries {
		_, _ = fmt.Fprintln(r.s.stdout, e.String())
	}
}

func (r *repl) remember(input string) {
	if n := len(r.history); n > 0 && r.history[n-1] == input {
		return
	}
	r.history = append(r.history, input)
}

// complete suggests property names for the dotted expression before the
// cursor, e.g. "console.wa" offers "warn".
func (r *repl) complete(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	before := d.TextBeforeCursor()
	if before == "" {
		before = d.Text
	}
	word := trailingIdentifier(before)
	end := istrings.RuneNumber(len([]rune(before)))

	path := strings.Split(word, ".")
	partial := path[len(path)-1]
	start := end - istrings.RuneNumber(len([]rune(partial)))
	if word == "" || strings.HasPrefix(word, ".") {
		return nil, start, end
	}

	obj := r.s.ctx.Global()
	for _, name := range path[:len(path)-1] {
		next, err := obj.Get(name)
		if err != nil || !next.IsKind(jsbridge.KindObject) {
			return nil, start, end
		}
		obj = next
	}
	keys, err := jsbridge.GetObjKeys(obj)
	if err != nil {
		return nil, start, end
	}
	slices.Sort(keys)
	var suggestions []prompt.Suggest
	for _, k := range keys {
		if strings.HasPrefix(k, partial) {
			suggestions = append(suggestions, prompt.Suggest{Text: k})
		}
	}
	return suggestions, start, end
}

// trailingIdentifier returns the run of identifier characters and dots at
// the end of s.
func trailingIdentifier(s string) string {
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if c == '.' || c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			i--
			continue
		}
		break
	}
	return s[i:]
}

func loadHistory(filename string) []string {
	if filename == "" {
		return nil
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil
	}
	var history []string
	for line := range strings.Lines(string(content)) {
		if line = strings.TrimSpace(line); line != "" {
			history = append(history, line)
		}
	}
	return history
}

func (r *repl) saveHistory() {
	if r.historyFile == "" || len(r.history) == 0 {
		return
	}
	entries := r.history
	if r.historySize > 0 && len(entries) > r.historySize {
		entries = entries[len(entries)-r.historySize:]
	}
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o755); err != nil {
		r.s.logger.Warn("saving history", "error", err)
		return
	}
	if err := os.WriteFile(r.historyFile, []byte(strings.Join(entries, "\n")+"\n"), 0o600); err != nil {
		r.s.logger.Warn("saving history", "error", err)
	}
}
