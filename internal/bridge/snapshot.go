package bridge

import (
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja"
)

// SnapshotFilename is the script name that startup data runs under.
const SnapshotFilename = "<embedded>"

const snapshotMagic = "jsbridge-snapshot\x00v1\n"

// CreateSnapshot produces startup data for NewRuntime. The engine has no
// serialized heap format, so the startup data carries the bootstrap source,
// which is compiled here to reject broken input early and compiled again
// by NewRuntime.
func CreateSnapshot(source string) ([]byte, error) {
	if !utf8.ValidString(source) {
		return nil, &Error{Msg: "Invalid snapshot source: not valid UTF-8"}
	}
	if _, err := compile(SnapshotFilename, source); err != nil {
		return nil, formatCompileError(err, func(string) (string, bool) { return source, true })
	}
	data := make([]byte, 0, len(snapshotMagic)+len(source))
	data = append(data, snapshotMagic...)
	data = append(data, source...)
	return data, nil
}

func loadSnapshot(data []byte) (*goja.Program, string, error) {
	src, ok := strings.CutPrefix(string(data), snapshotMagic)
	if !ok {
		return nil, "", ErrInvalidSnapshot
	}
	prg, err := compile(SnapshotFilename, src)
	if err != nil {
		return nil, "", formatCompileError(err, func(string) (string, bool) { return src, true })
	}
	return prg, src, nil
}
