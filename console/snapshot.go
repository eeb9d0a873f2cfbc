package console

import (
	"fmt"

	"github.com/joeycumines/jsbridge"
)

// bufferName is the global holding console calls recorded during snapshot
// creation.
const bufferName = "__jsbridgeConsoleBuffer"

// snapshotPrelude defines a recording console. It is a single line, so the
// wrapped script keeps its line numbers.
const snapshotPrelude = `var ` + bufferName + ` = [], console = (function (buf) {` +
	`function where() {` +
	`var lines = String(new Error().stack).split("\n");` +
	`var m = /([^\s(]+):(\d+):\d+(?:\(\d+\))?\)?\s*$/.exec(lines[3] || "");` +
	`return m ? [m[1], +m[2]] : ["", 0];` +
	`}` +
	`function rec(level) {` +
	`return function () {` +
	`var loc = where(), args = [];` +
	`for (var i = 0; i < arguments.length; i++) args.push(String(arguments[i]));` +
	`buf.push({level: level, file: loc[0], line: loc[1], args: args});` +
	`};` +
	`}` +
	`return {log: rec(0), info: rec(1), warn: rec(2), error: rec(3)};` +
	`})(` + bufferName + `);`

// WrapForSnapshot prepares js for jsbridge.CreateSnapshot so that console
// calls made while the snapshot script runs are recorded, to be written
// later by FlushSnapshotAndInject.
func WrapForSnapshot(js string) string {
	return snapshotPrelude + js
}

type record struct {
	Level int      `json:"level"`
	File  string   `json:"file"`
	Line  int      `json:"line"`
	Args  []string `json:"args"`
}

// FlushSnapshotAndInject writes the console calls recorded in a Context
// created from a snapshot of WrapForSnapshot output, then installs c as the
// Context's console. For a Context without recorded calls it only installs
// c.
func FlushSnapshotAndInject(ctx *jsbridge.Context, c Config) error {
	global := ctx.Global()
	buf, err := global.Get(bufferName)
	if err != nil {
		return err
	}
	var records []record
	if err := jsbridge.ReadInto(&records, buf, 3); err != nil {
		return fmt.Errorf("console: reading snapshot buffer: %w", err)
	}
	undefined, err := ctx.Create(nil)
	if err != nil {
		return err
	}
	if err := global.Set(bufferName, undefined); err != nil {
		return err
	}

	for _, r := range records {
		if r.Level < 0 || r.Level >= len(levelNames) {
			continue
		}
		caller := jsbridge.Loc{Filename: r.File, Line: r.Line}
		if err := c.write(level(r.Level), caller, r.Args); err != nil {
			return err
		}
	}
	return c.Inject(ctx)
}
