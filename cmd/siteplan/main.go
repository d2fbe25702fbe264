/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"siteplan/internal/crash"
	applog "siteplan/internal/log"
	"siteplan/internal/version"
)

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Siteplan: scaled geometry and measurement engine")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  siteplan version|-v|--version                         Show version")
	_, _ = fmt.Fprintln(w, "  siteplan measure [-no-history] <plan.json>            Measure every shape and print JSON")
	_, _ = fmt.Fprintln(w, "  siteplan annotate [-shape id] <plan.json>             Print dimension primitives as JSON")
	_, _ = fmt.Fprintln(w, "  siteplan snap -x X -y Y <plan.json>                   Snap a point to the plan grid")
	_, _ = fmt.Fprintln(w, "  siteplan align -shape id -dx DX -dy DY [-write] <plan.json>")
	_, _ = fmt.Fprintln(w, "                                                        Move a shape with snapping and alignment")
	_, _ = fmt.Fprintln(w, "  siteplan history [-shape id] [-limit n] [-prune n] <plan.json>")
	_, _ = fmt.Fprintln(w, "                                                        Show or prune recorded measurements")
	_, _ = fmt.Fprintln(w, "  siteplan report [-o out.pdf] [-sheet] <plan.json>     Write a measurement schedule PDF")
	_, _ = fmt.Fprintln(w, "  siteplan schema                                       Print the plan JSON schema")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Every command accepts -config <file> to use a specific YAML config.")
}

// errUsage marks bad invocations; they exit with status 2.
var errUsage = errors.New("usage")

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	session := &crash.Session{}
	defer crash.Recover(session)

	code := run(context.Background(), os.Args[1:], os.Stdout, session)
	if code != 0 {
		os.Exit(code)
	}
}

// run executes one command and returns the process exit status.
func run(ctx context.Context, args []string, out io.Writer, session *crash.Session) int {
	l := applog.WithComponent("cli")
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage(out)
		return 2
	}

	a := &app{out: out, session: session, log: l}
	var err error
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(out, "Siteplan")
		_, _ = fmt.Fprintln(out, version.String())
		return 0
	case "help", "-h", "--help":
		usage(out)
		return 0
	case "measure":
		err = a.measure(ctx, args[1:])
	case "annotate":
		err = a.annotate(ctx, args[1:])
	case "snap":
		err = a.snap(ctx, args[1:])
	case "align":
		err = a.align(ctx, args[1:])
	case "history":
		err = a.history(ctx, args[1:])
	case "report":
		err = a.report(ctx, args[1:])
	case "schema":
		err = a.schema(args[1:])
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage(out)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	default:
		l.Error(args[0]+" failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
}
