package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/loomdb/loomdb/internal/engine/executor"
	"github.com/loomdb/loomdb/internal/engine/store"
	"github.com/loomdb/loomdb/internal/logging"
	"github.com/loomdb/loomdb/internal/persistence"
)

var log = logging.GetLogger("cli")

const prompt = "loomdb> "

// REPL reads statements line by line and executes them against a
// store. Dot-commands handle everything that is not SQL.
type REPL struct {
	store *store.Store
	in    io.Reader
	out   io.Writer
}

// NewREPL constructs a REPL over the given store and streams.
func NewREPL(s *store.Store, in io.Reader, out io.Writer) *REPL {
	return &REPL{store: s, in: in, out: out}
}

// Run loops until EOF or .quit. Statement errors print and the loop
// continues; only stream errors end it.
func (r *REPL) Run() error {
	fmt.Fprintln(r.out, "loomdb interactive shell (.help for commands)")
	scanner := bufio.NewScanner(r.in)

	for {
		fmt.Fprint(r.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		line := normalize(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := r.dotCommand(line); quit {
				return nil
			}
			continue
		}

		r.execute(line)
	}
}

// normalize trims whitespace and a trailing statement terminator from
// an input line.
func normalize(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimSuffix(line, ";")
	return strings.TrimSpace(line)
}

// dotCommand handles the non-SQL commands. Returns true for .quit.
func (r *REPL) dotCommand(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".quit", ".exit":
		return true
	case ".help":
		fmt.Fprintln(r.out, "commands:")
		fmt.Fprintln(r.out, "  .tables            list tables")
		fmt.Fprintln(r.out, "  .schema <table>    show a table's columns and types")
		fmt.Fprintln(r.out, "  .load <file.yaml>  load a YAML table fixture")
		fmt.Fprintln(r.out, "  .quit              leave the shell")
		fmt.Fprintln(r.out, "anything else is executed as a SELECT statement")
	case ".tables":
		for _, name := range r.store.Names() {
			fmt.Fprintf(r.out, "%s (%d rows)\n", name, r.store.Get(name).RowCount())
		}
	case ".schema":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: .schema <table>")
			return false
		}
		t := r.store.Get(fields[1])
		if t == nil {
			fmt.Fprintf(r.out, "no such table: %s\n", fields[1])
			return false
		}
		for i, col := range t.Columns() {
			fmt.Fprintf(r.out, "  %s %s\n", col, t.Types()[i])
		}
	case ".load":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: .load <file.yaml>")
			return false
		}
		r.loadFixture(fields[1])
	default:
		fmt.Fprintf(r.out, "unknown command: %s\n", fields[0])
	}
	return false
}

func (r *REPL) loadFixture(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	t, err := persistence.LoadYAML(data)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	if err := r.store.Add(t); err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	log.Info("fixture loaded", "path", path, "table", t.Name(), "rows", t.RowCount())
	fmt.Fprintf(r.out, "loaded %s (%d rows)\n", t.Name(), t.RowCount())
}

func (r *REPL) execute(statement string) {
	result, err := executor.Run(r.store, statement)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	WriteTable(r.out, result)
}
