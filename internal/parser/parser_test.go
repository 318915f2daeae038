package parser

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)), DefaultConfig())
}

// posPreamble is the 5-line preamble plus the column-name line of a positioning file.
func posPreamble(eastName string) string {
	var b strings.Builder
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "%% header line %d\n", i)
	}
	names := make([]string, 35)
	for i := range names {
		names[i] = fmt.Sprintf("c%d", i)
	}
	names[5] = "time"
	names[24] = eastName
	names[25] = "north(m)"
	names[33] = "elevation(m)"
	b.WriteString(strings.Join(names, " "))
	b.WriteByte('\n')
	return b.String()
}

// posRow renders one data row with the default column layout.
func posRow(clock string, east, north, elev float64) string {
	fields := make([]string, 35)
	for i := range fields {
		fields[i] = "0"
	}
	fields[4] = "2023/08/01"
	fields[5] = clock
	fields[24] = fmt.Sprintf("%.4f", east)
	fields[25] = fmt.Sprintf("%.4f", north)
	fields[33] = fmt.Sprintf("%.4f", elev)
	return strings.Join(fields, "  ")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writePos(t *testing.T, rows ...string) string {
	t.Helper()
	return writeFile(t, "solution.pos", posPreamble("east(m)")+strings.Join(rows, "\n")+"\n")
}

func splitFields(row string) []string {
	return strings.Fields(row)
}

func joinFields(fields []string) string {
	return strings.Join(fields, "  ")
}
