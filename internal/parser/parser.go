package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Config describes the fixed layout of the positioning (.pos) file.
// Column indices are 0-based positions after whitespace splitting.
type Config struct {
	HeaderLines     int  // preamble lines skipped before anything else
	ColumnHeader    bool // a column-name line follows the preamble
	TimeColumn      int
	EastColumn      int
	NorthColumn     int
	ElevationColumn int
}

// DefaultConfig matches the solution files produced by the base station post-processing.
func DefaultConfig() Config {
	return Config{
		HeaderLines:     5,
		ColumnHeader:    true,
		TimeColumn:      5,
		EastColumn:      24,
		NorthColumn:     25,
		ElevationColumn: 33,
	}
}

// minFields is the smallest row width that holds every configured column.
func (c Config) minFields() int {
	return max(c.TimeColumn, c.EastColumn, c.NorthColumn, c.ElevationColumn) + 1
}

// Validate checks that the configured columns are usable.
func (c Config) Validate() error {
	if c.HeaderLines < 0 {
		return fmt.Errorf("header line count must not be negative, got %d", c.HeaderLines)
	}
	cols := map[string]int{
		"time":      c.TimeColumn,
		"east":      c.EastColumn,
		"north":     c.NorthColumn,
		"elevation": c.ElevationColumn,
	}
	seen := make(map[int]string, len(cols))
	for name, idx := range cols {
		if idx < 0 {
			return fmt.Errorf("%s column must not be negative, got %d", name, idx)
		}
		if other, ok := seen[idx]; ok {
			return fmt.Errorf("%s and %s columns both point at index %d", name, other, idx)
		}
		seen[idx] = name
	}
	return nil
}

// Parser turns the raw text sources of a run into immutable tables.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
	cfg    Config
}

// NewParser creates a parser for the given positioning file layout.
func NewParser(logger *slog.Logger, cfg Config) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger: logger,
		cfg:    cfg,
	}
}

// parseMillimetres reads an offset token such as "  -17,N" and keeps the leading number.
func parseMillimetres(token string) (float64, error) {
	value, _, _ := strings.Cut(token, ",")
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}
