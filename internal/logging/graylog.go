package logging

import (
	"fmt"
	"io"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogWriter dials a GELF UDP endpoint such as "localhost:12201".
// Each Write becomes one GELF message.
func NewGraylogWriter(address string) (io.WriteCloser, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to graylog at %s: %w", address, err)
	}
	return w, nil
}
