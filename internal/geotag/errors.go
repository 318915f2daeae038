package geotag

import (
	"errors"
	"fmt"
)

// ErrNoCaptureEntry is wrapped by MatchError.
var ErrNoCaptureEntry = errors.New("no capture entry")

// MatchError reports an image whose id is absent from the capture log.
type MatchError struct {
	Filename string
	ImageID  int
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("%s (id %d): %v", e.Filename, e.ImageID, ErrNoCaptureEntry)
}

func (e *MatchError) Unwrap() error {
	return ErrNoCaptureEntry
}
