package parser

import (
	"strconv"
	"strings"
)

// ExtractImageID reads the numeric identifier out of a "prefix_prefix_ID.ext" filename,
// e.g. "DJI_0001_0042.JPG" -> 42.
func ExtractImageID(filename string) (int, error) {
	parts := strings.Split(filename, "_")
	if len(parts) < 3 {
		return 0, &IDExtractionError{Filename: filename, Reason: "expected prefix_prefix_ID.ext"}
	}
	segment, _, _ := strings.Cut(parts[2], ".")
	id, err := strconv.Atoi(segment)
	if err != nil {
		return 0, &IDExtractionError{Filename: filename, Reason: "identifier is not an integer", Err: err}
	}
	return id, nil
}
