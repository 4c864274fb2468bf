// Package filex contains filename helpers for user-supplied file metadata.
package filex

import (
	"strings"

	"github.com/mpetrovs/filevault/internal/common"
)

// SanitizeFilename strips any directory components from a user-supplied
// filename and returns the remaining base name. Both '/' and '\' are
// treated as separators so that names produced on any client OS are
// handled the same way.
//
// Returns ErrorValidation when nothing usable remains (empty input, bare
// separators, "." or "..").
func SanitizeFilename(name string) (string, error) {
	s := name
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)

	if s == "" || s == "." || s == ".." {
		return "", common.ErrorValidation
	}

	return s, nil
}
