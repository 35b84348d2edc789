package errors

import (
	"os"
	"strings"
	"unicode"
)

// ValidateWorkDir checks that dir names an existing directory.
// The pipeline reads its inputs from and writes its outputs into this directory.
func ValidateWorkDir(dir string) error {
	if dir == "" {
		return New(ErrCodeInvalidPath, "working directory cannot be empty")
	}
	for _, r := range dir {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "working directory contains invalid characters")
		}
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return New(ErrCodeFileNotFound, "working directory %s does not exist", dir)
	}
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "stat %s", dir)
	}
	if !info.IsDir() {
		return New(ErrCodeInvalidPath, "%s is not a directory", dir)
	}
	return nil
}

// RequireFile checks that path exists and is a regular file.
func RequireFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return New(ErrCodeFileNotFound, "missing input file %s", path)
	}
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "stat %s", path)
	}
	if info.IsDir() {
		return New(ErrCodeInvalidPath, "%s is a directory, expected a file", path)
	}
	return nil
}

// ValidateJobID validates a job identifier received over HTTP before it is
// used as a directory name. IDs are UUIDs; anything that could escape the
// data directory is rejected.
func ValidateJobID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "job id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "job id too long (max 64 characters)")
	}
	if strings.ContainsAny(id, `/\.`) || strings.ContainsRune(id, 0) {
		return New(ErrCodeInvalidInput, "job id contains invalid characters")
	}
	return nil
}
