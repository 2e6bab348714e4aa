// Package actions writes workflow outputs for GitHub Actions runs.
package actions

import (
	"fmt"
	"os"
	"strconv"
)

// OutputEnv is the environment variable GitHub Actions sets to the
// path of the step output file.
const OutputEnv = "GITHUB_OUTPUT"

// OutputPath returns the configured output file path, or "" when not
// running under GitHub Actions.
func OutputPath() string {
	return os.Getenv(OutputEnv)
}

// WriteHasChanges appends the has_changes output line to the file at
// path. A no-op when path is empty.
func WriteHasChanges(path string, hasChanges bool) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "has_changes=%s\n", strconv.FormatBool(hasChanges)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
