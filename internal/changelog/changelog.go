// Package changelog renders catalog diffs into a persisted Markdown
// history, most recent entry first.
package changelog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Trust914/MivaFocus-Extension/internal/changes"
)

// Header is the fixed H1 that starts every changelog document.
const Header = "# Course Database Changelog"

const entryMarker = "\n## Update - "

// Writer maintains the changelog file.
type Writer struct {
	path   string
	logger *zap.Logger
}

// NewWriter builds a Writer for the given file path.
func NewWriter(path string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{path: path, logger: logger}
}

// Render formats a diff as one changelog entry.
func Render(diff changes.Diff, ts time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n\n", entryMarker, ts.Format("2006-01-02 15:04:05"))

	if len(diff.NewDepartments) > 0 {
		fmt.Fprintf(&b, "### New Departments (%d)\n", len(diff.NewDepartments))
		for _, code := range diff.NewDepartments {
			fmt.Fprintf(&b, "- %s\n", code)
		}
		b.WriteString("\n")
	}
	if len(diff.ModifiedDepartments) > 0 {
		fmt.Fprintf(&b, "### Modified Departments (%d)\n", len(diff.ModifiedDepartments))
		for _, code := range diff.ModifiedDepartments {
			fmt.Fprintf(&b, "- %s\n", code)
		}
		b.WriteString("\n")
	}
	if diff.NewCourseCount > 0 {
		fmt.Fprintf(&b, "### New Courses Added: %d\n\n", diff.NewCourseCount)
	}
	if diff.ModifiedCourseCount > 0 {
		fmt.Fprintf(&b, "### Courses Modified: %d\n\n", diff.ModifiedCourseCount)
	}
	return b.String()
}

// Update inserts a rendered entry into the changelog file, creating
// the document with its header when absent. An empty diff is an
// explicit no-op.
func (w *Writer) Update(diff changes.Diff, ts time.Time) error {
	if diff.Empty() {
		w.logger.Info("no changes detected, changelog not updated")
		return nil
	}

	entry := Render(diff, ts)

	existing, err := os.ReadFile(w.path)
	switch {
	case os.IsNotExist(err):
		return w.write(Header + "\n" + entry)
	case err != nil:
		return fmt.Errorf("read changelog: %w", err)
	}

	content := string(existing)
	// Insert before the first prior entry so the document reads most
	// recent first; append when no entry marker exists yet.
	if idx := strings.Index(content, entryMarker); idx >= 0 {
		content = content[:idx] + entry + content[idx:]
	} else {
		content += entry
	}
	return w.write(content)
}

func (w *Writer) write(content string) error {
	if err := os.WriteFile(w.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write changelog: %w", err)
	}
	w.logger.Info("changelog updated", zap.String("path", w.path))
	return nil
}
