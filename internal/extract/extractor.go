// Package extract parses university web pages into typed catalog
// fragments. All entry points are pure functions of the document
// bytes; anomalies degrade to empty results, never errors.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Pre-compiled patterns shared by every Extractor. They are immutable
// and safe for concurrent use.
var (
	reLevelTitle  = regexp.MustCompile(`(?i)\b([1-5])00\s*level\b`)
	reFirstDigit  = regexp.MustCompile(`\d+`)
	reAcronymWord = regexp.MustCompile(`\b[A-Z][a-z]*`)
)

// Config carries the site-specific knobs the extractor needs.
type Config struct {
	// FacultyToken must appear in a section heading for the section to
	// qualify as a faculty (e.g. "school").
	FacultyToken string
	// DepartmentCodes maps lower-cased department name fragments to
	// their short codes.
	DepartmentCodes map[string]string
}

// Extractor turns HTML documents into catalog fragments.
type Extractor struct {
	facultyToken string
	deptCodes    map[string]string
	codeKeys     []string
	logger       *zap.Logger
}

// New builds an Extractor. The code table keys are sorted once so
// code derivation is deterministic regardless of map order.
func New(cfg Config, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	token := strings.ToLower(strings.TrimSpace(cfg.FacultyToken))
	if token == "" {
		token = "school"
	}
	codes := make(map[string]string, len(cfg.DepartmentCodes))
	keys := make([]string, 0, len(cfg.DepartmentCodes))
	for k, v := range cfg.DepartmentCodes {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || v == "" {
			continue
		}
		codes[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Extractor{
		facultyToken: token,
		deptCodes:    codes,
		codeKeys:     keys,
		logger:       logger,
	}
}
