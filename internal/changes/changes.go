// Package changes implements the content fingerprint and the diff
// engine that compares two catalog versions.
package changes

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/Trust914/MivaFocus-Extension/internal/catalog"
)

// Diff summarizes the structural delta between two catalogs.
//
// The course counters are approximate by design: they track net count
// changes per department, so a title-only edit (or a remove+add at
// equal count) nets to zero and is only visible through
// ModifiedDepartments.
type Diff struct {
	NewDepartments      []string `json:"newDepartments"`
	ModifiedDepartments []string `json:"modifiedDepartments"`
	NewCourseCount      int      `json:"newCourseCount"`
	ModifiedCourseCount int      `json:"modifiedCourseCount"`
}

// Empty reports whether the diff carries no changes at all.
func (d Diff) Empty() bool {
	return len(d.NewDepartments) == 0 &&
		len(d.ModifiedDepartments) == 0 &&
		d.NewCourseCount == 0 &&
		d.ModifiedCourseCount == 0
}

// Fingerprint returns the hex SHA-256 digest of the canonical
// serialization of the faculties subtree. Metadata is excluded so a
// re-run against an unchanged site yields an identical digest.
func Fingerprint(c catalog.Catalog) string {
	// encoding/json sorts map keys, which makes the serialization
	// canonical regardless of insertion order.
	data, err := json.Marshal(c.Faculties)
	if err != nil {
		// Catalog contains only strings, ints, maps and slices; a
		// marshal failure would be a programming error.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Detect compares two catalogs and returns a structured diff keyed by
// department code. Departments that vanished from the new catalog are
// intentionally not reported; a partial crawl must not read as mass
// removal.
func Detect(old, next catalog.Catalog) Diff {
	diff := Diff{
		NewDepartments:      []string{},
		ModifiedDepartments: []string{},
	}

	oldDepts := old.Departments()
	newDepts := next.Departments()

	if len(oldDepts) == 0 {
		for code, dept := range newDepts {
			diff.NewDepartments = append(diff.NewDepartments, code)
			diff.NewCourseCount += dept.CourseCount()
		}
		sort.Strings(diff.NewDepartments)
		return diff
	}

	for code, dept := range newDepts {
		oldDept, ok := oldDepts[code]
		if !ok {
			diff.NewDepartments = append(diff.NewDepartments, code)
			diff.NewCourseCount += dept.CourseCount()
			continue
		}
		if coursesEqual(oldDept.Courses, dept.Courses) {
			continue
		}
		diff.ModifiedDepartments = append(diff.ModifiedDepartments, code)
		delta := dept.CourseCount() - oldDept.CourseCount()
		switch {
		case delta > 0:
			diff.NewCourseCount += delta
		case delta < 0:
			diff.ModifiedCourseCount += -delta
		}
	}

	sort.Strings(diff.NewDepartments)
	sort.Strings(diff.ModifiedDepartments)
	return diff
}

func coursesEqual(a, b map[string]catalog.LevelCourses) bool {
	aJSON, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bJSON, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aJSON) == string(bJSON)
}
