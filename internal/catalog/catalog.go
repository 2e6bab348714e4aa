// Package catalog defines the course catalog data model shared by the
// scraper, the change detector, and the persistence layer.
package catalog

import (
	"encoding/json"
	"fmt"
)

// Semester labels used as LevelCourses keys.
const (
	SemesterFirst  = "first"
	SemesterSecond = "second"
	SemesterRain   = "rain"
)

// Course is a single course row extracted from a curriculum table.
type Course struct {
	Title       string `json:"title"`
	CreditUnits int    `json:"creditUnits"`
}

// LevelCourses maps a semester label to the courses taught in it.
type LevelCourses map[string][]Course

// Department groups courses by level label ("100".."500").
type Department struct {
	Name      string                  `json:"name"`
	SourceURL string                  `json:"url"`
	Courses   map[string]LevelCourses `json:"courses"`
}

// CourseCount returns the total number of courses across all levels
// and semesters of the department.
func (d Department) CourseCount() int {
	total := 0
	for _, level := range d.Courses {
		for _, courses := range level {
			total += len(courses)
		}
	}
	return total
}

// Faculty is a top-level academic division ("school").
type Faculty struct {
	Name        string                `json:"name"`
	Departments map[string]Department `json:"departments"`
}

// Metadata describes how and when a catalog was produced. Everything
// here is volatile and therefore excluded from the content fingerprint.
type Metadata struct {
	Version      string `json:"version"`
	AcademicYear string `json:"academicYear"`
	Source       string `json:"source"`
	Scraper      string `json:"scraper"`
	RunID        string `json:"runId,omitempty"`
	LastUpdated  string `json:"lastUpdated"`
	Fingerprint  string `json:"fingerprint,omitempty"`
}

// Catalog is the root extraction result of one scrape run.
type Catalog struct {
	Metadata  Metadata           `json:"metadata"`
	Faculties map[string]Faculty `json:"faculties"`
}

// New returns an empty catalog with the provided metadata.
func New(meta Metadata) Catalog {
	return Catalog{
		Metadata:  meta,
		Faculties: make(map[string]Faculty),
	}
}

// Departments flattens the catalog into a department-code keyed view.
// Codes are unique within a catalog, so no entry is lost.
func (c Catalog) Departments() map[string]Department {
	out := make(map[string]Department)
	for _, fac := range c.Faculties {
		for code, dept := range fac.Departments {
			out[code] = dept
		}
	}
	return out
}

// TotalCourses returns the number of courses across the whole catalog.
func (c Catalog) TotalCourses() int {
	total := 0
	for _, fac := range c.Faculties {
		for _, dept := range fac.Departments {
			total += dept.CourseCount()
		}
	}
	return total
}

// DepartmentCount returns the number of departments across all faculties.
func (c Catalog) DepartmentCount() int {
	n := 0
	for _, fac := range c.Faculties {
		n += len(fac.Departments)
	}
	return n
}

// Encode renders the catalog as indented JSON with sorted keys, the
// shape persisted to disk between runs.
func (c Catalog) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a persisted catalog document.
func Decode(data []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if c.Faculties == nil {
		c.Faculties = make(map[string]Faculty)
	}
	return c, nil
}
