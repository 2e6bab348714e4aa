package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/Trust914/MivaFocus-Extension/internal/catalog"
)

// Courses extracts the level → semester → course hierarchy from a
// department page. Accordion blocks whose title does not match the
// level pattern are ignored, and a page without any matching block
// yields an empty map.
func (e *Extractor) Courses(body []byte) (map[string]catalog.LevelCourses, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse department page: %w", err)
	}

	byLevel := make(map[string]catalog.LevelCourses)
	doc.Find("div[class*='elementor-accordion-item']").Each(func(_ int, accordion *goquery.Selection) {
		title := accordion.Find("a.elementor-accordion-title").First()
		if title.Length() == 0 {
			title = accordion.Find("span.elementor-accordion-title").First()
		}
		if title.Length() == 0 {
			return
		}
		match := reLevelTitle.FindStringSubmatch(strings.TrimSpace(title.Text()))
		if match == nil {
			return
		}
		level := match[1] + "00"

		content := accordion.Find("div[class*='elementor-tab-content']").First()
		if content.Length() == 0 {
			return
		}
		semesters := e.coursesFromTables(content)
		if len(semesters) > 0 {
			byLevel[level] = semesters
		}
	})

	return byLevel, nil
}

// coursesFromTables classifies each table in the accordion content
// into a semester bucket and concatenates their course rows in
// encounter order.
func (e *Extractor) coursesFromTables(content *goquery.Selection) catalog.LevelCourses {
	tables := content.Find("table.curriculum-table")
	if tables.Length() == 0 {
		tables = content.Find("table")
	}

	semesters := make(catalog.LevelCourses)
	tables.Each(func(idx int, table *goquery.Selection) {
		semester := detectSemester(table, idx)
		if semester == "" {
			e.logger.Debug("discarding unclassifiable table", zap.Int("position", idx))
			return
		}
		courses := e.parseTableRows(table)
		if len(courses) > 0 {
			semesters[semester] = append(semesters[semester], courses...)
		}
	})
	return semesters
}

// detectSemester runs the classification priority chain: preceding
// comment or sibling text, header row, first row, then position.
func detectSemester(table *goquery.Selection, idx int) string {
	if len(table.Nodes) > 0 {
		for n := table.Nodes[0].PrevSibling; n != nil; n = n.PrevSibling {
			if n.Type != html.CommentNode && n.Type != html.TextNode {
				continue
			}
			if s := semesterFromText(n.Data); s != "" {
				return s
			}
		}
	}

	header := table.Find("thead th")
	for i := 0; i < header.Length(); i++ {
		if s := semesterFromText(header.Eq(i).Text()); s != "" {
			return s
		}
	}

	if first := table.Find("tr").First(); first.Length() > 0 {
		if s := semesterFromText(first.Text()); s != "" {
			return s
		}
	}

	switch idx {
	case 0:
		return catalog.SemesterFirst
	case 1:
		return catalog.SemesterSecond
	default:
		return ""
	}
}

func semesterFromText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(text, "1st semester") || strings.Contains(text, "first semester"):
		return catalog.SemesterFirst
	case strings.Contains(text, "2nd semester") || strings.Contains(text, "second semester"):
		return catalog.SemesterSecond
	case strings.Contains(text, "rain semester"):
		return catalog.SemesterRain
	default:
		return ""
	}
}

// parseTableRows extracts course rows. Rows tagged accordion-header
// are preferred; otherwise any row with exactly two cells, a
// substantial title, and digits in the units cell qualifies.
func (e *Extractor) parseTableRows(table *goquery.Selection) []catalog.Course {
	scope := table.Find("tbody").First()
	if scope.Length() == 0 {
		scope = table
	}

	rows := scope.Find("tr.accordion-header")
	if rows.Length() == 0 {
		rows = scope.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() != 2 {
				return false
			}
			title := strings.TrimSpace(cells.Eq(0).Text())
			units := strings.TrimSpace(cells.Eq(1).Text())
			return len(title) > 3 && reFirstDigit.MatchString(units)
		})
	}

	var courses []catalog.Course
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		title := strings.TrimSpace(cells.Eq(0).Text())
		unitsText := strings.TrimSpace(cells.Eq(1).Text())
		digits := reFirstDigit.FindString(unitsText)
		if title == "" || digits == "" {
			e.logger.Debug("dropping malformed course row", zap.String("title", title))
			return
		}
		units, err := strconv.Atoi(digits)
		if err != nil || units <= 0 {
			e.logger.Debug("dropping course with non-positive units",
				zap.String("title", title),
				zap.String("units", unitsText),
			)
			return
		}
		courses = append(courses, catalog.Course{Title: title, CreditUnits: units})
	})
	return courses
}
