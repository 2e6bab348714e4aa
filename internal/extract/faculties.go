package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Faculty is a discovery-time stub: the faculty name plus the
// departments whose pages still need to be crawled.
type Faculty struct {
	Name        string
	Departments []Department
}

// Department is a discovery-time stub pointing at a department page.
type Department struct {
	Name string
	Code string
	URL  string
}

// Faculties extracts every faculty section and its department links
// from the root page. A section qualifies only when its heading
// contains the configured faculty token. Missing substructure yields
// an empty slice, not an error; the only error is a malformed
// document that cannot be tokenized at all.
func (e *Extractor) Faculties(body []byte) ([]Faculty, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse faculties page: %w", err)
	}

	var faculties []Faculty
	doc.Find("div[class*='faculties-child']").Each(func(_ int, section *goquery.Selection) {
		heading := section.Find("h2.elementor-heading-title").First()
		if heading.Length() == 0 {
			return
		}
		name := strings.TrimSpace(heading.Text())
		if !strings.Contains(strings.ToLower(name), e.facultyToken) {
			return
		}

		container := section.Closest("div[class*='elementor-element']")
		if container.Length() == 0 {
			e.logger.Warn("faculty section has no containing element", zap.String("faculty", name))
			return
		}
		list := findFollowingList(container)
		if list == nil {
			e.logger.Warn("faculty section has no department list", zap.String("faculty", name))
			return
		}

		fac := Faculty{Name: name}
		list.Find("li.elementor-icon-list-item").Each(func(_ int, item *goquery.Selection) {
			link := item.Find("a").First()
			if link.Length() == 0 {
				return
			}
			deptName := strings.TrimSpace(item.Text())
			if deptName == "" {
				return
			}
			deptURL := link.AttrOr("href", "")
			fac.Departments = append(fac.Departments, Department{
				Name: deptName,
				Code: e.DeriveCode(deptName, deptURL),
				URL:  deptURL,
			})
		})
		if len(fac.Departments) == 0 {
			e.logger.Warn("faculty has no department links", zap.String("faculty", name))
			return
		}
		faculties = append(faculties, fac)
	})

	return faculties, nil
}

// findFollowingList returns the nearest department list at or after
// the container in document order.
func findFollowingList(container *goquery.Selection) *goquery.Selection {
	const selector = "ul.elementor-icon-list-items"

	if ul := container.Find(selector).First(); ul.Length() > 0 {
		return ul
	}
	var found *goquery.Selection
	container.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
		if sib.Is(selector) {
			found = sib
			return false
		}
		if ul := sib.Find(selector).First(); ul.Length() > 0 {
			found = ul
			return false
		}
		return true
	})
	return found
}
