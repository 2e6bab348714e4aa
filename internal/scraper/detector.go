package scraper

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// Detector decides whether a probe response needs a headless render,
// using simple HTML signals: a suspiciously small body or missing
// required selectors.
type Detector struct {
	minHTMLBytes int
	selectors    []string
}

// NewDetector constructs a Detector. Zero minBytes disables the size
// check; an empty selector list disables the selector check.
func NewDetector(minBytes int, selectors []string) *Detector {
	kept := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		if sel != "" {
			kept = append(kept, sel)
		}
	}
	return &Detector{minHTMLBytes: minBytes, selectors: kept}
}

// ShouldPromote reports whether the body looks like it was served
// without its curriculum markup.
func (d *Detector) ShouldPromote(body []byte) bool {
	if d == nil {
		return false
	}
	if d.minHTMLBytes > 0 && len(body) < d.minHTMLBytes {
		return true
	}
	return d.missingSelectors(body)
}

func (d *Detector) missingSelectors(body []byte) bool {
	if len(d.selectors) == 0 || len(body) == 0 {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return true
	}
	for _, sel := range d.selectors {
		if doc.Find(sel).Length() == 0 {
			return true
		}
	}
	return false
}
