package scraper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectorPromotesSmallBody(t *testing.T) {
	t.Parallel()

	d := NewDetector(100, nil)
	require.True(t, d.ShouldPromote([]byte("<html></html>")))
	require.False(t, d.ShouldPromote([]byte("<html>"+strings.Repeat("x", 200)+"</html>")))
}

func TestDetectorPromotesOnMissingSelector(t *testing.T) {
	t.Parallel()

	d := NewDetector(0, []string{".elementor-accordion"})
	require.True(t, d.ShouldPromote([]byte("<html><body><p>shell page</p></body></html>")))
	require.False(t, d.ShouldPromote([]byte(`<html><body><div class="elementor-accordion"></div></body></html>`)))
}

func TestDetectorNilIsInert(t *testing.T) {
	t.Parallel()

	var d *Detector
	require.False(t, d.ShouldPromote([]byte("")))
}

func TestDetectorEmptyConfigNeverPromotes(t *testing.T) {
	t.Parallel()

	d := NewDetector(0, nil)
	require.False(t, d.ShouldPromote([]byte("x")))
}
