package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Trust914/MivaFocus-Extension/internal/catalog"
)

const departmentPage = `
<html><body>
<div class="elementor-accordion-item">
  <a class="elementor-accordion-title">100 Level Courses</a>
  <div class="elementor-tab-content">
    <!-- 1st Semester -->
    <table class="curriculum-table">
      <tbody>
        <tr class="accordion-header"><td>Intro to Programming</td><td>3 Units</td></tr>
        <tr class="accordion-header"><td>Use of English</td><td>2 Units</td></tr>
      </tbody>
    </table>
    <!-- 2nd Semester -->
    <table class="curriculum-table">
      <tbody>
        <tr class="accordion-header"><td>Calculus I</td><td>4 Units</td></tr>
      </tbody>
    </table>
  </div>
</div>
<div class="elementor-accordion-item">
  <span class="elementor-accordion-title">200 level</span>
  <div class="elementor-tab-content">
    <table>
      <tbody>
        <tr><td>Data Structures</td><td>3</td></tr>
        <tr><td>Hdr</td><td>Units</td></tr>
        <tr><td>Discrete Mathematics</td><td>2 units</td></tr>
      </tbody>
    </table>
  </div>
</div>
<div class="elementor-accordion-item">
  <a class="elementor-accordion-title">General Information</a>
  <div class="elementor-tab-content"><p>no tables here</p></div>
</div>
</body></html>`

func TestCoursesExtraction(t *testing.T) {
	t.Parallel()

	e := testExtractor()
	byLevel, err := e.Courses([]byte(departmentPage))
	require.NoError(t, err)
	require.Len(t, byLevel, 2)

	require.Equal(t, catalog.LevelCourses{
		catalog.SemesterFirst: {
			{Title: "Intro to Programming", CreditUnits: 3},
			{Title: "Use of English", CreditUnits: 2},
		},
		catalog.SemesterSecond: {
			{Title: "Calculus I", CreditUnits: 4},
		},
	}, byLevel["100"])

	// 200 level: no accordion-header rows, so the two-cell heuristic
	// applies; the "Hdr" row fails the title-length check and the
	// unclassified table falls back to first semester by position.
	require.Equal(t, catalog.LevelCourses{
		catalog.SemesterFirst: {
			{Title: "Data Structures", CreditUnits: 3},
			{Title: "Discrete Mathematics", CreditUnits: 2},
		},
	}, byLevel["200"])
}

func TestCoursesSemesterCommentBeatsPosition(t *testing.T) {
	t.Parallel()

	page := `
<div class="elementor-accordion-item">
  <a class="elementor-accordion-title">300 Level</a>
  <div class="elementor-tab-content">
    <!-- 2nd Semester -->
    <table>
      <tbody><tr class="accordion-header"><td>Operating Systems</td><td>3 Units</td></tr></tbody>
    </table>
  </div>
</div>`
	e := testExtractor()
	byLevel, err := e.Courses([]byte(page))
	require.NoError(t, err)
	require.Contains(t, byLevel, "300")
	require.Contains(t, byLevel["300"], catalog.SemesterSecond)
	require.NotContains(t, byLevel["300"], catalog.SemesterFirst)
}

func TestCoursesHeaderRowClassification(t *testing.T) {
	t.Parallel()

	page := `
<div class="elementor-accordion-item">
  <a class="elementor-accordion-title">400 Level</a>
  <div class="elementor-tab-content">
    <table>
      <thead><tr><th>Rain Semester Courses</th><th>Units</th></tr></thead>
      <tbody><tr class="accordion-header"><td>Research Project</td><td>6 Units</td></tr></tbody>
    </table>
  </div>
</div>`
	e := testExtractor()
	byLevel, err := e.Courses([]byte(page))
	require.NoError(t, err)
	require.Equal(t, []catalog.Course{{Title: "Research Project", CreditUnits: 6}},
		byLevel["400"][catalog.SemesterRain])
}

func TestCoursesThirdUnclassifiedTableDiscarded(t *testing.T) {
	t.Parallel()

	page := `
<div class="elementor-accordion-item">
  <a class="elementor-accordion-title">100 Level</a>
  <div class="elementor-tab-content">
    <table><tbody><tr class="accordion-header"><td>Course A</td><td>1 Unit</td></tr></tbody></table>
    <table><tbody><tr class="accordion-header"><td>Course B</td><td>2 Units</td></tr></tbody></table>
    <table><tbody><tr class="accordion-header"><td>Course C</td><td>3 Units</td></tr></tbody></table>
  </div>
</div>`
	e := testExtractor()
	byLevel, err := e.Courses([]byte(page))
	require.NoError(t, err)
	require.Len(t, byLevel["100"][catalog.SemesterFirst], 1)
	require.Len(t, byLevel["100"][catalog.SemesterSecond], 1)
}

func TestCoursesSameSemesterTablesConcatenate(t *testing.T) {
	t.Parallel()

	page := `
<div class="elementor-accordion-item">
  <a class="elementor-accordion-title">100 Level</a>
  <div class="elementor-tab-content">
    <!-- First Semester -->
    <table><tbody><tr class="accordion-header"><td>Course A</td><td>1 Unit</td></tr></tbody></table>
    <!-- first semester continued -->
    <table><tbody><tr class="accordion-header"><td>Course B</td><td>2 Units</td></tr></tbody></table>
  </div>
</div>`
	e := testExtractor()
	byLevel, err := e.Courses([]byte(page))
	require.NoError(t, err)
	require.Equal(t, []catalog.Course{
		{Title: "Course A", CreditUnits: 1},
		{Title: "Course B", CreditUnits: 2},
	}, byLevel["100"][catalog.SemesterFirst])
}

func TestCoursesDropsZeroAndUnparseableUnits(t *testing.T) {
	t.Parallel()

	page := `
<div class="elementor-accordion-item">
  <a class="elementor-accordion-title">100 Level</a>
  <div class="elementor-tab-content">
    <table>
      <tbody>
        <tr class="accordion-header"><td>Audited Seminar</td><td>0 Units</td></tr>
        <tr class="accordion-header"><td>Mystery Course</td><td>N/A</td></tr>
        <tr class="accordion-header"><td>Real Course</td><td>3 Units</td></tr>
      </tbody>
    </table>
  </div>
</div>`
	e := testExtractor()
	byLevel, err := e.Courses([]byte(page))
	require.NoError(t, err)
	require.Equal(t, []catalog.Course{{Title: "Real Course", CreditUnits: 3}},
		byLevel["100"][catalog.SemesterFirst])
}

func TestCoursesEmptyOnMissingAccordion(t *testing.T) {
	t.Parallel()

	e := testExtractor()
	byLevel, err := e.Courses([]byte("<html><body><h1>404</h1></body></html>"))
	require.NoError(t, err)
	require.Empty(t, byLevel)
}
