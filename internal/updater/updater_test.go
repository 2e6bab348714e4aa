package updater

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Trust914/MivaFocus-Extension/internal/catalog"
	"github.com/Trust914/MivaFocus-Extension/internal/changelog"
	"github.com/Trust914/MivaFocus-Extension/internal/changes"
	"github.com/Trust914/MivaFocus-Extension/internal/history"
	pubmem "github.com/Trust914/MivaFocus-Extension/internal/publisher/memory"
	"github.com/Trust914/MivaFocus-Extension/internal/storage/local"
	storagemem "github.com/Trust914/MivaFocus-Extension/internal/storage/memory"
)

type fakeRunner struct {
	cat catalog.Catalog
	err error
}

func (r *fakeRunner) Run(context.Context) (catalog.Catalog, error) {
	return r.cat, r.err
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type failingChangelog struct{ err error }

func (f failingChangelog) Update(changes.Diff, time.Time) error { return f.err }

func sampleCatalog(courses int) catalog.Catalog {
	var list []catalog.Course
	for i := 0; i < courses; i++ {
		list = append(list, catalog.Course{Title: "Course " + string(rune('A'+i)), CreditUnits: 3})
	}
	return catalog.Catalog{
		Metadata: catalog.Metadata{RunID: "run-1"},
		Faculties: map[string]catalog.Faculty{
			"School of Computing": {
				Name: "School of Computing",
				Departments: map[string]catalog.Department{
					"CSC": {
						Name:      "Computer Science",
						SourceURL: "https://example.edu/csc",
						Courses: map[string]catalog.LevelCourses{
							"100": {catalog.SemesterFirst: list},
						},
					},
				},
			},
		},
	}
}

func newUpdater(t *testing.T, runner Runner, opts ...Option) (*Updater, *local.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := local.New(dir)
	require.NoError(t, err)
	clPath := filepath.Join(dir, "CHANGELOG.md")
	writer := changelog.NewWriter(clPath, nil)
	clk := fixedClock{t: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)}
	u := New(runner, store, writer, clk, Config{CatalogName: "courses.json"}, nil, opts...)
	return u, store, clPath
}

func TestRunFirstRun(t *testing.T) {
	t.Parallel()

	hist := history.NewMemoryStore()
	pub := pubmem.New()
	runner := &fakeRunner{cat: sampleCatalog(2)}
	u, store, clPath := newUpdater(t, runner, WithHistory(hist), WithPublisher(pub))
	u.cfg.Topic = "catalog-changes"

	res, err := u.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.FirstRun)
	require.True(t, res.HasChanges)
	require.Equal(t, []string{"CSC"}, res.Diff.NewDepartments)
	require.Equal(t, 2, res.Diff.NewCourseCount)
	require.NotEmpty(t, res.Catalog.Metadata.Fingerprint)

	data, err := store.Load(context.Background(), "courses.json")
	require.NoError(t, err)
	persisted, err := catalog.Decode(data)
	require.NoError(t, err)
	require.Equal(t, res.Catalog.Metadata.Fingerprint, persisted.Metadata.Fingerprint)

	cl, err := os.ReadFile(clPath)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(cl), changelog.Header))
	require.Contains(t, string(cl), "- CSC")

	records := hist.Records()
	require.Len(t, records, 1)
	require.True(t, records[0].HasChanges)
	require.Equal(t, "run-1", records[0].RunID)
	require.Equal(t, 1, records[0].TotalDepartments)
	require.Equal(t, 2, records[0].TotalCourses)

	require.Len(t, pub.Messages(), 1)
	require.Equal(t, "catalog-changes", pub.Messages()[0].Topic)
}

func TestRunNoChanges(t *testing.T) {
	t.Parallel()

	hist := history.NewMemoryStore()
	pub := pubmem.New()
	runner := &fakeRunner{cat: sampleCatalog(2)}
	u, _, clPath := newUpdater(t, runner, WithHistory(hist), WithPublisher(pub))
	u.cfg.Topic = "catalog-changes"

	_, err := u.Run(context.Background())
	require.NoError(t, err)

	res, err := u.Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.FirstRun)
	require.False(t, res.HasChanges)
	require.True(t, res.Diff.Empty())

	// Only the first run wrote a changelog entry or published.
	cl, err := os.ReadFile(clPath)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(cl), "## Update - "))
	require.Len(t, pub.Messages(), 1)

	// Both runs leave an audit row.
	records := hist.Records()
	require.Len(t, records, 2)
	require.False(t, records[1].HasChanges)
}

func TestRunDetectsGrowth(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{cat: sampleCatalog(2)}
	u, _, clPath := newUpdater(t, runner)

	_, err := u.Run(context.Background())
	require.NoError(t, err)

	runner.cat = sampleCatalog(3)
	res, err := u.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.HasChanges)
	require.Equal(t, []string{"CSC"}, res.Diff.ModifiedDepartments)
	require.Equal(t, 1, res.Diff.NewCourseCount)

	cl, err := os.ReadFile(clPath)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(cl), "## Update - "))
}

func TestRunScrapeFailureAborts(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("network down")}
	u, store, _ := newUpdater(t, runner)

	_, err := u.Run(context.Background())
	require.Error(t, err)

	_, err = store.Load(context.Background(), "courses.json")
	require.True(t, os.IsNotExist(err))
}

func TestRunChangelogFailureBlocksPersist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := local.New(dir)
	require.NoError(t, err)
	runner := &fakeRunner{cat: sampleCatalog(2)}
	clk := fixedClock{t: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)}
	u := New(runner, store, failingChangelog{err: errors.New("disk full")}, clk, Config{}, nil)

	_, err = u.Run(context.Background())
	require.Error(t, err)

	// The baseline must not be superseded when the changelog write fails.
	_, err = store.Load(context.Background(), "courses.json")
	require.True(t, os.IsNotExist(err))
}

func TestRunCorruptBaselineIsFirstRun(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{cat: sampleCatalog(2)}
	u, store, _ := newUpdater(t, runner)
	require.NoError(t, store.Save(context.Background(), "courses.json", []byte("{not json")))

	res, err := u.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.FirstRun)
	require.True(t, res.HasChanges)
}

func TestRunMirrorsCatalog(t *testing.T) {
	t.Parallel()

	mirror := storagemem.New()
	runner := &fakeRunner{cat: sampleCatalog(1)}
	u, store, _ := newUpdater(t, runner, WithMirrors(mirror))

	_, err := u.Run(context.Background())
	require.NoError(t, err)

	want, err := store.Load(context.Background(), "courses.json")
	require.NoError(t, err)
	got, ok := mirror.Get("courses.json")
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestRunPublishFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	pub := pubmem.New()
	pub.Fail(errors.New("broker unavailable"))
	runner := &fakeRunner{cat: sampleCatalog(1)}
	u, store, _ := newUpdater(t, runner, WithPublisher(pub))
	u.cfg.Topic = "catalog-changes"

	res, err := u.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.HasChanges)

	_, err = store.Load(context.Background(), "courses.json")
	require.NoError(t, err)
}
