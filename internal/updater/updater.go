// Package updater orchestrates a full update run: scrape, fingerprint,
// compare against the previous baseline, record the outcome.
package updater

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Trust914/MivaFocus-Extension/internal/catalog"
	"github.com/Trust914/MivaFocus-Extension/internal/changes"
	"github.com/Trust914/MivaFocus-Extension/internal/clock"
	"github.com/Trust914/MivaFocus-Extension/internal/history"
	"github.com/Trust914/MivaFocus-Extension/internal/publisher"
	"github.com/Trust914/MivaFocus-Extension/internal/storage"
)

// Runner produces a fresh catalog. Satisfied by scraper.Scraper.
type Runner interface {
	Run(ctx context.Context) (catalog.Catalog, error)
}

// ChangelogWriter appends a diff entry to the changelog document.
type ChangelogWriter interface {
	Update(diff changes.Diff, ts time.Time) error
}

// CatalogStore loads and saves the persisted catalog baseline.
type CatalogStore interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}

// Config carries the update run parameters.
type Config struct {
	// CatalogName is the artifact name of the persisted catalog within
	// the store, e.g. "courses.json".
	CatalogName string
	// Topic is the notification topic; empty disables publishing.
	Topic string
}

// Result is the outcome of one update run.
type Result struct {
	HasChanges bool
	FirstRun   bool
	Diff       changes.Diff
	Catalog    catalog.Catalog
}

// Updater wires the scrape pipeline to change detection and the
// persistence side effects. History, mirrors and the publisher are
// optional; their failures never fail the run.
type Updater struct {
	runner    Runner
	store     CatalogStore
	changelog ChangelogWriter
	clock     clock.Clock
	history   history.Store
	publisher publisher.Publisher
	mirrors   []storage.Provider
	cfg       Config
	logger    *zap.Logger
}

// New constructs an Updater. runner, store, changelog and clk are
// required; the rest may be nil.
func New(
	runner Runner,
	store CatalogStore,
	changelogWriter ChangelogWriter,
	clk clock.Clock,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CatalogName == "" {
		cfg.CatalogName = "courses.json"
	}
	u := &Updater{
		runner:    runner,
		store:     store,
		changelog: changelogWriter,
		clock:     clk,
		cfg:       cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Option customizes an Updater.
type Option func(*Updater)

// WithHistory records one audit row per run.
func WithHistory(store history.Store) Option {
	return func(u *Updater) { u.history = store }
}

// WithPublisher sends a diff summary when a run detects changes.
func WithPublisher(pub publisher.Publisher) Option {
	return func(u *Updater) { u.publisher = pub }
}

// WithMirrors copies the persisted catalog to additional providers.
func WithMirrors(providers ...storage.Provider) Option {
	return func(u *Updater) { u.mirrors = append(u.mirrors, providers...) }
}

// Run executes one update cycle and reports whether the catalog
// changed. The new catalog supersedes the baseline only after the
// changelog write succeeds, so a crashed run can be repeated safely.
func (u *Updater) Run(ctx context.Context) (Result, error) {
	startedAt := u.clock.Now()

	previous, firstRun := u.loadPrevious(ctx)

	next, err := u.runner.Run(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("scrape: %w", err)
	}

	fingerprint := changes.Fingerprint(next)
	next.Metadata.Fingerprint = fingerprint

	hasChanges := firstRun || fingerprint != previous.Metadata.Fingerprint
	res := Result{
		HasChanges: hasChanges,
		FirstRun:   firstRun,
		Catalog:    next,
	}

	if hasChanges {
		res.Diff = changes.Detect(previous, next)
		u.logger.Info("changes detected",
			zap.Int("new_departments", len(res.Diff.NewDepartments)),
			zap.Int("modified_departments", len(res.Diff.ModifiedDepartments)),
			zap.Int("new_courses", res.Diff.NewCourseCount),
			zap.Int("modified_courses", res.Diff.ModifiedCourseCount),
		)
		if err := u.changelog.Update(res.Diff, startedAt); err != nil {
			return Result{}, fmt.Errorf("update changelog: %w", err)
		}
	} else {
		u.logger.Info("no changes detected", zap.String("fingerprint", fingerprint))
	}

	data, err := next.Encode()
	if err != nil {
		return Result{}, err
	}
	if err := u.store.Save(ctx, u.cfg.CatalogName, data); err != nil {
		return Result{}, fmt.Errorf("persist catalog: %w", err)
	}
	u.mirror(ctx, data)

	u.recordRun(ctx, startedAt, res)
	u.notify(ctx, res)

	return res, nil
}

// loadPrevious reads the persisted baseline. Any read or decode
// failure degrades to first-run semantics rather than aborting.
func (u *Updater) loadPrevious(ctx context.Context) (catalog.Catalog, bool) {
	data, err := u.store.Load(ctx, u.cfg.CatalogName)
	switch {
	case os.IsNotExist(err):
		u.logger.Info("no previous catalog found, treating as first run")
		return catalog.Catalog{Faculties: map[string]catalog.Faculty{}}, true
	case err != nil:
		u.logger.Warn("previous catalog unreadable, treating as first run", zap.Error(err))
		return catalog.Catalog{Faculties: map[string]catalog.Faculty{}}, true
	}

	previous, err := catalog.Decode(data)
	if err != nil {
		u.logger.Warn("previous catalog corrupt, treating as first run", zap.Error(err))
		return catalog.Catalog{Faculties: map[string]catalog.Faculty{}}, true
	}
	return previous, false
}

func (u *Updater) mirror(ctx context.Context, data []byte) {
	for _, provider := range u.mirrors {
		if err := provider.Save(ctx, u.cfg.CatalogName, data); err != nil {
			u.logger.Warn("catalog mirror failed", zap.Error(err))
		}
	}
}

func (u *Updater) recordRun(ctx context.Context, startedAt time.Time, res Result) {
	if u.history == nil {
		return
	}
	rec := history.RunRecord{
		RunID:               res.Catalog.Metadata.RunID,
		StartedAt:           startedAt,
		Fingerprint:         res.Catalog.Metadata.Fingerprint,
		HasChanges:          res.HasChanges,
		NewDepartments:      len(res.Diff.NewDepartments),
		ModifiedDepartments: len(res.Diff.ModifiedDepartments),
		NewCourses:          res.Diff.NewCourseCount,
		ModifiedCourses:     res.Diff.ModifiedCourseCount,
		TotalDepartments:    res.Catalog.DepartmentCount(),
		TotalCourses:        res.Catalog.TotalCourses(),
	}
	if err := u.history.RecordRun(ctx, rec); err != nil {
		u.logger.Warn("run history record failed", zap.Error(err))
	}
}

// notification is the message published when an update run detects
// changes.
type notification struct {
	RunID       string       `json:"runId"`
	Fingerprint string       `json:"fingerprint"`
	Diff        changes.Diff `json:"diff"`
}

func (u *Updater) notify(ctx context.Context, res Result) {
	if u.publisher == nil || u.cfg.Topic == "" || !res.HasChanges {
		return
	}
	msg := notification{
		RunID:       res.Catalog.Metadata.RunID,
		Fingerprint: res.Catalog.Metadata.Fingerprint,
		Diff:        res.Diff,
	}
	id, err := u.publisher.Publish(ctx, u.cfg.Topic, msg)
	if err != nil {
		u.logger.Warn("change notification failed", zap.Error(err))
		return
	}
	u.logger.Info("change notification published",
		zap.String("topic", u.cfg.Topic),
		zap.String("message_id", id),
	)
}
