// Package scraper orchestrates a crawl run: faculty discovery, the
// bounded fan-out over department pages, and catalog aggregation.
package scraper

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Trust914/MivaFocus-Extension/internal/catalog"
	"github.com/Trust914/MivaFocus-Extension/internal/clock"
	"github.com/Trust914/MivaFocus-Extension/internal/extract"
	"github.com/Trust914/MivaFocus-Extension/internal/fetch"
	"github.com/Trust914/MivaFocus-Extension/internal/metrics"
)

// ErrNoFaculties means the root page yielded no faculty sections.
// Nothing downstream can be trusted in that case, so the run stops.
var ErrNoFaculties = errors.New("no faculties found on root page")

// IDGenerator produces run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Config carries the run parameters for one scrape.
type Config struct {
	BaseURL      string
	FacultiesURL string
	Workers      int
	// RequestDelay is the pause between department fetches when the
	// run is serialized (Workers <= 1). The bounded pool makes the
	// equivalent pacing implicit.
	RequestDelay time.Duration

	Version      string
	AcademicYear string
	ScraperName  string
}

// Scraper runs the crawl pipeline.
type Scraper struct {
	fetcher   fetch.Fetcher
	headless  fetch.Fetcher
	detector  *Detector
	extractor *extract.Extractor
	cfg       Config
	clock     clock.Clock
	ids       IDGenerator
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New constructs a Scraper. The headless fetcher and detector are
// optional; when either is nil no promotion happens.
func New(
	fetcher fetch.Fetcher,
	headless fetch.Fetcher,
	detector *Detector,
	extractor *extract.Extractor,
	cfg Config,
	clk clock.Clock,
	ids IDGenerator,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	return &Scraper{
		fetcher:   fetcher,
		headless:  headless,
		detector:  detector,
		extractor: extractor,
		cfg:       cfg,
		clock:     clk,
		ids:       ids,
		logger:    logger,
		metrics:   m,
	}
}

type task struct {
	faculty string
	dept    extract.Department
	url     string
}

type result struct {
	task    task
	courses map[string]catalog.LevelCourses
	err     error
}

// Run executes one full crawl and returns the assembled catalog.
// Individual department failures are logged and skipped; only a
// failed discovery aborts the run.
func (s *Scraper) Run(ctx context.Context) (catalog.Catalog, error) {
	cat := catalog.New(s.metadata())

	s.logger.Info("starting scrape run",
		zap.String("run_id", cat.Metadata.RunID),
		zap.String("faculties_url", s.cfg.FacultiesURL),
		zap.Int("workers", s.cfg.Workers),
	)

	faculties, err := s.discoverFaculties(ctx)
	if err != nil {
		return cat, err
	}
	if len(faculties) == 0 {
		s.logger.Error("no faculties found, aborting run")
		return cat, ErrNoFaculties
	}

	var tasks []task
	for _, fac := range faculties {
		cat.Faculties[fac.Name] = catalog.Faculty{
			Name:        fac.Name,
			Departments: make(map[string]catalog.Department),
		}
		for _, dept := range fac.Departments {
			tasks = append(tasks, task{
				faculty: fac.Name,
				dept:    dept,
				url:     s.resolveURL(dept.URL),
			})
		}
	}

	usedCodes := make(map[string]struct{})
	if s.cfg.Workers <= 1 {
		s.runSerial(ctx, tasks, &cat, usedCodes)
	} else {
		s.runPool(ctx, tasks, &cat, usedCodes)
	}

	cat.Metadata.LastUpdated = s.clock.Now().Format("January 02, 2006 15:04:05")
	s.logger.Info("scrape run completed",
		zap.Int("faculties", len(cat.Faculties)),
		zap.Int("departments", cat.DepartmentCount()),
		zap.Int("courses", cat.TotalCourses()),
	)
	return cat, nil
}

func (s *Scraper) discoverFaculties(ctx context.Context) ([]extract.Faculty, error) {
	resp, err := s.fetchPage(ctx, s.cfg.FacultiesURL)
	if err != nil {
		s.logger.Error("faculties page fetch failed", zap.Error(err))
		return nil, ErrNoFaculties
	}
	faculties, err := s.extractor.Faculties(resp.Body)
	if err != nil {
		s.logger.Error("faculties page parse failed", zap.Error(err))
		return nil, ErrNoFaculties
	}
	for _, fac := range faculties {
		s.logger.Info("found faculty",
			zap.String("faculty", fac.Name),
			zap.Int("departments", len(fac.Departments)),
		)
	}
	return faculties, nil
}

// runPool fans department tasks out over a bounded worker pool.
// Workers return pure results; only this goroutine mutates the catalog.
func (s *Scraper) runPool(ctx context.Context, tasks []task, cat *catalog.Catalog, used map[string]struct{}) {
	taskCh := make(chan task)
	resultCh := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range taskCh {
				courses, err := s.scrapeDepartment(ctx, tk)
				resultCh <- result{task: tk, courses: courses, err: err}
			}
		}()
	}
	go func() {
		for _, tk := range tasks {
			taskCh <- tk
		}
		close(taskCh)
		wg.Wait()
		close(resultCh)
	}()

	for res := range resultCh {
		s.merge(cat, used, res)
	}
}

func (s *Scraper) runSerial(ctx context.Context, tasks []task, cat *catalog.Catalog, used map[string]struct{}) {
	for i, tk := range tasks {
		if i > 0 && s.cfg.RequestDelay > 0 {
			select {
			case <-time.After(s.cfg.RequestDelay):
			case <-ctx.Done():
				return
			}
		}
		courses, err := s.scrapeDepartment(ctx, tk)
		s.merge(cat, used, result{task: tk, courses: courses, err: err})
	}
}

func (s *Scraper) scrapeDepartment(ctx context.Context, tk task) (map[string]catalog.LevelCourses, error) {
	s.logger.Debug("scraping department",
		zap.String("code", tk.dept.Code),
		zap.String("department", tk.dept.Name),
		zap.String("url", tk.url),
	)
	resp, err := s.fetchPage(ctx, tk.url)
	if err != nil {
		return nil, err
	}
	return s.extractor.Courses(resp.Body)
}

// fetchPage fetches a URL, promoting to a headless render when the
// probe body lacks the expected markup.
func (s *Scraper) fetchPage(ctx context.Context, url string) (fetch.Response, error) {
	resp, err := s.fetcher.Fetch(ctx, fetch.Request{URL: url})
	if err != nil {
		return fetch.Response{}, err
	}
	if s.detector == nil || s.headless == nil || !s.detector.ShouldPromote(resp.Body) {
		return resp, nil
	}

	s.logger.Info("promoting to headless render", zap.String("url", url))
	rendered, err := s.headless.Fetch(ctx, fetch.Request{URL: url, UseHeadless: true})
	if err != nil {
		s.logger.Warn("headless render failed, keeping probe response",
			zap.String("url", url),
			zap.Error(err),
		)
		return resp, nil
	}
	return rendered, nil
}

func (s *Scraper) merge(cat *catalog.Catalog, used map[string]struct{}, res result) {
	code := res.task.dept.Code
	switch {
	case res.err != nil:
		if s.metrics != nil {
			s.metrics.DepartmentsFailed.Inc()
		}
		s.logger.Error("department failed",
			zap.String("code", code),
			zap.String("department", res.task.dept.Name),
			zap.String("url", res.task.url),
			zap.Error(res.err),
		)
	case len(res.courses) == 0:
		if s.metrics != nil {
			s.metrics.DepartmentsSkipped.Inc()
		}
		s.logger.Warn("department has no courses, skipping",
			zap.String("code", code),
			zap.String("department", res.task.dept.Name),
		)
	default:
		code = s.claimCode(used, code, res.task.dept.Name)
		dept := catalog.Department{
			Name:      res.task.dept.Name,
			SourceURL: res.task.url,
			Courses:   res.courses,
		}
		cat.Faculties[res.task.faculty].Departments[code] = dept
		if s.metrics != nil {
			s.metrics.DepartmentsScraped.Inc()
			s.metrics.CoursesExtracted.Add(float64(dept.CourseCount()))
		}
		s.logger.Info("department scraped",
			zap.String("code", code),
			zap.Int("courses", dept.CourseCount()),
		)
	}
}

// claimCode enforces catalog-wide code uniqueness. A collision falls
// back to the name acronym, then to an indexed unknown marker; an
// existing entry is never overwritten.
func (s *Scraper) claimCode(used map[string]struct{}, code, name string) string {
	if _, taken := used[code]; !taken {
		used[code] = struct{}{}
		return code
	}
	s.logger.Warn("department code collision",
		zap.String("code", code),
		zap.String("department", name),
	)
	if acr := extract.Acronym(name); acr != "" {
		if _, taken := used[acr]; !taken {
			used[acr] = struct{}{}
			return acr
		}
	}
	if _, taken := used[extract.CodeUnknown]; !taken {
		used[extract.CodeUnknown] = struct{}{}
		return extract.CodeUnknown
	}
	for i := 2; ; i++ {
		candidate := extract.CodeUnknown + "-" + strconv.Itoa(i)
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
	}
}

func (s *Scraper) resolveURL(url string) string {
	if strings.HasPrefix(url, "/") {
		return strings.TrimSuffix(s.cfg.BaseURL, "/") + url
	}
	return url
}

func (s *Scraper) metadata() catalog.Metadata {
	meta := catalog.Metadata{
		Version:      s.cfg.Version,
		AcademicYear: s.cfg.AcademicYear,
		Source:       s.cfg.BaseURL,
		Scraper:      s.cfg.ScraperName,
	}
	if s.ids != nil {
		if id, err := s.ids.NewID(); err == nil {
			meta.RunID = id
		}
	}
	return meta
}
