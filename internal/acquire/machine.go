package acquire

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arc-research/harvest-cli/internal/config"
	"github.com/arc-research/harvest-cli/internal/governor"
	"github.com/arc-research/harvest-cli/internal/model"
	"github.com/arc-research/harvest-cli/internal/resilience"
	"github.com/arc-research/harvest-cli/internal/tracker"
)

// Machine drives acquisition across a range of corpus entities. It is not
// safe for concurrent use: the archive throttles per account, so a run is a
// single sequential loop.
type Machine struct {
	nav     Navigator
	store   tracker.Store
	gov     *governor.Governor
	cfg     config.AcquireConfig
	limiter *rate.Limiter
	down    *Downloader
	allow   map[string]bool

	// totalKB is the downloaded volume within the current governor window.
	totalKB float64
}

// NewMachine assembles an acquisition machine from its collaborators.
func NewMachine(nav Navigator, store tracker.Store, gov *governor.Governor, cfg config.AcquireConfig) *Machine {
	allow := make(map[string]bool, len(cfg.DocTypeAllowlist))
	for _, t := range cfg.DocTypeAllowlist {
		allow[t] = true
	}

	perMinute := cfg.SearchesPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &Machine{
		nav:     nav,
		store:   store,
		gov:     gov,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60.0), 1),
		down:    NewDownloader(cfg.DownloadDir, cfg.DownloadTimeout()),
		allow:   allow,
	}
}

// ResumeStart returns the ordinal a continued run starts from: one past the
// stored cursor, but never before the requested start.
func ResumeStart(stored, requested int) int {
	if stored+1 > requested {
		return stored + 1
	}
	return requested
}

// Run acquires the entities with 1-based ordinals in [start, end], both
// inclusive. When fromCursor is set the start is derived from the stored
// resume cursor instead. The cursor advances after each completed entity, so
// a terminated run resumes without re-searching finished entities.
func (m *Machine) Run(ctx context.Context, entities []model.Entity, start, end int, fromCursor bool) error {
	if fromCursor {
		stored, err := m.store.Cursor(ctx)
		if err != nil {
			return err
		}
		start = ResumeStart(stored, start)
	}
	if start < 1 {
		start = 1
	}
	if end <= 0 || end > len(entities) {
		end = len(entities)
	}

	for ordinal := start; ordinal <= end; ordinal++ {
		entity := entities[ordinal-1]

		total, _, err := m.gov.Check(ctx, m.totalKB)
		if err != nil {
			return err
		}
		m.totalKB = total

		if err := m.AcquireEntity(ctx, entity, false, nil); err != nil {
			return err
		}
		if err := m.store.StoreCursor(ctx, ordinal); err != nil {
			return err
		}

		zap.L().Info("entity complete",
			zap.Int("ordinal", ordinal),
			zap.String("key", entity.Key),
			zap.Float64("total_kb", m.totalKB),
		)
	}
	return nil
}

// Gap pairs an entity with its missing filing years for the recovery pass.
type Gap struct {
	Entity model.Entity
	Years  []string
}

// RunRecovery re-searches each gap entity across every document type,
// restricted to its missing filing years. Rows are selected individually,
// so only the missing filings are downloaded.
func (m *Machine) RunRecovery(ctx context.Context, gaps []Gap) error {
	for _, g := range gaps {
		total, _, err := m.gov.Check(ctx, m.totalKB)
		if err != nil {
			return err
		}
		m.totalKB = total

		if err := m.AcquireEntity(ctx, g.Entity, true, g.Years); err != nil {
			return err
		}
		zap.L().Info("gap entity complete",
			zap.String("key", g.Entity.Key),
			zap.Strings("years", g.Years),
			zap.Float64("total_kb", m.totalKB),
		)
	}
	return nil
}

// AcquireEntity runs the full search and download cycle for one entity. In
// search-all mode the document-type filter is off, rows are selected
// individually, and years (when non-empty) restricts selection to specific
// filing years. A search that fails after retry logs the entity as SK and
// moves on; store and navigation-recovery errors are fatal.
func (m *Machine) AcquireEntity(ctx context.Context, entity model.Entity, searchAll bool, years []string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	page, err := m.search(ctx, entity, searchAll)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		zap.L().Warn("search failed, skipping entity",
			zap.String("key", entity.Key),
			zap.Error(err),
		)
		if _, err := m.store.AppendAttempt(ctx, attempt(entity, model.PageSK)); err != nil {
			return err
		}
		return m.nav.BackToSearch(ctx)
	}

	if err := m.acquirePages(ctx, page, entity, searchAll, years); err != nil {
		return err
	}
	return m.nav.BackToSearch(ctx)
}

func (m *Machine) search(ctx context.Context, entity model.Entity, searchAll bool) (ResultsPage, error) {
	return resilience.DoVal(ctx, resilience.RetryConfig{
		MaxAttempts: m.cfg.SearchRetries + 1,
		OnRetry:     resilience.RetryLogger("acquire", "search"),
	}, func(ctx context.Context) (ResultsPage, error) {
		return m.nav.Search(ctx, entity, searchAll)
	})
}

func (m *Machine) acquirePages(ctx context.Context, page ResultsPage, entity model.Entity, searchAll bool, years []string) error {
	pageCount, err := page.PageCount(ctx)
	if err != nil || pageCount < 1 {
		pageCount = 1
	}

	if pageCount == 1 {
		return m.acquireSinglePage(ctx, page, entity, searchAll, years)
	}
	return m.acquireMultiPage(ctx, page, entity, pageCount, searchAll, years)
}

// acquireSinglePage handles a one-page result set. A zero-report result
// under the document-type filter falls back to a search across every
// document type; a zero-report result in search-all mode is a terminal NA.
func (m *Machine) acquireSinglePage(ctx context.Context, page ResultsPage, entity model.Entity, searchAll bool, years []string) error {
	dateValues, pageSize, err := m.scrapePage(ctx, page, entity, 1, searchAll, years, nil)
	if err != nil {
		return err
	}
	filename := GenFileName(m.cfg.DownloadDir, dateValues, entity.Key, entity.DisplayName, "1", searchAll)

	total, _, err := m.gov.Check(ctx, m.totalKB+pageSize)
	if err != nil {
		return err
	}
	m.totalKB = total

	if pageSize+m.totalKB > m.cfg.VolumeCapKB {
		_, err := m.store.AppendAttempt(ctx, attempt(entity, model.PageTL))
		return err
	}

	reports, err := page.ReportCount(ctx)
	if err != nil {
		return err
	}
	if reports == 0 {
		if searchAll {
			_, err := m.store.AppendAttempt(ctx, attempt(entity, model.PageNA))
			return err
		}
		if err := m.nav.BackToSearch(ctx); err != nil {
			return err
		}
		return m.AcquireEntity(ctx, entity, true, nil)
	}

	size, err := m.download(ctx, page, filename, searchAll)
	if err != nil {
		return err
	}
	if _, err := m.store.AppendAttempt(ctx, attempt(entity, model.PageToken("1"))); err != nil {
		return err
	}
	m.totalKB += size
	return nil
}

// acquireMultiPage walks every result page in order, downloading each
// page's bulk archive under the cap and logging TL for pages that would
// cross it. The scraped-year range resets after each downloaded page so the
// next page's archive name covers only its own filings.
func (m *Machine) acquireMultiPage(ctx context.Context, page ResultsPage, entity model.Entity, pageCount int, searchAll bool, years []string) error {
	var dateValues []string
	for current := 1; ; current++ {
		var pageSize float64
		var err error
		dateValues, pageSize, err = m.scrapePage(ctx, page, entity, current, searchAll, years, dateValues)
		if err != nil {
			return err
		}
		filename := GenFileName(m.cfg.DownloadDir, dateValues, entity.Key, entity.DisplayName, strconv.Itoa(current), searchAll)

		total, _, err := m.gov.Check(ctx, m.totalKB+pageSize)
		if err != nil {
			return err
		}
		m.totalKB = total

		if pageSize+m.totalKB <= m.cfg.VolumeCapKB {
			size, err := m.download(ctx, page, filename, searchAll)
			if err != nil {
				return err
			}
			m.totalKB += size
			dateValues = dateValues[:0]

			if _, err := m.store.AppendAttempt(ctx, attempt(entity, model.PageToken(strconv.Itoa(current)))); err != nil {
				return err
			}
		} else {
			if _, err := m.store.AppendAttempt(ctx, attempt(entity, model.PageTL)); err != nil {
				return err
			}
		}

		total, _, err = m.gov.Check(ctx, m.totalKB)
		if err != nil {
			return err
		}
		m.totalKB = total

		if current == pageCount {
			return nil
		}
		if err := m.gotoPage(ctx, page, current+1); err != nil {
			return err
		}
	}
}

func (m *Machine) gotoPage(ctx context.Context, page ResultsPage, n int) error {
	return resilience.Do(ctx, resilience.RetryConfig{
		MaxAttempts: 2,
		OnRetry:     resilience.RetryLogger("acquire", "goto page"),
	}, func(ctx context.Context) error {
		return page.GotoPage(ctx, n)
	})
}

// download selects rows and triggers the bulk archive download, then waits
// for the file to settle. A blank filename means the page's archive is
// already on disk and nothing is downloaded. In search-all mode rows were
// selected individually while scraping.
func (m *Machine) download(ctx context.Context, page ResultsPage, filename string, searchAll bool) (float64, error) {
	if filename == "" {
		return 0, nil
	}
	if !searchAll {
		if err := page.SelectAll(ctx); err != nil {
			return 0, err
		}
	}
	if err := page.BulkDownload(ctx); err != nil {
		return 0, err
	}
	return m.down.CompleteAndRename(ctx, filename)
}

func attempt(e model.Entity, t model.PageToken) model.Attempt {
	return model.Attempt{EntityKey: e.Key, DisplayName: e.DisplayName, PageToken: t}
}
