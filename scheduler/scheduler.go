// Package scheduler reloads the medication catalogue on a schedule and
// watches for stale data.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/giygas/pharmacie/interfaces"
	"github.com/giygas/pharmacie/logging"
	"github.com/giygas/pharmacie/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	loadTimeout    = 10 * time.Minute
	staleThreshold = 25 * time.Hour
)

// Scheduler loads the catalogue at start and then at each reload time
type Scheduler struct {
	dataStore   interfaces.DataStore
	loader      interfaces.Loader
	validator   interfaces.DataValidator
	reloadTimes string
	strict      bool
	scheduler   *gocron.Scheduler
	job         *gocron.Job
	stopMonitor chan struct{}
	stopOnce    sync.Once
}

// NewScheduler creates a scheduler. reloadTimes uses the "HH:MM;HH:MM" form.
func NewScheduler(dataStore interfaces.DataStore, loader interfaces.Loader, validator interfaces.DataValidator, reloadTimes string) *Scheduler {
	return &Scheduler{
		dataStore:   dataStore,
		loader:      loader,
		validator:   validator,
		reloadTimes: reloadTimes,
		scheduler:   gocron.NewScheduler(time.Local),
		stopMonitor: make(chan struct{}),
	}
}

// SetStrictValidation makes reloads refuse catalogues with duplicate ids or
// invalid records instead of only reporting them.
func (s *Scheduler) SetStrictValidation(strict bool) {
	s.strict = strict
}

// Start performs the initial load, then schedules reloads
func (s *Scheduler) Start() error {
	if err := s.Reload(context.Background()); err != nil {
		logging.Error("Failed to perform initial data load", "source", s.loader.Source(), "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	job, err := s.scheduler.Every(1).Day().At(s.reloadTimes).Do(func() {
		if err := s.Reload(context.Background()); err != nil {
			logging.Error("Failed to reload catalogue", "source", s.loader.Source(), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reloads at %q: %w", s.reloadTimes, err)
	}
	s.job = job

	s.scheduler.StartAsync()
	go s.monitorStaleness(time.Hour)

	logging.Info("Catalogue reloads scheduled", "times", s.reloadTimes, "next", s.NextUpdate().Format(time.RFC3339))
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.stopOnce.Do(func() { close(s.stopMonitor) })
}

// NextUpdate returns the next scheduled reload
func (s *Scheduler) NextUpdate() time.Time {
	if s.job != nil {
		if next := s.job.NextRun(); !next.IsZero() {
			return next
		}
	}
	return CalculateNextUpdate(time.Now(), s.reloadTimes)
}

// Reload loads the catalogue and swaps it into the store. On failure the
// current catalogue stays in place. A concurrent call returns nil at once.
func (s *Scheduler) Reload(ctx context.Context) error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	start := time.Now()
	logging.Info("Starting catalogue reload", "source", s.loader.Source())

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	medicaments, err := s.loader.Load(ctx)
	if err != nil {
		metrics.CatalogueReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load catalogue: %w", err)
	}

	if len(medicaments) == 0 && len(s.dataStore.GetMedicaments()) > 0 {
		metrics.CatalogueReloads.WithLabelValues("rejected").Inc()
		return fmt.Errorf("source %s returned an empty catalogue, keeping the current one", s.loader.Source())
	}

	if s.strict {
		if err := s.validator.ValidateCatalogue(medicaments); err != nil {
			metrics.CatalogueReloads.WithLabelValues("rejected").Inc()
			return fmt.Errorf("catalogue from %s failed validation: %w", s.loader.Source(), err)
		}
	}

	report := s.validator.ReportDataQuality(medicaments)
	logReport(report)

	s.dataStore.UpdateData(medicaments, report)

	elapsed := time.Since(start)
	metrics.CatalogueReloads.WithLabelValues("success").Inc()
	metrics.CatalogueReloadDuration.Observe(elapsed.Seconds())
	metrics.CatalogueSize.Set(float64(len(medicaments)))
	metrics.CatalogueOutOfStock.Set(float64(report.OutOfStock))

	logging.Info("Catalogue reload completed", "duration", elapsed.String(), "medicament_count", len(medicaments))
	return nil
}

func logReport(report *interfaces.DataQualityReport) {
	if len(report.DuplicateIDs) > 0 {
		logging.Warn("Duplicate ids detected", "total", len(report.DuplicateIDs), "ids", report.DuplicateIDs)
	}
	if report.EmptyIDs > 0 {
		logging.Warn("Medicaments without id", "count", report.EmptyIDs)
	}
	if report.InvalidCount > 0 {
		logging.Warn("Medicaments failing validation", "count", report.InvalidCount, "ids", report.InvalidIDs)
	}
	if report.NegativeQuantites > 0 {
		logging.Warn("Medicaments with negative quantite", "count", report.NegativeQuantites)
	}
	if report.WithoutPhoto > 0 {
		logging.Debug("Medicaments without photo", "count", report.WithoutPhoto, "ids", report.WithoutPhotoIDs)
	}
}

func (s *Scheduler) monitorStaleness(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopMonitor:
			return
		case <-ticker.C:
			if age := time.Since(s.dataStore.GetLastUpdated()); age > staleThreshold {
				logging.Warn("Catalogue hasn't been updated in over 25 hours", "age", age.Round(time.Minute).String())
			}
		}
	}
}

// CalculateNextUpdate returns the first reload time strictly after now.
// Unparsable entries are ignored; with none left it returns now + 24h.
func CalculateNextUpdate(now time.Time, reloadTimes string) time.Time {
	var next time.Time
	for _, entry := range strings.Split(reloadTimes, ";") {
		at, err := time.Parse("15:04", strings.TrimSpace(entry))
		if err != nil {
			continue
		}

		candidate := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}

	if next.IsZero() {
		return now.Add(24 * time.Hour)
	}
	return next
}
