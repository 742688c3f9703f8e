// Package health reports whether the served catalogue is usable.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/pharmacie/interfaces"
)

const (
	degradedAfter  = 24 * time.Hour
	unhealthyAfter = 48 * time.Hour
)

var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

type HealthCheckerImpl struct {
	dataStore  interfaces.DataStore
	nextUpdate func() time.Time
	now        func() time.Time
}

// NewHealthChecker builds a checker. nextUpdate may be nil.
func NewHealthChecker(dataStore interfaces.DataStore, nextUpdate func() time.Time) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		dataStore:  dataStore,
		nextUpdate: nextUpdate,
		now:        time.Now,
	}
}

// HealthCheck classifies the catalogue:
//   - empty or older than 48h: unhealthy, 503
//   - older than 24h: degraded, 503
//   - otherwise healthy, 200
func (h *HealthCheckerImpl) HealthCheck() (status string, details map[string]any, httpStatus int) {
	medicaments := h.dataStore.GetMedicaments()
	lastUpdate := h.dataStore.GetLastUpdated()
	dataAge := h.now().Sub(lastUpdate)

	switch {
	case len(medicaments) == 0 || dataAge > unhealthyAfter:
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	case dataAge > degradedAfter:
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	default:
		status, httpStatus = "healthy", http.StatusOK
	}

	outOfStock := 0
	if report := h.dataStore.GetDataQualityReport(); report != nil {
		outOfStock = report.OutOfStock
	}

	details = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"medicaments":    len(medicaments),
		"out_of_stock":   outOfStock,
		"is_updating":    h.dataStore.IsUpdating(),
		"uptime_seconds": math.Round(h.now().Sub(h.dataStore.GetServerStartTime()).Seconds()),
	}
	if h.nextUpdate != nil {
		details["next_update"] = h.nextUpdate().Format(time.RFC3339)
	}

	return status, details, httpStatus
}
