// Package data holds the in-memory medication catalogue. Readers load an
// immutable snapshot; reloads build a new one and swap it atomically.
package data

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/giygas/pharmacie/entities"
	"github.com/giygas/pharmacie/interfaces"
)

// ErrNotFound is returned when no medicament has the requested id
var ErrNotFound = errors.New("medicament not found")

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// snapshot is never modified once stored
type snapshot struct {
	medicaments []entities.Medicament
	byID        map[string]entities.Medicament
	report      *interfaces.DataQualityReport
	lastUpdated time.Time
}

type DataContainer struct {
	current         atomic.Pointer[snapshot]
	updating        atomic.Bool
	serverStartTime time.Time
}

// NewDataContainer creates an empty container
func NewDataContainer() *DataContainer {
	dc := &DataContainer{serverStartTime: time.Now()}
	dc.current.Store(&snapshot{
		medicaments: []entities.Medicament{},
		byID:        map[string]entities.Medicament{},
		report:      &interfaces.DataQualityReport{},
	})
	return dc
}

func (dc *DataContainer) load() *snapshot {
	return dc.current.Load()
}

// GetMedicaments returns the catalogue in load order. Callers must not
// modify the returned slice.
func (dc *DataContainer) GetMedicaments() []entities.Medicament {
	return dc.load().medicaments
}

// GetMedicament looks a record up by id
func (dc *DataContainer) GetMedicament(id string) (entities.Medicament, bool) {
	m, ok := dc.load().byID[id]
	return m, ok
}

// FindByID is GetMedicament with an error, for callers that wrap errors
func (dc *DataContainer) FindByID(id string) (entities.Medicament, error) {
	if m, ok := dc.GetMedicament(id); ok {
		return m, nil
	}
	return entities.Medicament{}, ErrNotFound
}

func (dc *DataContainer) GetLastUpdated() time.Time {
	return dc.load().lastUpdated
}

func (dc *DataContainer) GetServerStartTime() time.Time {
	return dc.serverStartTime
}

func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	return dc.load().report
}

func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// UpdateData indexes the list by id and swaps it in. On duplicate ids the
// last record wins the index; the list keeps every record.
func (dc *DataContainer) UpdateData(medicaments []entities.Medicament, report *interfaces.DataQualityReport) {
	if medicaments == nil {
		medicaments = []entities.Medicament{}
	}
	if report == nil {
		report = &interfaces.DataQualityReport{TotalMedicaments: len(medicaments)}
	}

	byID := make(map[string]entities.Medicament, len(medicaments))
	for _, m := range medicaments {
		byID[m.ID()] = m
	}

	dc.current.Store(&snapshot{
		medicaments: medicaments,
		byID:        byID,
		report:      report,
		lastUpdated: time.Now(),
	})
}

// BeginUpdate returns false when another update is already running
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
