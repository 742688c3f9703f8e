// Package interfaces defines the contracts shared between the packages of
// the pharmacie API so each piece can be replaced by a mock in tests.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/pharmacie/entities"
)

// DataQualityReport summarizes quality issues found in a loaded catalogue.
// ID lists are capped to keep log lines readable.
type DataQualityReport struct {
	TotalMedicaments  int      `json:"total_medicaments"`
	DuplicateIDs      []string `json:"duplicate_ids"`
	EmptyIDs          int      `json:"empty_ids"`
	InvalidCount      int      `json:"invalid_count"`
	InvalidIDs        []string `json:"invalid_ids"`
	WithoutPhoto      int      `json:"without_photo"`
	WithoutPhotoIDs   []string `json:"without_photo_ids"`
	OutOfStock        int      `json:"out_of_stock"`
	OutOfStockIDs     []string `json:"out_of_stock_ids"`
	NegativeQuantites int      `json:"negative_quantites"`
}

// DataStore is the in-memory catalogue read by the HTTP layer and
// swapped by the scheduler.
type DataStore interface {
	GetMedicaments() []entities.Medicament
	GetMedicament(id string) (entities.Medicament, bool)
	FindByID(id string) (entities.Medicament, error)
	GetLastUpdated() time.Time
	GetServerStartTime() time.Time
	GetDataQualityReport() *DataQualityReport
	IsUpdating() bool

	UpdateData(medicaments []entities.Medicament, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Loader reads the full catalogue from a source (file, URL, database).
type Loader interface {
	Load(ctx context.Context) ([]entities.Medicament, error)
	// Source describes where the data comes from, for logs and health
	Source() string
}

// Scheduler manages automated catalogue reloads.
type Scheduler interface {
	Start() error
	Stop()
	NextUpdate() time.Time
}

// HealthChecker reports the health of the catalogue.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// DataValidator groups the explicit validation steps. Construction of a
// Medicament never calls it.
type DataValidator interface {
	ValidateMedicament(m entities.Medicament) error
	ValidateCatalogue(medicaments []entities.Medicament) error
	ReportDataQuality(medicaments []entities.Medicament) *DataQualityReport
	ValidateInput(input string) error
	ValidateID(input string) error
}

// HTTPHandler serves the catalogue endpoints.
type HTTPHandler interface {
	ServeMedicaments(w http.ResponseWriter, r *http.Request)
	FindMedicamentByID(w http.ResponseWriter, r *http.Request)
	ExportMedicaments(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}
