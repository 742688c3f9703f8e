// Package validation provides the explicit validation steps of the
// pharmacie API: record checks, catalogue checks and user input guards.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/pharmacie/entities"
	"github.com/giygas/pharmacie/interfaces"
)

// reportListCap bounds the id lists kept in a DataQualityReport
const reportListCap = 10

var (
	// letters, digits, French accents and safe punctuation
	inputRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'àâäéèêëïîôöùûüÿçÀÂÄÉÈÊËÏÎÔÖÙÛÜŸÇ]+$`)

	idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-\.]{0,63}$`)

	dangerousPatterns = []string{
		"<script", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(", "@import",
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(",
		"; ", "| ", "& ", "`", "$(", "${",
		"../", "..\\", "%2e%2e", "file://",
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}

	ErrEmptyInput = errors.New("input cannot be empty")
)

// Compile-time check
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

type DataValidatorImpl struct{}

func NewDataValidator() *DataValidatorImpl {
	return &DataValidatorImpl{}
}

// ValidateMedicament checks a single record. It is never called by
// entities.NewMedicament; loaders call it only to report issues.
func (v *DataValidatorImpl) ValidateMedicament(m entities.Medicament) error {
	if strings.TrimSpace(m.ID()) == "" {
		return fmt.Errorf("empty id for medicament %q", m.Denomination())
	}

	if strings.TrimSpace(m.Denomination()) == "" {
		return fmt.Errorf("empty denomination for id %s", m.ID())
	}

	if n := utf8.RuneCountInString(m.Denomination()); n > 200 {
		return fmt.Errorf("denomination too long for id %s: %d characters", m.ID(), n)
	}

	if n := utf8.RuneCountInString(m.FormePharmaceutique()); n > 100 {
		return fmt.Errorf("forme pharmaceutique too long for id %s: %d characters", m.ID(), n)
	}

	if m.Quantite() < 0 {
		return fmt.Errorf("negative quantite for id %s: %d", m.ID(), m.Quantite())
	}

	if err := validatePhoto(m.Photo()); err != nil {
		return fmt.Errorf("invalid photo for id %s: %w", m.ID(), err)
	}

	return nil
}

// validatePhoto accepts an empty reference, a relative path or an http(s) URL
func validatePhoto(photo string) error {
	if photo == "" {
		return nil
	}

	if strings.Contains(photo, "..") || strings.Contains(photo, "\\") {
		return fmt.Errorf("path traversal in %q", photo)
	}

	u, err := url.Parse(photo)
	if err != nil {
		return fmt.Errorf("unparsable reference %q: %w", photo, err)
	}

	switch u.Scheme {
	case "":
		if strings.HasPrefix(photo, "/") {
			return fmt.Errorf("absolute path %q", photo)
		}
		return nil
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("missing host in %q", photo)
		}
		return nil
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

// ValidateCatalogue fails on the first duplicate id or invalid record
func (v *DataValidatorImpl) ValidateCatalogue(medicaments []entities.Medicament) error {
	if len(medicaments) == 0 {
		return fmt.Errorf("no medicaments found")
	}

	seen := make(map[string]bool, len(medicaments))
	for _, m := range medicaments {
		if seen[m.ID()] {
			return fmt.Errorf("duplicate id found: %s", m.ID())
		}
		seen[m.ID()] = true

		if err := v.ValidateMedicament(m); err != nil {
			return err
		}
	}

	return nil
}

// ReportDataQuality collects every issue without rejecting anything
func (v *DataValidatorImpl) ReportDataQuality(medicaments []entities.Medicament) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		TotalMedicaments: len(medicaments),
		DuplicateIDs:     []string{},
		InvalidIDs:       []string{},
		WithoutPhotoIDs:  []string{},
		OutOfStockIDs:    []string{},
	}

	seen := make(map[string]int, len(medicaments))
	for _, m := range medicaments {
		id := m.ID()

		if id == "" {
			report.EmptyIDs++
		} else {
			seen[id]++
			if seen[id] == 2 {
				report.DuplicateIDs = append(report.DuplicateIDs, id)
			}
		}

		if err := v.ValidateMedicament(m); err != nil {
			report.InvalidCount++
			report.InvalidIDs = appendCapped(report.InvalidIDs, id)
		}

		if m.Photo() == "" {
			report.WithoutPhoto++
			report.WithoutPhotoIDs = appendCapped(report.WithoutPhotoIDs, id)
		}

		switch {
		case m.Quantite() < 0:
			report.NegativeQuantites++
		case m.Quantite() == 0:
			report.OutOfStock++
			report.OutOfStockIDs = appendCapped(report.OutOfStockIDs, id)
		}
	}

	return report
}

func appendCapped(list []string, id string) []string {
	if len(list) >= reportListCap {
		return list
	}
	return append(list, id)
}

// ValidateInput guards free text search terms
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return ErrEmptyInput
	}

	length := utf8.RuneCountInString(input)
	if length < 3 {
		return fmt.Errorf("input too short: minimum 3 characters")
	}
	if length > 50 {
		return fmt.Errorf("input too long: maximum 50 characters")
	}

	if len(strings.Fields(input)) > 6 {
		return fmt.Errorf("search query too complex: maximum 6 words allowed")
	}

	lower := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, plus sign and French accented characters are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateID guards id path parameters
func (v *DataValidatorImpl) ValidateID(input string) error {
	if input == "" {
		return ErrEmptyInput
	}
	if !idRegex.MatchString(input) {
		return fmt.Errorf("invalid id: use up to 64 letters, digits, '-', '_' or '.'")
	}
	return nil
}

// hasExcessiveRepetition reports a rune repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	var prev rune
	run := 0
	for _, r := range input {
		if r == prev {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		prev = r
		run = 1
	}
	return false
}
