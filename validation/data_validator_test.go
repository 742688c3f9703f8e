package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/giygas/pharmacie/entities"
)

func TestValidateMedicament(t *testing.T) {
	v := NewDataValidator()

	tests := []struct {
		name    string
		m       entities.Medicament
		wantErr string
	}{
		{"valid record", entities.NewMedicament("M1", "Paracetamol", "tablet", 100, "img/para.png"), ""},
		{"valid without photo", entities.NewMedicament("M2", "Sirop toux", "syrup", 0, ""), ""},
		{"valid https photo", entities.NewMedicament("M3", "Ibuprofène", "comprimé", 3, "https://cdn.example.org/ibu.jpg"), ""},
		{"empty id", entities.NewMedicament("", "Paracetamol", "tablet", 1, ""), "empty id"},
		{"blank denomination", entities.NewMedicament("M4", "   ", "tablet", 1, ""), "empty denomination"},
		{"long denomination", entities.NewMedicament("M5", strings.Repeat("é", 201), "tablet", 1, ""), "denomination too long"},
		{"long forme", entities.NewMedicament("M6", "X", strings.Repeat("a", 101), 1, ""), "forme pharmaceutique too long"},
		{"negative quantite", entities.NewMedicament("M7", "X", "tablet", -1, ""), "negative quantite"},
		{"photo traversal", entities.NewMedicament("M8", "X", "tablet", 1, "../../etc/passwd"), "path traversal"},
		{"absolute photo path", entities.NewMedicament("M9", "X", "tablet", 1, "/etc/passwd"), "absolute path"},
		{"ftp photo", entities.NewMedicament("M10", "X", "tablet", 1, "ftp://example.org/a.png"), "unsupported scheme"},
		{"http photo without host", entities.NewMedicament("M11", "X", "tablet", 1, "http:///a.png"), "missing host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateMedicament(tt.m)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateMedicamentDoesNotAlterRecord(t *testing.T) {
	m := entities.NewMedicament("", "", "", -3, "../x")
	before := m

	_ = NewDataValidator().ValidateMedicament(m)

	if m != before {
		t.Error("validation must not change the record")
	}
}

func TestValidateCatalogue(t *testing.T) {
	v := NewDataValidator()

	if err := v.ValidateCatalogue(nil); err == nil {
		t.Error("expected error for empty catalogue")
	}

	ok := []entities.Medicament{
		entities.NewMedicament("M1", "Paracetamol", "tablet", 100, ""),
		entities.NewMedicament("M2", "Ibuprofène", "tablet", 5, ""),
	}
	if err := v.ValidateCatalogue(ok); err != nil {
		t.Errorf("expected valid catalogue, got %v", err)
	}

	dup := append(ok, entities.NewMedicament("M1", "Autre", "gel", 1, ""))
	if err := v.ValidateCatalogue(dup); err == nil || !strings.Contains(err.Error(), "duplicate id found: M1") {
		t.Errorf("expected duplicate error, got %v", err)
	}

	bad := []entities.Medicament{entities.NewMedicament("M1", "", "tablet", 1, "")}
	if err := v.ValidateCatalogue(bad); err == nil {
		t.Error("expected error for invalid record")
	}
}

func TestReportDataQuality(t *testing.T) {
	meds := []entities.Medicament{
		entities.NewMedicament("M1", "Paracetamol", "tablet", 100, "img/para.png"),
		entities.NewMedicament("M2", "", "syrup", 0, ""),
		entities.NewMedicament("M1", "Paracetamol 1000", "tablet", 3, "img/p.png"),
		entities.NewMedicament("M1", "Paracetamol 500", "tablet", 3, "img/p.png"),
		entities.NewMedicament("", "Sans id", "gel", -2, "img/g.png"),
	}

	report := NewDataValidator().ReportDataQuality(meds)

	if report.TotalMedicaments != 5 {
		t.Errorf("TotalMedicaments = %d, want 5", report.TotalMedicaments)
	}
	if len(report.DuplicateIDs) != 1 || report.DuplicateIDs[0] != "M1" {
		t.Errorf("DuplicateIDs = %v, want [M1]", report.DuplicateIDs)
	}
	if report.EmptyIDs != 1 {
		t.Errorf("EmptyIDs = %d, want 1", report.EmptyIDs)
	}
	if report.InvalidCount != 2 {
		t.Errorf("InvalidCount = %d, want 2", report.InvalidCount)
	}
	if report.WithoutPhoto != 1 || report.WithoutPhotoIDs[0] != "M2" {
		t.Errorf("WithoutPhoto = %d %v, want 1 [M2]", report.WithoutPhoto, report.WithoutPhotoIDs)
	}
	if report.OutOfStock != 1 || report.OutOfStockIDs[0] != "M2" {
		t.Errorf("OutOfStock = %d %v, want 1 [M2]", report.OutOfStock, report.OutOfStockIDs)
	}
	if report.NegativeQuantites != 1 {
		t.Errorf("NegativeQuantites = %d, want 1", report.NegativeQuantites)
	}
}

func TestReportDataQualityCapsLists(t *testing.T) {
	meds := make([]entities.Medicament, 0, 25)
	for i := 0; i < 25; i++ {
		meds = append(meds, entities.NewMedicament(strings.Repeat("a", i+1), "X", "tablet", 0, ""))
	}

	report := NewDataValidator().ReportDataQuality(meds)

	if report.OutOfStock != 25 {
		t.Errorf("OutOfStock = %d, want 25", report.OutOfStock)
	}
	if len(report.OutOfStockIDs) != reportListCap {
		t.Errorf("len(OutOfStockIDs) = %d, want %d", len(report.OutOfStockIDs), reportListCap)
	}
}

func TestValidateInput(t *testing.T) {
	v := NewDataValidator()

	valid := []string{"paracetamol", "Doliprane 500", "acide acétylsalicylique", "vitamine B12+", "l'eau"}
	for _, input := range valid {
		if err := v.ValidateInput(input); err != nil {
			t.Errorf("ValidateInput(%q) = %v, want nil", input, err)
		}
	}

	invalid := []struct {
		input   string
		wantErr string
	}{
		{"", "empty"},
		{"   ", "empty"},
		{"ab", "too short"},
		{strings.Repeat("a", 51), "too long"},
		{"a b c d e f g", "too complex"},
		{"<script>alert</script>", "dangerous"},
		{"x' or 1=1", "dangerous"},
		{"../etc", "dangerous"},
		{"para#cetamol", "invalid characters"},
		{"aaaaaaaaaaaaaa", "repetition"},
	}
	for _, tt := range invalid {
		err := v.ValidateInput(tt.input)
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("ValidateInput(%q) = %v, want error containing %q", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateID(t *testing.T) {
	v := NewDataValidator()

	for _, id := range []string{"M1", "60234100", "med_01.a", "A-B"} {
		if err := v.ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v, want nil", id, err)
		}
	}

	if err := v.ValidateID(""); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("ValidateID(\"\") = %v, want ErrEmptyInput", err)
	}

	for _, id := range []string{"-M1", "M 1", "M1/..", strings.Repeat("a", 65), "médoc"} {
		if err := v.ValidateID(id); err == nil {
			t.Errorf("ValidateID(%q) should fail", id)
		}
	}
}
