// Package loader reads the medication catalogue from its sources: a local
// JSON or tab-separated file, a remote download or a Postgres table.
package loader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/giygas/pharmacie/entities"
	"github.com/giygas/pharmacie/logging"
	"golang.org/x/text/encoding/charmap"
)

// Format of a catalogue document
type Format string

const (
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
)

// tsvColumns: id, denomination, forme pharmaceutique, quantite, photo
const tsvColumns = 5

// FormatFromName picks the format from a file name or URL path
func FormatFromName(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".tsv":
		return FormatTSV
	default:
		return FormatJSON
	}
}

// ParseStats counts the TSV lines that were skipped
type ParseStats struct {
	TotalLines     int
	EmptyLines     int
	MissingColumns int
	FormatErrors   int
	Parsed         int
}

func (s ParseStats) skipped() bool {
	return s.EmptyLines > 0 || s.MissingColumns > 0 || s.FormatErrors > 0
}

// Decode parses a catalogue document
func Decode(data []byte, format Format) ([]entities.Medicament, error) {
	switch format {
	case FormatTSV:
		meds, stats, err := DecodeTSV(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if stats.skipped() {
			logging.Info("TSV skip statistics",
				"empty_lines", stats.EmptyLines,
				"missing_columns", stats.MissingColumns,
				"format_errors", stats.FormatErrors,
				"total_lines", stats.TotalLines,
				"records_parsed", stats.Parsed)
		}
		return meds, nil
	case FormatJSON:
		return DecodeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// DecodeJSON parses a JSON array of medicaments
func DecodeJSON(data []byte) ([]entities.Medicament, error) {
	var meds []entities.Medicament
	if err := json.Unmarshal(data, &meds); err != nil {
		return nil, fmt.Errorf("failed to decode JSON catalogue: %w", err)
	}
	if meds == nil {
		meds = []entities.Medicament{}
	}
	return meds, nil
}

// DecodeTSV parses tab-separated lines. Input that is not valid UTF-8 is
// read as ISO-8859-1, the encoding of the public medication database exports.
// A blank quantite reads as 0; trailing columns may be omitted after the
// forme pharmaceutique.
func DecodeTSV(r io.Reader) ([]entities.Medicament, ParseStats, error) {
	var stats ParseStats

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read TSV catalogue: %w", err)
	}

	var reader io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		reader = charmap.ISO8859_1.NewDecoder().Reader(reader)
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	meds := []entities.Medicament{}
	for scanner.Scan() {
		stats.TotalLines++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			stats.EmptyLines++
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			stats.MissingColumns++
			continue
		}
		for len(fields) < tsvColumns {
			fields = append(fields, "")
		}

		qte := 0
		if q := strings.TrimSpace(fields[3]); q != "" {
			qte, err = strconv.Atoi(q)
			if err != nil {
				stats.FormatErrors++
				continue
			}
		}

		meds = append(meds, entities.NewMedicament(
			strings.TrimSpace(fields[0]),
			strings.TrimSpace(fields[1]),
			strings.TrimSpace(fields[2]),
			qte,
			strings.TrimSpace(fields[4]),
		))
		stats.Parsed++
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scanner error: %w", err)
	}

	return meds, stats, nil
}
