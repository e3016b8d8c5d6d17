package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"estateqa/internal/domain"
)

// Record is a single raw listing row, keyed by CSV header name.
type Record map[string]string

// Column names in the listings export. listing_id and title are required;
// everything else is optional and simply left out of the document text when
// absent.
const (
	colID           = "listing_id"
	colTitle        = "title"
	colNeighborhood = "neighborhood"
	colPrice        = "price"
	colSize         = "size_m2"
	colRooms        = "rooms"
	colBathrooms    = "bathrooms"
)

var amenityColumns = []string{"lift", "terrace", "pool", "parking"}

// LoadCSV reads a listings CSV with a header row into records. Rows with a
// different field count than the header are a data format error.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open listings csv: %w", err)
	}
	defer f.Close()
	return ReadRecords(f)
}

// ReadRecords parses header-addressed CSV rows from r.
func ReadRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing csv header: %v", domain.ErrDataFormat, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", domain.ErrDataFormat, line, err)
		}
		rec := make(Record, len(header))
		for i, name := range header {
			rec[name] = strings.TrimSpace(row[i])
		}
		records = append(records, rec)
	}
	return records, nil
}

// Build converts raw listing records into immutable documents, one per
// listing, in input order. It is a pure function of its input and fails on
// a missing required field, an unparseable id, or an id collision.
func Build(records []Record) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(records))
	seen := make(map[int64]struct{}, len(records))

	for i, rec := range records {
		rawID := rec[colID]
		if rawID == "" {
			return nil, fmt.Errorf("%w: record %d: missing %s", domain.ErrDataFormat, i, colID)
		}
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %s %q is not an integer", domain.ErrDataFormat, i, colID, rawID)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: record %d: duplicate %s %d", domain.ErrDataFormat, i, colID, id)
		}
		if rec[colTitle] == "" {
			return nil, fmt.Errorf("%w: record %d (%s %d): missing %s", domain.ErrDataFormat, i, colID, id, colTitle)
		}
		seen[id] = struct{}{}

		docs = append(docs, domain.Document{
			ID:       id,
			Text:     listingText(id, rec),
			Metadata: listingMetadata(rec),
		})
	}
	return docs, nil
}

// listingText renders the fixed textual template a listing is embedded
// under. Optional fields are skipped when empty so sparse rows still
// produce useful text.
func listingText(id int64, rec Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Listing %d: %s", id, rec[colTitle])
	if v := rec[colNeighborhood]; v != "" {
		b.WriteString(" in ")
		b.WriteString(v)
	}
	if v := rec[colSize]; v != "" {
		fmt.Fprintf(&b, ", %s m²", v)
	}
	if v := rec[colRooms]; v != "" {
		fmt.Fprintf(&b, ", %s rooms", v)
	}
	if v := rec[colBathrooms]; v != "" {
		fmt.Fprintf(&b, ", %s bathrooms", v)
	}
	if amenities := listingAmenities(rec); len(amenities) > 0 {
		b.WriteString(", with ")
		b.WriteString(strings.Join(amenities, ", "))
	}
	if v := rec[colPrice]; v != "" {
		fmt.Fprintf(&b, ", price €%s", v)
	}
	return b.String()
}

func listingAmenities(rec Record) []string {
	var out []string
	for _, name := range amenityColumns {
		if isTruthy(rec[name]) {
			out = append(out, name)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func listingMetadata(rec Record) map[string]string {
	meta := make(map[string]string, 4)
	for _, name := range []string{colID, colTitle, colNeighborhood, colPrice} {
		if v := rec[name]; v != "" {
			meta[name] = v
		}
	}
	return meta
}
