package journal

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atlas-desktop/tradestats/internal/analytics"
)

// DecodeJSON reads a JSON array of trade records. Numbers are kept as
// json.Number so no precision is lost before normalization. Elements that are
// not objects decode to empty records.
func DecodeJSON(r io.Reader) ([]analytics.RawTrade, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var elems []json.RawMessage
	if err := dec.Decode(&elems); err != nil {
		if errors.Is(err, io.EOF) {
			return []analytics.RawTrade{}, nil
		}
		return nil, fmt.Errorf("failed to parse trades: %w", err)
	}
	return DecodeRecords(elems), nil
}

// DecodeRecords decodes each element into a RawTrade. Anything that is not a
// JSON object becomes an empty record.
func DecodeRecords(elems []json.RawMessage) []analytics.RawTrade {
	trades := make([]analytics.RawTrade, len(elems))
	for i, elem := range elems {
		trades[i] = decodeRecord(elem)
	}
	return trades
}

func decodeRecord(elem json.RawMessage) analytics.RawTrade {
	dec := json.NewDecoder(bytes.NewReader(elem))
	dec.UseNumber()

	var trade analytics.RawTrade
	if err := dec.Decode(&trade); err != nil || trade == nil {
		return analytics.RawTrade{}
	}
	return trade
}

// DecodeCSV reads a CSV file whose header row holds field names. Empty cells
// are left out of the record.
func DecodeCSV(r io.Reader) ([]analytics.RawTrade, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []analytics.RawTrade{}, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	trades := make([]analytics.RawTrade, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		trade := make(analytics.RawTrade, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				trade[header[i]] = cell
			}
		}
		trades = append(trades, trade)
	}

	return trades, nil
}

// Format is an import file format
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON, nil
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported trade file %q (want .json or .csv)", path)
	}
}

// Decode reads trades in the given format
func Decode(format Format, data []byte) ([]analytics.RawTrade, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(bytes.NewReader(data))
	case FormatCSV:
		return DecodeCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
