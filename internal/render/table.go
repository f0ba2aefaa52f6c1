// Package render turns weather results into HTML tables and holds the
// currently displayed output.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NotAvailable is shown for a value that is missing or null.
const NotAvailable = "Data not available"

// Column binds a table heading to the field key it displays.
type Column struct {
	Heading string
	Key     string
}

// Layout is the ordered column list of one table kind.
type Layout []Column

// Table layouts.
var (
	WeatherLayout = Layout{
		{Heading: "Location", Key: "location"},
		{Heading: "Region", Key: "region"},
		{Heading: "Country", Key: "country"},
		{Heading: "Latitude", Key: "lat"},
		{Heading: "Longitude", Key: "lon"},
		{Heading: "Time of Day", Key: "time"},
		{Heading: "Temperature", Key: "temp_c"},
		{Heading: "Humidity", Key: "humidity"},
		{Heading: "Wind Speed", Key: "wind_kph"},
		{Heading: "Cloud Cover", Key: "cloud"},
		{Heading: "Rainfall Probability", Key: "rain_prob"},
	}

	AirQualityLayout = Layout{
		{Heading: "CO (µg/m³)", Key: "co"},
		{Heading: "NO2 (µg/m³)", Key: "no2"},
		{Heading: "O3 (µg/m³)", Key: "o3"},
		{Heading: "SO2 (µg/m³)", Key: "so2"},
		{Heading: "PM2.5 (µg/m³)", Key: "pm2_5"},
		{Heading: "PM10 (µg/m³)", Key: "pm10"},
		{Heading: "US EPA Index", Key: "us-epa-index"},
		{Heading: "GB DEFRA Index", Key: "gb-defra-index"},
	}
)

// Headings returns the column headings in order.
func (l Layout) Headings() []string {
	headings := make([]string, len(l))
	for i, c := range l {
		headings[i] = c.Heading
	}
	return headings
}

// Source is a record that can be looked up by field key. The boolean is
// false when the record has no such key.
type Source interface {
	Lookup(key string) (any, bool)
}

// Cell is one table cell.
type Cell struct {
	Text    string `json:"text"`
	ColSpan int    `json:"colSpan,omitempty"`
}

// Row is one table row.
type Row struct {
	Cells []Cell `json:"cells"`
}

// Table is a rendered table: a heading row followed by value rows.
type Table struct {
	Rows []Row `json:"rows"`
}

// BuildTable renders src under layout. Each value comes from src by the
// column key; when src lacks the key, the value at the same position in aux
// is used instead. Missing and null values render as NotAvailable. A nil src
// renders one cell spanning every column.
func BuildTable(src Source, layout Layout, aux []any) Table {
	header := Row{Cells: make([]Cell, len(layout))}
	for i, c := range layout {
		header.Cells[i] = Cell{Text: c.Heading}
	}

	if src == nil {
		return Table{Rows: []Row{
			header,
			{Cells: []Cell{{Text: NotAvailable, ColSpan: len(layout)}}},
		}}
	}

	values := Row{Cells: make([]Cell, len(layout))}
	for i, c := range layout {
		v, ok := src.Lookup(c.Key)
		if !ok {
			v = nil
			if i < len(aux) {
				v = aux[i]
			}
		}

		text, valid := FormatValue(v)
		if !valid {
			text = NotAvailable
		}
		values.Cells[i] = Cell{Text: text}
	}

	return Table{Rows: []Row{header, values}}
}

// FormatValue renders a field value as cell text. The boolean is false for
// nil pointers, nil and JSON null.
func FormatValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case *string:
		if x == nil {
			return "", false
		}
		return *x, true
	case float64:
		return formatFloat(x), true
	case *float64:
		if x == nil {
			return "", false
		}
		return formatFloat(*x), true
	case int:
		return strconv.Itoa(x), true
	case json.RawMessage:
		return formatRaw(x)
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatRaw renders a raw JSON value: strings unquoted, everything else as
// sent.
func formatRaw(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s, true
		}
	}
	return string(trimmed), true
}
