// Package export renders collected subject data into the portability
// formats the DPDP rules require: JSON, CSV, and XML.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
)

// Bundle is the assembled subject data keyed by category, each category a
// flat field map.
type Bundle struct {
	UserID      string
	GeneratedAt time.Time
	Categories  map[datarights.Category]map[string]any
}

// ContentType returns the MIME type for an export format.
func ContentType(format datarights.ExportFormat) string {
	switch format {
	case datarights.FormatCSV:
		return "text/csv"
	case datarights.FormatXML:
		return "application/xml"
	default:
		return "application/json"
	}
}

// Render serializes the bundle into the requested format.
func Render(bundle *Bundle, format datarights.ExportFormat) ([]byte, error) {
	switch format {
	case datarights.FormatJSON:
		return renderJSON(bundle)
	case datarights.FormatCSV:
		return renderCSV(bundle)
	case datarights.FormatXML:
		return renderXML(bundle)
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

type jsonExport struct {
	UserID      string                    `json:"userId"`
	GeneratedAt time.Time                 `json:"generatedAt"`
	Categories  map[string]map[string]any `json:"categories"`
}

func renderJSON(bundle *Bundle) ([]byte, error) {
	out := jsonExport{
		UserID:      bundle.UserID,
		GeneratedAt: bundle.GeneratedAt,
		Categories:  make(map[string]map[string]any, len(bundle.Categories)),
	}
	for cat, fields := range bundle.Categories {
		out.Categories[string(cat)] = fields
	}
	return json.MarshalIndent(out, "", "  ")
}

// renderCSV flattens the bundle to category,field,value rows. Rows are
// sorted so output is deterministic.
func renderCSV(bundle *Bundle) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"category", "field", "value"}); err != nil {
		return nil, err
	}

	for _, cat := range sortedCategories(bundle) {
		fields := bundle.Categories[cat]
		for _, field := range sortedFields(fields) {
			row := []string{string(cat), field, fmt.Sprint(fields[field])}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type xmlField struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlCategory struct {
	Name   string     `xml:"name,attr"`
	Fields []xmlField `xml:"field"`
}

type xmlExport struct {
	XMLName     xml.Name      `xml:"subjectData"`
	UserID      string        `xml:"userId,attr"`
	GeneratedAt string        `xml:"generatedAt,attr"`
	Categories  []xmlCategory `xml:"category"`
}

func renderXML(bundle *Bundle) ([]byte, error) {
	out := xmlExport{
		UserID:      bundle.UserID,
		GeneratedAt: bundle.GeneratedAt.Format(time.RFC3339),
	}

	for _, cat := range sortedCategories(bundle) {
		fields := bundle.Categories[cat]
		xc := xmlCategory{Name: string(cat)}
		for _, field := range sortedFields(fields) {
			xc.Fields = append(xc.Fields, xmlField{Name: field, Value: fmt.Sprint(fields[field])})
		}
		out.Categories = append(out.Categories, xc)
	}

	data, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), data...), nil
}

func sortedCategories(bundle *Bundle) []datarights.Category {
	cats := make([]datarights.Category, 0, len(bundle.Categories))
	for c := range bundle.Categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

func sortedFields(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}
