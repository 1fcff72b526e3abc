package parsehub

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

const reportSeparator = "-------------------------"

// labels of the fields printed in a country report, in order
var reportFields = []struct {
	field string
	label string
}{
	{field: FieldTotalCases, label: "Total Cases"},
	{field: FieldNewCases, label: "New Cases"},
	{field: FieldTotalDeaths, label: "Total Deaths"},
	{field: FieldNewDeaths, label: "New Deaths"},
	{field: FieldTotalRecoveries, label: "Recoveries"},
	{field: FieldTotalTests, label: "Tests"},
	{field: FieldPopulation, label: "Population"},
}

const worldwideTitle = "Worldwide"

func writeReport(w io.Writer, title string, record Record) {
	fmt.Fprintln(w, reportSeparator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, reportSeparator)
	for _, f := range reportFields {
		value, ok := record.Field(f.field)
		if !ok || value == "" {
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", f.label, value)
	}
	fmt.Fprintln(w)
}

// PrintCountryReport writes a report for every country whose name
// contains `country` (case-insensitive, see MatchContains) and returns
// the matched records.
func (s *Snapshot) PrintCountryReport(w io.Writer, country string) []Record {
	query := strings.ToLower(country)

	var found []Record
	for _, record := range s.Countries {
		name, ok := record.Field(FieldName)
		if !ok || !MatchContains(strings.ToLower(name), query) {
			continue
		}
		writeReport(w, record.GetName(), record)
		found = append(found, record)
	}
	return found
}

// PrintCountryReports runs PrintCountryReport for each of `countries`,
// when nothing matched at all a single not found message naming every
// country is written instead.
func (s *Snapshot) PrintCountryReports(w io.Writer, countries []string) []Record {
	var found []Record
	for _, country := range countries {
		found = append(found, s.PrintCountryReport(w, country)...)
	}
	if len(found) == 0 {
		fmt.Fprintf(w, "Data not found for %s\n", formatNameList(countries))
	}
	return found
}

// PrintWorldwideReport writes a report for each of the Summary records,
// titled "Worldwide" unless the record carries a name.
func PrintWorldwideReport(w io.Writer, records []Record) {
	for _, record := range records {
		title := record.GetName()
		if title == "" {
			title = worldwideTitle
		}
		writeReport(w, title, record)
	}
}

// formatNameList renders names like ['a', "b's"].
func formatNameList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quote := "'"
		if strings.Contains(name, "'") && !strings.Contains(name, `"`) {
			quote = `"`
		} else {
			name = strings.ReplaceAll(name, "'", `\'`)
		}
		quoted[i] = quote + name + quote
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// WriteTable renders records as a table, absent fields are left blank.
func WriteTable(w io.Writer, records []Record) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	header := table.Row{"Name"}
	for _, f := range reportFields {
		header = append(header, f.label)
	}
	t.AppendHeader(header)

	for _, record := range records {
		row := table.Row{record.GetName()}
		for _, f := range reportFields {
			value, _ := record.Field(f.field)
			row = append(row, value)
		}
		t.AppendRow(row)
	}
	t.Render()
}
