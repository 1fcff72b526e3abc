package parsehub

import (
	"strconv"
	"strings"
)

// NameMatch decides whether a record name matches a name query, both are
// expected to be lowercase already.
type NameMatch func(name, query string) bool

// MatchEitherWay matches when either string contains the other. It is
// the policy of QueryByField.
func MatchEitherWay(name, query string) bool {
	return strings.Contains(name, query) || strings.Contains(query, name)
}

// MatchContains matches when the query is a substring of the name. It is
// the policy of the country reports.
func MatchContains(name, query string) bool {
	return strings.Contains(name, query)
}

// parseCount parses a count like "1,234,567". Empty or otherwise
// unparsable values report false and never take part in a comparison.
func parseCount(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(value, ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

type fieldCheck struct {
	field   string
	matches func(record Record, field, value string) bool
}

// below reports whether value is in [0, field).
func below(record Record, field, value string) bool {
	fieldValue, ok := record.Field(field)
	if !ok {
		return false
	}
	limit, ok := parseCount(fieldValue)
	if !ok {
		return false
	}
	n, ok := parseCount(value)
	if !ok {
		return false
	}
	return n >= 0 && n < limit
}

func nameMatches(record Record, field, value string) bool {
	name, ok := record.Field(field)
	if !ok {
		return false
	}
	return MatchEitherWay(strings.ToLower(name), value)
}

var worldwideChecks = []fieldCheck{
	{field: FieldTotalCases, matches: below},
	{field: FieldTotalDeaths, matches: below},
	{field: FieldTotalRecoveries, matches: below},
}

var countryChecks = []fieldCheck{
	{field: FieldTotalCases, matches: below},
	{field: FieldNewCases, matches: below},
	{field: FieldTotalDeaths, matches: below},
	{field: FieldNewDeaths, matches: below},
	{field: FieldTotalRecoveries, matches: below},
	{field: FieldTotalTests, matches: below},
	{field: FieldName, matches: nameMatches},
}

// QueryByField returns the records of either the Summary (worldwide) or
// the countries whose field named `key` matches `value`, in snapshot
// order.
//
// Checks run in a fixed order and a record is kept on the first one that
// passes. A check on a field passes when the record carries `key` (see Record.Has), the
// field's name contains `key` and the field's value matches: numeric
// fields match when value is in [0, field value), the name field matches
// with MatchEitherWay.
func (s *Snapshot) QueryByField(key, value string, worldwide bool) []Record {
	key = strings.ToLower(key)
	value = strings.ToLower(value)

	records := s.Countries
	checks := countryChecks
	if worldwide {
		records = s.Summary
		checks = worldwideChecks
	}

	var found []Record
	for _, record := range records {
		if !record.Has(key) {
			continue
		}
		for _, check := range checks {
			if strings.Contains(check.field, key) && check.matches(record, check.field, value) {
				found = append(found, record)
				break
			}
		}
	}
	return found
}
