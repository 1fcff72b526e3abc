package parsehub

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// json field names of a Record
const (
	FieldName            = "name"
	FieldTotalCases      = "total_cases"
	FieldNewCases        = "new_cases"
	FieldTotalDeaths     = "total_deaths"
	FieldNewDeaths       = "new_deaths"
	FieldTotalRecoveries = "total_recoveries"
	FieldTotalTests      = "total_tests"
	FieldPopulation      = "population"
)

// Record is a single row of the scrape, either a worldwide aggregate or a
// country. A nil field was absent in the upstream json.
type Record struct {
	Name            *string `json:"name,omitempty"`
	TotalCases      *string `json:"total_cases,omitempty"`
	NewCases        *string `json:"new_cases,omitempty"`
	TotalDeaths     *string `json:"total_deaths,omitempty"`
	NewDeaths       *string `json:"new_deaths,omitempty"`
	TotalRecoveries *string `json:"total_recoveries,omitempty"`
	TotalTests      *string `json:"total_tests,omitempty"`
	Population      *string `json:"population,omitempty"`

	// every key of the upstream json object, including unknown and null
	// ones, nil for records that were not decoded
	keys map[string]struct{}
}

func (r *Record) fieldPtr(key string) **string {
	switch key {
	case FieldName:
		return &r.Name
	case FieldTotalCases:
		return &r.TotalCases
	case FieldNewCases:
		return &r.NewCases
	case FieldTotalDeaths:
		return &r.TotalDeaths
	case FieldNewDeaths:
		return &r.NewDeaths
	case FieldTotalRecoveries:
		return &r.TotalRecoveries
	case FieldTotalTests:
		return &r.TotalTests
	case FieldPopulation:
		return &r.Population
	}
	return nil
}

// Field returns the value of the field with the given json name and
// whether it is present.
func (r Record) Field(key string) (string, bool) {
	ptr := r.fieldPtr(key)
	if ptr == nil || *ptr == nil {
		return "", false
	}
	return **ptr, true
}

// Has reports whether the record carries `key`. For decoded records
// this includes keys that are not modelled or whose value was null.
func (r Record) Has(key string) bool {
	if r.keys != nil {
		_, ok := r.keys[key]
		return ok
	}
	_, ok := r.Field(key)
	return ok
}

// GetName returns the record's name or an empty string.
func (r Record) GetName() string {
	name, _ := r.Field(FieldName)
	return name
}

// UnmarshalJSON accepts numbers as well as strings for every field, null
// values are treated as absent and unknown keys are only remembered for Has.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	*r = Record{keys: make(map[string]struct{}, len(raw))}
	for key, value := range raw {
		r.keys[key] = struct{}{}
		ptr := r.fieldPtr(key)
		if ptr == nil {
			continue
		}
		value = bytes.TrimSpace(value)
		if bytes.Equal(value, []byte("null")) {
			continue
		}

		var text string
		if len(value) > 0 && value[0] == '"' {
			err = json.Unmarshal(value, &text)
			if err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
		} else {
			var number json.Number
			err = json.Unmarshal(value, &number)
			if err != nil {
				return fmt.Errorf("field %s: expected string or number: %w", key, err)
			}
			text = number.String()
		}
		*ptr = &text
	}
	return nil
}

// Snapshot is the full result of the last ready run of the project. It
// is never mutated once decoded.
type Snapshot struct {
	Summary   []Record `json:"Summary"`
	Countries []Record `json:"countries"`

	// json re-encoding of the whole decoded document, used for equality
	canonical []byte
}

// DecodeSnapshot parses the body of a last_ready_run/data response.
func DecodeSnapshot(body []byte) (*Snapshot, error) {
	// numbers are kept as their literal text so that distinct large
	// integers do not collapse into the same float64
	var document any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	err := dec.Decode(&document)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode snapshot: unexpected data after document")
	}
	canonical, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("canonicalize snapshot: %w", err)
	}

	snapshot := &Snapshot{canonical: canonical}
	if document == nil {
		return snapshot, nil
	}
	err = json.Unmarshal(body, snapshot)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Equal reports whether two snapshots hold structurally equal documents,
// fields not modelled by Record take part in the comparison.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return bytes.Equal(s.canonical, other.canonical)
}
