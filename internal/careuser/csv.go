package careuser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sodam-care/service-care-go/pkg/apperror"
)

var requiredColumns = []string{"name", "age", "gender", "address", "maincondition", "aischedule"}

// ParseCSV reads care-user rows from a CSV document with a header line.
// Header names match the JSON field names, case-insensitively.
func ParseCSV(r io.Reader) ([]CreateInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperror.Invalid("csv is empty")
	}
	if err != nil {
		return nil, csvError(err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, apperror.Invalid(fmt.Sprintf("csv is missing column %q", name))
		}
	}

	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	optional := func(rec []string, name string) *string {
		if v := get(rec, name); v != "" {
			return &v
		}
		return nil
	}

	var out []CreateInput
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		in := CreateInput{
			Name:          get(rec, "name"),
			Gender:        get(rec, "gender"),
			Address:       get(rec, "address"),
			RiskLevel:     get(rec, "risklevel"),
			MainCondition: get(rec, "maincondition"),
			AISchedule:    get(rec, "aischedule"),
			LastAIReport:  optional(rec, "lastaireport"),
			Manager:       optional(rec, "manager"),
		}
		if raw := get(rec, "age"); raw != "" {
			age, err := strconv.Atoi(raw)
			if err != nil {
				return nil, apperror.Invalid(fmt.Sprintf("line %d: age must be an integer", line))
			}
			in.Age = &age
		}
		out = append(out, in)
	}
	return out, nil
}

// csvError keeps a truncated upload from looking like a short document.
func csvError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return apperror.TooLarge(fmt.Sprintf("csv exceeds %d bytes", mbe.Limit))
	}
	return apperror.Invalid(fmt.Sprintf("invalid csv: %v", err))
}
