package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
)

// Request limits.
const (
	MaxUserIDLength      = 128
	MaxVisibilityBatch   = 500
	MaxCohortLimit       = 5000
	MaxFieldNameLength   = 64
	maxReportedDataIssue = 20
)

// ParseYear parses a path or query year and checks it against the registry.
func ParseYear(field, raw string) (int, *ValidationError) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fail(field, "must be a four digit year")
	}
	if verr := ValidateYear(field, year); verr != nil {
		return 0, verr
	}
	return year, nil
}

// ValidateYear returns an error if the year has no registered survey.
func ValidateYear(field string, year int) *ValidationError {
	if !survey.IsSupportedYear(year) {
		years := survey.SupportedYears()
		names := make([]string, len(years))
		for i, y := range years {
			names[i] = strconv.Itoa(y)
		}
		return fail(field, "unsupported survey year %d (supported: %s)", year, strings.Join(names, ", "))
	}
	return nil
}

// ValidateFieldName returns an error if the value is not a plausible
// snake_case field key.
func ValidateFieldName(field, value string) *ValidationError {
	if err := ValidateRequired(field, value); err != nil {
		return err
	}
	if err := ValidateMaxLength(field, value, MaxFieldNameLength); err != nil {
		return err
	}
	for _, r := range value {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return fail(field, "must contain only lowercase letters, digits and underscores")
		}
	}
	return nil
}

// ValidateStatusFilter accepts an empty status or a known submission status.
func ValidateStatusFilter(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	return ValidateEnum(field, value, types.SubmissionStatuses)
}

// ValidateImportRequest checks a response import against the year's registry.
// Bookkeeping keys in the data are tolerated; any other unregistered key is
// reported.
func ValidateImportRequest(year int, req types.ImportResponseRequest) []ValidationError {
	var c Collector

	c.Add(ValidateRequired("user_id", req.UserID))
	c.Add(ValidateMaxLength("user_id", req.UserID, MaxUserIDLength))
	c.Add(ValidateNoNullBytes("user_id", req.UserID))
	c.Add(ValidateUTF8("user_id", req.UserID))
	c.Add(ValidateEnum("submission_status", req.SubmissionStatus, types.SubmissionStatuses))

	if len(req.Data) == 0 {
		c.Add(fail("data", "is required"))
		return c.Errors()
	}
	row, err := survey.ParseRow(req.Data)
	if err != nil {
		c.Add(fail("data", "must be a JSON object"))
		return c.Errors()
	}

	unknown := 0
	for key, v := range row {
		if !v.Finite() {
			c.Add(fail(fmt.Sprintf("data.%s", key), "contains a number out of range"))
		}
		if survey.HasField(year, key) || survey.IsMetadataField(key) {
			continue
		}
		unknown++
		if unknown <= maxReportedDataIssue {
			c.Add(fail(fmt.Sprintf("data.%s", key), "is not a field of the %d survey", year))
		}
	}
	if unknown > maxReportedDataIssue {
		c.Add(fail("data", "%d unknown fields in total", unknown))
	}

	return c.Errors()
}

// ValidateVisibilityEntry checks one matrix entry. Index is the position in
// the request, used to build field paths.
func ValidateVisibilityEntry(index int, entry survey.FieldVisibility) []ValidationError {
	var c Collector
	prefix := fmt.Sprintf("entries[%d]", index)

	if err := ValidateFieldName(prefix+".field_name", entry.FieldName); err != nil {
		c.Add(err)
	} else if survey.IsSupportedYear(entry.SurveyYear) && !survey.HasField(entry.SurveyYear, entry.FieldName) {
		c.Add(fail(prefix+".field_name", "is not a field of the %d survey", entry.SurveyYear))
	}
	c.Add(ValidateYear(prefix+".survey_year", entry.SurveyYear))

	return c.Errors()
}

// ValidateVisibilityUpdate checks a batch of matrix entries.
func ValidateVisibilityUpdate(req types.VisibilityUpdateRequest) []ValidationError {
	var c Collector

	if len(req.Entries) == 0 {
		c.Add(fail("entries", "must not be empty"))
		return c.Errors()
	}
	if len(req.Entries) > MaxVisibilityBatch {
		c.Add(fail("entries", "exceeds maximum of %d entries per request", MaxVisibilityBatch))
		return c.Errors()
	}

	seen := make(map[string]int, len(req.Entries))
	for i, entry := range req.Entries {
		for _, err := range ValidateVisibilityEntry(i, entry) {
			c.Add(&err)
		}
		key := fmt.Sprintf("%s_%d", entry.FieldName, entry.SurveyYear)
		if first, dup := seen[key]; dup {
			c.Add(fail(fmt.Sprintf("entries[%d]", i), "duplicates entries[%d]", first))
			continue
		}
		seen[key] = i
	}

	return c.Errors()
}
