package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
	"github.com/fundnetwork/memberportal/internal/validation"
)

var importYear int

var responsesCmd = &cobra.Command{
	Use:   "responses",
	Short: "Manage stored survey responses",
}

var responsesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import survey responses from a JSON array or NDJSON file",
	Long: `Reads flat response rows, one object per response. Each row carries
user_id and submission_status, optionally survey_year, and the answers as
top-level keys. The whole file is validated before anything is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runResponsesImport,
}

func init() {
	addDataFlags(responsesCmd)

	responsesImportCmd.Flags().IntVar(&importYear, "year", 0,
		"Survey year for rows that do not carry survey_year")

	responsesCmd.AddCommand(responsesImportCmd)
}

// importRow is one parsed line of an import file.
type importRow struct {
	line int
	year int
	req  types.ImportResponseRequest
}

// importResult summarises a finished import.
type importResult struct {
	File     string         `json:"file"`
	Bytes    uint64         `json:"bytes"`
	Imported int            `json:"imported"`
	ByYear   map[string]int `json:"by_year"`
	IDs      []string       `json:"ids"`
}

func runResponsesImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	rows, err := parseImportFile(raw, importYear)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s contains no responses", args[0])
	}

	var problems []string
	for _, r := range rows {
		if verr := validation.ValidateYear("survey_year", r.year); verr != nil {
			problems = append(problems, fmt.Sprintf("row %d: %s %s", r.line, verr.Field, verr.Message))
			continue
		}
		for _, verr := range validation.ValidateImportRequest(r.year, r.req) {
			problems = append(problems, fmt.Sprintf("row %d: %s %s", r.line, verr.Field, verr.Message))
		}
	}
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(cmd.ErrOrStderr(), p)
		}
		return fmt.Errorf("import rejected: %d problem(s), nothing written", len(problems))
	}

	batch := make([]types.NewSurveyResponse, 0, len(rows))
	for _, r := range rows {
		data, err := survey.ParseRow(r.req.Data)
		if err != nil {
			return fmt.Errorf("row %d: %w", r.line, err)
		}
		batch = append(batch, types.NewSurveyResponse{
			SurveyYear:       r.year,
			UserID:           r.req.UserID,
			SubmissionStatus: r.req.SubmissionStatus,
			Data:             data,
		})
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	stored, err := db.SubmitResponses(ctx, batch)
	if err != nil {
		return fmt.Errorf("store responses: %w", err)
	}

	result := importResult{
		File:     args[0],
		Bytes:    uint64(len(raw)),
		Imported: len(stored),
		ByYear:   make(map[string]int),
		IDs:      make([]string, 0, len(stored)),
	}
	for _, s := range stored {
		result.ByYear[fmt.Sprint(s.SurveyYear)]++
		result.IDs = append(result.IDs, s.ID)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s responses from %s (%s)\n",
		humanize.Comma(int64(result.Imported)), args[0], humanize.Bytes(result.Bytes))
	for _, year := range survey.SupportedYears() {
		if n := result.ByYear[fmt.Sprint(year)]; n > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d: %s\n", year, humanize.Comma(int64(n)))
		}
	}
	return nil
}

// parseImportFile reads a JSON array of rows or newline-delimited rows.
// Rows without survey_year take defaultYear.
func parseImportFile(raw []byte, defaultYear int) ([]importRow, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, nil
	}

	var (
		rows    []importRow
		lineErr error
	)
	collect := func(line int, value gjson.Result) bool {
		row, err := parseImportRow(line, value, defaultYear)
		if err != nil {
			lineErr = err
			return false
		}
		rows = append(rows, row)
		return true
	}

	if strings.HasPrefix(trimmed, "[") {
		if !gjson.Valid(trimmed) {
			return nil, fmt.Errorf("import file is not valid JSON")
		}
		line := 0
		gjson.Parse(trimmed).ForEach(func(_, value gjson.Result) bool {
			line++
			return collect(line, value)
		})
	} else {
		line := 0
		var invalid bool
		gjson.ForEachLine(trimmed, func(value gjson.Result) bool {
			line++
			if !gjson.Valid(value.Raw) {
				invalid = true
				return false
			}
			return collect(line, value)
		})
		if invalid {
			return nil, fmt.Errorf("row %d: not valid JSON", line)
		}
	}
	if lineErr != nil {
		return nil, lineErr
	}
	return rows, nil
}

// parseImportRow splits a flat row into bookkeeping columns and answers.
func parseImportRow(line int, value gjson.Result, defaultYear int) (importRow, error) {
	if !value.IsObject() {
		return importRow{}, fmt.Errorf("row %d: must be a JSON object", line)
	}

	row := importRow{line: line, year: defaultYear}
	answers := make(map[string]json.RawMessage)
	value.ForEach(func(key, v gjson.Result) bool {
		switch key.String() {
		case "user_id":
			row.req.UserID = v.String()
		case "submission_status":
			row.req.SubmissionStatus = v.String()
		case "survey_year":
			row.year = int(v.Int())
		default:
			answers[key.String()] = json.RawMessage(v.Raw)
		}
		return true
	})
	if row.year == 0 {
		return importRow{}, fmt.Errorf("row %d: survey_year missing and --year not set", line)
	}

	data, err := json.Marshal(answers)
	if err != nil {
		return importRow{}, fmt.Errorf("row %d: encode answers: %w", line, err)
	}
	row.req.Data = pretty.Ugly(data)
	return row, nil
}
