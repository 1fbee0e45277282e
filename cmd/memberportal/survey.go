package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fundnetwork/memberportal/internal/analytics"
	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
	"github.com/fundnetwork/memberportal/internal/validation"
)

var (
	analyzeStatus string
	analyzeRole   string
	analyzeLimit  int
	composeRole   string
)

var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Inspect survey layouts and run cohort analytics",
}

var surveyYearsCmd = &cobra.Command{
	Use:   "years",
	Short: "List supported survey years",
	Args:  cobra.NoArgs,
	RunE:  runSurveyYears,
}

var surveySectionsCmd = &cobra.Command{
	Use:   "sections <year>",
	Short: "Show the section layout of a survey year",
	Args:  cobra.ExactArgs(1),
	RunE:  runSurveySections,
}

var surveyAnalyzeCmd = &cobra.Command{
	Use:   "analyze <year> [field]",
	Short: "Summarise the cohort of a survey year",
	Long:  "Without a field, summarises every field the role may see. With a field, prints its answer distribution and numeric statistics.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSurveyAnalyze,
}

var surveyComposeCmd = &cobra.Command{
	Use:   "compose <year> <response-id>",
	Short: "Show one response as the given role would see it",
	Args:  cobra.ExactArgs(2),
	RunE:  runSurveyCompose,
}

func init() {
	addDataFlags(surveyCmd)

	surveyAnalyzeCmd.Flags().StringVar(&analyzeStatus, "status", "",
		"Only include responses with this submission status")
	surveyAnalyzeCmd.Flags().StringVar(&analyzeRole, "role", string(survey.RoleAdmin),
		"Role to analyse as (member or admin)")
	surveyAnalyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 0,
		"Maximum responses to include (default: configured cohort limit)")
	surveyComposeCmd.Flags().StringVar(&composeRole, "role", string(survey.RoleViewer),
		"Role to compose for (viewer, member or admin)")

	surveyCmd.AddCommand(surveyYearsCmd)
	surveyCmd.AddCommand(surveySectionsCmd)
	surveyCmd.AddCommand(surveyAnalyzeCmd)
	surveyCmd.AddCommand(surveyComposeCmd)
}

func parseYearArg(raw string) (int, error) {
	year, verr := validation.ParseYear("year", raw)
	if verr != nil {
		return 0, fmt.Errorf("%s %s", verr.Field, verr.Message)
	}
	return year, nil
}

func parseRoleFlag(raw string) (survey.Role, error) {
	role := survey.ParseRole(strings.ToLower(raw))
	if role == survey.RoleUnknown {
		return role, fmt.Errorf("unknown role %q (valid: viewer, member, admin)", raw)
	}
	return role, nil
}

func runSurveyYears(cmd *cobra.Command, args []string) error {
	years := make([]types.SurveyYearInfo, 0)
	for _, year := range survey.SupportedYears() {
		secs, _ := survey.Sections(year)
		years = append(years, types.SurveyYearInfo{
			Year:         year,
			SectionCount: len(secs),
			FieldCount:   len(survey.Fields(year)),
		})
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), types.SurveysResponse{Years: years})
	}

	t := newTable(cmd.OutOrStdout(), "YEAR", "SECTIONS", "FIELDS")
	for _, y := range years {
		t.AppendRow(table.Row{y.Year, y.SectionCount, y.FieldCount})
	}
	t.Render()
	return nil
}

func runSurveySections(cmd *cobra.Command, args []string) error {
	year, err := parseYearArg(args[0])
	if err != nil {
		return err
	}
	secs, _ := survey.Sections(year)

	if jsonOutput {
		out := types.SectionsResponse{Year: year, Sections: make([]types.RegistrySection, 0, len(secs))}
		for _, s := range secs {
			rs := types.RegistrySection{ID: s.ID, Title: s.Title}
			for _, f := range s.Fields {
				rs.Fields = append(rs.Fields, types.SectionField{Key: f, Label: survey.QuestionLabel(f, year)})
			}
			out.Sections = append(out.Sections, rs)
		}
		return printJSON(cmd.OutOrStdout(), out)
	}

	t := newTable(cmd.OutOrStdout(), "SECTION", "FIELD", "QUESTION")
	for _, s := range secs {
		for i, f := range s.Fields {
			title := ""
			if i == 0 {
				title = fmt.Sprintf("%d. %s", s.ID, s.Title)
			}
			t.AppendRow(table.Row{title, f, survey.QuestionLabel(f, year)})
		}
		t.AppendSeparator()
	}
	t.Render()
	return nil
}

func runSurveyAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	year, err := parseYearArg(args[0])
	if err != nil {
		return err
	}
	role, err := parseRoleFlag(analyzeRole)
	if err != nil {
		return err
	}
	if verr := validation.ValidateStatusFilter("status", analyzeStatus); verr != nil {
		return fmt.Errorf("%s %s", verr.Field, verr.Message)
	}
	if analyzeLimit != 0 {
		if verr := validation.ValidateIntRange("limit", analyzeLimit, 1, validation.MaxCohortLimit); verr != nil {
			return fmt.Errorf("%s %s", verr.Field, verr.Message)
		}
	}
	filter := types.ResponseFilter{Status: analyzeStatus, Limit: analyzeLimit}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	svc := analytics.NewService(db, nil)

	if len(args) == 2 {
		return analyzeField(cmd, svc, analytics.Query{Year: year, Field: args[1], Role: role, Filter: filter})
	}

	report, err := svc.CohortReport(ctx, year, role, filter)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d survey, %s respondents, as %s\n",
		year, humanize.Comma(int64(report.Respondents)), report.Role)
	t := newTable(cmd.OutOrStdout(), "FIELD", "KIND", "ANSWERED", "SUMMARY")
	for _, f := range report.Fields {
		t.AppendRow(table.Row{f.Field, f.Kind, humanize.Comma(int64(f.Observations)), summarize(f)})
	}
	t.Render()
	return nil
}

// summarize renders a one-line digest of a field analysis.
func summarize(f survey.FieldAnalysis) string {
	switch f.Kind {
	case survey.AnalysisNumeric:
		if f.Stats == nil {
			return "-"
		}
		return fmt.Sprintf("min %s, median %s, max %s",
			humanize.Ftoa(f.Stats.Min), humanize.Ftoa(f.Stats.Median), humanize.Ftoa(f.Stats.Max))
	case survey.AnalysisCategorical:
		if len(f.Buckets) == 0 {
			return "-"
		}
		top := f.Buckets[0]
		return fmt.Sprintf("%s (%s%%)", top.Name, top.Percentage)
	default:
		return "-"
	}
}

func analyzeField(cmd *cobra.Command, svc *analytics.Service, q analytics.Query) error {
	ctx := context.Background()

	dist, err := svc.Distribution(ctx, q)
	if err != nil {
		return err
	}
	stats, err := svc.NumericStats(ctx, q)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"distribution": dist,
			"stats":        stats.Stats,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", dist.Label, dist.Field)
	fmt.Fprintf(out, "%s of %s respondents answered\n",
		humanize.Comma(int64(dist.Observations)), humanize.Comma(int64(dist.Respondents)))

	t := newTable(out, "ANSWER", "COUNT", "PERCENT")
	for _, b := range dist.Buckets {
		t.AppendRow(table.Row{b.Name, b.Value, b.Percentage + "%"})
	}
	t.Render()

	if s := stats.Stats; s != nil {
		fmt.Fprintf(out, "numeric: n=%d min=%s max=%s avg=%s median=%s total=%s\n",
			s.Count, humanize.Ftoa(s.Min), humanize.Ftoa(s.Max),
			strconv.FormatFloat(s.Avg, 'f', 2, 64), humanize.Ftoa(s.Median), humanize.Ftoa(s.Total))
	}
	return nil
}

func runSurveyCompose(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	year, err := parseYearArg(args[0])
	if err != nil {
		return err
	}
	role, err := parseRoleFlag(composeRole)
	if err != nil {
		return err
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	sections, err := analytics.NewService(db, nil).ResponseSections(ctx, year, args[1], role)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), types.ResponseSectionsResponse{
			Year:       year,
			ResponseID: args[1],
			Role:       string(role),
			Sections:   sections,
		})
	}

	if len(sections) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing visible to %s.\n", role)
		return nil
	}
	t := newTable(cmd.OutOrStdout(), "SECTION", "QUESTION", "ANSWER")
	for _, s := range sections {
		for i, f := range s.Fields {
			title := ""
			if i == 0 {
				title = s.Title
			}
			t.AppendRow(table.Row{title, f.Label, formatAnswer(f.Value)})
		}
		t.AppendSeparator()
	}
	t.Render()
	return nil
}

// formatAnswer renders a value for a terminal cell.
func formatAnswer(v survey.Value) string {
	switch v.Kind() {
	case survey.KindString:
		s, _ := v.Str()
		return s
	case survey.KindNumber:
		n, _ := v.Num()
		return humanize.Ftoa(n)
	case survey.KindBool:
		b, _ := v.Boolean()
		return strconv.FormatBool(b)
	case survey.KindNull:
		return "-"
	default:
		data, err := v.MarshalJSON()
		if err != nil {
			return "?"
		}
		return string(data)
	}
}
