package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
	"github.com/fundnetwork/memberportal/internal/validation"
)

var (
	visibilityYear int
	visibleViewer  bool
	visibleMember  bool
	visibleAdmin   bool
)

var visibilityCmd = &cobra.Command{
	Use:   "visibility",
	Short: "Inspect and edit the field visibility matrix",
}

var visibilityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List visibility entries",
	Args:  cobra.NoArgs,
	RunE:  runVisibilityList,
}

var visibilitySetCmd = &cobra.Command{
	Use:   "set <year> <field>",
	Short: "Set which roles may see a field",
	Long:  "Replaces the visibility entry for one field. Roles not named by a flag lose access, except admin which defaults to visible.",
	Args:  cobra.ExactArgs(2),
	RunE:  runVisibilitySet,
}

func init() {
	addDataFlags(visibilityCmd)

	visibilityListCmd.Flags().IntVar(&visibilityYear, "year", 0,
		"Only list entries for this survey year")

	visibilitySetCmd.Flags().BoolVar(&visibleViewer, "viewer", false, "Visible to viewers")
	visibilitySetCmd.Flags().BoolVar(&visibleMember, "member", false, "Visible to members")
	visibilitySetCmd.Flags().BoolVar(&visibleAdmin, "admin", true, "Visible to admins")

	visibilityCmd.AddCommand(visibilityListCmd)
	visibilityCmd.AddCommand(visibilitySetCmd)
}

func runVisibilityList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.ListVisibility(ctx)
	if err != nil {
		return err
	}
	if visibilityYear != 0 {
		filtered := entries[:0]
		for _, e := range entries {
			if e.SurveyYear == visibilityYear {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), types.VisibilityResponse{Entries: entries})
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No visibility entries.")
		return nil
	}
	t := newTable(cmd.OutOrStdout(), "FIELD", "YEAR", "VIEWER", "MEMBER", "ADMIN")
	for _, e := range entries {
		t.AppendRow(table.Row{e.FieldName, e.SurveyYear, mark(e.ViewerVisible), mark(e.MemberVisible), mark(e.AdminVisible)})
	}
	t.Render()
	return nil
}

func mark(visible bool) string {
	if visible {
		return "yes"
	}
	return "-"
}

func runVisibilitySet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	year, err := parseYearArg(args[0])
	if err != nil {
		return err
	}
	entry := survey.FieldVisibility{
		FieldName:     args[1],
		SurveyYear:    year,
		ViewerVisible: visibleViewer,
		MemberVisible: visibleMember,
		AdminVisible:  visibleAdmin,
	}
	if errs := validation.ValidateVisibilityEntry(0, entry); len(errs) > 0 {
		return fmt.Errorf("%s", errs[0].Message)
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.UpsertVisibility(ctx, []survey.FieldVisibility{entry}); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), entry)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d): viewer %s, member %s, admin %s\n",
		entry.FieldName, entry.SurveyYear, mark(entry.ViewerVisible), mark(entry.MemberVisible), mark(entry.AdminVisible))
	return nil
}
