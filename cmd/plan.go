package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/textcal/internal/google"
	"github.com/teemow/textcal/internal/plan"
	"github.com/teemow/textcal/internal/planner"
)

type planFlags struct {
	timeZone   string
	calendarID string
	account    string
	output     string
}

func newApplyCmd() *cobra.Command {
	return newPlanCmd(false)
}

func newPreviewCmd() *cobra.Command {
	return newPlanCmd(true)
}

func newPlanCmd(preview bool) *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   "apply <text>",
		Short: "Apply a free-text request to the calendar",
		Long: `Translate a free-text request into calendar operations and execute them.

The text is taken from the arguments, or from stdin when the only argument
is "-". Requires a stored token (see 'textcal auth login').

Examples:
  textcal apply "lunch with Sam tomorrow at noon"
  textcal apply --calendar team@example.com "cancel friday's retro"
  echo "dentist next tuesday 9-10" | textcal apply -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args, flags, preview)
		},
	}
	if preview {
		cmd.Use = "preview <text>"
		cmd.Short = "Show the operations a free-text request would produce"
		cmd.Long = `Translate a free-text request into calendar operations without executing
them. A stored token is used to look up the calendar's time zone when one is
available; otherwise --time-zone or UTC applies.`
	}

	cmd.Flags().StringVar(&flags.timeZone, "time-zone", "", "IANA time zone for the request (default: the calendar's time zone)")
	cmd.Flags().StringVar(&flags.calendarID, "calendar", "", "Calendar ID (default: from config, 'primary')")
	cmd.Flags().StringVar(&flags.account, "account", "", "Account whose stored token is used (default: from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "Output format: text or json")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string, flags planFlags, preview bool) error {
	if flags.output != "text" && flags.output != "json" {
		return fmt.Errorf("unsupported output format %q (want text or json)", flags.output)
	}

	text, err := readText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	account := flags.account
	if account == "" {
		account = cfg.Account
	}

	req := planner.Request{
		Text:       text,
		TimeZone:   flags.timeZone,
		CalendarID: flags.calendarID,
		Source:     "cli",
	}
	token, tokenErr := google.ResolveToken(ctx, a.tokens, account)
	if tokenErr == nil {
		req.Token = token
	} else if !preview {
		return fmt.Errorf("%w (run 'textcal auth login --account %s')", tokenErr, account)
	}

	run := a.planner.Apply
	if preview {
		run = a.planner.Preview
	}
	resp, err := run(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(out, cmd.ErrOrStderr(), resp)
	return nil
}

// readText joins the arguments, or reads stdin for a single "-".
func readText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(strings.Join(args, " ")), nil
}

func printResponse(w, errW io.Writer, resp *planner.Response) {
	fmt.Fprintf(w, "Time zone: %s\n", resp.TimeZone)

	if resp.Plan.Len() == 0 {
		fmt.Fprintln(w, "No calendar operations.")
	} else {
		fmt.Fprintf(w, "Plan (%d operations):\n", resp.Plan.Len())
		for i, op := range resp.Plan.Operations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, describeOperation(op))
		}
	}

	for _, r := range resp.Rejected {
		fmt.Fprintf(w, "Skipped candidate %d: %s\n", r.Index, r.Reason)
	}

	if resp.Result == nil {
		return
	}
	for _, e := range resp.Result.Created {
		fmt.Fprintf(w, "Created %s %s\n", e.RemoteID, e.Link)
	}
	for _, e := range resp.Result.Updated {
		fmt.Fprintf(w, "Updated %s %s\n", e.RemoteID, e.Link)
	}
	for _, e := range resp.Result.Deleted {
		fmt.Fprintf(w, "Deleted %s\n", e.RemoteID)
	}
	for _, e := range resp.Result.Errors {
		fmt.Fprintf(errW, "Failed %s %s: %s\n", e.Action, e.RemoteID, e.Message)
	}
}

func describeOperation(op plan.Operation) string {
	switch op.Kind {
	case plan.KindCreate:
		title := ""
		if op.Create.Title != nil {
			title = *op.Create.Title
		}
		return fmt.Sprintf("create %q %s to %s", title, op.Create.StartAt, op.Create.EndAt)
	case plan.KindUpdate:
		var changes []string
		if u := op.Update; u != nil {
			if u.Title != nil {
				changes = append(changes, fmt.Sprintf("title=%q", *u.Title))
			}
			if u.StartAt != nil {
				changes = append(changes, "start="+u.StartAt.String())
			}
			if u.EndAt != nil {
				changes = append(changes, "end="+u.EndAt.String())
			}
			if u.Location != nil {
				changes = append(changes, fmt.Sprintf("location=%q", *u.Location))
			}
		}
		return fmt.Sprintf("update %s %s", op.RemoteID, strings.Join(changes, " "))
	case plan.KindDelete:
		return "delete " + op.RemoteID
	default:
		return string(op.Kind)
	}
}
