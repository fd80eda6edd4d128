package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/textcal/internal/config"
	"github.com/teemow/textcal/internal/mirror"
)

func newMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Inspect the local mirror of applied events",
		Long: `The mirror is a local SQLite copy of the events textcal created or
updated. It is only written after successful remote operations.`,
	}
	cmd.AddCommand(newMirrorListCmd())
	cmd.AddCommand(newMirrorClearCmd())
	return cmd
}

func newMirrorListCmd() *cobra.Command {
	var (
		calendarID string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mirrored events of a calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMirror(cmd, func(ctx context.Context, cfg *config.Config, store *mirror.Store) error {
				if calendarID == "" {
					calendarID = cfg.CalendarID
				}
				records, err := store.List(ctx, calendarID)
				if err != nil {
					return err
				}
				return writeRecords(cmd.OutOrStdout(), format, calendarID, records)
			})
		},
	}
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar ID (default: from config, 'primary')")
	cmd.Flags().StringVarP(&format, "output", "o", "table", "Output format: table, json or ics")
	return cmd
}

func newMirrorClearCmd() *cobra.Command {
	var calendarID string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all mirrored events of a calendar",
		Long:  "Remove all mirrored events of a calendar. Remote events are not touched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMirror(cmd, func(ctx context.Context, cfg *config.Config, store *mirror.Store) error {
				if calendarID == "" {
					calendarID = cfg.CalendarID
				}
				n, err := store.Clear(ctx, calendarID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d mirrored events from %s\n", n, calendarID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar ID (default: from config, 'primary')")
	return cmd
}

func withMirror(cmd *cobra.Command, fn func(context.Context, *config.Config, *mirror.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Mirror.Enabled {
		return errors.New("the local mirror is disabled (mirror.enabled: false)")
	}
	logger := newLogger(cfg)

	ctx := cmd.Context()
	db, store, err := openMirror(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, cfg, store)
}

func writeRecords(w io.Writer, format, calendarID string, records []mirror.Record) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "ics":
		_, err := io.WriteString(w, mirror.ExportICS(calendarID, records))
		return err
	case "table":
		if len(records) == 0 {
			fmt.Fprintf(w, "No mirrored events for %s\n", calendarID)
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTART\tEND\tNAME")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.RemoteEventID, r.StartTime, r.EndTime, r.Name)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format %q (want table, json or ics)", format)
	}
}
