package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/scheerer/redlight/internal/history"
)

var errNoHistory = errors.New("no history database: set HISTORY_PATH or pass --db")

func newHistoryCmd() *cobra.Command {
	var dbPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent games",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				dbPath = cfg.HistoryPath
			}
			if dbPath == "" {
				return errNoHistory
			}

			store, err := history.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no games recorded yet")
				return nil
			}

			best, ok, err := store.Best(cmd.Context())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderHistory(records))
			if ok {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "best: %d red lights survived on %s\n",
					best.StopsSurvived, best.StartedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "history database (default HISTORY_PATH)")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of games to show")
	return cmd
}

func renderHistory(records []history.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration().Round(time.Second).String(),
			strconv.Itoa(r.Rounds),
			strconv.Itoa(r.StopsSurvived),
			r.Reason,
			r.Source,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STARTED", "LASTED", "ROUNDS", "SURVIVED", "ENDED BY", "SOURCE").
		Rows(rows...).
		String()
}
