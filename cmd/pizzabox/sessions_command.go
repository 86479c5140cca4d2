package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pizzabox/internal/ledger"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent visitor sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.Paths.LedgerPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No sessions recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(out, sessionColumns, sessionRows(entries)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to list")
	return cmd
}

var sessionColumns = []column{
	{title: "Session"},
	{title: "Started"},
	{title: "Duration", numeric: true},
	{title: "Language"},
	{title: "State"},
	{title: "Chapters", numeric: true},
	{title: "Videos"},
}

func sessionRows(entries []ledger.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		duration := "-"
		state := e.FinalState
		if e.Finished() {
			duration = e.FinishedAt.Sub(e.StartedAt).Round(time.Second).String()
		} else if state == "" {
			state = "running"
		}
		language := e.Language
		if language == "" {
			language = "-"
		}
		videos := "-"
		if len(e.Videos) > 0 {
			videos = strings.Join(e.Videos, ", ")
		}
		rows = append(rows, []string{
			shortID(e.ID),
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			language,
			state,
			strconv.Itoa(e.Chapters),
			videos,
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
