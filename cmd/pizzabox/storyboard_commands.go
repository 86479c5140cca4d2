package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pizzabox/internal/logging"
	"pizzabox/internal/storyboard"
)

func newStoryboardCommand(ctx *commandContext) *cobra.Command {
	storyCmd := &cobra.Command{
		Use:   "storyboard",
		Short: "Inspect storyboards",
	}
	storyCmd.AddCommand(newStoryboardShowCommand(ctx))
	storyCmd.AddCommand(newStoryboardValidateCommand(ctx))
	storyCmd.AddCommand(newStoryboardListCommand())
	return storyCmd
}

// storyboardRef returns the argument when given, else the configured storyboard.
func storyboardRef(ctx *commandContext, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.Story.Storyboard, nil
}

func newStoryboardShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [file|builtin:name]",
		Short: "Show the chapters of a storyboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := storyboardRef(ctx, args)
			if err != nil {
				return err
			}
			story, err := storyboard.Load(ref, logging.NewNop())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Storyboard: %s (%s)\n", story.Name, ref)
			fmt.Fprintln(out, renderTable(out, chapterColumns, chapterRows(story)))
			return nil
		},
	}
}

var chapterColumns = []column{
	{title: "#", numeric: true},
	{title: "Title"},
	{title: "Skip"},
	{title: "Steps", numeric: true},
	{title: "Horizontal", numeric: true},
	{title: "Vertical", numeric: true},
	{title: "Targets"},
}

func chapterRows(story *storyboard.Storyboard) [][]string {
	chapters := story.Chapters()
	rows := make([][]string, 0, len(chapters))
	for i, ch := range chapters {
		h, v := ch.Declared()
		rows = append(rows, []string{
			strconv.Itoa(i),
			ch.Title,
			yesNo(ch.SkipFlag),
			strconv.Itoa(ch.Len()),
			strconv.Itoa(h),
			strconv.Itoa(v),
			formatTargets(ch.Targets()),
		})
	}
	return rows
}

func formatTargets(targets []int) string {
	if len(targets) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(targets))
	for _, t := range targets {
		parts = append(parts, strconv.Itoa(t))
	}
	return strings.Join(parts, ", ")
}

func newStoryboardValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file|builtin:name]",
		Short: "Load a storyboard and report authoring errors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := storyboardRef(ctx, args)
			if err != nil {
				return err
			}
			story, err := storyboard.Load(ref, logging.NewNop())
			if err != nil {
				return fmt.Errorf("storyboard %s invalid: %w", ref, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Storyboard %s valid (%d chapters)\n", story.Name, len(story.Chapters()))
			return nil
		},
	}
}

func newStoryboardListCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "List the built-in storyboards",
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range storyboard.BuiltinNames() {
				fmt.Fprintln(out, storyboard.BuiltinPrefix+name)
			}
			return nil
		},
	}
}
