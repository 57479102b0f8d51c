package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/talentflow/internal/hiring"
	"github.com/kalambet/talentflow/internal/notes"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Keep private notes on candidates (stored on this device only)",
}

var notesAddCmd = &cobra.Command{
	Use:   "add <candidate-id> <text...>",
	Short: "Add a note to a candidate",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			n, err := a.notes.Add(id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			printSuccess("Note %s added by %s", n.ID[:8], n.Author)
			return nil
		})
	},
}

var notesListCmd = &cobra.Command{
	Use:   "list <candidate-id>",
	Short: "List a candidate's notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			printNotes(cmd.OutOrStdout(), a.notes.List(id))
			return nil
		})
	},
}

func printNotes(w io.Writer, list []hiring.Note) {
	if len(list) == 0 {
		fmt.Fprintln(w, "  no notes")
		return
	}
	for _, n := range list {
		content := n.Content
		for _, h := range notes.Mentions(n.Content) {
			content = strings.ReplaceAll(content, "@"+h, colorize(colorCyan, "@"+h))
		}
		fmt.Fprintf(w, "  %s  %s: %s\n", n.CreatedAt.Local().Format("2006-01-02 15:04"), colorize(colorBold, n.Author), content)
	}
}

func init() {
	notesCmd.AddCommand(notesAddCmd)
	notesCmd.AddCommand(notesListCmd)
}
