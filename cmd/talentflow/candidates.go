package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/talentflow/internal/hiring"
)

var candidatesCmd = &cobra.Command{
	Use:     "candidates",
	Aliases: []string{"cand"},
	Short:   "List candidates and move them through the pipeline",
}

var candidatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := candidateQueryFromFlags(cmd)
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			fetchErr := a.stores.Candidates.Fetch(cmd.Context(), q)
			list := a.stores.Candidates.Candidates()
			if fetchErr != nil {
				if len(list) == 0 {
					return fetchErr
				}
				printWarning("%v; showing %d cached candidates", fetchErr, len(list))
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No candidates found.")
				return nil
			}
			printCandidates(out, list)
			pageFooter(out, a.stores.Candidates.Pagination())
			return nil
		})
	},
}

func candidateQueryFromFlags(cmd *cobra.Command) (hiring.CandidateQuery, error) {
	search, _ := cmd.Flags().GetString("search")
	stage, _ := cmd.Flags().GetString("stage")
	jobID, _ := cmd.Flags().GetInt64("job")
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	q := hiring.CandidateQuery{Search: search, JobID: jobID, Page: page, PageSize: pageSize}
	if stage != "" {
		st, err := hiring.ParseStage(stage)
		if err != nil {
			return q, err
		}
		q.Stage = st
	}
	return q, nil
}

func printCandidates(w io.Writer, list []hiring.Candidate) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tJOB\tSTAGE")
	for _, c := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", c.ID, c.Name, c.Email, c.JobID, stageLabel(c.Stage))
	}
	tw.Flush()
}

var candidatesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a candidate to a job",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		jobID, _ := cmd.Flags().GetInt64("job")
		stage, _ := cmd.Flags().GetString("stage")
		if name == "" || email == "" || jobID == 0 {
			return fmt.Errorf("--name, --email and --job are required")
		}
		in := hiring.CandidateInput{Name: name, Email: email, JobID: jobID}
		if stage != "" {
			st, err := hiring.ParseStage(stage)
			if err != nil {
				return err
			}
			in.Stage = st
		}
		return withApp(func(a *app) error {
			c, err := a.stores.Candidates.Create(cmd.Context(), in)
			if err != nil {
				return explain(err)
			}
			printSuccess("Added candidate %d %s (%s)", c.ID, c.Name, c.Stage)
			return nil
		})
	},
}

var candidatesMoveCmd = &cobra.Command{
	Use:   "move <id> <stage>",
	Short: "Move a candidate to another pipeline stage",
	Long: `Move a candidate to another pipeline stage. Any stage can move to any
other; moving to the current stage records nothing.

Stages: applied, screen, tech, offer, hired, rejected`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		stage, err := hiring.ParseStage(args[1])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			c, err := a.stores.Candidates.Update(cmd.Context(), id, hiring.CandidatePatch{Stage: &stage})
			if err != nil {
				return explain(err)
			}
			printSuccess("%s is now in %s", c.Name, stageLabel(c.Stage))
			return nil
		})
	},
}

var candidatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a candidate with timeline and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			ctx := cmd.Context()
			c, err := a.client.GetCandidate(ctx, id)
			if err != nil {
				return explain(err)
			}
			events, tlErr := a.stores.Candidates.FetchTimeline(ctx, id)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", colorize(colorBold, c.Name), c.Email)
			fmt.Fprintf(out, "  id:      %d\n  job:     %d\n  stage:   %s\n  applied: %s\n",
				c.ID, c.JobID, stageLabel(c.Stage), c.CreatedAt.Format("2006-01-02"))

			fmt.Fprintln(out, "\nTimeline:")
			if tlErr != nil {
				printWarning("%v; showing cached timeline", tlErr)
			}
			printTimeline(out, events)

			fmt.Fprintln(out, "\nNotes:")
			printNotes(out, a.notes.List(id))
			return nil
		})
	},
}

var candidatesTimelineCmd = &cobra.Command{
	Use:   "timeline <id>",
	Short: "Show a candidate's stage changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			events, err := a.stores.Candidates.FetchTimeline(cmd.Context(), id)
			if err != nil {
				if len(events) == 0 {
					return explain(err)
				}
				printWarning("%v; showing cached timeline", err)
			}
			printTimeline(cmd.OutOrStdout(), events)
			return nil
		})
	},
}

func printTimeline(w io.Writer, events []hiring.TimelineEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "  no stage changes")
		return
	}
	for _, e := range events {
		fmt.Fprintf(w, "  %s  %s → %s\n", e.Timestamp.Format("2006-01-02 15:04"), stageLabel(e.FromStage), stageLabel(e.ToStage))
	}
}

var candidatesBoardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show candidates as kanban columns by stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, _ := cmd.Flags().GetInt64("job")
		perColumn, _ := cmd.Flags().GetInt("limit")
		return withApp(func(a *app) error {
			// A failing list must not cancel the other; each falls back on
			// its own.
			ctx := cmd.Context()
			var g errgroup.Group
			g.Go(func() error {
				return a.stores.Candidates.Fetch(ctx, hiring.CandidateQuery{JobID: jobID, PageSize: hiring.MaxPageSize})
			})
			g.Go(func() error {
				return a.stores.Jobs.Fetch(ctx, hiring.JobQuery{PageSize: hiring.MaxPageSize})
			})
			if err := g.Wait(); err != nil {
				if len(a.stores.Candidates.Candidates()) == 0 {
					return err
				}
				printWarning("%v; showing cached board", err)
			}

			titles := make(map[int64]string)
			for _, j := range a.stores.Jobs.Jobs() {
				titles[j.ID] = j.Title
			}
			printBoard(cmd.OutOrStdout(), a.stores.Candidates.Board(), titles, perColumn)
			return nil
		})
	},
}

func printBoard(w io.Writer, board map[hiring.Stage][]hiring.Candidate, titles map[int64]string, perColumn int) {
	for _, stage := range hiring.Stages {
		column := board[stage]
		fmt.Fprintf(w, "%s (%d)\n", colorize(colorBold, strings.ToUpper(string(stage))), len(column))
		for i, c := range column {
			if perColumn > 0 && i == perColumn {
				fmt.Fprintf(w, "  ... %d more\n", len(column)-perColumn)
				break
			}
			job := titles[c.JobID]
			if job == "" {
				job = fmt.Sprintf("job %d", c.JobID)
			}
			fmt.Fprintf(w, "  #%d %s  %s\n", c.ID, c.Name, colorize(colorCyan, job))
		}
	}
}

func init() {
	candidatesListCmd.Flags().String("search", "", "match name or email")
	candidatesListCmd.Flags().String("stage", "", "filter by stage")
	candidatesListCmd.Flags().Int64("job", 0, "filter by job id")
	candidatesListCmd.Flags().Int("page", 1, "page number")
	candidatesListCmd.Flags().Int("page-size", hiring.DefaultCandidatePageSize, "candidates per page")

	candidatesAddCmd.Flags().String("name", "", "full name")
	candidatesAddCmd.Flags().String("email", "", "email address")
	candidatesAddCmd.Flags().Int64("job", 0, "job id")
	candidatesAddCmd.Flags().String("stage", "", "initial stage (default applied)")

	candidatesBoardCmd.Flags().Int64("job", 0, "only candidates for this job")
	candidatesBoardCmd.Flags().Int("limit", 10, "cards shown per column (0 for all)")

	candidatesCmd.AddCommand(candidatesListCmd)
	candidatesCmd.AddCommand(candidatesAddCmd)
	candidatesCmd.AddCommand(candidatesMoveCmd)
	candidatesCmd.AddCommand(candidatesShowCmd)
	candidatesCmd.AddCommand(candidatesTimelineCmd)
	candidatesCmd.AddCommand(candidatesBoardCmd)
}
