package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kalambet/talentflow/internal/client"
	"github.com/kalambet/talentflow/internal/hiring"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List and manage job postings",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := jobQueryFromFlags(cmd)
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			fetchErr := a.stores.Jobs.Fetch(cmd.Context(), q)
			jobs := a.stores.Jobs.Jobs()
			if fetchErr != nil {
				if len(jobs) == 0 {
					return fetchErr
				}
				printWarning("%v; showing %d cached jobs", fetchErr, len(jobs))
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs found.")
				return nil
			}
			printJobs(out, jobs)
			pageFooter(out, a.stores.Jobs.Pagination())
			return nil
		})
	},
}

func jobQueryFromFlags(cmd *cobra.Command) (hiring.JobQuery, error) {
	search, _ := cmd.Flags().GetString("search")
	status, _ := cmd.Flags().GetString("status")
	sort, _ := cmd.Flags().GetString("sort")
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	q := hiring.JobQuery{
		Search:   search,
		Status:   hiring.JobStatus(status),
		Sort:     hiring.JobSort(sort),
		Page:     page,
		PageSize: pageSize,
	}
	if q.Status != "" && !q.Status.Valid() {
		return q, fmt.Errorf("invalid --status %q: want active or archived", status)
	}
	switch q.Sort {
	case "", hiring.SortManual, hiring.SortTitle, hiring.SortCreated:
	default:
		return q, fmt.Errorf("invalid --sort %q: want order, title or created", sort)
	}
	return q, nil
}

func printJobs(w io.Writer, jobs []hiring.Job) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ORDER\tID\tTITLE\tSLUG\tSTATUS\tTAGS")
	for _, j := range jobs {
		status := string(j.Status)
		if j.Status == hiring.JobArchived {
			status = colorize(colorYellow, status)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", j.Order, j.ID, truncate(j.Title, 40), j.Slug, status, strings.Join(j.Tags, ", "))
	}
	tw.Flush()
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			j, err := a.client.GetJob(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", colorize(colorBold, j.Title))
			fmt.Fprintf(out, "  id:      %d\n  slug:    %s\n  status:  %s\n  order:   %d\n  tags:    %s\n  created: %s\n",
				j.ID, j.Slug, j.Status, j.Order, strings.Join(j.Tags, ", "), j.CreatedAt.Format("2006-01-02"))
			return nil
		})
	},
}

var jobsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a job",
	Long: `Create a job from flags or from a YAML file.

Examples:
  talentflow jobs create --title "QA Engineer" --tags testing,remote
  talentflow jobs create --file job.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := jobInputFromFlags(cmd)
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			j, err := a.stores.Jobs.Create(cmd.Context(), in)
			if err != nil {
				return explain(err)
			}
			printSuccess("Created job %d %q (slug %s, order %d)", j.ID, j.Title, j.Slug, j.Order)
			return nil
		})
	},
}

func jobInputFromFlags(cmd *cobra.Command) (hiring.JobInput, error) {
	var in hiring.JobInput
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return in, fmt.Errorf("reading file: %w", err)
		}
		if err := yaml.Unmarshal(data, &in); err != nil {
			return in, fmt.Errorf("parsing %s: %w", file, err)
		}
	}
	if cmd.Flags().Changed("title") {
		in.Title, _ = cmd.Flags().GetString("title")
	}
	if cmd.Flags().Changed("slug") {
		in.Slug, _ = cmd.Flags().GetString("slug")
	}
	if cmd.Flags().Changed("status") {
		status, _ := cmd.Flags().GetString("status")
		in.Status = hiring.JobStatus(status)
	}
	if cmd.Flags().Changed("tags") {
		tags, _ := cmd.Flags().GetString("tags")
		in.Tags = splitList(tags)
	}
	if cmd.Flags().Changed("order") {
		order, _ := cmd.Flags().GetInt("order")
		in.Order = &order
	}
	if strings.TrimSpace(in.Title) == "" {
		return in, fmt.Errorf("--title (or a title in --file) is required")
	}
	return in, nil
}

var jobsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a job's title, slug, status or tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		var p hiring.JobPatch
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			p.Title = &v
		}
		if cmd.Flags().Changed("slug") {
			v, _ := cmd.Flags().GetString("slug")
			p.Slug = &v
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			st := hiring.JobStatus(v)
			p.Status = &st
		}
		if cmd.Flags().Changed("tags") {
			v, _ := cmd.Flags().GetString("tags")
			tags := splitList(v)
			p.Tags = &tags
		}
		if p == (hiring.JobPatch{}) {
			return fmt.Errorf("nothing to update: pass at least one of --title, --slug, --status, --tags")
		}
		return updateJob(cmd.Context(), id, p)
	},
}

func setStatusCmd(use, short string, status hiring.JobStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			st := status
			return updateJob(cmd.Context(), id, hiring.JobPatch{Status: &st})
		},
	}
}

func updateJob(ctx context.Context, id int64, p hiring.JobPatch) error {
	return withApp(func(a *app) error {
		j, err := a.stores.Jobs.Update(ctx, id, p)
		if err != nil {
			return explain(err)
		}
		printSuccess("Updated job %d %q (%s)", j.ID, j.Title, j.Status)
		return nil
	})
}

var jobsReorderCmd = &cobra.Command{
	Use:   "reorder <from-order> <to-order>",
	Short: "Move the job at one board position to another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.Atoi(args[0])
		if err != nil || from < 1 {
			return fmt.Errorf("invalid from-order %q", args[0])
		}
		to, err := strconv.Atoi(args[1])
		if err != nil || to < 1 {
			return fmt.Errorf("invalid to-order %q", args[1])
		}
		return withApp(func(a *app) error {
			ctx := cmd.Context()
			if err := a.stores.Jobs.Fetch(ctx, hiring.JobQuery{Sort: hiring.SortManual, PageSize: hiring.MaxPageSize}); err != nil {
				return err
			}
			if err := a.stores.Jobs.Reorder(ctx, from, to); err != nil {
				printError("%s", a.stores.Jobs.Err())
				return err
			}
			printSuccess("Moved job from position %d to %d", from, to)
			return nil
		})
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a job with no candidates or assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			if err := a.stores.Jobs.Delete(cmd.Context(), id); err != nil {
				return explain(err)
			}
			printSuccess("Deleted job %d", id)
			return nil
		})
	},
}

func init() {
	jobsListCmd.Flags().String("search", "", "match title or tags")
	jobsListCmd.Flags().String("status", "", "active or archived")
	jobsListCmd.Flags().String("sort", "", "order, title or created")
	jobsListCmd.Flags().Int("page", 1, "page number")
	jobsListCmd.Flags().Int("page-size", hiring.DefaultJobPageSize, "jobs per page")

	jobsCreateCmd.Flags().String("title", "", "job title")
	jobsCreateCmd.Flags().String("slug", "", "URL slug (derived from the title when empty)")
	jobsCreateCmd.Flags().String("status", "", "active or archived")
	jobsCreateCmd.Flags().String("tags", "", "comma-separated tags")
	jobsCreateCmd.Flags().Int("order", 0, "board position (appended when omitted)")
	jobsCreateCmd.Flags().String("file", "", "YAML file with title, slug, status, tags, order")

	jobsUpdateCmd.Flags().String("title", "", "new title")
	jobsUpdateCmd.Flags().String("slug", "", "new slug")
	jobsUpdateCmd.Flags().String("status", "", "active or archived")
	jobsUpdateCmd.Flags().String("tags", "", "comma-separated tags (replaces all)")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsCreateCmd)
	jobsCmd.AddCommand(jobsUpdateCmd)
	jobsCmd.AddCommand(setStatusCmd("archive", "Archive a job", hiring.JobArchived))
	jobsCmd.AddCommand(setStatusCmd("unarchive", "Make an archived job active again", hiring.JobActive))
	jobsCmd.AddCommand(jobsReorderCmd)
	jobsCmd.AddCommand(jobsDeleteCmd)
}

func parseIDArg(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// explain turns a classified API error into a message a user can act on.
func explain(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Kind() {
	case client.KindConflict:
		for _, field := range slices.Sorted(maps.Keys(apiErr.Fields)) {
			printError("%s: %s", field, apiErr.Fields[field])
		}
		return fmt.Errorf("rejected: %s", apiErr.Message)
	case client.KindTransient:
		return fmt.Errorf("%w (try again)", err)
	case client.KindNotFound:
		return fmt.Errorf("not found: %s", apiErr.Message)
	}
	return err
}
