package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kalambet/talentflow/internal/drafts"
	"github.com/kalambet/talentflow/internal/hiring"
)

var assessmentsCmd = &cobra.Command{
	Use:     "assessments",
	Aliases: []string{"assess"},
	Short:   "Build assessments and submit candidate responses",
}

// loadAssessment fetches the assessment of jobID, settling for the mirrored
// copy when the server fails.
func loadAssessment(cmd *cobra.Command, a *app, jobID int64) (hiring.Assessment, error) {
	err := a.stores.Assessments.Fetch(cmd.Context(), jobID)
	got, ok := a.stores.Assessments.Assessment(jobID)
	if err != nil {
		if !ok {
			return hiring.Assessment{}, explain(err)
		}
		printWarning("%v; using cached assessment", err)
	}
	return got, nil
}

var assessmentsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show the assessment of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			asmt, err := loadAssessment(cmd, a, jobID)
			if err != nil {
				return err
			}
			printAssessment(cmd.OutOrStdout(), asmt)
			return nil
		})
	},
}

func printAssessment(w io.Writer, asmt hiring.Assessment) {
	for _, sec := range asmt.Sections {
		fmt.Fprintf(w, "%s\n", colorize(colorBold, sec.Title))
		for _, q := range sec.Questions {
			marker := " "
			if q.Required {
				marker = "*"
			}
			fmt.Fprintf(w, " %s [%s] %s (%s)\n", marker, q.ID, q.Label, q.Type)
			if len(q.Options) > 0 {
				fmt.Fprintf(w, "      options: %s\n", strings.Join(q.Options, " | "))
			}
			if q.Min != nil || q.Max != nil {
				fmt.Fprintf(w, "      range: %s to %s\n", boundLabel(q.Min), boundLabel(q.Max))
			}
			if q.MaxLength > 0 {
				fmt.Fprintf(w, "      max length: %d\n", q.MaxLength)
			}
			if r := q.Conditional; r != nil {
				fmt.Fprintf(w, "      shown when %s %s %q\n", r.DependsOn, r.Condition, r.Value)
			}
		}
	}
}

func boundLabel(f *float64) string {
	if f == nil {
		return "any"
	}
	return fmt.Sprintf("%g", *f)
}

var assessmentsExportCmd = &cobra.Command{
	Use:   "export <job-id>",
	Short: "Write the assessment of a job as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		return withApp(func(a *app) error {
			asmt, err := loadAssessment(cmd, a, jobID)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(asmt)
			if err != nil {
				return fmt.Errorf("encoding assessment: %w", err)
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			printSuccess("Assessment exported to %s", output)
			return nil
		})
	},
}

var assessmentsImportCmd = &cobra.Command{
	Use:   "import <job-id> <file>",
	Short: "Create or replace the assessment of a job from a YAML or JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		var asmt hiring.Assessment
		if err := yaml.Unmarshal(data, &asmt); err != nil {
			return fmt.Errorf("parsing %s: %w", args[1], err)
		}
		if err := asmt.Check(); err != nil {
			return err
		}
		return withApp(func(a *app) error {
			saved, err := a.stores.Assessments.Save(cmd.Context(), jobID, asmt)
			if err != nil {
				return explain(err)
			}
			printSuccess("Saved assessment %d for job %d (%d questions)", saved.ID, jobID, len(saved.Questions()))
			return nil
		})
	},
}

// readResponses parses a YAML or JSON map of question id to answer.
func readResponses(path string) (hiring.Responses, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading responses: %w", err)
	}
	r := hiring.Responses{}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return r, nil
}

var assessmentsSubmitCmd = &cobra.Command{
	Use:   "submit <job-id>",
	Short: "Submit a candidate's responses",
	Long: `Submit a candidate's responses from a file or from the saved draft.
The draft is discarded once the server accepts the submission.

Examples:
  talentflow assessments submit 3 --candidate 42 --file answers.yaml
  talentflow assessments submit 3 --draft`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		fromDraft, _ := cmd.Flags().GetBool("draft")
		candidateID, _ := cmd.Flags().GetInt64("candidate")
		if (file == "") == !fromDraft {
			return fmt.Errorf("pass exactly one of --file or --draft")
		}

		return withApp(func(a *app) error {
			in := hiring.SubmissionInput{CandidateID: candidateID}
			if fromDraft {
				d, ok := a.local.LoadDraft(jobID)
				if !ok {
					return fmt.Errorf("no draft saved for job %d", jobID)
				}
				in.Responses = d.Responses
				if in.CandidateID == 0 {
					in.CandidateID = d.CandidateID
				}
			} else {
				r, err := readResponses(file)
				if err != nil {
					return err
				}
				in.Responses = r
			}
			if in.CandidateID == 0 {
				return fmt.Errorf("--candidate is required")
			}

			res, err := a.stores.Assessments.Submit(cmd.Context(), jobID, in)
			if err != nil {
				return explain(err)
			}
			a.local.DiscardDraft(jobID)
			printSuccess("Submission %d recorded for candidate %d", res.ID, in.CandidateID)
			return nil
		})
	},
}

var assessmentsSubmissionsCmd = &cobra.Command{
	Use:   "submissions <job-id>",
	Short: "List submissions for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			subs, err := a.client.Submissions(cmd.Context(), jobID)
			if err != nil {
				return explain(err)
			}
			out := cmd.OutOrStdout()
			if len(subs) == 0 {
				fmt.Fprintln(out, "No submissions yet.")
				return nil
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tCANDIDATE\tANSWERS\tSUBMITTED")
			for _, s := range subs {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", s.ID, s.CandidateID, len(s.Responses), s.SubmittedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		})
	},
}

// --- drafts ---

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Keep in-progress responses on this device",
}

var draftSaveCmd = &cobra.Command{
	Use:   "save <job-id>",
	Short: "Save responses as the draft for a job",
	Long: `Save responses as the draft for a job. Answers from --file are merged
over the existing draft, then each --set id=value is applied.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		sets, _ := cmd.Flags().GetStringArray("set")
		candidateID, _ := cmd.Flags().GetInt64("candidate")

		return withApp(func(a *app) error {
			d, _ := a.local.LoadDraft(jobID)
			d.JobID = jobID
			if d.Responses == nil {
				d.Responses = hiring.Responses{}
			}
			if candidateID != 0 {
				d.CandidateID = candidateID
			}
			if file != "" {
				r, err := readResponses(file)
				if err != nil {
					return err
				}
				maps.Copy(d.Responses, r)
			}
			for _, kv := range sets {
				id, val, ok := strings.Cut(kv, "=")
				if !ok || id == "" {
					return fmt.Errorf("invalid --set %q: want id=value", kv)
				}
				if strings.Contains(val, ",") {
					d.Responses[id] = splitList(val)
				} else {
					d.Responses[id] = val
				}
			}
			if !a.local.SaveDraft(d) {
				printWarning("draft could not be saved on this device")
				return nil
			}
			printSuccess("Draft for job %d saved (%d answers)", jobID, len(d.Responses))
			return nil
		})
	},
}

var draftShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show the draft for a job and what would block submitting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			out := cmd.OutOrStdout()
			d, ok := a.local.LoadDraft(jobID)
			if !ok {
				fmt.Fprintf(out, "No draft for job %d.\n", jobID)
				return nil
			}
			printDraft(out, d)

			asmt, err := loadAssessment(cmd, a, jobID)
			if err != nil {
				printWarning("cannot check draft: %v", err)
				return nil
			}
			problems := hiring.ValidateResponses(asmt, d.Responses)
			if len(problems) == 0 {
				printSuccess("Draft is ready to submit")
				return nil
			}
			for _, id := range slices.Sorted(maps.Keys(problems)) {
				printError("%s: %s", id, problems[id])
			}
			return nil
		})
	},
}

func printDraft(w io.Writer, d drafts.Draft) {
	fmt.Fprintf(w, "Draft for job %d", d.JobID)
	if d.CandidateID != 0 {
		fmt.Fprintf(w, ", candidate %d", d.CandidateID)
	}
	fmt.Fprintf(w, " (saved %s)\n", d.SavedAt.Local().Format("2006-01-02 15:04"))
	for _, id := range slices.Sorted(maps.Keys(d.Responses)) {
		fmt.Fprintf(w, "  %s: %v\n", id, d.Responses[id])
	}
}

var draftDiscardCmd = &cobra.Command{
	Use:   "discard <job-id>",
	Short: "Forget the draft for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			a.local.DiscardDraft(jobID)
			printSuccess("Draft for job %d discarded", jobID)
			return nil
		})
	},
}

func init() {
	assessmentsExportCmd.Flags().String("output", "", "output file path (default: stdout)")

	assessmentsSubmitCmd.Flags().Int64("candidate", 0, "candidate id (defaults to the draft's)")
	assessmentsSubmitCmd.Flags().String("file", "", "YAML or JSON map of question id to answer")
	assessmentsSubmitCmd.Flags().Bool("draft", false, "submit the saved draft")

	draftSaveCmd.Flags().Int64("candidate", 0, "candidate the draft is for")
	draftSaveCmd.Flags().String("file", "", "YAML or JSON map of question id to answer")
	draftSaveCmd.Flags().StringArray("set", nil, "answer as id=value (comma-separated for lists)")

	draftCmd.AddCommand(draftSaveCmd)
	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftDiscardCmd)

	assessmentsCmd.AddCommand(assessmentsShowCmd)
	assessmentsCmd.AddCommand(assessmentsExportCmd)
	assessmentsCmd.AddCommand(assessmentsImportCmd)
	assessmentsCmd.AddCommand(assessmentsSubmitCmd)
	assessmentsCmd.AddCommand(assessmentsSubmissionsCmd)
	assessmentsCmd.AddCommand(draftCmd)
}
