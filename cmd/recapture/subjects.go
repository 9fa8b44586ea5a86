package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/dashboard"
)

// --- subjects ---

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "Manage monitored subjects",
}

var subjectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		subjects, err := a.client.ListSubjects(cmd.Context())
		if err != nil {
			return err
		}
		return renderSubjects(cmd, subjects)
	},
}

var subjectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Add a subject to monitor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetInt("age")
		risk, _ := cmd.Flags().GetString("risk")
		notes, _ := cmd.Flags().GetString("notes")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.dash.Subjects.CreateSubject(cmd.Context(), api.Subject{
			Name:      args[0],
			Age:       age,
			RiskLevel: risk,
			Notes:     notes,
		})
		if err != nil {
			return err
		}
		printSuccess("Created subject %s (%s)", created.Name, created.ID)
		return nil
	},
}

var subjectsNotesCmd = &cobra.Command{
	Use:   "notes <subject-id> <notes...>",
	Short: "Replace a subject's notes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.dash.Subjects.Load(ctx); err != nil {
			return err
		}
		if err := a.dash.Subjects.UpdateNotes(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
			return err
		}
		printSuccess("Notes updated")
		return nil
	},
}

var subjectsDeleteCmd = &cobra.Command{
	Use:   "delete <subject-id>",
	Short: "Stop monitoring a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This deletes the subject and its history. Use --confirm to proceed.")
			return nil
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.dash.Subjects.DeleteSubject(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess("Deleted subject %s", args[0])
		return nil
	},
}

var atRiskCmd = &cobra.Command{
	Use:   "at-risk",
	Short: "List subjects flagged as at risk",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		subjects, err := a.client.AtRiskSubjects(cmd.Context())
		if err != nil {
			return err
		}
		return renderSubjects(cmd, subjects)
	},
}

func renderSubjects(cmd *cobra.Command, subjects []api.Subject) error {
	return render(cmd.OutOrStdout(), subjects, func() [][]string {
		rows := [][]string{{"ID", "NAME", "AGE", "RISK", "NOTES"}}
		for _, s := range subjects {
			rows = append(rows, []string{s.ID, s.Name, strconv.Itoa(s.Age), s.RiskLevel, truncate(s.Notes, 40)})
		}
		return rows
	})
}

func init() {
	subjectsCreateCmd.Flags().Int("age", 0, "subject age")
	subjectsCreateCmd.Flags().String("risk", "Low", "initial risk level")
	subjectsCreateCmd.Flags().String("notes", "", "guardian notes")
	subjectsDeleteCmd.Flags().Bool("confirm", false, "confirm deletion")

	subjectsCmd.AddCommand(subjectsListCmd, subjectsCreateCmd, subjectsNotesCmd, subjectsDeleteCmd)
}

// --- authorities ---

var authoritiesCmd = &cobra.Command{
	Use:   "authorities",
	Short: "Manage a subject's trusted authorities",
}

// selectSubject loads the subject list and selects id so that the
// authority actions refresh the right dependents.
func selectSubject(cmd *cobra.Command, a *app, id string) error {
	ctx := cmd.Context()
	if err := a.dash.Subjects.Load(ctx); err != nil {
		return err
	}
	if err := a.dash.Subjects.Select(ctx, id); err != nil {
		return fmt.Errorf("subject %s: %w", id, err)
	}
	return nil
}

var authoritiesListCmd = &cobra.Command{
	Use:   "list <subject-id>",
	Short: "List trusted authorities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := selectSubject(cmd, a, args[0]); err != nil {
			return err
		}
		return renderAuthorities(cmd, a.dash.Subjects.List.Dependents())
	},
}

var authoritiesAddCmd = &cobra.Command{
	Use:   "add <subject-id> <name>",
	Short: "Add a trusted authority",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		relation, _ := cmd.Flags().GetString("relation")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := selectSubject(cmd, a, args[0]); err != nil {
			return err
		}
		err = a.dash.Subjects.AddAuthority(cmd.Context(), api.Authority{Name: args[1], Role: role, Relation: relation})
		if err != nil {
			return err
		}
		printSuccess("Added %s", args[1])
		return renderAuthorities(cmd, a.dash.Subjects.List.Dependents())
	},
}

var authoritiesDeleteCmd = &cobra.Command{
	Use:   "delete <subject-id> <authority-id>",
	Short: "Remove a trusted authority",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := selectSubject(cmd, a, args[0]); err != nil {
			return err
		}
		if err := a.dash.Subjects.DeleteAuthority(cmd.Context(), args[1]); err != nil {
			return err
		}
		printSuccess("Removed %s", args[1])
		return nil
	},
}

var authoritiesRecommendCmd = &cobra.Command{
	Use:   "recommend <subject-id>",
	Short: "Suggest authorities likely to reach the subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := selectSubject(cmd, a, args[0]); err != nil {
			return err
		}
		recs := a.dash.Subjects.Recommended(cmd.Context())
		return render(cmd.OutOrStdout(), recs, func() [][]string {
			rows := [][]string{{"NAME", "ROLE", "MATCH", "REASONING"}}
			for _, r := range recs {
				rows = append(rows, []string{r.Name, r.Role, fmt.Sprintf("%.0f%%", r.MatchScore*100), truncate(r.Reasoning, 60)})
			}
			return rows
		})
	},
}

func renderAuthorities(cmd *cobra.Command, list []api.Authority) error {
	return render(cmd.OutOrStdout(), list, func() [][]string {
		rows := [][]string{{"ID", "NAME", "ROLE", "RELATION"}}
		for _, x := range list {
			rows = append(rows, []string{x.ID, x.Name, x.Role, x.Relation})
		}
		return rows
	})
}

func init() {
	authoritiesAddCmd.Flags().String("role", "", "role, e.g. coach or teacher")
	authoritiesAddCmd.Flags().String("relation", "", "relation to the subject")

	authoritiesCmd.AddCommand(authoritiesListCmd, authoritiesAddCmd, authoritiesDeleteCmd, authoritiesRecommendCmd)
}

// --- subject detail ---

var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Inspect one subject",
}

var subjectShowCmd = &cobra.Command{
	Use:   "show <subject-id>",
	Short: "Show a subject with feeds, recent posts and risk profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		detail := a.dash.Detail(args[0])
		if err := detail.Load(cmd.Context()); err != nil {
			return err
		}
		return printDetail(cmd, detail)
	},
}

var subjectScrapeCmd = &cobra.Command{
	Use:   "scrape <subject-id>",
	Short: "Scrape the subject's social feeds and rescore",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		printStep("Scraping feeds...")
		detail := a.dash.Detail(args[0])
		if err := detail.ScrapeFeeds(cmd.Context()); err != nil {
			return err
		}
		posts, _ := detail.Posts.Get()
		printSuccess("%d posts on record", len(posts))
		return nil
	},
}

var subjectRiskCmd = &cobra.Command{
	Use:   "risk <subject-id>",
	Short: "Show or generate the subject's risk profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		generate, _ := cmd.Flags().GetBool("generate")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		detail := a.dash.Detail(args[0])
		ctx := cmd.Context()
		if generate {
			printStep("Generating risk profile...")
			err = detail.GenerateRiskProfile(ctx)
		} else {
			err = detail.Risk.Refresh(ctx)
		}
		if err != nil {
			return err
		}
		if !detail.HasRiskProfile() {
			printWarning("No risk profile yet. Run with --generate to create one.")
			return nil
		}
		p, _ := detail.Risk.Get()
		return printJSON(cmd.OutOrStdout(), p)
	},
}

var subjectLinkCmd = &cobra.Command{
	Use:   "link <subject-id> <platform> <username>",
	Short: "Link a social account to the subject",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		detail := a.dash.Detail(args[0])
		err = detail.AddSocialFeed(cmd.Context(), api.SocialFeed{Platform: args[1], Username: args[2]})
		if err != nil {
			return err
		}
		printSuccess("Linked %s @%s", args[1], args[2])
		return nil
	},
}

func printDetail(cmd *cobra.Command, d *dashboard.SubjectDetail) error {
	w := cmd.OutOrStdout()
	subject, _ := d.Subject.Get()
	feeds, _ := d.Feeds.Get()
	posts, _ := d.Posts.Get()
	risk, _ := d.Risk.Get()

	if jsonOut {
		return printJSON(w, map[string]any{
			"subject":      subject,
			"social_feeds": feeds,
			"posts":        posts,
			"risk_profile": risk,
		})
	}

	fmt.Fprintf(w, "%s (%s)\n", colorize(colorBold, subject.Name), subject.ID)
	fmt.Fprintf(w, "  Age: %d  Risk: %s\n", subject.Age, subject.RiskLevel)
	if subject.Notes != "" {
		fmt.Fprintf(w, "  Notes: %s\n", subject.Notes)
	}

	fmt.Fprintf(w, "\n%s\n", colorize(colorBold, "Social feeds"))
	if len(feeds) == 0 {
		fmt.Fprintln(w, "  none linked")
	}
	for _, f := range feeds {
		fmt.Fprintf(w, "  %s @%s\n", f.Platform, f.Username)
	}

	fmt.Fprintf(w, "\n%s (%d)\n", colorize(colorBold, "Recent posts"), len(posts))
	for _, p := range posts[:min(len(posts), 5)] {
		fmt.Fprintf(w, "  [%s] %s\n", p.Platform, truncate(p.Content, 80))
	}

	fmt.Fprintf(w, "\n%s\n", colorize(colorBold, "Risk profile"))
	if !d.HasRiskProfile() {
		fmt.Fprintln(w, "  not generated yet")
		return nil
	}
	return printJSON(w, risk)
}

func init() {
	subjectRiskCmd.Flags().Bool("generate", false, "generate a new profile")
	subjectCmd.AddCommand(subjectShowCmd, subjectScrapeCmd, subjectRiskCmd, subjectLinkCmd)
}
