package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/recapture/internal/api"
)

var intelCmd = &cobra.Command{
	Use:   "intel",
	Short: "Threat intelligence: sources, topics, review inbox and training",
}

// --- sources ---

var intelSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage scraped sources",
}

var intelSourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.dash.Intel.Sources.Refresh(cmd.Context()); err != nil {
			return err
		}
		sources, _ := a.dash.Intel.Sources.Get()
		return renderSources(cmd, sources)
	},
}

var intelSourcesAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		typ, _ := cmd.Flags().GetString("type")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.dash.Intel.AddSource(cmd.Context(), api.Source{Name: name, URL: args[0], Type: typ}); err != nil {
			return err
		}
		printSuccess("Added source %s", args[0])
		sources, _ := a.dash.Intel.Sources.Get()
		return renderSources(cmd, sources)
	},
}

var intelSourcesDeleteCmd = &cobra.Command{
	Use:   "delete <source-id>",
	Short: "Remove a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.dash.Intel.DeleteSource(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess("Removed source %s", args[0])
		return nil
	},
}

func renderSources(cmd *cobra.Command, sources []api.Source) error {
	return render(cmd.OutOrStdout(), sources, func() [][]string {
		rows := [][]string{{"ID", "NAME", "TYPE", "STATUS", "URL"}}
		for _, s := range sources {
			rows = append(rows, []string{s.ID, s.Name, s.Type, s.Status, s.URL})
		}
		return rows
	})
}

// --- topics ---

var intelTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Manage watched topics",
}

var intelTopicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.dash.Intel.Topics.Refresh(cmd.Context()); err != nil {
			return err
		}
		topics, _ := a.dash.Intel.Topics.Get()
		return renderTopics(cmd, topics)
	},
}

var intelTopicsAddCmd = &cobra.Command{
	Use:   "add <topic...>",
	Short: "Watch a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.Join(args, " ")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.dash.Intel.AddTopic(cmd.Context(), topic); err != nil {
			return err
		}
		printSuccess("Watching %q", topic)
		topics, _ := a.dash.Intel.Topics.Get()
		return renderTopics(cmd, topics)
	},
}

func renderTopics(cmd *cobra.Command, topics []string) error {
	return render(cmd.OutOrStdout(), topics, func() [][]string {
		rows := [][]string{{"TOPIC"}}
		for _, t := range topics {
			rows = append(rows, []string{t})
		}
		return rows
	})
}

// --- content inbox ---

var intelContentCmd = &cobra.Command{
	Use:   "content",
	Short: "Review scraped content",
}

var intelContentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the review inbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.dash.Intel.Content.Refresh(cmd.Context()); err != nil {
			return err
		}
		items, _ := a.dash.Intel.Content.Get()
		if status != "" {
			filtered := items[:0:0]
			for _, it := range items {
				if string(it.Status) == status {
					filtered = append(filtered, it)
				}
			}
			items = filtered
		}
		return renderContent(cmd, items)
	},
}

func contentActionCmd(use, short, verb string, action func(a *app, cmd *cobra.Command, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <content-id...>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			var failed int
			for _, id := range args {
				if err := action(a, cmd, id); err != nil {
					printError("%s: %v", id, err)
					failed++
					continue
				}
				printSuccess("%s %s", verb, id)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d items failed", failed, len(args))
			}
			return nil
		},
	}
}

var intelContentApproveCmd = contentActionCmd("approve", "Approve content for training", "Approved",
	func(a *app, cmd *cobra.Command, id string) error { return a.dash.Intel.Approve(cmd.Context(), id) })

var intelContentDiscardCmd = contentActionCmd("discard", "Discard content", "Discarded",
	func(a *app, cmd *cobra.Command, id string) error { return a.dash.Intel.Discard(cmd.Context(), id) })

func renderContent(cmd *cobra.Command, items []api.ContentItem) error {
	return render(cmd.OutOrStdout(), items, func() [][]string {
		rows := [][]string{{"ID", "STATUS", "RISK", "CONTENT"}}
		for _, it := range items {
			rows = append(rows, []string{it.ID, string(it.Status), fmt.Sprintf("%.2f", it.RiskScore), truncate(it.Content, 60)})
		}
		return rows
	})
}

// --- pipeline ---

var intelRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scraping pipeline now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		printStep("Running pipeline...")
		if err := a.dash.Intel.RunPipeline(cmd.Context()); err != nil {
			return err
		}
		items, _ := a.dash.Intel.Content.Get()
		printStatus("Inbox", "%d items", len(items))
		return nil
	},
}

var intelTrainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the knowledge base on approved content",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		printStep("Training on approved content...")
		res, err := a.dash.Intel.TrainBatch(cmd.Context())
		if err != nil {
			return err
		}
		printSuccess("%s", res.Message)
		printStatus("Documents", "%d", res.TotalDocuments)
		return nil
	},
}

var intelStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show inbox counts and knowledge base size",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.dash.Intel.Content.Refresh(ctx); err != nil {
			return err
		}
		if err := a.dash.Intel.Stats.Refresh(ctx); err != nil {
			return err
		}
		s := a.dash.Intel.Summary()
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), s)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Pending:    %d\n", s.Pending)
		fmt.Fprintf(w, "Approved:   %d\n", s.Approved)
		fmt.Fprintf(w, "Discarded:  %d\n", s.Discarded)
		fmt.Fprintf(w, "Trained:    %d\n", s.Trained)
		fmt.Fprintf(w, "Documents:  %d\n", s.TotalDocuments)
		return nil
	},
}

var intelLogsCmd = &cobra.Command{
	Use:   "logs <subject-id>",
	Short: "Show device activity logs of a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		profiles := a.dash.Intel.Profiles
		if err := profiles.Load(ctx); err != nil {
			return err
		}
		if err := profiles.Select(ctx, args[0]); err != nil {
			return fmt.Errorf("subject %s: %w", args[0], err)
		}
		logs := profiles.Dependents()
		return render(cmd.OutOrStdout(), logs, func() [][]string {
			rows := [][]string{{"TIME", "RISK", "SOURCE", "CONTENT"}}
			for _, l := range logs {
				rows = append(rows, []string{l.Timestamp, fmt.Sprintf("%.2f", l.RiskScore), l.SourceURL, truncate(l.Content, 60)})
			}
			return rows
		})
	},
}

func init() {
	intelSourcesAddCmd.Flags().String("name", "", "display name (defaults to the URL)")
	intelSourcesAddCmd.Flags().String("type", "web", "source type")
	intelSourcesCmd.AddCommand(intelSourcesListCmd, intelSourcesAddCmd, intelSourcesDeleteCmd)

	intelTopicsCmd.AddCommand(intelTopicsListCmd, intelTopicsAddCmd)

	intelContentListCmd.Flags().String("status", "", "only show items with this status")
	intelContentCmd.AddCommand(intelContentListCmd, intelContentApproveCmd, intelContentDiscardCmd)

	intelCmd.AddCommand(intelSourcesCmd, intelTopicsCmd, intelContentCmd, intelRunCmd, intelTrainCmd, intelStatsCmd, intelLogsCmd)
}

// --- trends ---

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Detected trends of concern",
}

var trendsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trends",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.dash.Intel.Trends.Refresh(cmd.Context()); err != nil {
			return err
		}
		trends, _ := a.dash.Intel.Trends.Get()
		return renderTrends(cmd, trends)
	},
}

var trendsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-detect trends from recent content",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		printStep("Refreshing trends...")
		if err := a.dash.Intel.RefreshTrends(cmd.Context()); err != nil {
			return err
		}
		trends, _ := a.dash.Intel.Trends.Get()
		return renderTrends(cmd, trends)
	},
}

var trendsQueueCmd = &cobra.Command{
	Use:   "queue <trend-id>",
	Short: "Send a trend to the training inbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.dash.Intel.QueueTrend(cmd.Context(), args[0])
	},
}

func renderTrends(cmd *cobra.Command, trends []api.Trend) error {
	return render(cmd.OutOrStdout(), trends, func() [][]string {
		rows := [][]string{{"ID", "SEVERITY", "TOPIC", "PHRASES"}}
		for _, t := range trends {
			rows = append(rows, []string{t.ID, t.Severity, t.Topic, strconv.Itoa(len(t.CommonPhrases))})
		}
		return rows
	})
}

func init() {
	trendsCmd.AddCommand(trendsListCmd, trendsRefreshCmd, trendsQueueCmd)
}
