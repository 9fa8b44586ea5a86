package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/viewmodel"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Live listening for trend matches on social platforms",
}

var listenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show listener state and the current feed page",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		feed := a.dash.Listening.Feed
		ctx := cmd.Context()
		if err := feed.Mount(ctx); err != nil {
			return err
		}
		if page > 1 {
			if err := feed.SetPage(ctx, page); err != nil {
				return err
			}
		}
		return printFeed(cmd.OutOrStdout(), feed.Snapshot())
	},
}

var listenStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server-side listener",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.dash.Listening.Feed.Start(cmd.Context()); err != nil {
			return err
		}
		printSuccess("Listening")
		return nil
	},
}

var listenStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the server-side listener",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		feed := a.dash.Listening.Feed
		ctx := cmd.Context()
		if err := feed.Mount(ctx); err != nil {
			return err
		}
		if err := feed.Stop(ctx); err != nil {
			return err
		}
		printSuccess("Stopped listening")
		return nil
	},
}

var listenWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the feed until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetBool("start")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		feed := a.dash.Listening.Feed
		updates := make(chan struct{}, 1)
		unsubscribe := feed.Subscribe(func() {
			select {
			case updates <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()

		ctx := cmd.Context()
		if err := feed.Mount(ctx); err != nil {
			return err
		}
		if start && feed.State() != viewmodel.FeedListening {
			if err := feed.Start(ctx); err != nil {
				return err
			}
		}
		if !feed.Polling() {
			printWarning("Listener is stopped. Run with --start to begin listening.")
			return printFeed(cmd.OutOrStdout(), feed.Snapshot())
		}

		printStep("Watching feed every %s. Ctrl-C to stop.", a.cfg.Feed.PollInterval)
		seen := make(map[string]bool)
		for {
			snap := feed.Snapshot()
			for i := len(snap.Items) - 1; i >= 0; i-- {
				it := snap.Items[i]
				if seen[it.ID] {
					continue
				}
				seen[it.ID] = true
				printFeedItem(cmd.OutOrStdout(), it)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-updates:
			}
		}
	},
}

var listenPromoteCmd = &cobra.Command{
	Use:   "promote <item-id>",
	Short: "Send a feed item to the training inbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		feed := a.dash.Listening.Feed
		ctx := cmd.Context()
		if err := feed.Mount(ctx); err != nil {
			return err
		}
		if page > 1 {
			if err := feed.SetPage(ctx, page); err != nil {
				return err
			}
		}
		return a.dash.Listening.Promote(ctx, args[0])
	},
}

func printFeed(w io.Writer, snap viewmodel.FeedSnapshot) error {
	if jsonOut {
		return printJSON(w, snap)
	}
	fmt.Fprintf(w, "%s %s  %s %d  %s %d\n",
		colorize(colorBold, "State:"), snap.State,
		colorize(colorBold, "Total:"), snap.Total,
		colorize(colorBold, "Threats:"), snap.Threats)
	if snap.Mode == viewmodel.FeedPaginated {
		fmt.Fprintf(w, "Page %d of %d\n", snap.Page, max(snap.TotalPages, 1))
		if snap.NewSinceView > 0 {
			fmt.Fprintf(w, "%s\n", colorize(colorYellow, fmt.Sprintf("%d new since first page was shown", snap.NewSinceView)))
		}
	}
	if len(snap.Items) == 0 {
		fmt.Fprintln(w, "No items.")
		return nil
	}
	for _, it := range snap.Items {
		printFeedItem(w, it)
	}
	return nil
}

func printFeedItem(w io.Writer, it api.FeedItem) {
	marker := "  "
	if it.IsThreat() {
		marker = colorize(colorRed, "! ")
	}
	fmt.Fprintf(w, "%s%s  %s @%s: %s\n", marker, colorize(colorCyan, it.ID), it.SourcePlatform, it.Author, truncate(it.Content, 80))
	if it.IsThreat() {
		fmt.Fprintf(w, "    matched %s (%s)\n", it.MatchedTrendTopic, it.Severity)
	}
}

func init() {
	listenStatusCmd.Flags().Int("page", 1, "feed page to show")
	listenPromoteCmd.Flags().Int("page", 1, "feed page holding the item")
	listenWatchCmd.Flags().Bool("start", false, "start the listener if it is stopped")

	listenCmd.AddCommand(listenStatusCmd, listenStartCmd, listenStopCmd, listenWatchCmd, listenPromoteCmd)
}
