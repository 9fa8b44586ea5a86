package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/config"
	"github.com/kalambet/recapture/internal/locale"
	"github.com/kalambet/recapture/internal/scanner"
)

// deviceSource labels content captured without a known origin.
const deviceSource = "Simulated Device Input"

// readContent returns --text, the extracted --file, or the joined args.
func readContent(cmd *cobra.Command, args []string) (content, source string, err error) {
	text, _ := cmd.Flags().GetString("text")
	file, _ := cmd.Flags().GetString("file")

	switch {
	case file != "":
		content, err = scanner.Extract(file)
		if err != nil {
			return "", "", err
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			abs = file
		}
		return content, "file://" + abs, nil
	case text != "":
		return text, "", nil
	case len(args) > 0:
		return strings.Join(args, " "), "", nil
	}
	return "", "", errors.New("one of --text or --file is required")
}

// --- scan ---

var scanCmd = &cobra.Command{
	Use:   "scan <subject-id>",
	Short: "Submit captured content from a subject's device for scoring",
	Long: `Submit captured content from a subject's device for scoring.

Examples:
  recapture scan s1 --text "they don't want you to know the truth"
  recapture scan s1 --file ./saved-chat.html
  recapture scan s1 --file ./forum-thread.pdf --source https://forum.example/t/123`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, source, err := readContent(cmd, nil)
		if err != nil {
			return err
		}
		if s, _ := cmd.Flags().GetString("source"); s != "" {
			source = s
		}
		if source == "" {
			source = deviceSource
		}

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
		if err := a.dash.Intel.Ingest(ctx, content, source, time.Now()); err != nil {
			return err
		}

		s := a.dash.Intel.Summary()
		printSuccess("Content scanned")
		printStatus("Logs", "%d", s.Logs)
		printStatus("Average risk", "%.2f", s.AverageRisk)
		return nil
	},
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text...]",
	Short: "One-shot radicalization analysis of a piece of content",
	RunE: func(cmd *cobra.Command, args []string) error {
		content, source, err := readContent(cmd, args)
		if err != nil {
			return err
		}
		subject, _ := cmd.Flags().GetString("subject")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.client.Analyze(cmd.Context(), api.AnalysisRequest{
			Text:      content,
			SourceURL: source,
			ProfileID: subject,
		})
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), res)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %.2f\n", colorize(colorBold, "Score:"), res.RadicalizationScore)
		if len(res.DetectedThemes) > 0 {
			fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Themes:"), strings.Join(res.DetectedThemes, ", "))
		}
		if res.Summary != "" {
			fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Summary:"), res.Summary)
		}
		fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Analysis:"), res.ID)
		return nil
	},
}

// --- argument ---

var argumentCmd = &cobra.Command{
	Use:   "argument",
	Short: "Generate a counter-argument script for a conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		situation, _ := cmd.Flags().GetString("context")
		analysis, _ := cmd.Flags().GetString("analysis")
		if situation == "" && analysis == "" {
			return errors.New("one of --context or --analysis is required")
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		store, err := a.initLocale()
		if err != nil {
			return err
		}
		defer store.Close()

		res, err := a.client.GenerateArgument(cmd.Context(), api.ArgumentRequest{
			Context:    situation,
			ProfileID:  subject,
			AnalysisID: analysis,
			Language:   locale.Current(),
		})
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), res)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, res.ArgumentText)
		if len(res.TalkingPoints) > 0 {
			fmt.Fprintf(w, "\n%s\n", colorize(colorBold, "Talking points"))
			for _, p := range res.TalkingPoints {
				fmt.Fprintf(w, "  - %s\n", p)
			}
		}
		return nil
	},
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the guardian assistant",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		return chatTurn(cmd, a.dash.Assistant(), strings.Join(args, " "))
	},
}

// --- lang ---

var langCmd = &cobra.Command{
	Use:   "lang",
	Short: "Show or change the language used for generated replies",
}

var langShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current language",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		store, err := a.initLocale()
		if err != nil {
			return err
		}
		defer store.Close()

		code := locale.Current()
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", locale.Name(code), code)
		return nil
	},
}

var langSetCmd = &cobra.Command{
	Use:   "set <code>",
	Short: "Set the language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		store, err := a.initLocale()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := locale.Set(args[0]); err != nil {
			return err
		}
		printSuccess("Language set to %s", locale.Name(args[0]))
		return nil
	},
}

var langResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the chosen language and use the default",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		store, err := a.initLocale()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := locale.Reset(); err != nil {
			return err
		}
		printSuccess("Language reset to %s", locale.Name(locale.Current()))
		return nil
	},
}

var langListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(cmd.OutOrStdout(), locale.Supported, func() [][]string {
			rows := [][]string{{"CODE", "LANGUAGE"}}
			for _, l := range locale.Supported {
				rows = append(rows, []string{l.Code, l.Name})
			}
			return rows
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{scanCmd, analyzeCmd} {
		c.Flags().String("text", "", "content to submit")
		c.Flags().String("file", "", "file to extract content from (.txt, .html, .pdf)")
	}
	scanCmd.Flags().String("source", "", "where the content was captured")
	analyzeCmd.Flags().String("subject", "", "subject the content belongs to")

	argumentCmd.Flags().String("subject", "", "subject the argument is for")
	argumentCmd.Flags().String("context", "", "what the subject said or believes")
	argumentCmd.Flags().String("analysis", "", "analysis id to argue against")

	langCmd.AddCommand(langShowCmd, langSetCmd, langResetCmd, langListCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored value so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}

		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
