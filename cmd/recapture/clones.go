package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/locale"
	"github.com/kalambet/recapture/internal/viewmodel"
)

var clonesCmd = &cobra.Command{
	Use:   "clones",
	Short: "Practise conversations with subjects' digital clones",
}

var clonesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects and their clones",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		lab := a.dash.Clones
		if err := lab.Load(cmd.Context()); err != nil {
			return err
		}
		subjects, _ := lab.Subjects.Get()
		clones := lab.BySubject()

		if jsonOut {
			return printJSON(cmd.OutOrStdout(), clones)
		}
		return render(cmd.OutOrStdout(), nil, func() [][]string {
			rows := [][]string{{"SUBJECT", "NAME", "CLONE", "STATUS", "POSTS", "STYLE"}}
			for _, s := range subjects {
				c, ok := clones[s.ID]
				if !ok {
					rows = append(rows, []string{s.ID, s.Name, "-", "-", "-", "-"})
					continue
				}
				rows = append(rows, []string{s.ID, s.Name, c.ID, string(c.Status), fmt.Sprint(c.TrainingPostCount), truncate(c.CommunicationStyle(), 30)})
			}
			return rows
		})
	},
}

var clonesShowCmd = &cobra.Command{
	Use:   "show <subject-id>",
	Short: "Show a subject's clone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.client.GetClone(cmd.Context(), args[0])
		if api.IsNotFound(err) {
			printWarning("Subject %s has no clone yet.", args[0])
			return nil
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), c)
	},
}

var clonesTrainCmd = &cobra.Command{
	Use:   "train <subject-id>",
	Short: "Retrain a subject's clone on recent posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.dash.Clones.Load(ctx); err != nil {
			return err
		}
		printStep("Training clone...")
		return a.dash.Clones.Retrain(ctx, args[0])
	},
}

var clonesChatCmd = &cobra.Command{
	Use:   "chat <subject-id>",
	Short: "Chat with a subject's clone (reads lines from stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")

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

		ctx := cmd.Context()
		if err := a.dash.Clones.Load(ctx); err != nil {
			return err
		}
		session, err := a.dash.Clones.Session(args[0], locale.Current)
		if err != nil {
			return err
		}

		if message != "" {
			return chatTurn(cmd, session, message)
		}

		printStep("Chatting in %s. Ctrl-D to end.", locale.Name(locale.Current()))
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(cmd.OutOrStdout(), colorize(colorBold, "you> "))
			if !scanner.Scan() {
				fmt.Fprintln(cmd.OutOrStdout())
				return scanner.Err()
			}
			if err := chatTurn(cmd, session, scanner.Text()); err != nil {
				printError("%v", err)
			}
		}
	},
}

// chatTurn sends one message and prints the reply with its evaluation.
func chatTurn(cmd *cobra.Command, session *viewmodel.ChatSession, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := session.Send(cmd.Context(), text); err != nil {
		return err
	}
	msgs := session.Messages()
	reply := msgs[len(msgs)-1]
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s\n", colorize(colorCyan, string(reply.Role)+">"), reply.Content)
	if score, ok := session.LastScore(); ok {
		fmt.Fprintf(w, "  effectiveness: %.0f%%\n", score*100)
		for _, s := range session.LastSuggestions() {
			fmt.Fprintf(w, "  tip: %s\n", s)
		}
	}
	return nil
}

var clonesHistoryCmd = &cobra.Command{
	Use:   "history <subject-id>",
	Short: "Show stored conversations with a clone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deleteID, _ := cmd.Flags().GetString("delete")

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		lab := a.dash.Clones
		if err := lab.Load(ctx); err != nil {
			return err
		}
		if deleteID != "" {
			if err := lab.DeleteConversation(ctx, args[0], deleteID); err != nil {
				return err
			}
			printSuccess("Deleted conversation %s", deleteID)
			return nil
		}

		convs, err := lab.History(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), convs)
		}
		if len(convs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No conversations yet.")
			return nil
		}
		w := cmd.OutOrStdout()
		for _, c := range convs {
			fmt.Fprintf(w, "%s  %s  (%d messages)\n", colorize(colorCyan, c.ID), c.CreatedAt, len(c.Messages))
			for _, m := range c.Messages {
				fmt.Fprintf(w, "  %s: %s\n", m.Role, truncate(m.Content, 80))
			}
		}
		return nil
	},
}

func init() {
	clonesChatCmd.Flags().String("message", "", "send a single message and exit")
	clonesHistoryCmd.Flags().String("delete", "", "delete the conversation with this id")

	clonesCmd.AddCommand(clonesListCmd, clonesShowCmd, clonesTrainCmd, clonesChatCmd, clonesHistoryCmd)
}
