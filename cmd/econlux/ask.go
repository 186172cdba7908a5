package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/comigor/econlux-go/internal/agent"
	"github.com/comigor/econlux-go/internal/conversation"
)

var (
	sessionID string
	qaOnly    bool
)

var (
	answerStyle     = lipgloss.NewStyle().Padding(0, 1).MarginBottom(1)
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C8A96A"))
	metaStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Italic(true)
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the copilot a question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		question := strings.Join(args, " ")
		out := cmd.OutOrStdout()
		if qaOnly {
			ans, err := a.Service.Ask(cmd.Context(), question, "")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, answerStyle.Render(ans.AnswerMD))
			return nil
		}

		res, err := a.Service.Chat(cmd.Context(), agent.ChatRequest{SessionID: sessionID, Message: question})
		if err != nil {
			return err
		}
		renderTurn(out, res)
		return nil
	},
}

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Generate today's economic briefing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Service.Briefing(cmd.Context())
		if err != nil {
			return err
		}
		renderTurn(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&sessionID, "session", "", "Continue an existing session")
	askCmd.Flags().BoolVar(&qaOnly, "qa", false, "Single-shot answer without tools")
}

// renderTurn prints the final answer followed by widget, source and
// follow-up summaries.
func renderTurn(w io.Writer, res *agent.TurnResult) {
	fmt.Fprintln(w, metaStyle.Render("session "+res.SessionID))

	answer := "(no answer: the tool round limit was reached)"
	if !res.Exhausted {
		answer = ""
		for i := len(res.Messages) - 1; i >= 0; i-- {
			m := res.Messages[i]
			if m.Role == conversation.RoleAssistant && m.Content != "" {
				answer = m.Content
				break
			}
		}
	}
	fmt.Fprintln(w, answerStyle.Render(answer))

	if len(res.Widgets) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Widgets"))
		for _, wd := range res.Widgets {
			line := string(wd.Type())
			if c, ok := wd.Chart(); ok {
				line = fmt.Sprintf("chart %s [%s] %s", c.Spec.ChartType, strings.Join(c.Spec.Series, ", "), c.Source)
			}
			fmt.Fprintln(w, metaStyle.Render("  • "+line))
		}
	}
	if len(res.Sources) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Sources"))
		for _, s := range res.Sources {
			fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("  • %s (%s)", s.Name, s.UpdatedAt)))
		}
	}
	if len(res.Suggestions) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Try next"))
		for _, s := range res.Suggestions {
			fmt.Fprintln(w, suggestionStyle.Render("  → "+s))
		}
	}
}
