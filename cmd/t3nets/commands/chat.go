// ABOUTME: Chat command sends messages through the router from the terminal
// ABOUTME: One-shot with an argument, otherwise an interactive readline session
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/WildEllie/t3nets/internal/models"
	"github.com/WildEllie/t3nets/internal/routing"
)

var (
	chatConversation string
	chatPlain        bool
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the assistant",
		Long: `Send a message through the router.

With a message argument, prints one reply and exits. Without one,
starts an interactive session; type /clear to forget the conversation
and /quit (or Ctrl-D) to leave.`,
		Example: `  t3nets chat "what's blocking the sprint"
  t3nets chat "sprint status --raw"
  t3nets chat --conversation standup`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().StringVarP(&chatConversation, "conversation", "c", "cli-default", "Conversation id")
	cmd.Flags().BoolVar(&chatPlain, "plain", false, "Print replies without markdown rendering")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	session := &chatSession{
		router:       a.Router,
		history:      a.Store,
		tenantID:     a.Tenant.ID,
		conversation: chatConversation,
		out:          cmd.OutOrStdout(),
		render:       !chatPlain && !wantJSON(),
	}

	if len(args) == 1 {
		return session.send(cmd.Context(), args[0])
	}
	return session.repl(cmd.Context())
}

type chatRouter interface {
	HandleMessage(ctx context.Context, req routing.Request) (*routing.Reply, error)
}

type chatHistory interface {
	ClearConversation(ctx context.Context, tenantID, conversationID string) error
}

// chatSession is one terminal conversation
type chatSession struct {
	router       chatRouter
	history      chatHistory
	tenantID     string
	conversation string
	out          io.Writer
	render       bool
}

func (s *chatSession) send(ctx context.Context, text string) error {
	reply, err := s.router.HandleMessage(ctx, routing.Request{
		TenantID:       s.tenantID,
		ConversationID: s.conversation,
		Text:           text,
		Channel:        models.ChannelCLI,
		User:           &models.User{ID: "cli-user", TenantID: s.tenantID},
	})
	if errors.Is(err, routing.ErrEmptyMessage) {
		return errors.New("message is empty")
	}
	if err != nil {
		return err
	}

	if wantJSON() {
		return writeJSON(s.out, reply)
	}

	body := reply.Text
	switch {
	case reply.Failed:
		body = errorStyle.Render(reply.Text)
	case reply.Raw:
		// Raw output is JSON; keep it byte-exact for piping
	case s.render:
		body = renderMarkdown(reply.Text, 0)
	}
	_, _ = fmt.Fprintln(s.out, body)
	if !quiet {
		_, _ = fmt.Fprintln(s.out, routeBadge(reply.Route, reply.Skill, reply.Action, reply.Metrics.Tokens))
	}
	return nil
}

func (s *chatSession) repl(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          titleStyle.Render("you> "),
		HistoryFile:     filepath.Join(xdg.StateHome, "t3nets", "chat_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start prompt: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(s.out, mutedStyle.Render(fmt.Sprintf("Conversation %s. /clear resets it, /quit exits.", s.conversation)))
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		done, err := s.handleLine(ctx, line)
		if err != nil {
			_, _ = fmt.Fprintln(s.out, errorStyle.Render(err.Error()))
		}
		if done {
			return nil
		}
	}
}

// handleLine runs one REPL line and reports whether the session should end
func (s *chatSession) handleLine(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false, nil
	case "/quit", "/exit":
		return true, nil
	case "/clear":
		if err := s.history.ClearConversation(ctx, s.tenantID, s.conversation); err != nil {
			return false, fmt.Errorf("failed to clear conversation: %w", err)
		}
		_, _ = fmt.Fprintln(s.out, mutedStyle.Render("Conversation cleared."))
		return false, nil
	}
	return false, s.send(ctx, line)
}
