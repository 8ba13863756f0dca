// Package chatcmder provides the chat command, an interactive console
// frontend over a memory-grounded copilot session.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/cliui"
	"github.com/papercomputeco/tracememory/pkg/config"
	"github.com/papercomputeco/tracememory/pkg/dotdir"
	"github.com/papercomputeco/tracememory/pkg/identity"
	"github.com/papercomputeco/tracememory/pkg/logger"
	"github.com/papercomputeco/tracememory/pkg/memory"
	"github.com/papercomputeco/tracememory/pkg/runtime"
	"github.com/papercomputeco/tracememory/pkg/start"
	"github.com/papercomputeco/tracememory/pkg/utils"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	memoryProvider string
	llmProvider    string
	model          string
	ollamaHost     string
	minRating      float64
	firstName      string
	lastName       string
	storageDir     string
	redisURL       string
	kafkaBrokers   string
	resume         bool
	plain          bool
	debug          bool
	configDir      string

	cfg      *config.Config
	logger   *slog.Logger
	session  *runtime.Session
	markdown bool

	// lastFacts backs "/pin #n".
	lastFacts []memory.FactItem

	in  *bufio.Scanner
	out io.Writer
	err io.Writer
}

const chatLongDesc string = `Start an interactive chat session grounded in long-term memory.

Each turn fetches the session's memory context (cached briefly), adds your
pinned facts and sends both to the model with your message. Both sides of
the conversation are written back to memory.

The user id is derived from --first-name and --last-name (or user.* in
config). Use --resume to continue the last session of that user.

Type /help inside the chat for commands. exit, quit or Ctrl+D ends it.

Examples:
  tracememory chat --first-name Ada --last-name Lovelace
  tracememory chat --memory-provider local --provider ollama
  tracememory chat --resume --min-rating 0.5`

const chatShortDesc string = "Interactive memory-grounded chat"

var chatFlags = []string{
	config.FlagMemoryProvider,
	config.FlagLLMProvider,
	config.FlagModel,
	config.FlagOllamaHost,
	config.FlagMinRating,
	config.FlagFirstName,
	config.FlagLastName,
	config.FlagStorageDir,
	config.FlagRedisURL,
	config.FlagKafkaBrokers,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			var err error
			cmder.cfg, err = config.LoadForCommand(cmd, chatFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.in = bufio.NewScanner(cmd.InOrStdin())
			cmder.out = cmd.OutOrStdout()
			cmder.err = cmd.ErrOrStderr()
			cmder.markdown = !cmder.plain && cliui.IsTerminal(cmder.out)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return cmder.run(ctx)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryProvider, &cmder.memoryProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &cmder.llmProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagOllamaHost, &cmder.ollamaHost)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagMinRating, &cmder.minRating)
	config.AddStringFlag(cmd, config.Flags, config.FlagFirstName, &cmder.firstName)
	config.AddStringFlag(cmd, config.Flags, config.FlagLastName, &cmder.lastName)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDir, &cmder.storageDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagRedisURL, &cmder.redisURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	cmd.Flags().BoolVarP(&cmder.resume, "resume", "r", false, "Resume the last active session of this user")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print replies without markdown rendering")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(c.err))

	built, err := start.Build(ctx, c.cfg, c.logger)
	if err != nil {
		if apperr.IsConfig(err) {
			return errors.New(apperr.UserMessage(err))
		}
		return err
	}
	c.session = built.Session
	defer func() {
		if err := c.session.Close(); err != nil {
			c.logger.Warn("closing session", "error", err)
		}
	}()

	fmt.Fprintln(c.out)
	for _, w := range built.Warnings {
		cliui.Warn(c.err, w)
	}

	first, last, ok := c.identity()
	if !ok {
		return nil
	}

	if err := c.open(ctx, first, last); err != nil {
		return err
	}

	c.printHeader()
	return c.loop(ctx)
}

// identity returns the configured name or asks for it. ok is false when
// input ends before a name is given.
func (c *chatCommander) identity() (string, string, bool) {
	first, last := c.cfg.User.FirstName, c.cfg.User.LastName
	if first != "" {
		return first, last, true
	}

	fmt.Fprint(c.out, "  first name: ")
	if !c.in.Scan() {
		return "", "", false
	}
	first = strings.TrimSpace(c.in.Text())

	fmt.Fprint(c.out, "  last name: ")
	if !c.in.Scan() {
		return "", "", false
	}
	last = strings.TrimSpace(c.in.Text())
	return first, last, true
}

func (c *chatCommander) open(ctx context.Context, first, last string) error {
	ddm := dotdir.NewManager()

	var active *dotdir.ActiveSession
	if c.resume {
		var err error
		active, err = ddm.LoadActiveSession(c.configDir)
		if err != nil {
			return fmt.Errorf("loading active session: %w", err)
		}
		if active != nil && active.UserID != identity.GenerateUserID(first, last) {
			cliui.Warn(c.err, "last active session belongs to another user, starting a new one")
			active = nil
		}
	}

	err := cliui.Step(c.out, "Connecting to memory", func() error {
		if active != nil {
			return c.session.Resume(ctx, first, last, active.SessionID)
		}
		return c.session.Init(ctx, first, last)
	})
	if err != nil {
		return errors.New(apperr.UserMessage(err))
	}

	return c.saveActive()
}

func (c *chatCommander) saveActive() error {
	info, err := c.session.Info()
	if err != nil {
		return err
	}

	state := &dotdir.ActiveSession{
		UserID:    info.UserID,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		SessionID: info.SessionID,
	}
	if err := dotdir.NewManager().SaveActiveSession(state, c.configDir); err != nil {
		c.logger.Warn("saving active session", "error", err)
	}
	return nil
}

func (c *chatCommander) printHeader() {
	info, _ := c.session.Info()

	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.KeyStyle.Render("User:"), cliui.NameStyle.Render(info.UserID))
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Session:"), cliui.IDStyle.Render(info.SessionID))
	fmt.Fprintf(c.out, "  %s %s\n\n", cliui.KeyStyle.Render("Min rating:"), cliui.ValueStyle.Render(fmt.Sprintf("%.2f", info.MinRating)))
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /help for commands, exit or Ctrl+D to quit."))
}

func (c *chatCommander) loop(ctx context.Context) error {
	for {
		fmt.Fprint(c.out, userPrompt)
		if !c.in.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(c.in.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit", "/exit", "/quit":
			fmt.Fprintln(c.out)
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if err := c.command(ctx, input); err != nil {
				fmt.Fprintf(c.err, "  %s %s\n", cliui.FailMark, apperr.UserMessage(err))
			}
			continue
		}

		if err := c.turn(ctx, input); err != nil {
			fmt.Fprintf(c.err, "  %s %s\n", cliui.FailMark, apperr.UserMessage(err))
		}
	}

	if err := c.in.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) turn(ctx context.Context, input string) error {
	result, err := c.session.Chat(ctx, input)
	if err != nil {
		return err
	}

	c.logger.Debug("turn",
		"memory_chars", result.Event.MemoryContextChars,
		"memory_used", result.Event.MemoryUsed,
		"reply", utils.Truncate(result.Reply, 60),
	)

	reply := result.Reply
	if c.markdown {
		if rendered, err := cliui.RenderMarkdown(reply, cliui.Width(c.out)); err == nil {
			reply = strings.TrimSpace(rendered)
		}
	}

	fmt.Fprintf(c.out, "%s%s\n\n", assistantPrompt, reply)
	return nil
}
