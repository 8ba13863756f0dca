package chatcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/papercomputeco/tracememory/pkg/cliui"
	"github.com/papercomputeco/tracememory/pkg/memory"
	"github.com/papercomputeco/tracememory/pkg/store"
)

const helpText = `  /new               start a new session
  /sessions          list this user's sessions
  /context           show the memory context sent with the next turn
  /facts             list fact candidates from memory
  /pin <text|#n>     pin a fact, or fact n from the last /facts
  /unpin <text|#n>   unpin a fact, or pinned fact n
  /pins              list pinned facts
  /rating [value]    show or set the minimum fact rating
  /diff [a b]        diff the memory of two sessions (default: last two)
  /stats             show memory usage for this session
  /export [path]     write the transcript as JSON
  /clear             clear the transcript (memory is kept)
  exit, quit         leave`

var errUsage = errors.New("unknown command, type /help")

func (c *chatCommander) command(ctx context.Context, input string) error {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/help":
		fmt.Fprintln(c.out, helpText)
		fmt.Fprintln(c.out)
		return nil
	case "/new":
		return c.newSession(ctx)
	case "/sessions":
		return c.listSessions()
	case "/context":
		return c.showContext(ctx)
	case "/facts":
		return c.listFacts(ctx)
	case "/pin":
		return c.pin(arg)
	case "/unpin":
		return c.unpin(arg)
	case "/pins":
		pins, err := c.session.Pinned()
		if err != nil {
			return err
		}
		c.printPins(pins)
		return nil
	case "/rating":
		return c.rating(arg)
	case "/diff":
		return c.diff(ctx, arg)
	case "/stats":
		return c.stats()
	case "/export":
		return c.export(ctx, arg)
	case "/clear":
		if err := c.session.ClearMessages(ctx); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "  %s Transcript cleared\n\n", cliui.SuccessMark)
		return nil
	default:
		return errUsage
	}
}

func (c *chatCommander) newSession(ctx context.Context) error {
	sid, err := c.session.NewSession(ctx)
	if err != nil {
		return err
	}
	c.lastFacts = nil
	fmt.Fprintf(c.out, "  %s New session %s\n\n", cliui.SuccessMark, cliui.IDStyle.Render(sid))
	return c.saveActive()
}

func (c *chatCommander) listSessions() error {
	sessions, err := c.session.Sessions()
	if err != nil {
		return err
	}
	info, _ := c.session.Info()

	for _, s := range sessions {
		mark := " "
		if s.ID == info.SessionID {
			mark = "*"
		}
		created := ""
		if s.CreatedAt != nil {
			created = *s.CreatedAt
		}
		fmt.Fprintf(c.out, "  %s %s %s\n", mark, cliui.IDStyle.Render(s.ID), cliui.DimStyle.Render(created))
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) showContext(ctx context.Context) error {
	text, err := c.session.MemoryContext(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No memory context yet."))
		return nil
	}
	fmt.Fprintf(c.out, "%s\n\n", text)
	return nil
}

func (c *chatCommander) listFacts(ctx context.Context) error {
	facts, err := c.session.Facts(ctx)
	if err != nil {
		return err
	}
	c.lastFacts = facts

	if len(facts) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No facts at this rating threshold."))
		return nil
	}
	for i, f := range facts {
		fmt.Fprintf(c.out, "  %2d. %s%s\n", i+1, f.Text, cliui.FactMeta(f.Rating, f.Source))
	}
	fmt.Fprintln(c.out)
	return nil
}

// index parses "#n" into a zero-based index.
func index(arg string, n int) (int, bool, error) {
	if !strings.HasPrefix(arg, "#") {
		return 0, false, nil
	}
	i, err := strconv.Atoi(arg[1:])
	if err != nil || i < 1 || i > n {
		return 0, true, fmt.Errorf("no item %s", arg)
	}
	return i - 1, true, nil
}

func (c *chatCommander) pin(arg string) error {
	item := memory.FactItem{Text: arg}
	i, ok, err := index(arg, len(c.lastFacts))
	if err != nil {
		return err
	}
	if ok {
		item = c.lastFacts[i]
	}

	pins, err := c.session.Pin(item)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "  %s Pinned\n", cliui.SuccessMark)
	c.printPins(pins)
	return nil
}

func (c *chatCommander) unpin(arg string) error {
	text := arg
	if strings.HasPrefix(arg, "#") {
		pins, err := c.session.Pinned()
		if err != nil {
			return err
		}
		i, _, err := index(arg, len(pins))
		if err != nil {
			return err
		}
		text = pins[i].Text
	}

	pins, err := c.session.Unpin(text)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "  %s Unpinned\n", cliui.SuccessMark)
	c.printPins(pins)
	return nil
}

func (c *chatCommander) printPins(pins []store.PinnedFact) {
	if len(pins) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No pinned facts."))
		return
	}
	for i, p := range pins {
		fmt.Fprintf(c.out, "  %2d. %s%s\n", i+1, p.Text, cliui.FactMeta(p.Rating, p.Source))
	}
	fmt.Fprintln(c.out)
}

func (c *chatCommander) rating(arg string) error {
	if arg != "" {
		r, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid rating %q", arg)
		}
		if err := c.session.SetMinRating(r); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.out, "  %s %.2f\n\n", cliui.KeyStyle.Render("Min rating:"), c.session.MinRating())
	return nil
}

func (c *chatCommander) diff(ctx context.Context, arg string) error {
	var a, b string
	if fields := strings.Fields(arg); len(fields) > 0 {
		if len(fields) != 2 {
			return errors.New("usage: /diff [session-a session-b]")
		}
		a, b = fields[0], fields[1]
	}

	result, err := c.session.Diff(ctx, a, b)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("A:"), cliui.IDStyle.Render(result.A))
	fmt.Fprintf(c.out, "  %s %s\n\n", cliui.KeyStyle.Render("B:"), cliui.IDStyle.Render(result.B))
	fmt.Fprintln(c.out, result.Diff)
	return nil
}

func (c *chatCommander) stats() error {
	s, err := c.session.Analytics()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "  %s %d\n", cliui.KeyStyle.Render("Turns:"), s.Turns)
	fmt.Fprintf(c.out, "  %s %.0f%%\n", cliui.KeyStyle.Render("Memory hit rate:"), s.HitRate*100)
	fmt.Fprintf(c.out, "  %s %d used, %d not used\n\n", cliui.KeyStyle.Render("Turns with memory:"), s.MemoryUsed, s.MemoryNotUsed)
	return nil
}

func (c *chatCommander) export(ctx context.Context, path string) error {
	e, err := c.session.Export(ctx)
	if err != nil {
		return err
	}
	body, err := e.JSON()
	if err != nil {
		return err
	}
	if path == "" {
		path = e.Filename()
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	fmt.Fprintf(c.out, "  %s Wrote %s %s\n\n", cliui.SuccessMark, path, cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(e.Messages))))
	return nil
}
