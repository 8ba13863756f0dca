package runtime_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tracememory/pkg/chat"
	"github.com/papercomputeco/tracememory/pkg/llm"
	"github.com/papercomputeco/tracememory/pkg/memory"
	"github.com/papercomputeco/tracememory/pkg/memory/local"
	"github.com/papercomputeco/tracememory/pkg/runtime"
	"github.com/papercomputeco/tracememory/pkg/sessiondiff"
	"github.com/papercomputeco/tracememory/pkg/store"
)

type scriptedCompleter struct {
	reply string
	reqs  []llm.CompletionRequest
}

func (c *scriptedCompleter) Name() string { return "scripted" }

func (c *scriptedCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	c.reqs = append(c.reqs, req)
	return c.reply, nil
}

// flakyBackend fails CreateSession on demand.
type flakyBackend struct {
	*local.Backend
	createErr error
}

func (b *flakyBackend) CreateSession(ctx context.Context, userID, sessionID string) (string, error) {
	if b.createErr != nil {
		return "", b.createErr
	}
	return b.Backend.CreateSession(ctx, userID, sessionID)
}

var _ = Describe("Session", func() {
	var (
		ctx       context.Context
		backend   *local.Backend
		completer *scriptedCompleter
		st        *store.Store
		sess      *runtime.Session
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = local.NewBackend(local.Config{Enabled: true})
		completer = &scriptedCompleter{reply: "Noted!"}

		var err error
		st, err = store.New(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		sess, err = runtime.New(runtime.Config{
			Backend:   backend,
			Completer: completer,
			Store:     st,
			Now:       func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("New", func() {
		It("requires a backend, completer and store", func() {
			_, err := runtime.New(runtime.Config{Completer: completer, Store: st})
			Expect(err).To(MatchError(memory.ErrNotConfigured))

			_, err = runtime.New(runtime.Config{Backend: backend, Store: st})
			Expect(err).To(HaveOccurred())

			_, err = runtime.New(runtime.Config{Backend: backend, Completer: completer})
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid thresholds", func() {
			_, err := runtime.New(runtime.Config{Backend: backend, Completer: completer, Store: st, MinRating: 2})
			Expect(err).To(MatchError(runtime.ErrInvalidRating))
		})

		It("defaults the threshold", func() {
			Expect(sess.MinRating()).To(Equal(memory.DefaultMinRating))
		})
	})

	It("refuses every operation before Init", func() {
		_, err := sess.Chat(ctx, "hi")
		Expect(err).To(MatchError(runtime.ErrNotInitialized))
		_, err = sess.NewSession(ctx)
		Expect(err).To(MatchError(runtime.ErrNotInitialized))
		_, err = sess.Facts(ctx)
		Expect(err).To(MatchError(runtime.ErrNotInitialized))
		_, err = sess.Messages(ctx)
		Expect(err).To(MatchError(runtime.ErrNotInitialized))
		_, err = sess.Info()
		Expect(err).To(MatchError(runtime.ErrNotInitialized))
	})

	Describe("Init", func() {
		It("derives the user id and records the session", func() {
			Expect(sess.Init(ctx, " Ada ", "Lovelace")).To(Succeed())

			info, err := sess.Info()
			Expect(err).NotTo(HaveOccurred())
			Expect(info.UserID).To(Equal("adalovelace"))
			Expect(info.FirstName).To(Equal("Ada"))
			Expect(info.SessionID).NotTo(BeEmpty())

			ids, err := st.ListSessions("adalovelace")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{info.SessionID}))
		})

		It("defaults a blank first name", func() {
			Expect(sess.Init(ctx, "", "")).To(Succeed())
			info, _ := sess.Info()
			Expect(info.UserID).To(Equal("user"))
			Expect(info.FirstName).To(Equal(runtime.DefaultFirstName))
		})

		It("resumes a known session id", func() {
			Expect(sess.Resume(ctx, "Ada", "Lovelace", "thread-1")).To(Succeed())
			info, _ := sess.Info()
			Expect(info.SessionID).To(Equal("thread-1"))

			Expect(sess.Resume(ctx, "Ada", "Lovelace", "")).To(HaveOccurred())
		})
	})

	Describe("Init after a failed re-init", func() {
		It("keeps the previous user and session", func() {
			flaky := &flakyBackend{Backend: backend}
			s, err := runtime.New(runtime.Config{Backend: flaky, Completer: completer, Store: st})
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Init(ctx, "Alice", "A")).To(Succeed())
			before, err := s.Info()
			Expect(err).NotTo(HaveOccurred())

			flaky.createErr = errors.New("zep down")
			Expect(s.Init(ctx, "Bob", "B")).To(MatchError(ContainSubstring("zep down")))

			after, err := s.Info()
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
			Expect(after.UserID).To(Equal("alicea"))

			_, err = s.Pin(memory.FactItem{Text: "Likes tea"})
			Expect(err).NotTo(HaveOccurred())

			alice, err := st.GetPinnedFacts("alicea")
			Expect(err).NotTo(HaveOccurred())
			Expect(alice).To(HaveLen(1))
			bob, err := st.GetPinnedFacts("bobb")
			Expect(err).NotTo(HaveOccurred())
			Expect(bob).To(BeEmpty())
		})
	})

	Describe("Chat", func() {
		BeforeEach(func() {
			Expect(sess.Init(ctx, "Ada", "Lovelace")).To(Succeed())
		})

		It("rejects blank input", func() {
			_, err := sess.Chat(ctx, "   ")
			Expect(err).To(MatchError(chat.ErrEmptyMessage))
		})

		It("records both sides of the turn", func() {
			res, err := sess.Chat(ctx, "I love hiking in the mountains")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Reply).To(Equal("Noted!"))
			Expect(res.MemoryContext).To(Equal("- I love hiking in the mountains"))

			msgs, err := sess.Messages(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(Equal([]llm.Message{
				{Role: memory.RoleUser, Content: "I love hiking in the mountains"},
				{Role: memory.RoleAssistant, Content: "Noted!"},
			}))

			summary, err := sess.Analytics()
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Turns).To(Equal(1))
			Expect(summary.HitRate).To(Equal(1.0))
		})

		It("keeps only the user message when the model is silent", func() {
			completer.reply = "  "
			_, err := sess.Chat(ctx, "hello there")
			Expect(err).To(MatchError(chat.ErrNoResponse))

			msgs, _ := sess.Messages(ctx)
			Expect(msgs).To(HaveLen(1))
		})

		It("sends pinned facts with the prompt", func() {
			_, err := sess.Pin(memory.FactItem{Text: "Prefers metric units"})
			Expect(err).NotTo(HaveOccurred())

			_, err = sess.Chat(ctx, "How far is a 10k?")
			Expect(err).NotTo(HaveOccurred())
			Expect(completer.reqs[0].System).To(ContainSubstring("### PINNED FACTS"))
			Expect(completer.reqs[0].System).To(ContainSubstring("- Prefers metric units"))
		})

		It("clears the transcript without touching memory", func() {
			_, err := sess.Chat(ctx, "I love hiking in the mountains")
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.ClearMessages(ctx)).To(Succeed())

			msgs, _ := sess.Messages(ctx)
			Expect(msgs).To(BeEmpty())

			mc, err := sess.MemoryContext(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(mc).To(ContainSubstring("hiking"))
		})

		It("exports the transcript", func() {
			_, err := sess.Chat(ctx, "hello there")
			Expect(err).NotTo(HaveOccurred())

			exp, err := sess.Export(ctx)
			Expect(err).NotTo(HaveOccurred())
			info, _ := sess.Info()
			Expect(exp.Filename()).To(Equal("transcript_adalovelace_" + info.SessionID + ".json"))
			Expect(exp.ExportedAt).To(Equal("2026-05-01T12:00:00.000000Z"))
			Expect(exp.Messages).To(HaveLen(2))
		})
	})

	Describe("NewSession", func() {
		It("opens a fresh session for the same user", func() {
			Expect(sess.Init(ctx, "Ada", "Lovelace")).To(Succeed())
			first, _ := sess.Info()
			_, err := sess.Chat(ctx, "I love hiking in the mountains")
			Expect(err).NotTo(HaveOccurred())

			second, err := sess.NewSession(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).NotTo(Equal(first.SessionID))

			records, err := sess.Sessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))

			msgs, _ := sess.Messages(ctx)
			Expect(msgs).To(BeEmpty())

			summary, _ := sess.Analytics()
			Expect(summary.Turns).To(BeZero())

			mc, err := sess.MemoryContext(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(mc).To(ContainSubstring("hiking"))
		})
	})

	Describe("memory cards", func() {
		BeforeEach(func() {
			Expect(sess.Init(ctx, "Ada", "Lovelace")).To(Succeed())
		})

		It("extracts facts from the current context", func() {
			_, err := sess.Chat(ctx, "I love hiking in the mountains")
			Expect(err).NotTo(HaveOccurred())

			facts, err := sess.Facts(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(facts).To(HaveLen(1))
			Expect(facts[0].Text).To(Equal("I love hiking in the mountains"))
		})

		It("pins once and persists immediately", func() {
			rating := 0.9
			_, err := sess.Pin(memory.FactItem{Text: "Likes Go", Rating: &rating})
			Expect(err).NotTo(HaveOccurred())
			pins, err := sess.Pin(memory.FactItem{Text: "Likes Go"})
			Expect(err).NotTo(HaveOccurred())
			Expect(pins).To(HaveLen(1))

			stored, err := st.GetPinnedFacts("adalovelace")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(HaveLen(1))
			Expect(*stored[0].Rating).To(Equal(0.9))
		})

		It("rejects empty pins", func() {
			_, err := sess.Pin(memory.FactItem{Text: "  "})
			Expect(err).To(MatchError(runtime.ErrEmptyFact))
		})

		It("unpins by text", func() {
			_, _ = sess.Pin(memory.FactItem{Text: "Likes Go"})
			_, _ = sess.Pin(memory.FactItem{Text: "Lives in Austin"})

			pins, err := sess.Unpin("Likes Go")
			Expect(err).NotTo(HaveOccurred())
			Expect(pins).To(HaveLen(1))
			Expect(pins[0].Text).To(Equal("Lives in Austin"))

			pins, err = sess.Unpin("unknown")
			Expect(err).NotTo(HaveOccurred())
			Expect(pins).To(HaveLen(1))
		})

		It("edits text and source", func() {
			_, _ = sess.Pin(memory.FactItem{Text: "Likes Go"})

			src := " chat "
			pins, err := sess.EditPinned("Likes Go", " Loves Go ", &src)
			Expect(err).NotTo(HaveOccurred())
			Expect(pins[0].Text).To(Equal("Loves Go"))
			Expect(*pins[0].Source).To(Equal("chat"))

			blank := ""
			pins, err = sess.EditPinned("Loves Go", "", &blank)
			Expect(err).NotTo(HaveOccurred())
			Expect(pins[0].Text).To(Equal("Loves Go"))
			Expect(pins[0].Source).To(BeNil())

			_, err = sess.EditPinned("Likes Go", "x", nil)
			Expect(err).To(MatchError(runtime.ErrPinNotFound))
		})
	})

	Describe("Diff", func() {
		BeforeEach(func() {
			Expect(sess.Init(ctx, "Ada", "Lovelace")).To(Succeed())
		})

		It("needs two sessions", func() {
			_, err := sess.Diff(ctx, "", "")
			Expect(err).To(MatchError(sessiondiff.ErrNotEnoughSessions))
		})

		It("compares the two most recent sessions by default", func() {
			_, err := sess.Chat(ctx, "I love hiking in the mountains")
			Expect(err).NotTo(HaveOccurred())
			_, err = sess.NewSession(ctx)
			Expect(err).NotTo(HaveOccurred())
			_, err = sess.Chat(ctx, "I moved to Denver last year")
			Expect(err).NotTo(HaveOccurred())

			res, err := sess.Diff(ctx, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Diff).To(ContainSubstring("+- I moved to Denver last year"))
		})

		It("rejects the same session twice", func() {
			first, _ := sess.Info()
			_, err := sess.NewSession(ctx)
			Expect(err).NotTo(HaveOccurred())

			_, err = sess.Diff(ctx, first.SessionID, first.SessionID)
			Expect(err).To(MatchError(sessiondiff.ErrSameSession))
		})
	})

	It("validates threshold changes", func() {
		Expect(sess.SetMinRating(-0.1)).To(MatchError(runtime.ErrInvalidRating))
		Expect(sess.SetMinRating(0.3)).To(Succeed())
		Expect(sess.MinRating()).To(Equal(0.3))
	})

	It("closes its collaborators", func() {
		Expect(sess.Close()).To(Succeed())
	})
})

var _ = Describe("Session.Context", func() {
	It("reads the backend at an explicit threshold", func() {
		ctx := context.Background()
		st, err := store.New(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		sess, err := runtime.New(runtime.Config{
			Backend:   local.NewBackend(local.Config{Enabled: true}),
			Completer: &scriptedCompleter{reply: "ok"},
			Store:     st,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = sess.Context(ctx, 0.5)
		Expect(err).To(MatchError(runtime.ErrNotInitialized))

		Expect(sess.Init(ctx, "Ada", "")).To(Succeed())
		_, err = sess.Chat(ctx, "I love hiking in the mountains")
		Expect(err).NotTo(HaveOccurred())

		mc, err := sess.Context(ctx, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(mc.Text).To(Equal("- I love hiking in the mountains"))

		_, err = sess.Context(ctx, 1.5)
		Expect(err).To(MatchError(runtime.ErrInvalidRating))
	})
})
