package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tracememory/pkg/cliui"
)

var _ = Describe("cliui", func() {
	It("formats sub-second durations in milliseconds", func() {
		Expect(cliui.FormatDuration(42 * time.Millisecond)).To(Equal("42ms"))
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})

	It("picks marks by error", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("x"))).To(Equal(cliui.FailMark))
	})

	It("reports the step result and passes the error through", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")
		err := cliui.Step(&buf, "Creating session", func() error { return boom })
		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("Creating session"))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
	})

	It("skips the spinner on non-terminal writers", func() {
		var buf bytes.Buffer
		Expect(cliui.Step(&buf, "Connecting to memory", func() error { return nil })).To(Succeed())
		Expect(buf.String()).To(HavePrefix("  " + cliui.SuccessMark + " Connecting to memory"))
		Expect(buf.String()).NotTo(ContainSubstring("\r"))
	})

	It("treats buffers as non-terminals", func() {
		var buf bytes.Buffer
		Expect(cliui.IsTerminal(&buf)).To(BeFalse())
		Expect(cliui.Width(&buf)).To(Equal(cliui.DefaultWrap))
	})

	It("renders fact metadata", func() {
		rating := 0.9
		source := "chat"
		Expect(cliui.FactMeta(nil, nil)).To(BeEmpty())
		Expect(cliui.FactMeta(&rating, &source)).To(ContainSubstring("rating 0.90, chat"))
		Expect(cliui.FactMeta(nil, &source)).To(ContainSubstring("(chat)"))
	})

	It("writes warnings", func() {
		var buf bytes.Buffer
		cliui.Warn(&buf, "key looks odd")
		Expect(buf.String()).To(ContainSubstring("key looks odd"))
	})
})
