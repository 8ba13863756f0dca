package redis

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tracememory/pkg/llm"
	"github.com/papercomputeco/tracememory/pkg/transcript"
)

var _ transcript.Store = (*Store)(nil)

var _ = Describe("Redis transcript store", func() {
	It("namespaces keys per session", func() {
		Expect(Key("abc")).To(Equal("transcript:abc"))
	})

	It("round trips messages through the list encoding", func() {
		a, err := encode(llm.Message{Role: "user", Content: "hi \"there\""})
		Expect(err).NotTo(HaveOccurred())
		b, err := encode(llm.Message{Role: "assistant", Content: "hello"})
		Expect(err).NotTo(HaveOccurred())

		msgs, err := decode([]string{a, b})
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(Equal([]llm.Message{
			{Role: "user", Content: "hi \"there\""},
			{Role: "assistant", Content: "hello"},
		}))
	})

	It("decodes an empty list to an empty slice", func() {
		msgs, err := decode(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).NotTo(BeNil())
		Expect(msgs).To(BeEmpty())
	})

	It("rejects corrupt entries", func() {
		_, err := decode([]string{"not json"})
		Expect(err).To(MatchError(ContainSubstring("decoding message")))
	})

	It("requires a url", func() {
		_, err := NewStore(context.Background(), Config{})
		Expect(err).To(HaveOccurred())
	})

	It("rejects malformed urls", func() {
		_, err := NewStore(context.Background(), Config{URL: "http://nope"})
		Expect(err).To(MatchError(ContainSubstring("parsing redis url")))
	})
})
