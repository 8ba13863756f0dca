package transcript_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tracememory/pkg/llm"
	"github.com/papercomputeco/tracememory/pkg/transcript"
)

var _ = Describe("Export", func() {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	It("renders the transcript document", func() {
		exp := transcript.NewExport("ada", "s1", []llm.Message{{Role: "user", Content: "hi"}}, now)
		data, err := exp.JSON()
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKeyWithValue("user_id", "ada"))
		Expect(decoded).To(HaveKeyWithValue("session_id", "s1"))
		Expect(decoded).To(HaveKeyWithValue("exported_at", "2026-03-04T05:06:07.000000Z"))
		Expect(decoded["messages"]).To(HaveLen(1))
	})

	It("emits an empty message array for empty transcripts", func() {
		data, err := transcript.NewExport("ada", "s1", nil, now).JSON()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"messages": []`))
	})

	It("names the download after user and session", func() {
		Expect(transcript.NewExport("ada", "s1", nil, now).Filename()).To(Equal("transcript_ada_s1.json"))
	})
})
