package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/config"
)

const (
	zepJWT    = "z_header.payload.signature"
	openaiKey = "sk-proj-0123456789012345678901234567890123456789012345"
)

var _ = Describe("Validate", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()
		cfg.Memory.APIKey = zepJWT
		cfg.LLM.APIKey = openaiKey
	})

	It("accepts well-formed credentials without warnings", func() {
		warnings, err := cfg.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(BeEmpty())
	})

	It("requires a Zep key", func() {
		cfg.Memory.APIKey = "  "
		_, err := cfg.Validate()
		Expect(apperr.IsConfig(err)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("memory.api_key")))
	})

	It("rejects short Zep keys", func() {
		cfg.Memory.APIKey = "z_short"
		_, err := cfg.Validate()
		Expect(apperr.IsConfig(err)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("too short")))
	})

	It("warns on OpenAI-shaped Zep keys", func() {
		cfg.Memory.APIKey = "sk-1234567890"
		warnings, err := cfg.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(ContainElement(ContainSubstring("looks like an OpenAI key")))
	})

	It("warns on Zep keys without the z_ prefix", func() {
		cfg.Memory.APIKey = "abcdefghijkl"
		warnings, err := cfg.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(ContainElement(ContainSubstring("typically start with 'z_'")))
	})

	It("warns on Zep keys that are not JWT shaped", func() {
		cfg.Memory.APIKey = "z_abcdefghijkl"
		warnings, err := cfg.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(ContainElement(ContainSubstring("3 parts")))
	})

	It("skips Zep checks for the local backend", func() {
		cfg.Memory.Provider = "local"
		cfg.Memory.APIKey = ""
		_, err := cfg.Validate()
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects unknown memory providers", func() {
		cfg.Memory.Provider = "redis"
		_, err := cfg.Validate()
		Expect(apperr.IsConfig(err)).To(BeTrue())
	})

	It("requires an OpenAI key when openai is selected", func() {
		cfg.LLM.Provider = "openai"
		cfg.LLM.APIKey = ""
		_, err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("llm.api_key")))
	})

	It("rejects short OpenAI keys", func() {
		cfg.LLM.APIKey = "sk-1"
		_, err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("too short")))
	})

	It("warns on unusual OpenAI keys", func() {
		cfg.LLM.APIKey = "key-1234567890"
		warnings, err := cfg.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(ContainElement(ContainSubstring("typically start with 'sk-'")))
	})

	It("warns on truncated OpenAI keys", func() {
		cfg.LLM.APIKey = "sk-1234567890"
		warnings, err := cfg.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(ContainElement(ContainSubstring("incomplete")))
	})

	It("falls back to ollama without an OpenAI key", func() {
		cfg.LLM.APIKey = ""
		_, err := cfg.Validate()
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects unknown llm providers", func() {
		cfg.LLM.Provider = "anthropic"
		_, err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("unknown llm provider")))
	})

	It("rejects out of range ratings", func() {
		cfg.Memory.MinFactRating = 1.2
		_, err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("memory.min_fact_rating")))
	})

	It("rejects malformed durations", func() {
		cfg.Memory.CacheTTL = "soon"
		_, err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("memory.cache_ttl")))

		cfg.Memory.CacheTTL = "30s"
		cfg.Transcript.TTL = "-1h"
		_, err = cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("transcript.ttl")))
	})

	It("parses durations with defaults", func() {
		cfg.Memory.CacheTTL = ""
		ttl, err := cfg.Memory.TTL()
		Expect(err).NotTo(HaveOccurred())
		Expect(ttl).To(Equal(30 * time.Second))

		exp, err := cfg.Transcript.Expiry()
		Expect(err).NotTo(HaveOccurred())
		Expect(exp).To(BeZero())
	})
})
