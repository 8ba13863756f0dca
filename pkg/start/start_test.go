package start_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/config"
	"github.com/papercomputeco/tracememory/pkg/eventstream/kafka"
	"github.com/papercomputeco/tracememory/pkg/eventstream/nop"
	"github.com/papercomputeco/tracememory/pkg/logger"
	"github.com/papercomputeco/tracememory/pkg/memory/local"
	"github.com/papercomputeco/tracememory/pkg/memory/zep"
	"github.com/papercomputeco/tracememory/pkg/start"
	"github.com/papercomputeco/tracememory/pkg/transcript/inmemory"
)

var _ = Describe("Build", func() {
	var (
		ctx context.Context
		cfg *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		cfg, err = config.PresetConfig("local")
		Expect(err).NotTo(HaveOccurred())
		cfg.Storage.Dir = GinkgoT().TempDir()
	})

	It("assembles an offline session from the local preset", func() {
		result, err := start.Build(ctx, cfg, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Session).NotTo(BeNil())
		Expect(result.Session.MinRating()).To(Equal(cfg.Memory.MinFactRating))
		Expect(result.Session.Close()).To(Succeed())
	})

	It("rejects invalid configuration before building anything", func() {
		cfg.Memory.Provider = "mem0"
		_, err := start.Build(ctx, cfg, logger.Nop())
		Expect(apperr.IsConfig(err)).To(BeTrue())
	})
})

var _ = Describe("NewBackend", func() {
	It("builds a zep client when a key is present", func() {
		b, err := start.NewBackend(config.MemoryConfig{Provider: "zep", APIKey: "z_abc.def.ghi"}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(BeAssignableToTypeOf(&zep.Client{}))
	})

	It("requires a zep key", func() {
		_, err := start.NewBackend(config.MemoryConfig{Provider: "zep"}, logger.Nop())
		Expect(apperr.IsConfig(err)).To(BeTrue())
	})

	It("builds the local backend", func() {
		b, err := start.NewBackend(config.MemoryConfig{Provider: "local"}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(BeAssignableToTypeOf(&local.Backend{}))
	})
})

var _ = Describe("NewTranscriptStore", func() {
	It("defaults to memory", func() {
		s, err := start.NewTranscriptStore(context.Background(), config.TranscriptConfig{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeAssignableToTypeOf(&inmemory.Store{}))
	})

	It("rejects malformed redis urls", func() {
		_, err := start.NewTranscriptStore(context.Background(), config.TranscriptConfig{RedisURL: "not a url"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("NewPublisher", func() {
	It("defaults to the no-op publisher", func() {
		p, err := start.NewPublisher(config.TelemetryConfig{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&nop.Publisher{}))
	})

	It("builds a kafka publisher for configured brokers", func() {
		p, err := start.NewPublisher(config.TelemetryConfig{KafkaBrokers: "localhost:9092", KafkaTopic: "turns"}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		Expect(p.Close()).To(Succeed())
	})
})
