package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tracememory/pkg/analytics"
	"github.com/papercomputeco/tracememory/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("fills the envelope", func() {
		turn := analytics.NewEvent(time.Now(), "s1", "ctx", "hi", "hello")
		event := eventstream.NewTurnCompletedEvent(
			eventstream.EventSource{UserID: "alice", Provider: "openai"},
			turn, eventstream.OutcomeOK, 1500*time.Millisecond,
		)

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeTurnCompleted))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.DurationMs).To(Equal(int64(1500)))
		Expect(event.Turn.SessionID).To(Equal("s1"))
	})

	It("marshals with expected top-level keys", func() {
		event := eventstream.NewTurnCompletedEvent(eventstream.EventSource{}, analytics.Event{}, eventstream.OutcomeError, 0)
		event.Error = "boom"

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		for _, key := range []string{"schema_version", "event_type", "event_id", "emitted_at", "source", "turn", "outcome", "error", "duration_ms"} {
			Expect(got).To(HaveKey(key))
		}
	})

	It("defines stable event constants", func() {
		Expect(eventstream.EventTypeTurnCompleted).To(Equal("tracememory.turn.completed"))
		Expect(eventstream.ErrNilTurnEvent).To(MatchError("nil turn event"))
	})
})
