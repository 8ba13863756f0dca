package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tracememory/pkg/eventstream"
	"github.com/papercomputeco/tracememory/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	var p eventstream.Publisher

	BeforeEach(func() {
		p = nop.NewPublisher()
	})

	It("rejects nil events", func() {
		Expect(p.PublishTurn(context.Background(), nil)).To(MatchError(eventstream.ErrNilTurnEvent))
	})

	It("accepts events", func() {
		Expect(p.PublishTurn(context.Background(), &eventstream.TurnCompletedEvent{})).To(Succeed())
	})

	It("closes", func() {
		Expect(p.Close()).To(Succeed())
	})
})
