package identity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tracememory/pkg/identity"
)

var _ = Describe("GenerateUserID", func() {
	It("lowercases and joins first and last name", func() {
		Expect(identity.GenerateUserID("Rithik", "Porandla")).To(Equal("rithikporandla"))
	})

	It("strips non-word characters", func() {
		Expect(identity.GenerateUserID("Mary-Jane", "O'Neil ")).To(Equal("maryjaneoneil"))
	})

	It("keeps underscores and digits", func() {
		Expect(identity.GenerateUserID("dev_1", "Ops")).To(Equal("dev_1ops"))
	})

	It("keeps non-ASCII letters and digits", func() {
		Expect(identity.GenerateUserID("José", "Núñez")).To(Equal("josénúñez"))
		Expect(identity.GenerateUserID("Zoë", "٣")).To(Equal("zoë٣"))
	})

	It("falls back to the default sentinel for empty names", func() {
		Expect(identity.GenerateUserID("", "")).To(Equal(identity.DefaultUserID))
		Expect(identity.GenerateUserID("  ", "!!")).To(Equal("default_user"))
	})

	It("is deterministic", func() {
		Expect(identity.GenerateUserID("Ada", "Lovelace")).To(Equal(identity.GenerateUserID("Ada", "Lovelace")))
	})
})
