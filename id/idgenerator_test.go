package id

import (
	"github.com/rs/xid"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("IDGenerator", func() {
	It("should generate sequential ids", func() {
		g := NewIDGenerator()

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
		Expect(g.Generate()).To(Equal("3"))
	})

	It("should keep separate sequences per generator", func() {
		g1 := NewIDGenerator()
		g2 := NewIDGenerator()

		g1.Generate()
		g1.Generate()

		Expect(g2.Generate()).To(Equal("1"))
	})

	It("should generate unique xid-formatted ids in parallel mode", func() {
		g := NewParallelIDGenerator()

		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			s := g.Generate()

			_, err := xid.FromString(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).NotTo(HaveKey(s))

			seen[s] = true
		}
	})
})
