package gamestate

import (
	"bytes"
	"log/slog"

	"github.com/sarchlab/heartbeat/statemachine"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type dialogLoader struct {
	name string
}

var _ = ginkgo.Describe("GameState", func() {
	var (
		buf *bytes.Buffer
		g   *GameState
	)

	ginkgo.BeforeEach(func() {
		buf = new(bytes.Buffer)
		g = New(slog.New(slog.NewTextHandler(buf, nil)))
	})

	ginkgo.It("should forward state updates", func() {
		entered := 0
		g.AddEnterCallback(Playing, statemachine.NewCallback(func() {
			entered++
		}))

		g.Update(Loading)
		g.Update(Playing)

		Expect(g.IsState(Playing)).To(BeTrue())
		Expect(g.CurrentState().Name()).To(Equal(Playing))
		Expect(entered).To(Equal(1))
	})

	ginkgo.It("should keep the first blocker", func() {
		first := &dialogLoader{name: "first"}
		second := &dialogLoader{name: "second"}

		g.SetBlocked(first)
		g.SetBlocked(second)

		Expect(g.IsBlocked()).To(BeTrue())
		Expect(g.Blocker()).To(BeIdenticalTo(first))
		Expect(buf.String()).To(ContainSubstring("state is already blocked"))
		Expect(buf.String()).To(ContainSubstring("gamestate.dialogLoader"))
	})

	ginkgo.It("should only let the blocker remove the block", func() {
		first := &dialogLoader{name: "first"}
		g.SetBlocked(first)

		g.RemoveBlock(&dialogLoader{name: "first"})
		Expect(g.IsBlocked()).To(BeTrue())

		g.RemoveBlock(first)
		Expect(g.IsBlocked()).To(BeFalse())
	})

	ginkgo.It("should let anyone remove a block without owner", func() {
		g.SetBlocked(nil)

		g.RemoveBlock("anyone")

		Expect(g.IsBlocked()).To(BeFalse())
	})

	ginkgo.It("should forget everything on destroy", func() {
		exited := false
		g.AddExitCallback(Loading, statemachine.NewCallback(func() {
			exited = true
		}))
		g.Update(Loading)
		g.SetBlocked("loader")

		g.Destroy()
		g.Update(Running)

		Expect(exited).To(BeFalse())
		Expect(g.IsBlocked()).To(BeFalse())
		Expect(g.Machine().StateNames()).To(Equal([]string{Running}))
	})
})
