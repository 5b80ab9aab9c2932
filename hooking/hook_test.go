package hooking

import (
	"bytes"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		hookable *HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		hookable = &HookableBase{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke hooks in registration order", func() {
		h1 := NewMockHook(mockCtrl)
		h2 := NewMockHook(mockCtrl)
		pos := &HookPos{Name: "Pos"}
		ctx := HookCtx{Domain: hookable, Pos: pos, Item: 1}

		hookable.AcceptHook(h1)
		hookable.AcceptHook(h2)

		gomock.InOrder(
			h1.EXPECT().Func(ctx),
			h2.EXPECT().Func(ctx),
		)

		hookable.InvokeHook(ctx)
		Expect(hookable.NumHooks()).To(Equal(2))
	})

	It("should panic when the same hook is added twice", func() {
		h := NewMockHook(mockCtrl)
		hookable.AcceptHook(h)

		Expect(func() { hookable.AcceptHook(h) }).To(Panic())
	})

	It("should remove hooks", func() {
		h1 := NewMockHook(mockCtrl)
		h2 := NewMockHook(mockCtrl)
		hookable.AcceptHook(h1)
		hookable.AcceptHook(h2)

		hookable.RemoveHook(h1)
		hookable.RemoveHook(h1)

		Expect(hookable.Hooks()).To(ConsistOf(h2))
	})

	It("should adapt functions into comparable hooks", func() {
		calls := 0
		h := NewHookFunc(func(HookCtx) { calls++ })

		hookable.AcceptHook(h)
		hookable.InvokeHook(HookCtx{})
		hookable.RemoveHook(h)
		hookable.InvokeHook(HookCtx{})

		Expect(calls).To(Equal(1))
	})
})

var _ = Describe("LogHook", func() {
	It("should only log the selected positions", func() {
		buf := new(bytes.Buffer)
		logger := slog.New(slog.NewTextHandler(buf,
			&slog.HandlerOptions{Level: slog.LevelDebug}))
		logged := &HookPos{Name: "Logged"}
		skipped := &HookPos{Name: "Skipped"}

		h := NewLogHook(logger, logged)
		h.Func(HookCtx{Pos: skipped, Item: "a"})
		h.Func(HookCtx{Pos: logged, Item: "b"})

		Expect(buf.String()).To(ContainSubstring("pos=Logged"))
		Expect(buf.String()).NotTo(ContainSubstring("pos=Skipped"))
	})
})
