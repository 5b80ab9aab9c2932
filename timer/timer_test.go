package timer

import (
	"bytes"
	"log/slog"

	"github.com/sarchlab/heartbeat/gamestate"
	"github.com/sarchlab/heartbeat/hooking"
	"github.com/sarchlab/heartbeat/statemachine"
	"github.com/sarchlab/heartbeat/timing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Timer", func() {
	var (
		logBuf     *bytes.Buffer
		dispatcher *timing.Dispatcher
		registry   *Registry
		completed  int
		progress   []float64
		onComplete *statemachine.Callback
		onProgress *ProgressHandler
	)

	BeforeEach(func() {
		logBuf = new(bytes.Buffer)
		dispatcher = timing.NewDispatcher()
		registry = NewRegistry(dispatcher,
			slog.New(slog.NewTextHandler(logBuf, nil)))

		completed = 0
		progress = nil
		onComplete = statemachine.NewCallback(func() { completed++ })
		onProgress = NewProgressHandler(func(p float64) {
			progress = append(progress, p)
		})
	})

	It("should be ready after creation", func() {
		t := registry.NewTimer(1)

		Expect(t.State()).To(Equal(gamestate.Ready))
		Expect(t.IsRunning()).To(BeFalse())
		Expect(registry.Len()).To(Equal(0))
		Expect(dispatcher.IsRegistered(timing.ChannelUpdate, t)).To(BeFalse())
	})

	It("should complete once after the delay", func() {
		t := registry.NewTimer(1.0,
			WithCompleteHandler(onComplete),
			WithProgressHandler(onProgress))
		t.Start()

		dispatcher.Tick(0.4)
		dispatcher.Tick(0.4)
		Expect(completed).To(Equal(0))

		dispatcher.Tick(0.4)
		Expect(completed).To(Equal(1))

		Expect(progress).To(HaveLen(2))
		Expect(progress[0]).To(BeNumerically("~", 0.4, 1e-9))
		Expect(progress[1]).To(BeNumerically("~", 0.8, 1e-9))

		dispatcher.Tick(0.4)
		Expect(completed).To(Equal(1))
	})

	It("should leave the registry and reset after completing", func() {
		t := registry.NewTimer(0.5, WithCompleteHandler(onComplete))
		t.Start()
		Expect(registry.Contains(t)).To(BeTrue())

		dispatcher.Tick(0.5)

		Expect(registry.Contains(t)).To(BeFalse())
		Expect(dispatcher.IsRegistered(timing.ChannelUpdate, t)).To(BeFalse())
		Expect(t.State()).To(Equal(gamestate.Ready))
		Expect(t.Elapsed()).To(Equal(timing.VTimeInSec(0)))

		t.Start()
		dispatcher.Tick(0.25)
		Expect(completed).To(Equal(1))
		dispatcher.Tick(0.25)
		Expect(completed).To(Equal(2))
	})

	It("should repeat without leaving the dispatcher", func() {
		t := registry.NewTimer(0.5,
			WithRepeat(),
			WithCompleteHandler(onComplete))
		t.Start()

		for i := 0; i < 10; i++ {
			dispatcher.Tick(0.5)
		}

		Expect(completed).To(Equal(10))
		Expect(t.IsRunning()).To(BeTrue())
		Expect(registry.Contains(t)).To(BeTrue())
		Expect(dispatcher.IsRegistered(timing.ChannelUpdate, t)).To(BeTrue())
	})

	It("should resume from the elapsed time after a stop", func() {
		t := registry.NewTimer(1.0, WithCompleteHandler(onComplete))
		t.Start()
		dispatcher.Tick(0.3)

		t.Stop()
		Expect(t.State()).To(Equal(gamestate.Stopped))
		Expect(dispatcher.IsRegistered(timing.ChannelUpdate, t)).To(BeFalse())

		dispatcher.Tick(5)
		Expect(t.Elapsed()).To(BeNumerically("~", 0.3, 1e-9))

		t.Start()
		dispatcher.Tick(0.5)
		Expect(completed).To(Equal(0))

		dispatcher.Tick(0.3)
		Expect(completed).To(Equal(1))
	})

	It("should rejoin the registry when started after a destroy", func() {
		t := registry.NewTimer(1.0, WithCompleteHandler(onComplete))
		t.Start()
		dispatcher.Tick(0.4)

		t.Destroy()
		Expect(registry.Contains(t)).To(BeFalse())

		t.Start()
		Expect(registry.Contains(t)).To(BeTrue())
		Expect(dispatcher.IsRegistered(timing.ChannelUpdate, t)).To(BeTrue())

		dispatcher.Tick(0.6)
		Expect(completed).To(Equal(0))
		Expect(registry.Contains(t)).To(BeFalse())
	})

	It("should warn when started twice", func() {
		t := registry.NewTimer(1.0)
		t.Start()
		t.Start()

		Expect(logBuf.String()).To(ContainSubstring("timer started while already running"))
		Expect(dispatcher.NumHandlers(timing.ChannelUpdate)).To(Equal(1))
	})

	It("should count from zero after a reset", func() {
		t := registry.NewTimer(1.0, WithCompleteHandler(onComplete))
		t.Start()
		dispatcher.Tick(0.8)

		t.Reset()
		Expect(t.State()).To(Equal(gamestate.Ready))
		Expect(t.Elapsed()).To(Equal(timing.VTimeInSec(0)))

		t.Start()
		dispatcher.Tick(0.8)
		Expect(completed).To(Equal(0))
	})

	It("should keep running after a restart", func() {
		t := registry.NewTimer(1.0, WithCompleteHandler(onComplete))
		t.Start()
		dispatcher.Tick(0.8)

		t.Restart()
		dispatcher.Tick(0.8)

		Expect(t.IsRunning()).To(BeTrue())
		Expect(completed).To(Equal(0))
	})

	It("should destroy itself after completing", func() {
		t := registry.NewTimer(0.5,
			WithAutoDestroy(),
			WithCompleteHandler(onComplete))
		t.Start()

		dispatcher.Tick(0.5)

		Expect(completed).To(Equal(1))
		Expect(registry.Len()).To(Equal(0))
		Expect(t.State()).To(Equal(gamestate.Stopped))

		t.Reset()
		t.Start()
		dispatcher.Tick(0.5)
		Expect(completed).To(Equal(1))
	})

	It("should allow destroying a timer from its complete handler", func() {
		var t *Timer
		t = registry.NewTimer(0.5,
			WithRepeat(),
			WithCompleteHandler(statemachine.NewCallback(func() {
				completed++
				t.Destroy()
			})))
		t.Start()

		dispatcher.Tick(0.5)
		dispatcher.Tick(0.5)

		Expect(completed).To(Equal(1))
		Expect(registry.Len()).To(Equal(0))
	})

	It("should not add the same handler twice", func() {
		t := registry.NewTimer(0.5)
		t.AddCompleteHandler(onComplete)
		t.AddCompleteHandler(onComplete)
		t.AddProgressHandler(onProgress)
		t.AddProgressHandler(onProgress)
		t.Start()

		dispatcher.Tick(0.25)
		dispatcher.Tick(0.25)

		Expect(progress).To(HaveLen(1))
		Expect(completed).To(Equal(1))
	})

	It("should remove handlers", func() {
		t := registry.NewTimer(0.5,
			WithCompleteHandler(onComplete),
			WithProgressHandler(onProgress))
		t.RemoveCompleteHandler(onComplete)
		t.RemoveProgressHandler(onProgress)
		t.Start()

		dispatcher.Tick(0.25)
		dispatcher.Tick(0.25)

		Expect(progress).To(BeEmpty())
		Expect(completed).To(Equal(0))
	})

	It("should report the time remaining only while running", func() {
		t := registry.NewTimer(1.0)
		Expect(t.TimeRemaining()).To(Equal(timing.VTimeInSec(0)))

		t.Start()
		dispatcher.Tick(0.25)
		Expect(t.TimeRemaining()).To(Equal(timing.VTimeInSec(0.75)))

		t.Stop()
		Expect(t.TimeRemaining()).To(Equal(timing.VTimeInSec(0)))
	})

	It("should destroy all the timers", func() {
		t1 := registry.NewTimer(1.0, WithCompleteHandler(onComplete))
		t2 := registry.NewTimer(1.0, WithRepeat())
		t1.Start()
		t2.Start()

		registry.DestroyAll()

		Expect(registry.Len()).To(Equal(0))
		Expect(dispatcher.NumHandlers(timing.ChannelUpdate)).To(Equal(0))
		Expect(t1.State()).To(Equal(gamestate.Stopped))

		t1.Start()
		dispatcher.Tick(1)
		Expect(completed).To(Equal(0))
	})

	It("should give each timer a distinct id", func() {
		t1 := registry.NewTimer(1)
		t2 := registry.NewTimer(1)

		Expect(t1.ID()).NotTo(Equal(t2.ID()))
	})

	Context("with hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
			registry.AcceptHook(hook)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should report completions", func() {
			t := registry.NewTimer(0.5, WithRepeat())
			t.Start()

			hook.EXPECT().Func(hooking.HookCtx{
				Domain: registry,
				Pos:    HookPosTimerComplete,
				Item:   t,
			}).Times(2)

			dispatcher.Tick(0.5)
			dispatcher.Tick(0.5)
		})
	})
})

var _ = Describe("Format", func() {
	var registry *Registry

	BeforeEach(func() {
		registry = NewRegistry(timing.NewDispatcher(), nil)
	})

	DescribeTable("remaining time",
		func(delay timing.VTimeInSec, pattern string, trim bool, expected string) {
			t := registry.NewTimer(delay)
			Expect(t.Format(pattern, trim)).To(Equal(expected))
		},
		Entry("minutes and seconds", timing.VTimeInSec(65), `mm\:ss`, false, "01:05"),
		Entry("hours", timing.VTimeInSec(3725), `hh\:mm\:ss`, false, "01:02:05"),
		Entry("days", timing.VTimeInSec(90061), `dd\.hh\:mm\:ss`, false, "01.01:01:01"),
		Entry("unescaped separators", timing.VTimeInSec(65), "hh:mm:ss", false, "00:01:05"),
		Entry("trimmed", timing.VTimeInSec(65), "hh:mm:ss", true, "1:05"),
		Entry("fraction", timing.VTimeInSec(1.25), `ss\.ff`, false, "01.25"),
		Entry("optional fraction", timing.VTimeInSec(1.5), `s\.FFF`, false, "1.5"),
		Entry("literal", timing.VTimeInSec(5), `s' sec'`, false, "5 sec"),
		Entry("elapsed", timing.VTimeInSec(0), "mm:ss", true, ""),
	)

	It("should count down while running", func() {
		t := registry.NewTimer(10)
		t.Start()
		registry.Dispatcher().Tick(4)

		Expect(t.Format("mm:ss", false)).To(Equal("00:06"))
	})
})
