package prefs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Prefs", func() {
	Context("with a memory backend", func() {
		var (
			backend *MemoryBackend
			p       *Prefs
		)

		BeforeEach(func() {
			backend = NewMemoryBackend()
			p = New(backend)
		})

		It("should return defaults for missing keys", func() {
			Expect(p.GetInt("missing", 7)).To(Equal(7))
			Expect(p.GetBool("missing", true)).To(BeTrue())
			Expect(p.GetFloat("missing", 1.5)).To(Equal(1.5))
			Expect(p.GetString("missing", "x")).To(Equal("x"))
			Expect(p.HasKey("missing")).To(BeFalse())
		})

		It("should read back typed values", func() {
			Expect(p.SetInt("level", 3)).To(Succeed())
			Expect(p.SetBool("muted", true)).To(Succeed())
			Expect(p.SetFloat("volume", 0.25)).To(Succeed())
			Expect(p.SetString("name", "player")).To(Succeed())

			Expect(p.GetInt("level", 0)).To(Equal(3))
			Expect(p.GetBool("muted", false)).To(BeTrue())
			Expect(p.GetFloat("volume", 0)).To(Equal(0.25))
			Expect(p.GetString("name", "")).To(Equal("player"))
			Expect(p.HasKey("level")).To(BeTrue())
		})

		It("should store booleans as integers", func() {
			Expect(p.SetBool("flag", false)).To(Succeed())

			Expect(p.GetInt("flag", -1)).To(Equal(0))
			Expect(p.GetBool("flag", true)).To(BeFalse())

			Expect(p.SetInt("flag", 2)).To(Succeed())
			Expect(p.GetBool("flag", false)).To(BeTrue())
		})

		It("should delete keys", func() {
			Expect(p.SetInt("a", 1)).To(Succeed())
			Expect(p.SetInt("b", 2)).To(Succeed())

			Expect(p.Delete("a")).To(Succeed())
			Expect(p.HasKey("a")).To(BeFalse())
			Expect(backend.Len()).To(Equal(1))

			Expect(p.DeleteAll()).To(Succeed())
			Expect(backend.Len()).To(Equal(0))
			Expect(p.Save()).To(Succeed())
		})
	})

	Context("with a failing backend", func() {
		var (
			mockCtrl *gomock.Controller
			backend  *MockBackend
			logBuf   *bytes.Buffer
			p        *Prefs
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			backend = NewMockBackend(mockCtrl)
			logBuf = new(bytes.Buffer)
			p = New(backend,
				WithLogger(slog.New(slog.NewTextHandler(logBuf, nil))))
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should log read errors and return the default", func() {
			backend.EXPECT().
				Get(gomock.Any(), "level").
				Return("", false, errors.New("disk gone"))

			Expect(p.GetInt("level", 4)).To(Equal(4))
			Expect(logBuf.String()).To(ContainSubstring("failed to read preference"))
			Expect(logBuf.String()).To(ContainSubstring("disk gone"))
		})

		It("should return the default for malformed values", func() {
			backend.EXPECT().
				Get(gomock.Any(), "level").
				Return("high", true, nil)
			backend.EXPECT().
				Get(gomock.Any(), "volume").
				Return("loud", true, nil)

			Expect(p.GetInt("level", 4)).To(Equal(4))
			Expect(p.GetFloat("volume", 0.5)).To(Equal(0.5))
			Expect(logBuf.String()).To(ContainSubstring("preference is not an integer"))
		})

		It("should wrap write errors", func() {
			errWrite := errors.New("read only")
			backend.EXPECT().Set(gomock.Any(), "level", "1").Return(errWrite)
			backend.EXPECT().Delete(gomock.Any(), "level").Return(errWrite)
			backend.EXPECT().DeleteAll(gomock.Any()).Return(errWrite)
			backend.EXPECT().Flush(gomock.Any()).Return(errWrite)

			Expect(p.SetInt("level", 1)).To(MatchError(errWrite))
			Expect(p.Delete("level")).To(MatchError(errWrite))
			Expect(p.DeleteAll()).To(MatchError(errWrite))
			Expect(p.Save()).To(MatchError(errWrite))
		})

		It("should bound backend calls with the timeout", func() {
			p = New(backend, WithTimeout(time.Second))

			backend.EXPECT().
				Get(gomock.Any(), "k").
				DoAndReturn(func(ctx context.Context, _ string) (string, bool, error) {
					_, hasDeadline := ctx.Deadline()
					Expect(hasDeadline).To(BeTrue())

					return "v", true, nil
				})

			Expect(p.GetString("k", "")).To(Equal("v"))
		})
	})
})
