package rhglog

import (
	"bytes"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Logger", func() {
	It("emits nothing when disabled", func() {
		var buf bytes.Buffer
		l := New(&buf, Info, false)
		l.Info("should not appear")
		l.Error("neither should this")
		Expect(buf.Len()).To(Equal(0))
	})

	It("stays silent at Off regardless of enabled", func() {
		var buf bytes.Buffer
		l := New(&buf, Off, true)
		l.Error("boom")
		Expect(buf.Len()).To(Equal(0))
	})

	It("filters Trace below Debug and passes Debug at Debug level", func() {
		var buf bytes.Buffer
		l := New(&buf, Debug, true)
		l.Trace("too fine-grained")
		Expect(buf.Len()).To(Equal(0), "trace record should be filtered out at Debug level")

		l.Debug("visible")
		Expect(buf.Len()).ToNot(Equal(0), "debug record should pass at Debug level")
	})

	It("is safe to call on a nil receiver", func() {
		var l *Logger
		Expect(func() { l.Info("nil receiver must not panic") }).ToNot(Panic())
	})

	It("emits a timing stage group", func() {
		var buf bytes.Buffer
		l := New(&buf, Info, true)
		l.Timing("lower", 5*time.Millisecond)

		var decoded map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		timing, ok := decoded["timing"].(map[string]any)
		Expect(ok).To(BeTrue(), "expected a timing group")
		Expect(timing["stage"]).To(Equal("lower"))
	})

	It("never reports Discard as enabled", func() {
		l := Discard()
		Expect(l.enabled).To(BeFalse())
	})

	It("always builds a handler, even for a nil writer", func() {
		l := New(nil, Info, false)
		Expect(l.handler).ToNot(BeNil())
	})
})
