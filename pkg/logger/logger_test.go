package logger

import (
	"context"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("Logger", func() {
	DescribeTable("ParseLevel",
		func(in string, want slog.Level) {
			Expect(ParseLevel(in)).To(Equal(want))
		},
		Entry("debug", "debug", slog.LevelDebug),
		Entry("upper case", "WARN", slog.LevelWarn),
		Entry("error", "error", slog.LevelError),
		Entry("unknown falls back to info", "verbose", slog.LevelInfo),
	)

	It("should install the configured logger as default", func() {
		Init("error", "json")

		Expect(LoggerWrapper()).To(BeIdenticalTo(slog.Default()))
		Expect(LoggerWrapper().Enabled(context.Background(), slog.LevelWarn)).To(BeFalse())
	})

	It("should carry fields through the context", func() {
		base := From(context.Background())
		ctx := With(context.Background(), "trace_id", "t-1")

		Expect(From(ctx)).NotTo(BeIdenticalTo(base))
	})
})
