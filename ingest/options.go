package ingest

import "github.com/sarchlab/rhgforge/rhglog"

// ConvertOptions configures one convert() run: the fluent,
// value-receiver builder idiom mirrors api/builder.go's
// DriverBuilder/core/builder.go's Builder — each With* method returns
// a modified copy rather than mutating a shared instance.
type ConvertOptions struct {
	abortOnError      bool
	enableLogging     bool
	logLevel          rhglog.LogLevel
	enableTiming      bool
	maxLoopIterations int
	threadCount       int
	singleThread      bool
}

// NewConvertOptions returns the spec-default configuration: no abort
// on error, logging disabled, a 131072-iteration loop-unroll cap, and
// a 32-worker pool.
func NewConvertOptions() ConvertOptions {
	return ConvertOptions{
		logLevel:          rhglog.Off,
		maxLoopIterations: 131072,
		threadCount:       32,
	}
}

func (o ConvertOptions) WithAbortOnError(v bool) ConvertOptions { o.abortOnError = v; return o }

func (o ConvertOptions) WithLogging(enabled bool, level rhglog.LogLevel) ConvertOptions {
	o.enableLogging = enabled
	o.logLevel = level
	return o
}

func (o ConvertOptions) WithTiming(v bool) ConvertOptions { o.enableTiming = v; return o }

func (o ConvertOptions) WithMaxLoopIterations(n int) ConvertOptions {
	o.maxLoopIterations = n
	return o
}

func (o ConvertOptions) WithThreadCount(n int) ConvertOptions { o.threadCount = n; return o }

func (o ConvertOptions) WithSingleThread(v bool) ConvertOptions { o.singleThread = v; return o }
