// Package diag implements the ingest core's structured diagnostics stream:
// a closed set of diagnostic kinds, worker-local buffering flushed at stage
// boundaries, and a one-shot on-error callback.
package diag

import (
	"sync"

	"github.com/sarchlab/rhgforge/rhg"
)

// Kind is the closed diagnostic-severity enumeration.
type Kind int

const (
	// Todo marks a recognized-but-unimplemented HDL construct. Treated as
	// an error: the driver returns a non-zero exit status when any Todo
	// or Error is present.
	Todo Kind = iota
	Error
	Warning
	Info
	Debug
)

func (k Kind) String() string {
	switch k {
	case Todo:
		return "Todo"
	case Error:
		return "Error"
	case Warning:
		return "Warning"
	case Info:
		return "Info"
	case Debug:
		return "Debug"
	default:
		return "Unknown"
	}
}

// IsFatal reports whether a record of this kind should cause the driver to
// report failure (Todo is treated as an error).
func (k Kind) IsFatal() bool { return k == Error || k == Todo }

// Record is one diagnostic entry.
type Record struct {
	Kind         Kind
	Message      string
	Context      string
	PassName     string
	OriginSymbol string
	Location     *rhg.SourceLoc
}

// Diagnostics is the shared sink all pipeline stages and workers report
// into. A worker may buffer into its own scratch Diagnostics value and
// Merge it back into the shared sink at a stage boundary rather than take
// the shared lock on every record; the final message order then
// reflects flush order, not wall-clock order.
type Diagnostics struct {
	mu       sync.Mutex
	records  []Record
	hasError bool

	onErrorOnce sync.Once
	onError     func()
}

// New creates an empty diagnostics sink.
func New() *Diagnostics { return &Diagnostics{} }

// SetOnError registers a callback fired exactly once, the first time any
// Error-kind (or Todo) record is added across the lifetime of this sink.
func (d *Diagnostics) SetOnError(fn func()) {
	d.mu.Lock()
	d.onError = fn
	d.mu.Unlock()
}

func (d *Diagnostics) add(r Record) {
	d.mu.Lock()
	d.records = append(d.records, r)
	fatal := r.Kind.IsFatal()
	if fatal {
		d.hasError = true
	}
	cb := d.onError
	d.mu.Unlock()

	if fatal && cb != nil {
		d.onErrorOnce.Do(cb)
	}
}

// Todo records an unsupported-construct diagnostic.
func (d *Diagnostics) Todo(message, context string) { d.add(Record{Kind: Todo, Message: message, Context: context}) }

// Error records a semantic/structural error.
func (d *Diagnostics) Error(message, context string) { d.add(Record{Kind: Error, Message: message, Context: context}) }

// Warning records a non-fatal warning.
func (d *Diagnostics) Warning(message, context string) { d.add(Record{Kind: Warning, Message: message, Context: context}) }

// Info records an informational message.
func (d *Diagnostics) Info(message, context string) { d.add(Record{Kind: Info, Message: message, Context: context}) }

// Debug records a debug-level message.
func (d *Diagnostics) Debug(message, context string) { d.add(Record{Kind: Debug, Message: message, Context: context}) }

// AddAt records a diagnostic carrying full provenance (pass name, origin
// symbol, source location) — the richer constructor the pipeline stages use
// internally, as opposed to the terse Todo/Error/Warning/Info/Debug
// convenience methods above.
func (d *Diagnostics) AddAt(kind Kind, message, context, passName, originSymbol string, loc *rhg.SourceLoc) {
	d.add(Record{Kind: kind, Message: message, Context: context, PassName: passName, OriginSymbol: originSymbol, Location: loc})
}

// Messages returns a snapshot of every record added so far, in add order.
func (d *Diagnostics) Messages() []Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Empty reports whether no diagnostics have been recorded.
func (d *Diagnostics) Empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records) == 0
}

// HasError reports whether any Error or Todo record has been added.
func (d *Diagnostics) HasError() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasError
}

// Clear discards all recorded diagnostics and resets the error flag. The
// on-error callback, once fired, stays fired — Clear starts a fresh message
// log, not a fresh once-guard.
func (d *Diagnostics) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = nil
	d.hasError = false
}

// Merge appends every record from other into d in order, preserving their
// fatality and triggering the on-error callback at most once overall. This
// is how a per-worker scratch sink is flushed into the shared one.
func (d *Diagnostics) Merge(other *Diagnostics) {
	for _, r := range other.Messages() {
		d.add(r)
	}
}
