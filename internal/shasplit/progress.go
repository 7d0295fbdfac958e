package shasplit

// Reporter receives progress updates during long-running operations
// (ingest and recovery). A Repository built by New starts with
// noopReporter, so callers that don't care about progress pay nothing.
type Reporter interface {
	Set(n uint64)
	Describe(s string)
	Finish(s string)
}

type noopReporter struct{}

func (noopReporter) Set(uint64)     {}
func (noopReporter) Describe(string) {}
func (noopReporter) Finish(string)   {}

// SetProgress installs a Reporter that ingest and recovery operations will
// report byte progress through. Pass nil to go back to
// silent operation.
func (r *Repository) SetProgress(p Reporter) {
	if p == nil {
		p = noopReporter{}
	}
	r.progress = p
}
