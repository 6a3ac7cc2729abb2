package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ *ScanRun) (int64, error)     { return 0, nil }
func (n *NoopRecorder) RecordSignals(_ *SignalCheck) error       { return nil }
func (n *NoopRecorder) RecentScans(_ int) ([]ScanSummary, error) { return []ScanSummary{}, nil }
func (n *NoopRecorder) Close() error                             { return nil }
