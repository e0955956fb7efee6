package scoring

import (
	"context"
	"encoding/json"
)

// Analysis is one scoring result. Raw carries the model's full JSON payload;
// OverallScore is the 0-100 headline number lifted out of it, nil when the
// model omitted it.
type Analysis struct {
	Model        string
	OverallScore *float64
	Raw          json.RawMessage
}

// Analyzer scores one conversation transcript. Implementations must be safe
// for sequential reuse; the worker calls them one conversation at a time.
type Analyzer interface {
	Analyze(ctx context.Context, transcript Transcript) (Analysis, error)
}
