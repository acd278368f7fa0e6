package ingest

// Outcome is the disposition of one scan.
type Outcome int

const (
	// OutcomeSkipped: not an allowed format or not hashable; left untouched.
	OutcomeSkipped Outcome = iota
	// OutcomeAlreadyIngested: identical provenance event already recorded.
	OutcomeAlreadyIngested
	// OutcomeDeduplicated: content already stored under another provenance.
	OutcomeDeduplicated
	// OutcomeStored: new content moved into the store and cataloged.
	OutcomeStored
	// OutcomeFailed: an error stopped processing of this scan.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeAlreadyIngested:
		return "already_ingested"
	case OutcomeDeduplicated:
		return "deduplicated"
	case OutcomeStored:
		return "stored"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes what happened to one scan.
type Result struct {
	// Source is the staging path the scan was discovered at.
	Source string
	// Path is the final location for stored scans, otherwise Source.
	Path    string
	Hash    string
	Outcome Outcome
	Bytes   int64
	Err     error
}

// Summary aggregates a batch run.
type Summary struct {
	Results []Result
	// Pruned lists directories removed after the batch.
	Pruned []string
}

// Count returns how many results have outcome o.
func (s Summary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// BytesStored totals the size of newly stored content.
func (s Summary) BytesStored() int64 {
	var total int64
	for _, r := range s.Results {
		if r.Outcome == OutcomeStored {
			total += r.Bytes
		}
	}
	return total
}

// Failures returns the failed results.
func (s Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Outcome == OutcomeFailed {
			out = append(out, r)
		}
	}
	return out
}
