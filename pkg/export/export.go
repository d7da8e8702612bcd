package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/kilianp07/swapstation/infra/console"
)

// WriteJSON writes the event log entries to w as a JSON array.
func WriteJSON(w io.Writer, entries []console.Entry) error {
	if entries == nil {
		entries = []console.Entry{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(entries)
}

// WriteCSV writes the event log entries to w in CSV format with a header
// row.
func WriteCSV(w io.Writer, entries []console.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "clock", "message"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Time.Format(time.RFC3339),
			e.Clock,
			e.Message,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Chronological returns entries oldest first. The event log hands them out
// newest first.
func Chronological(entries []console.Entry) []console.Entry {
	out := make([]console.Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
