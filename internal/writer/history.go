package writer

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one confirmed text.
type HistoryEntry struct {
	ID          string
	ConfirmedAt time.Time
	Text        string
}

func NewHistoryEntry(text string, at time.Time) HistoryEntry {
	return HistoryEntry{ID: uuid.NewString(), ConfirmedAt: at, Text: text}
}

func MapHistoryRecord(e HistoryEntry) []string {
	return []string{e.ID, e.ConfirmedAt.UTC().Format(time.RFC3339), e.Text}
}

func HistoryHeader() []string {
	return []string{"ID", "ConfirmedAt", "Text"}
}

// History appends confirmed texts to a CSV file.
type History struct {
	path   string
	writer *CSVWriter[HistoryEntry]
}

func NewHistory(path string) *History {
	return &History{path: path, writer: NewCSVWriter(MapHistoryRecord, HistoryHeader)}
}

func (h *History) Record(text string) error {
	return h.writer.Append([]HistoryEntry{NewHistoryEntry(text, time.Now())}, h.path)
}

// Clear empties the history file. The header is written again with the next
// record.
func (h *History) Clear() error {
	return h.writer.Replace(nil, h.path)
}

func (h *History) Close() {
	h.writer.Close()
}
