package linereader

// History is a bounded recall list. Index 0 is the most recent entry.
// It satisfies term.History.
type History struct {
	entries []string
	max     int
}

// DefaultHistorySize is used when a non-positive size is given
const DefaultHistorySize = 1000

// NewHistory creates a history holding at most size entries
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{max: size}
}

// Add records entry, dropping the oldest entry when full. An entry equal
// to the most recent one is not repeated.
func (h *History) Add(entry string) {
	if entry == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return
	}
	if len(h.entries) == h.max {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, entry)
}

// Len returns the number of entries
func (h *History) Len() int {
	return len(h.entries)
}

// At returns the entry idx steps back from the most recent one
func (h *History) At(idx int) string {
	if idx < 0 || idx >= len(h.entries) {
		panic("linereader: history index out of range")
	}
	return h.entries[len(h.entries)-1-idx]
}
