package booking

import "time"

// DefaultHistoryLimit bounds the history when no limit is configured.
const DefaultHistoryLimit = 50

// HistoryEntry is an immutable snapshot of a booking outcome.
type HistoryEntry struct {
	BookingID       string      `json:"bookingId"`
	VenueName       string      `json:"venueName"`
	MeetingType     MeetingType `json:"meetingType"`
	Date            string      `json:"date"`
	Time            string      `json:"time"`
	Status          Status      `json:"status"`
	RejectionReason *string     `json:"rejectionReason"`
	RecordedAt      time.Time   `json:"recordedAt"`
}

// NewHistoryEntry snapshots b. Date and time come from the meeting start,
// falling back to the creation time when no start was given.
func NewHistoryEntry(b *Booking, recordedAt time.Time) HistoryEntry {
	when := b.details.DateTime
	if when.IsZero() {
		when = b.createdAt
	}
	var reason *string
	if b.rejectionReason != nil {
		r := *b.rejectionReason
		reason = &r
	}
	return HistoryEntry{
		BookingID:       b.bookingID,
		VenueName:       b.details.VenueName,
		MeetingType:     b.details.MeetingType,
		Date:            when.Format("2006-01-02"),
		Time:            when.Format("15:04"),
		Status:          b.status,
		RejectionReason: reason,
		RecordedAt:      recordedAt,
	}
}

// History is a bounded, most-recent-first log of booking outcomes.
// Appending past the limit silently evicts the oldest entries.
type History struct {
	entries []HistoryEntry
	limit   int
}

// NewHistory creates an empty history holding at most limit entries.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// RestoreHistory rebuilds a history from persisted entries (most recent first),
// trimming it to limit.
func RestoreHistory(entries []HistoryEntry, limit int) *History {
	h := NewHistory(limit)
	if len(entries) > h.limit {
		entries = entries[:h.limit]
	}
	h.entries = append([]HistoryEntry(nil), entries...)
	return h
}

// Append returns a new history with e in front. The receiver is unchanged,
// so callers can persist the result before committing it.
func (h *History) Append(e HistoryEntry) *History {
	n := len(h.entries) + 1
	if n > h.limit {
		n = h.limit
	}
	entries := make([]HistoryEntry, 0, n)
	entries = append(entries, e)
	entries = append(entries, h.entries[:n-1]...)
	return &History{entries: entries, limit: h.limit}
}

// Entries returns a copy of the entries, most recent first.
func (h *History) Entries() []HistoryEntry {
	return append([]HistoryEntry{}, h.entries...)
}

// Len returns the number of retained entries.
func (h *History) Len() int { return len(h.entries) }

// Limit returns the retention bound.
func (h *History) Limit() int { return h.limit }
