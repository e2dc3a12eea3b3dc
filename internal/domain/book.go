package domain

import "time"

// Book is a catalogue entry. BookID is the caller supplied unique number,
// ID is the store assigned identifier used for replace and delete.
type Book struct {
	ID         string
	BookName   string
	BookPrice  float64
	BookID     int64
	AuthorName string
	CreatedBy  string
	CreatedAt  time.Time
}

// Page selects a window of a listing.
type Page struct {
	Number int
	Size   int
}

// Skip returns how many records precede the page.
func (p Page) Skip() int64 {
	if p.Number < 1 {
		return 0
	}
	return int64(p.Number-1) * int64(p.Size)
}

// Limit returns the maximum number of records in the page.
func (p Page) Limit() int64 {
	return int64(p.Size)
}
