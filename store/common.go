package store

// RowStatus is the status of a row.
type RowStatus string

const (
	// Normal is the status of a normal row.
	Normal RowStatus = "NORMAL"
	// Archived is the status of an archived row.
	Archived RowStatus = "ARCHIVED"
)

func (s RowStatus) String() string {
	return string(s)
}
