package model

// Genre is reference data, read-only to this system.
type Genre struct {
	ID   int64  // genre.id
	Name string // genre.name
}
