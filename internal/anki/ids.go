package anki

// Identifiers derive from a fixed base rather than wall-clock time so the
// same input always produces the same package.
const (
	// Base for note type, deck, note and card identifiers (Anki expects
	// epoch-millisecond-scale integers).
	baseEntityID int64 = 1600000000000

	// Base for note/card modification timestamps, epoch seconds.
	baseModified int64 = 1600000000
)

// idAllocator hands out unique identifiers for one export run.
type idAllocator struct {
	next int64
}

func newIDAllocator() *idAllocator {
	return &idAllocator{next: baseEntityID}
}

func (a *idAllocator) Next() int64 {
	id := a.next
	a.next++
	return id
}
