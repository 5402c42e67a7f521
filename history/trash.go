package history

// PatchKind tags the variants of Patch.
type PatchKind int

const (
	FieldPatchKind PatchKind = iota + 1
	SplicePatchKind
)

// Patch is a captured piece of a document that can be put back later.
// The concrete variants are FieldPatch and SplicePatch.
type Patch interface {
	Tag() string
	Kind() PatchKind
}

// FieldPatch holds scalar field values by field key.
type FieldPatch struct {
	ID     string
	Values map[string]string
}

func (p FieldPatch) Tag() string     { return p.ID }
func (p FieldPatch) Kind() PatchKind { return FieldPatchKind }

// SplicePatch holds the removed content of a list. Strings is used for
// string lists, Rows for structured lists (itinerary rows, hotels).
type SplicePatch struct {
	ID      string
	List    string
	Index   int
	Strings []string
	Rows    any
}

func (p SplicePatch) Tag() string     { return p.ID }
func (p SplicePatch) Kind() PatchKind { return SplicePatchKind }

// Trash is a bounded LIFO of patches. When full, the oldest patch is dropped.
type Trash struct {
	capacity int
	patches  []Patch
}

func NewTrash(capacity int) *Trash {
	if capacity <= 0 {
		capacity = 1
	}
	return &Trash{capacity: capacity}
}

// Push stores p and returns the patch evicted to make room, if any.
func (t *Trash) Push(p Patch) (evicted Patch) {
	t.patches = append(t.patches, p)
	if len(t.patches) > t.capacity {
		evicted = t.patches[0]
		t.patches = t.patches[1:]
	}
	return evicted
}

// Take removes and returns the most recent patch tagged id.
func (t *Trash) Take(id string) (Patch, bool) {
	for i := len(t.patches) - 1; i >= 0; i-- {
		if t.patches[i].Tag() == id {
			p := t.patches[i]
			t.patches = append(t.patches[:i], t.patches[i+1:]...)
			return p, true
		}
	}
	return nil, false
}

// Tags lists the tags currently held, oldest first.
func (t *Trash) Tags() []string {
	tags := make([]string, len(t.patches))
	for i, p := range t.patches {
		tags[i] = p.Tag()
	}
	return tags
}

func (t *Trash) Len() int { return len(t.patches) }
