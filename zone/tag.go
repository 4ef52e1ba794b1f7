package zone

import "strconv"

// Tag labels the lifetime or priority class of a block. The zone only gives meaning to TagFree and
// TagCache; every tag in between belongs to the caller.
type Tag int

const (
	// TagFree marks "no owner". No live block ever carries it and FreeTags never targets it.
	TagFree Tag = 0
	// TagCache is the lowest-priority tag and the only one the zone purges on its own when memory runs
	// short. It is always the highest valid tag.
	TagCache Tag = 31

	tagCount = int(TagCache) + 1
)

func (t Tag) String() string {
	switch t {
	case TagFree:
		return "TagFree"
	case TagCache:
		return "TagCache"
	default:
		return "Tag(" + strconv.Itoa(int(t)) + ")"
	}
}

// Valid reports whether a live block may carry the tag
func (t Tag) Valid() bool {
	return t > TagFree && t <= TagCache
}
