package ao3

import "strconv"

// Kind names an entity variant an Object may stand in for.
type Kind string

const (
	KindWork   Kind = "Work"
	KindSeries Kind = "Series"
	KindUser   Kind = "User"
	KindTag    Kind = "Tag"
)

// Object is a lightweight stand-in for an entity when only its identity
// is known, e.g. an author reference on a work page or a series
// membership in a listing. It never triggers a fetch; resolve it through
// the Client to get a loadable entity.
type Object struct {
	ID   int64
	Name string
	Kind Kind
}

func (o Object) String() string {
	if o.Name != "" {
		return o.Name
	}
	return string(o.Kind) + " #" + strconv.FormatInt(o.ID, 10)
}
