package genericclioptions

// SearchOptions defines the common entry-filtering flags shared by commands
// that locate an entry before acting on it (get, edit, remove, copy, peek).
type SearchOptions struct {
	IDs    []string
	Name   string
	Labels []string
}

type Usage int

const (
	_ Usage = iota
	ID
	NAME
	LABELS
)

var usage = map[Usage]string{
	ID:     "filter by entry ID prefix (comma-separated or repeated)",
	NAME:   "filter by entry name",
	LABELS: "filter by entry label (comma-separated or repeated)",
}

var _ BaseOptions = &SearchOptions{}

func (*SearchOptions) Usage(field Usage) string {
	if u, ok := usage[field]; ok {
		return u
	}

	return "unknown usage"
}

func (*SearchOptions) Complete() error {
	return nil
}

func (*SearchOptions) Validate() error {
	return nil
}
