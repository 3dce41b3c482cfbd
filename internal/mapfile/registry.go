package mapfile

import "golang.org/x/sync/singleflight"

// Registry coalesces concurrent Open calls for the same path into a single
// parse. This matters when several per-layer render workers (spec.md §5)
// start up at once and all need the same map file's header: without
// coalescing, each would redundantly read and validate the prelude.
//
// A Registry holds no per-path cache beyond the in-flight request group —
// once a call returns, a later Open for the same path parses again. Callers
// that want to keep a MapFile around for a whole render session should
// store the *MapFile themselves; Registry only dedupes concurrent opens.
type Registry struct {
	group singleflight.Group
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Open parses the map file at path, sharing the result with any other
// goroutine concurrently calling Open for the same path.
func (r *Registry) Open(path string) (*MapFile, error) {
	v, err, _ := r.group.Do(path, func() (interface{}, error) {
		return Open(path)
	})
	if err != nil {
		return nil, err
	}
	return v.(*MapFile), nil
}
