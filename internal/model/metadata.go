package model

// Metadata is the free-form key/value mapping attached to a content item.
// Part of it arrives with the upload, the rest is produced by the tagging
// worker. Values must be JSON-serializable.
type Metadata map[string]any

// Merge combines generated metadata over m and returns the result as a new
// map; neither input is modified. Keys only present in m survive untouched,
// keys only present in generated are added, and on collision the generated
// value wins. The generation-wins direction is a user-facing contract.
func (m Metadata) Merge(generated Metadata) Metadata {
	merged := make(Metadata, len(m)+len(generated))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range generated {
		merged[k] = v
	}
	return merged
}

// Clone returns a shallow copy of m. A nil map clones to an empty map so
// callers can write to the result.
func (m Metadata) Clone() Metadata {
	c := make(Metadata, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
