package model

// SeenEntry is one line of the persisted duplicate manifest: a namespace,
// the location that first produced the content, and the normalized content
// itself. Rehydrating these at run start makes re-processing idempotent.
type SeenEntry struct {
	Namespace string
	Location  string
	Content   string
}
