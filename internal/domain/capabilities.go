package domain

// SchemaCapabilities describes which optional parts of the storage schema
// exist in the current deployment. Probed once at process startup and passed
// around as an immutable value; missing capability degrades query shape, it
// never fails a request.
type SchemaCapabilities struct {
	// ResourceLinks is true when the many-to-many resource link tables
	// (session_trainers, session_units, variant_trainers, variant_units)
	// have been migrated. When false, only the legacy scalar columns are
	// queried and written.
	ResourceLinks bool
}

// FullCapabilities is the shape of a fully migrated schema
func FullCapabilities() SchemaCapabilities {
	return SchemaCapabilities{ResourceLinks: true}
}
