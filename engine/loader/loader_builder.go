package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithMeshes is an option builder that pre-populates the mesh cache, so loading name returns
// meshes without touching the filesystem.
//
// Parameters:
//   - name: the cache key, a cleaned file path for Load
//   - meshes: the meshes to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the meshes option to a loader
func WithMeshes(name string, meshes []ImportedMesh) LoaderBuilderOption {
	return func(l *loader) {
		l.meshCache[name] = meshes
	}
}
