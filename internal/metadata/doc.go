// Package metadata describes the resources a service exposes and resolves
// them by name.
//
// The translation packages only consume the Resolver interface. This
// package also supplies the implementations the client uses:
//
//   - Static: an in-memory resource set, safe for concurrent reads
//   - Lazy: fetches a metadata document on first use, de-duplicating
//     concurrent fetches, and caches it
//   - LoadCUE / CompileCUE: a resource set declared in CUE files
//   - ParseCSDL: a resource set read from an EDMX $metadata document
//
// Resources returned by a Resolver are shared and must be treated as
// read-only.
package metadata
