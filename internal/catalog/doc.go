// Package catalog talks to the shared catalog service that owns the
// media library. The catalog is the only coordination medium between
// filmstrip nodes: claims, error markers, fingerprints, and cover
// images all live there as item state.
package catalog
