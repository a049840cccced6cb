// Package internal contains the core implementation packages for pages.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - loader: Template source discovery, front matter parsing and module caching
//   - registry: Ordered template registry with change events
//   - feature: Feature and stream config synthesis per template
//   - generate: templates.json, features.json, artifacts.json and ci.json writers
//   - renderer: Response generation and the server/client page wrap
//   - build: Bundling, bundle validation, functions and the finalizer
//   - generator: Rendering stream documents into dist
//   - datadoc: Stream document decoding and local data lookup
//   - watcher: File system monitoring with debouncing and template sync
//   - config, errors, logging, types, version: Shared infrastructure
//
// # Data Flow
//
// Template sources flow through the packages in one direction:
//
//   - loader turns files into template modules
//   - registry keeps them in a stable order and rejects duplicate features
//   - feature and generate derive the descriptors the platform reads
//   - build bundles sources and runs the finalizer steps
//   - generator and renderer turn documents into pages
//
// Each step reports failures as errors.PagesError values so the CLI can
// print targeted suggestions.
package internal
