// Package content supplies the fact sections shown in the page shell's
// content slot.
//
// A bundle is a manifest.json plus one Markdown file per section. The server
// starts from the bundle embedded in the binary and can hot-swap newer bundles
// published to S3:
//   - [Build]: parses the manifest and renders every section to sanitized HTML
//   - [Manager]: holds the active [Snapshot] behind an atomic pointer
//   - [Loader]: resolves the active bundle hash from SSM, downloads the
//     tar.gz from S3, verifies digest and optional KMS signature, extracts
//     it in memory and builds a snapshot
//   - [Watcher]: polls the loader and swaps validated snapshots into the Manager
//
// Extraction enforces a compressed size limit, a per-file limit, a total
// extracted limit and rejects anything but regular files with clean paths.
package content
