// Package network enumerates the directed exporter→importer edges a trade
// technology operates over: either the full product of the configured node
// list, or the edges marked included in a user-curated inclusion file.
//
// Curated mode is a deliberate two-phase workflow: on first invocation the
// builder writes a full-edge template and fails with a MissingCuratedInput
// error; the user annotates the file and reruns.
package network
