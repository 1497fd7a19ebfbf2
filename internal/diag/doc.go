// Package diag defines the diagnostic model shared by the lexer and parser.
//
// Diagnostic is the central record: Severity, a numeric Code with a stable
// string form, a short Message, the Primary span and optional Notes. Phases
// emit through a Reporter so storage stays decoupled; BagReporter collects
// into a Bag, which supports sorting and deduplication.
//
// Package diag does not perform any formatting or IO. Rendering lives in
// internal/diagfmt.
package diag
