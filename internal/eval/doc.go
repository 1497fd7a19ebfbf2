// Package eval executes parsed programs.
//
// The Evaluator walks the AST directly, keeping a scoped environment of
// bindings. Global bindings survive between Exec calls until Reset.
// Every semantically significant step is reported to the attached
// trace.Tracer; tracing never changes the functional result.
package eval
