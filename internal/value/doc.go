// Package value defines the runtime datum model of the interpreter:
// values, their types and the provenance (Source) attached to tracked values.
package value
