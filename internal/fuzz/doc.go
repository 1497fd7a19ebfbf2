// Package fuzztests houses Go fuzz harnesses for the Mimble pipeline
// (source -> lexer -> parser -> evaluator). They guard against panics,
// hangs and span corruption on arbitrary input, and check that attaching a
// tracer never changes what a program computes.
//
// Назначение: запускать fuzz-обработчики поверх FileSet, лексера, парсера и
// интерпретатора.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
