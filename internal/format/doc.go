// Package format печатает разобранную программу в каноническом виде.
//
// Назначение: `mimble fmt` и проверка round-trip в тестах.
// Комментарии `#` переносятся из промежутков между операторами.
// Зависимости: internal/ast, internal/parser, internal/source.
package format
