// Package errors provides coded, actionable errors for querysync.
//
// Every error raised at a package boundary carries a code (e.g. "Q001")
// that maps to a registered template:
//   - a short message describing the error
//   - a longer explanation
//   - a category used for grouping
//
// # Error Categories
//
//   - binding: setting up or running a query-parameter binding
//   - property: defining or looking up observed properties
//   - codec: decoding URL parameter text
//   - navigation: issuing router navigations
//   - config: loading or validating querysync.json
//   - library: catalog lookups
//
// # Usage
//
//	err := errors.New("Q004").
//	    WithDetail(`property "search" is not defined`).
//	    WithSuggestion(`define it first with reactive.Define(props, "search", "")`)
//
//	fmt.Println(err.Format())
//
// Errors wrap their cause, so the standard library's errors.Is and
// errors.As see through them. IsCode checks for a particular code.
package errors
