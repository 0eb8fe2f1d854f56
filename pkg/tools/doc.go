// Package tools defines the tool kinds the dispatch router can select,
// the Classifier that maps free text to a kind, and the ToolExecutor
// contract that tool backends implement.
//
// This package has no dependencies outside the standard library.
package tools
