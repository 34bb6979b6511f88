// Package include resolves include targets to document identities and tracks the
// active resolution chain of one traversal.
//
// A Resolver turns the raw path of an include directive into the cleaned absolute
// path of the file it names, and a Chain rejects entering an identity that is
// already being expanded. Both are shared by rendering and placeholder discovery
// so that the two traversals agree on what a cycle is.
package include
