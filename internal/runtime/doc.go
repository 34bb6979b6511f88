// Package runtime walks include graphs.
//
// A Renderer expands a document into its final text and a Collector discovers the
// variables a document may need. Both run one depth-first traversal per call. The
// traversal owns an include.Chain, so a document that includes itself, directly or
// through others, fails with a CircularIncludeError while a document reached twice
// through sibling branches (a diamond) is fine. Documents are read at most once per
// traversal.
package runtime
