package model

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Structural equality ignores where a node came from: source positions,
// the document URI, and comments. Two sources with the same logical content
// compare equal regardless of formatting, which is what the round-trip
// guarantee between the Gherkin and structured paths is stated in terms of.
var structuralOpts = cmp.Options{
	cmpopts.IgnoreTypes(Location{}),
	cmpopts.IgnoreFields(Document{}, "URI", "Comments"),
	cmpopts.EquateEmpty(),
}

// Equal reports whether two documents are structurally equal.
func Equal(a, b *Document) bool {
	return cmp.Equal(a, b, structuralOpts)
}

// Diff describes the structural differences between two documents, empty
// when they are equal. Intended for test failure output.
func Diff(a, b *Document) string {
	return cmp.Diff(a, b, structuralOpts)
}
