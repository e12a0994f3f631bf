// Package textutil provides text helpers shared by the anonymization engine
// and the document store: accent folding for comparisons and filename
// sanitization for files written under the documents directory.
package textutil
