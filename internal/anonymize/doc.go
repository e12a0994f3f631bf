// Package anonymize scrubs personal data from candidates whose processes are
// all closed, keeping salted hashes of the normalized name and email so a
// returning candidate can still be recognized.
//
// Normalization is deterministic and order-insensitive for names: casing,
// accents, whitespace, and token order do not change the hash. The salt is a
// process-wide secret read from configuration; changing it breaks duplicate
// detection against already anonymized records.
package anonymize
