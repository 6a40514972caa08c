// Package torah defines the data model of the Torah data tree.
//
// The tree is a set of static JSON files laid out as:
//
//	metadata/books.json
//	metadata/commentators.json
//	metadata/parashas.json
//	metadata/torah-structure.json
//	metadata/hebrew-lexicon.json
//	{book}/metadata.json
//	{book}/{parasha}/metadata.json
//	{book}/{parasha}/chapter-{ccc}.json           (legacy layout)
//	{book}/{parasha}/{parasha}-{ccc}-{vvv}.json   (per-verse layout)
//
// # Core Types
//
//   - Parasha: one of the 54 weekly reading units; may start or end mid-chapter
//   - Structure: chapter and verse counts per book (the Structure Index)
//   - ChapterFile / Verse: the legacy one-file-per-chapter layout
//   - VerseFile: the one-file-per-verse layout
//   - Word: a Hebrew word with translations and optional PaRDeS levels
//
// # Normalization
//
// A verse arrives either as a VerseFile or as an entry of a ChapterFile.
// Source is the tagged union of the two and Normalize turns either form into
// a Record, the single shape handed to consumers.
package torah
