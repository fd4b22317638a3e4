// Package core provides the business logic for the student roster.
//
// It holds the import pipeline and the exporter, independent of any transport.
// Web handlers, the CLI and tests drive it through [Service] or directly
// through [Importer] and [Exporter], against any [Store].
//
// # Import Pipeline
//
// [Importer.ImportFile] turns the first sheet of an uploaded workbook into
// students:
//
//  1. The two layout header rows are skipped and the remaining rows are
//     numbered from 1 ([SkipHeader]).
//  2. Rows repeating the "Nome do Aluno" header are dropped ([NormalizeRows]).
//  3. Rows without a name become nothing; the rest become [Candidate]s.
//  4. Candidates already on the roster, or seen earlier in the sheet, are
//     rejected ([ValidateDuplicates]).
//  5. Candidates claiming a (book, page) pair owned by someone else are
//     rejected ([ValidateConflicts]).
//  6. Each survivor is written in its own transaction: certificate first,
//     then the student owning it.
//
// Row problems never abort an import. They are collected as messages in the
// [ImportReport], in the order duplicates, conflicts, persistence failures.
//
// # Dates
//
// [ResolveDate] accepts date cells, spreadsheet serial numbers, DD.MM.YY,
// DD.MM.YYYY, DD/MM/YYYY and a handful of generic layouts. Anything else,
// including impossible dates, resolves to an invalid [pgtype.Date].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - IMP001-IMP002: Import errors (missing input, lock busy)
//   - FILE001-FILE004: File errors (size, format, empty workbook)
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - REQ001-REQ002: Request errors (cancelled, timeout)
//
// # Transient Files
//
// Uploads and exports live in temporary directories. [StartSweeper] removes
// the ones an interrupted request left behind.
package core
