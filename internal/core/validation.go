package core

// validation.go checks import candidates against the roster before anything
// is written.
//
// Validation happens in two independent passes:
//  1. Duplicates: a candidate's (name, registration) must not already be on
//     file or appear earlier in the same batch.
//  2. Conflicts: a candidate's (book, book page) must not be claimed by a
//     different student, on file or earlier in the batch.
//
// Both passes work on a snapshot of the roster taken when the import starts.
// Rows admitted earlier in the same run are covered by the in-batch checks,
// never by re-reading the store.

import (
	"fmt"
)

// DuplicateResult partitions candidates by the duplicate check.
type DuplicateResult struct {
	Valid    []Candidate
	Rejected []RowError
}

// RowError explains why a single row was not admitted.
type RowError struct {
	Line    int
	Key     IdentityKey
	Kind    RowErrorKind
	Message string
}

func (e RowError) Error() string { return e.Message }

// RowErrorKind classifies row rejections.
type RowErrorKind string

const (
	RowDuplicate RowErrorKind = "duplicate"
	RowConflict  RowErrorKind = "conflict"
	RowFailed    RowErrorKind = "failed"
)

// ValidateDuplicates rejects candidates whose identity key matches an
// existing key or an earlier candidate in the batch. The first occurrence in
// input order wins.
func ValidateDuplicates(candidates []Candidate, existing []IdentityKey) DuplicateResult {
	seen := make(map[IdentityKey]struct{}, len(existing)+len(candidates))
	for _, key := range existing {
		seen[key] = struct{}{}
	}
	firstLine := make(map[IdentityKey]int, len(candidates))

	var result DuplicateResult
	for _, c := range candidates {
		key := c.Key()
		if _, dup := seen[key]; dup {
			msg := fmt.Sprintf("Linha %d: aluno %s já está cadastrado", c.Line, key)
			if line, inBatch := firstLine[key]; inBatch {
				msg = fmt.Sprintf("Linha %d: aluno %s duplicado na planilha (primeira ocorrência na linha %d)", c.Line, key, line)
			}
			result.Rejected = append(result.Rejected, RowError{
				Line:    c.Line,
				Key:     key,
				Kind:    RowDuplicate,
				Message: msg,
			})
			continue
		}
		seen[key] = struct{}{}
		firstLine[key] = c.Line
		result.Valid = append(result.Valid, c)
	}
	return result
}

// ConflictRecord is the projection of a student used by the conflict check.
type ConflictRecord struct {
	Line     int // 0 for records already on file
	Identity IdentityKey
	Position ConflictKey
}

// ConflictResult lists rejected rows and the identity keys to exclude.
type ConflictResult struct {
	Rejected    []RowError
	InvalidKeys map[IdentityKey]struct{}
}

// Excluded reports whether key was flagged by the conflict check.
func (r ConflictResult) Excluded(key IdentityKey) bool {
	_, ok := r.InvalidKeys[key]
	return ok
}

// ValidateConflicts flags new records whose book/page pair is already held by
// a different identity. Existing records are the reference and are never
// flagged; among new records the first claimant in input order keeps the
// position. A record with an empty book and page claims nothing.
func ValidateConflicts(incoming, existing []ConflictRecord) ConflictResult {
	owners := make(map[ConflictKey]ConflictRecord, len(existing)+len(incoming))
	for _, rec := range existing {
		if rec.Position.IsZero() {
			continue
		}
		if _, taken := owners[rec.Position]; !taken {
			owners[rec.Position] = rec
		}
	}

	result := ConflictResult{InvalidKeys: make(map[IdentityKey]struct{})}
	for _, rec := range incoming {
		if rec.Position.IsZero() {
			continue
		}
		owner, taken := owners[rec.Position]
		if !taken {
			owners[rec.Position] = rec
			continue
		}
		if owner.Identity == rec.Identity {
			continue
		}

		where := "já registrado para"
		if owner.Line > 0 {
			where = fmt.Sprintf("já usado na linha %d por", owner.Line)
		}
		result.InvalidKeys[rec.Identity] = struct{}{}
		result.Rejected = append(result.Rejected, RowError{
			Line: rec.Line,
			Key:  rec.Identity,
			Kind: RowConflict,
			Message: fmt.Sprintf("Linha %d: aluno %s com %s %s %s",
				rec.Line, rec.Identity, rec.Position, where, owner.Identity),
		})
	}
	return result
}

// conflictRecordsFromCandidates projects candidates for ValidateConflicts.
func conflictRecordsFromCandidates(candidates []Candidate) []ConflictRecord {
	out := make([]ConflictRecord, len(candidates))
	for i, c := range candidates {
		out[i] = ConflictRecord{Line: c.Line, Identity: c.Key(), Position: c.ConflictKey()}
	}
	return out
}

// conflictRecordsFromStudents projects persisted students for ValidateConflicts.
func conflictRecordsFromStudents(students []Student) []ConflictRecord {
	out := make([]ConflictRecord, len(students))
	for i, s := range students {
		out[i] = ConflictRecord{Identity: s.Key(), Position: s.Certificate.ConflictKey()}
	}
	return out
}

// identityKeys returns the identity keys of persisted students.
func identityKeys(students []Student) []IdentityKey {
	keys := make([]IdentityKey, len(students))
	for i, s := range students {
		keys[i] = s.Key()
	}
	return keys
}
