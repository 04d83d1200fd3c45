// Package ledger implements the digest function and the HTTP client for the
// external certificate ledger.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"certiva/internal/domain"
)

// Digest computes the canonical SHA-256 fingerprint of a certificate record.
// The tuple is fixed and ordered: student name, certificate number, course,
// passing year, institution id, issue date (UTC date only). Free-text fields
// are lowercased and trimmed so re-derivation survives cosmetic edits.
func Digest(record *domain.CertificateRecord) string {
	tuple := strings.Join([]string{
		normalize(record.StudentName),
		strings.TrimSpace(record.CertificateNumber),
		normalize(record.Course),
		fmt.Sprintf("%d", record.PassingYear),
		record.InstitutionID.String(),
		record.DateOfIssue.UTC().Format("2006-01-02"),
	}, "|")
	sum := sha256.Sum256([]byte(tuple))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
