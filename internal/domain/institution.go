package domain

import (
	"time"

	"github.com/google/uuid"
)

// Institution is the issuing body a certificate record belongs to.
type Institution struct {
	ID        uuid.UUID
	Name      string
	Code      string
	Active    bool
	Verified  bool
	CreatedAt time.Time
}

// Trusted reports whether the institution may anchor a full-confidence
// verification. Inactive or unverified institutions degrade, not block.
func (i Institution) Trusted() bool {
	return i.Active && i.Verified
}

// BlacklistType discriminates blacklist entries by what they identify.
type BlacklistType string

const (
	BlacklistCertificateNumber BlacklistType = "CERTIFICATE_NUMBER"
	BlacklistStudentName       BlacklistType = "STUDENT_NAME"
)

// BlacklistEntry marks a certificate number or student name as known-bad.
type BlacklistEntry struct {
	ID         uuid.UUID
	Type       BlacklistType
	Identifier string
	Reason     string
	AddedAt    time.Time
}
