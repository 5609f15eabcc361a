package model

import "time"

// Guest is an unauthenticated booking identity keyed by email.  A
// guest record is created lazily on the first guest booking with a
// given email and reused afterwards; emails are not unique across
// time.  The verification code is generated at creation but no flow
// validates it yet.
//
// Fields:
//  ID               – primary key identifier.
//  Email            – contact address supplied at booking time.
//  VerificationCode – 6-digit numeric string, currently unused.
//  CreatedAt        – creation timestamp.
type Guest struct {
	ID               uint64    `json:"id"`                // guests.id
	Email            string    `json:"email"`             // guests.email
	VerificationCode string    `json:"verification_code"` // guests.verification_code
	CreatedAt        time.Time `json:"created_at"`        // guests.created_at
}
