package model

import "time"

// RefundRequest asks an administrator to move a cancelled ticket to
// REFUNDED.  At most one request may exist per ticket; the approved
// flag flips from false to true exactly once and drives the linked
// ticket's final transition.
//
// Fields:
//  ID          – primary key identifier.
//  TicketID    – ticket the refund applies to.
//  Reason      – optional free-text justification.
//  Approved    – whether an administrator has approved the refund.
//  RequestedAt – when the request was filed.
//  ApprovedAt  – when it was approved (nil while pending).
type RefundRequest struct {
	ID          uint64     `json:"id"`                    // refund_requests.id
	TicketID    uint64     `json:"ticket_id"`             // refund_requests.ticket_id
	Reason      *string    `json:"reason,omitempty"`      // refund_requests.reason (nullable)
	Approved    bool       `json:"approved"`              // refund_requests.approved
	RequestedAt time.Time  `json:"requested_at"`          // refund_requests.requested_at
	ApprovedAt  *time.Time `json:"approved_at,omitempty"` // refund_requests.approved_at (nullable)
}
