// Package batch defines the BatchScan unit of work and its stores. A batch
// is one submitted block of raw scan text plus a type code; processing it is
// the dispatcher service's job.
package batch

import (
	"time"

	"github.com/google/uuid"
)

// BatchType selects which scan machine processes a batch.
type BatchType string

const (
	TypeLocation   BatchType = "location"
	TypeBidInterim BatchType = "bid_interim"
	TypeBidFinal   BatchType = "bid_final"
	TypeBidderID   BatchType = "bidder_id"
)

// IsValid reports whether t is one of the known batch types.
func (t BatchType) IsValid() bool {
	switch t {
	case TypeLocation, TypeBidInterim, TypeBidFinal, TypeBidderID:
		return true
	}
	return false
}

// BatchScan is one submitted scan batch. The dispatcher mutates only
// Processed and ProcessingLog; Data and BatchType are fixed at submission.
type BatchScan struct {
	ID            uuid.UUID
	BatchType     BatchType
	Data          string
	Processed     bool
	ProcessingLog string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
