// Package models defines the art-show inventory entities the scan processor
// reads and mutates: pieces, bidders, bidder ids, bids, and the registered
// persons bidders are created for.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PieceStatus tracks where a piece is in its show lifecycle. Transitions are
// monotonic toward Won/Sold once a disposition has been scanned.
type PieceStatus int

const (
	StatusNotInShow PieceStatus = iota
	StatusNotInShowLocked
	StatusInShow
	StatusWon
	StatusSold
	StatusReturned
)

func (s PieceStatus) String() string {
	switch s {
	case StatusNotInShow:
		return "not_in_show"
	case StatusNotInShowLocked:
		return "not_in_show_locked"
	case StatusInShow:
		return "in_show"
	case StatusWon:
		return "won"
	case StatusSold:
		return "sold"
	case StatusReturned:
		return "returned"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Piece is a single artwork, identified by (artist number, piece number) as
// printed on its bid sheet.
type Piece struct {
	Artist          int
	PieceID         int
	Name            string
	Location        string
	Status          PieceStatus
	Adult           bool
	NotForSale      bool
	VoiceAuction    bool
	BidsheetScanned bool
}

// Key returns the composite lookup key for a piece.
func (p *Piece) Key() PieceKey {
	return PieceKey{Artist: p.Artist, PieceID: p.PieceID}
}

// Code renders the piece identifier the way it appears on scan sheets.
func (p *Piece) Code() string {
	return fmt.Sprintf("A%dP%d", p.Artist, p.PieceID)
}

// PieceKey is the composite identity of a piece.
type PieceKey struct {
	Artist  int
	PieceID int
}

// Person is a pre-existing registration record imported from the convention
// registration database.
type Person struct {
	ID    int
	Name  string
	Email string
}

// Bidder is the auction-facing identity for a person. It is created lazily
// the first time a bidder id is registered for that person; a person has at
// most one bidder.
type Bidder struct {
	ID       uuid.UUID
	PersonID int
	Name     string
}

// BidderID is a short scanned registration code mapped to exactly one bidder.
// Codes are kept as strings because leading zeros are significant on the
// printed cards. A code is immutable once created.
type BidderID struct {
	Code      string
	BidderID  uuid.UUID
	CreatedAt time.Time
}

// Bid records one offer on a piece. Bids are appended during scan processing
// and never mutated afterwards.
type Bid struct {
	ID        uuid.UUID
	BidderID  uuid.UUID
	Artist    int
	PieceID   int
	Amount    int
	BuyNow    bool
	CreatedAt time.Time
}
