package scan

import (
	"context"

	"artshow/internal/show/models"
)

// Store is everything the scan machines need from persistence. Lookups that
// miss return an error wrapping sentinel.ErrNotFound. The caller supplies a
// transaction-scoped implementation; every mutation performed through it must
// be committed or discarded as one unit.
type Store interface {
	GetPiece(ctx context.Context, artist, pieceID int) (*models.Piece, error)
	SavePiece(ctx context.Context, piece *models.Piece) error

	GetBidderID(ctx context.Context, code string) (*models.BidderID, error)
	CreateBidderID(ctx context.Context, bidderID *models.BidderID) error

	GetPerson(ctx context.Context, id int) (*models.Person, error)
	GetOrCreateBidder(ctx context.Context, person *models.Person) (*models.Bidder, error)

	CountBids(ctx context.Context, artist, pieceID int) (int, error)
	ValidateBid(ctx context.Context, bid *models.Bid) error
	CreateBid(ctx context.Context, bid *models.Bid) error
}
