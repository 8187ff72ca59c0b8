// Package store provides the show inventory store in two flavors: an
// in-memory implementation for tests and dev mode, and a PostgreSQL
// implementation whose transaction-scoped view backs batch processing.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"artshow/internal/show/models"
	"artshow/pkg/platform/sentinel"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the same store code serves both direct reads and transactional runs.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists the show inventory in PostgreSQL.
type Postgres struct {
	q Querier
}

// NewPostgres constructs a store over a database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

// NewPostgresTx constructs a transaction-scoped view of the store. All
// mutations through it live and die with the transaction.
func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{q: tx}
}

const pieceColumns = `artist, pieceid, name, location, status, adult, not_for_sale, voice_auction, bidsheet_scanned`

func (s *Postgres) GetPiece(ctx context.Context, artist, pieceID int) (*models.Piece, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+pieceColumns+` FROM pieces WHERE artist = $1 AND pieceid = $2`,
		artist, pieceID)
	var piece models.Piece
	err := row.Scan(&piece.Artist, &piece.PieceID, &piece.Name, &piece.Location, &piece.Status,
		&piece.Adult, &piece.NotForSale, &piece.VoiceAuction, &piece.BidsheetScanned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("piece A%dP%d: %w", artist, pieceID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get piece: %w", err)
	}
	return &piece, nil
}

func (s *Postgres) SavePiece(ctx context.Context, piece *models.Piece) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO pieces (`+pieceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (artist, pieceid) DO UPDATE SET
			name = EXCLUDED.name,
			location = EXCLUDED.location,
			status = EXCLUDED.status,
			adult = EXCLUDED.adult,
			not_for_sale = EXCLUDED.not_for_sale,
			voice_auction = EXCLUDED.voice_auction,
			bidsheet_scanned = EXCLUDED.bidsheet_scanned
	`, piece.Artist, piece.PieceID, piece.Name, piece.Location, piece.Status,
		piece.Adult, piece.NotForSale, piece.VoiceAuction, piece.BidsheetScanned)
	if err != nil {
		return fmt.Errorf("save piece: %w", err)
	}
	return nil
}

func (s *Postgres) GetBidderID(ctx context.Context, code string) (*models.BidderID, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT code, bidder_id, created_at FROM bidder_ids WHERE code = $1`, code)
	var bidderID models.BidderID
	err := row.Scan(&bidderID.Code, &bidderID.BidderID, &bidderID.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bidder id %s: %w", code, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get bidder id: %w", err)
	}
	return &bidderID, nil
}

func (s *Postgres) CreateBidderID(ctx context.Context, bidderID *models.BidderID) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO bidder_ids (code, bidder_id, created_at) VALUES ($1, $2, $3)`,
		bidderID.Code, bidderID.BidderID, bidderID.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("bidder id %s: %w", bidderID.Code, sentinel.ErrConflict)
		}
		return fmt.Errorf("create bidder id: %w", err)
	}
	return nil
}

func (s *Postgres) GetPerson(ctx context.Context, id int) (*models.Person, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, name, email FROM persons WHERE id = $1`, id)
	var person models.Person
	err := row.Scan(&person.ID, &person.Name, &person.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("person %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return &person, nil
}

func (s *Postgres) GetOrCreateBidder(ctx context.Context, person *models.Person) (*models.Bidder, error) {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO bidders (id, person_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (person_id) DO NOTHING
	`, uuid.New(), person.ID, person.Name)
	if err != nil {
		return nil, fmt.Errorf("create bidder: %w", err)
	}
	row := s.q.QueryRowContext(ctx,
		`SELECT id, person_id, name FROM bidders WHERE person_id = $1`, person.ID)
	var bidder models.Bidder
	if err := row.Scan(&bidder.ID, &bidder.PersonID, &bidder.Name); err != nil {
		return nil, fmt.Errorf("get bidder: %w", err)
	}
	return &bidder, nil
}

func (s *Postgres) CountBids(ctx context.Context, artist, pieceID int) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx,
		`SELECT count(*) FROM bids WHERE artist = $1 AND pieceid = $2`,
		artist, pieceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bids: %w", err)
	}
	return count, nil
}

func (s *Postgres) ValidateBid(ctx context.Context, bid *models.Bid) error {
	piece, err := s.GetPiece(ctx, bid.Artist, bid.PieceID)
	if err != nil {
		return err
	}
	existing, err := s.bidsForPiece(ctx, bid.Artist, bid.PieceID)
	if err != nil {
		return err
	}
	return models.CheckBid(piece, existing, bid)
}

func (s *Postgres) CreateBid(ctx context.Context, bid *models.Bid) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO bids (id, bidder_id, artist, pieceid, amount, buy_now, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, bid.ID, bid.BidderID, bid.Artist, bid.PieceID, bid.Amount, bid.BuyNow, bid.CreatedAt)
	if err != nil {
		return fmt.Errorf("create bid: %w", err)
	}
	return nil
}

func (s *Postgres) bidsForPiece(ctx context.Context, artist, pieceID int) ([]*models.Bid, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, bidder_id, artist, pieceid, amount, buy_now, created_at
		FROM bids WHERE artist = $1 AND pieceid = $2
	`, artist, pieceID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	var bids []*models.Bid
	for rows.Next() {
		var bid models.Bid
		err := rows.Scan(&bid.ID, &bid.BidderID, &bid.Artist, &bid.PieceID,
			&bid.Amount, &bid.BuyNow, &bid.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, &bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	return bids, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
