package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"artshow/internal/show/models"
	"artshow/pkg/platform/sentinel"
)

type bidState int

const (
	bidStart bidState = iota
	bidReadPiece
	bidReadBidder
	bidReadPrice
	bidErrorSkipping
)

// saleEffect captures what a disposition code does to the piece once its bid
// has been validated and persisted.
type saleEffect struct {
	buyNow       bool // record the bid as a buy-now bid
	wonOnFinal   bool // final scan marks the piece Won
	voiceAuction bool // piece goes to (or came from) the voice auction
}

type bidMachine struct {
	store     Store
	finalScan bool

	state  bidState
	errs   []string
	piece  *models.Piece
	bidder uuid.UUID
	price  int
}

// ProcessBids applies a bid batch. Each record is a strict slot sequence of
// piece, bidder, price, disposition; NFS and NB close a record directly after
// the piece. finalScan marks this as the last pass over the bid sheets,
// locking in Won status and the bidsheet-scanned flag.
//
// Diagnostics accumulate across the whole input; any diagnostic makes the
// run return a *BatchError, which discards all mutations.
func ProcessBids(ctx context.Context, store Store, data string, finalScan bool) error {
	m := &bidMachine{store: store, finalScan: finalScan, state: bidStart}
	for _, ln := range splitLines(data) {
		if err := m.step(ctx, ln); err != nil {
			return err
		}
	}
	if m.state != bidStart {
		m.errs = append(m.errs, "END: block incomplete")
	}
	if len(m.errs) > 0 {
		return newBatchError(m.errs)
	}
	return nil
}

func (m *bidMachine) errorf(ln scanLine, format string, args ...any) {
	m.errs = append(m.errs, fmt.Sprintf("line %d: ", ln.num)+fmt.Sprintf(format, args...))
}

func (m *bidMachine) step(ctx context.Context, ln scanLine) error {
	tok := classify(ln.text, bidGrammar)

	// A piece code starts a new record wherever it appears, resynchronizing
	// out of error-skipping.
	if tok.Kind == TokenPiece {
		if m.state != bidStart && m.state != bidErrorSkipping {
			m.errorf(ln, "previous block incomplete")
		}
		piece, err := m.store.GetPiece(ctx, tok.Artist, tok.PieceID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				m.errorf(ln, "piece %s does not exist", ln.text)
				m.state = bidErrorSkipping
				return nil
			}
			return err
		}
		m.piece = piece
		m.state = bidReadPiece
		return nil
	}
	if m.state == bidErrorSkipping {
		return nil
	}

	switch tok.Kind {
	case TokenBidder:
		if m.state != bidReadPiece {
			m.errorf(ln, "found bidder scan not immediately after piece")
			m.state = bidErrorSkipping
			return nil
		}
		bidderID, err := m.store.GetBidderID(ctx, tok.BidderCode)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				m.errorf(ln, "bidder %s does not exist", ln.text)
				m.state = bidErrorSkipping
				return nil
			}
			return err
		}
		m.bidder = bidderID.BidderID
		m.state = bidReadBidder
	case TokenPrice:
		if m.state != bidReadBidder {
			m.errorf(ln, "found price not immediately after bidder")
			m.state = bidErrorSkipping
			return nil
		}
		m.price = tok.Amount
		m.state = bidReadPrice
	case TokenNormalSale:
		// A stray NS with no open record is a common scanning artifact.
		if m.state == bidStart {
			return nil
		}
		if m.state != bidReadPrice {
			m.errorf(ln, "normal sale scan found not immediately after price")
			m.state = bidErrorSkipping
			return nil
		}
		return m.recordSale(ctx, ln, saleEffect{wonOnFinal: true})
	case TokenBuyNow:
		if m.state != bidReadPrice {
			m.errorf(ln, "buy now scan found not immediately after price")
			m.state = bidErrorSkipping
			return nil
		}
		return m.recordSale(ctx, ln, saleEffect{buyNow: true, wonOnFinal: true})
	case TokenAuctionSale:
		if m.state != bidReadPrice {
			m.errorf(ln, "auction sale scan found not immediately after price")
			m.state = bidErrorSkipping
			return nil
		}
		return m.recordSale(ctx, ln, saleEffect{voiceAuction: true})
	case TokenAuctionComplete:
		if m.state != bidReadPrice {
			m.errorf(ln, "auction complete scan found not immediately after price")
			m.state = bidErrorSkipping
			return nil
		}
		return m.recordSale(ctx, ln, saleEffect{wonOnFinal: true, voiceAuction: true})
	case TokenNotForSale:
		if m.state != bidReadPiece {
			m.errorf(ln, "not for sale scan found not immediately after piece")
			m.state = bidErrorSkipping
			return nil
		}
		if !m.piece.NotForSale {
			m.errorf(ln, "not for sale scan found on piece not marked not for sale")
			m.state = bidErrorSkipping
			return nil
		}
		return m.closeRecord(ctx)
	case TokenNoBids:
		if m.state != bidReadPiece {
			m.errorf(ln, "no bids scan found not immediately after piece")
			m.state = bidErrorSkipping
			return nil
		}
		count, err := m.store.CountBids(ctx, m.piece.Artist, m.piece.PieceID)
		if err != nil {
			return err
		}
		if count > 0 {
			m.errorf(ln, "no bids scan found for piece with bids")
			m.state = bidErrorSkipping
			return nil
		}
		return m.closeRecord(ctx)
	default:
		m.errorf(ln, "found unknown line %s", ln.text)
		m.state = bidErrorSkipping
	}
	return nil
}

// recordSale validates and persists the pending bid, then applies the
// disposition's piece effects. A failed validation is a diagnostic, not an
// infrastructure error, and resynchronizes via error-skipping.
func (m *bidMachine) recordSale(ctx context.Context, ln scanLine, effect saleEffect) error {
	bid := &models.Bid{
		ID:        uuid.New(),
		BidderID:  m.bidder,
		Artist:    m.piece.Artist,
		PieceID:   m.piece.PieceID,
		Amount:    m.price,
		BuyNow:    effect.buyNow,
		CreatedAt: time.Now(),
	}
	if err := m.store.ValidateBid(ctx, bid); err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			m.errorf(ln, "invalid bid: %s", vErr.Reason)
			m.state = bidErrorSkipping
			return nil
		}
		return err
	}
	if err := m.store.CreateBid(ctx, bid); err != nil {
		return err
	}
	if m.finalScan {
		m.piece.BidsheetScanned = true
		if effect.wonOnFinal {
			m.piece.Status = models.StatusWon
		}
	}
	if effect.voiceAuction {
		m.piece.VoiceAuction = true
	}
	if err := m.store.SavePiece(ctx, m.piece); err != nil {
		return err
	}
	m.state = bidStart
	return nil
}

// closeRecord finishes an NFS or NB record: no bid is written, but a final
// scan still marks the bid sheet as collected.
func (m *bidMachine) closeRecord(ctx context.Context) error {
	if m.finalScan {
		m.piece.BidsheetScanned = true
	}
	if err := m.store.SavePiece(ctx, m.piece); err != nil {
		return err
	}
	m.state = bidStart
	return nil
}
