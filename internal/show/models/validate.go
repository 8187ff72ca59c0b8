package models

import "fmt"

// ValidationError reports a bid that fails the auction business rules. The
// scan machines record these as line diagnostics instead of aborting the run.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// CheckBid applies the domain rules for appending a bid to a piece. The
// existing slice must hold every bid already recorded for the piece, in any
// order. A nil return means the bid may be persisted.
func CheckBid(piece *Piece, existing []*Bid, bid *Bid) error {
	if piece == nil {
		return invalid("bid references no piece")
	}
	if bid.Amount < 1 {
		return invalid("bid amount must be at least 1")
	}
	if piece.NotForSale {
		return invalid("piece %s is not for sale", piece.Code())
	}
	top := 0
	for _, b := range existing {
		if b.Amount > top {
			top = b.Amount
		}
	}
	if bid.BuyNow && len(existing) > 0 {
		return invalid("buy now bid not allowed once bidding has started")
	}
	if bid.Amount <= top {
		return invalid("bid of %d does not exceed existing bid of %d", bid.Amount, top)
	}
	return nil
}
