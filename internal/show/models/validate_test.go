package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBid(t *testing.T) {
	piece := &Piece{Artist: 1, PieceID: 1, Status: StatusInShow}

	t.Run("first bid of at least 1 is accepted", func(t *testing.T) {
		assert.NoError(t, CheckBid(piece, nil, &Bid{Amount: 1}))
	})

	t.Run("zero and negative amounts rejected", func(t *testing.T) {
		assert.Error(t, CheckBid(piece, nil, &Bid{Amount: 0}))
		assert.Error(t, CheckBid(piece, nil, &Bid{Amount: -5}))
	})

	t.Run("not for sale piece rejects any bid", func(t *testing.T) {
		nfs := &Piece{Artist: 2, PieceID: 1, NotForSale: true}
		err := CheckBid(nfs, nil, &Bid{Amount: 100})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "A2P1")
	})

	t.Run("bid must exceed the standing bid", func(t *testing.T) {
		existing := []*Bid{{Amount: 40}, {Amount: 25}}
		assert.Error(t, CheckBid(piece, existing, &Bid{Amount: 40}))
		assert.Error(t, CheckBid(piece, existing, &Bid{Amount: 30}))
		assert.NoError(t, CheckBid(piece, existing, &Bid{Amount: 41}))
	})

	t.Run("buy now only as the opening bid", func(t *testing.T) {
		assert.NoError(t, CheckBid(piece, nil, &Bid{Amount: 100, BuyNow: true}))
		err := CheckBid(piece, []*Bid{{Amount: 10}}, &Bid{Amount: 100, BuyNow: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "buy now")
	})

	t.Run("nil piece", func(t *testing.T) {
		assert.Error(t, CheckBid(nil, nil, &Bid{Amount: 10}))
	})

	t.Run("failures are validation errors", func(t *testing.T) {
		err := CheckBid(piece, nil, &Bid{Amount: 0})
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}
