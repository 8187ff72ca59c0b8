package scan

import (
	"context"
	"errors"
	"fmt"

	"artshow/internal/show/models"
	"artshow/pkg/platform/sentinel"
)

type locationState int

const (
	locStart locationState = iota
	locReadLocation
	locErrorSkipping
)

// ProcessLocations applies a location batch: each block is a location-open
// code, one or more piece codes, and a close code. Every listed piece gets
// the block's location and is promoted into the show if it was not already.
//
// Every line is processed and diagnostics accumulate; if any were recorded
// the run returns a *BatchError and the caller must discard all mutations.
func ProcessLocations(ctx context.Context, store Store, data string) error {
	var errs []string
	state := locStart
	current := ""

	for _, ln := range splitLines(data) {
		tok := classify(ln.text, locationGrammar)

		// A location-open always resynchronizes, even out of error-skipping.
		if tok.Kind == TokenLocationOpen {
			if state != locStart && state != locErrorSkipping {
				errs = append(errs, fmt.Sprintf("line %d: previous block incomplete", ln.num))
			}
			current = tok.Location
			state = locReadLocation
			continue
		}
		if state == locErrorSkipping {
			continue
		}

		switch tok.Kind {
		case TokenPiece:
			if state != locReadLocation {
				errs = append(errs, fmt.Sprintf("line %d: piece %s not found immediately after location", ln.num, ln.text))
				continue
			}
			piece, err := store.GetPiece(ctx, tok.Artist, tok.PieceID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					errs = append(errs, fmt.Sprintf("line %d: piece %s does not exist", ln.num, ln.text))
					state = locErrorSkipping
					continue
				}
				return err
			}
			piece.Location = current
			if piece.Status == models.StatusNotInShow || piece.Status == models.StatusNotInShowLocked {
				piece.Status = models.StatusInShow
			}
			if err := store.SavePiece(ctx, piece); err != nil {
				return err
			}
		case TokenLocationClose:
			if state == locReadLocation {
				state = locStart
			} else {
				errs = append(errs, fmt.Sprintf("line %d: location block ended without being begun", ln.num))
			}
		default:
			errs = append(errs, fmt.Sprintf("line %d: unknown code %s", ln.num, ln.text))
			state = locErrorSkipping
		}
	}

	if state != locStart {
		errs = append(errs, "END: block incomplete")
	}
	if len(errs) > 0 {
		return newBatchError(errs)
	}
	return nil
}
