package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"artshow/internal/show/models"
	"artshow/pkg/platform/sentinel"
)

type regState int

const (
	regStart regState = iota
	regReadPerson
)

// ProcessBidderIDs applies a bidder-id registration batch: pairs of a person
// badge code and a freshly issued bidder id card. The bidder record for the
// person is created on first use; a bidder id code can never be re-issued.
//
// Unlike the other machines this grammar ignores unrecognized lines, since
// registration sheets carry free-form annotations between scans.
func ProcessBidderIDs(ctx context.Context, store Store, data string) error {
	var errs []string
	state := regStart
	var person *models.Person

	for _, ln := range splitLines(data) {
		tok := classify(ln.text, bidderIDGrammar)
		switch tok.Kind {
		case TokenPerson:
			if state != regStart {
				errs = append(errs, fmt.Sprintf("line %d: was expecting bidder ID, found %s", ln.num, ln.text))
				continue
			}
			p, err := store.GetPerson(ctx, tok.PersonID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					errs = append(errs, fmt.Sprintf("line %d: person %d not found", ln.num, tok.PersonID))
					continue
				}
				return err
			}
			person = p
			state = regReadPerson
		case TokenBidder:
			if state != regReadPerson {
				errs = append(errs, fmt.Sprintf("line %d: found bidder id, was not expecting it: %s", ln.num, ln.text))
				continue
			}
			_, err := store.GetBidderID(ctx, tok.BidderCode)
			if err == nil {
				errs = append(errs, fmt.Sprintf("line %d: bidder id already exists: %s", ln.num, ln.text))
				continue
			}
			if !errors.Is(err, sentinel.ErrNotFound) {
				return err
			}
			bidder, err := store.GetOrCreateBidder(ctx, person)
			if err != nil {
				return err
			}
			bidderID := &models.BidderID{Code: tok.BidderCode, BidderID: bidder.ID, CreatedAt: time.Now()}
			if err := store.CreateBidderID(ctx, bidderID); err != nil {
				return err
			}
			state = regStart
		}
	}

	if state != regStart {
		errs = append(errs, "END: block incomplete")
	}
	if len(errs) > 0 {
		return newBatchError(errs)
	}
	return nil
}
