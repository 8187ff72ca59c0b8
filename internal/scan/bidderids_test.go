package scan_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"artshow/internal/scan"
	"artshow/internal/show/models"
	"artshow/internal/show/store"
)

type BidderIDsSuite struct {
	suite.Suite
	store *store.Memory
}

func TestBidderIDsSuite(t *testing.T) {
	suite.Run(t, new(BidderIDsSuite))
}

func (s *BidderIDsSuite) SetupTest() {
	s.store = store.NewMemory()
	s.store.AddPerson(models.Person{ID: 7, Name: "Pat", Email: "pat@example.com"})
	s.store.AddPerson(models.Person{ID: 8, Name: "Sam"})
}

func (s *BidderIDsSuite) requireBatchError(err error) *scan.BatchError {
	s.T().Helper()
	s.Require().Error(err)
	batchErr, ok := err.(*scan.BatchError)
	s.Require().True(ok, "expected *scan.BatchError, got %T", err)
	return batchErr
}

func (s *BidderIDsSuite) TestRegistersBidderID() {
	err := scan.ProcessBidderIDs(context.Background(), s.store, "P7\nB100")
	s.Require().NoError(err)

	bidderID, err := s.store.GetBidderID(context.Background(), "100")
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, bidderID.BidderID)
}

func (s *BidderIDsSuite) TestSamePersonGetsOneBidder() {
	err := scan.ProcessBidderIDs(context.Background(), s.store, "P7\nB100\nP7\nB200")
	s.Require().NoError(err)

	first, err := s.store.GetBidderID(context.Background(), "100")
	s.Require().NoError(err)
	second, err := s.store.GetBidderID(context.Background(), "200")
	s.Require().NoError(err)
	s.Equal(first.BidderID, second.BidderID)
}

func (s *BidderIDsSuite) TestDistinctPersonsGetDistinctBidders() {
	err := scan.ProcessBidderIDs(context.Background(), s.store, "P7\nB100\nP8\nB200")
	s.Require().NoError(err)

	first, err := s.store.GetBidderID(context.Background(), "100")
	s.Require().NoError(err)
	second, err := s.store.GetBidderID(context.Background(), "200")
	s.Require().NoError(err)
	s.NotEqual(first.BidderID, second.BidderID)
}

func (s *BidderIDsSuite) TestLeadingZerosSignificant() {
	err := scan.ProcessBidderIDs(context.Background(), s.store, "P7\nB007\nP8\nB7")
	s.Require().NoError(err)

	_, err = s.store.GetBidderID(context.Background(), "007")
	s.NoError(err)
	_, err = s.store.GetBidderID(context.Background(), "7")
	s.NoError(err)
}

func (s *BidderIDsSuite) TestIgnoresAnnotationLines() {
	err := scan.ProcessBidderIDs(context.Background(), s.store, "checked in at table 3\nP7\nsee note\nB100\nok")
	s.Require().NoError(err)

	_, err = s.store.GetBidderID(context.Background(), "100")
	s.NoError(err)
}

func (s *BidderIDsSuite) TestDiagnostics() {
	s.Run("unknown person", func() {
		err := scan.ProcessBidderIDs(context.Background(), s.store, "P99\nB100")
		batchErr := s.requireBatchError(err)
		s.Equal([]string{
			"line 1: person 99 not found",
			"line 2: found bidder id, was not expecting it: B100",
		}, batchErr.Errors)
	})

	s.Run("bidder id already issued", func() {
		sponsor := models.Bidder{ID: uuid.New(), PersonID: 9, Name: "Kim"}
		s.store.AddBidder(sponsor)
		s.store.AddBidderID(models.BidderID{Code: "100", BidderID: sponsor.ID, CreatedAt: time.Now()})

		err := scan.ProcessBidderIDs(context.Background(), s.store, "P7\nB100")
		batchErr := s.requireBatchError(err)
		s.Equal([]string{
			"line 2: bidder id already exists: B100",
			"END: block incomplete",
		}, batchErr.Errors)
	})

	s.Run("two person codes in a row", func() {
		err := scan.ProcessBidderIDs(context.Background(), s.store, "P7\nP8\nB100")
		batchErr := s.requireBatchError(err)
		s.Equal([]string{"line 2: was expecting bidder ID, found P8"}, batchErr.Errors)
	})

	s.Run("bidder id before any person", func() {
		err := scan.ProcessBidderIDs(context.Background(), s.store, "B100\nP7\nB200")
		batchErr := s.requireBatchError(err)
		s.Equal([]string{"line 1: found bidder id, was not expecting it: B100"}, batchErr.Errors)
	})

	s.Run("input ends mid pair", func() {
		err := scan.ProcessBidderIDs(context.Background(), s.store, "P7")
		batchErr := s.requireBatchError(err)
		s.Equal([]string{"END: block incomplete"}, batchErr.Errors)
	})
}

func (s *BidderIDsSuite) TestAtomicityThroughTx() {
	tx := store.NewMemoryTx(s.store)
	err := tx.RunInTx(context.Background(), func(work scan.Store) error {
		return scan.ProcessBidderIDs(context.Background(), work, "P7\nB100\nP99\nB200")
	})
	s.Require().Error(err)

	// The issued bidder id from the clean first pair is rolled back too.
	_, err = s.store.GetBidderID(context.Background(), "100")
	s.Error(err)
}
