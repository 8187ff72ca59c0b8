//go:build integration

package batch_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"artshow/internal/batch"
	"artshow/pkg/platform/sentinel"
	"artshow/pkg/testutil/containers"
)

type PostgresBatchStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *batch.PostgresStore
}

func TestPostgresBatchStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresBatchStoreSuite))
}

func (s *PostgresBatchStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = batch.NewPostgres(s.postgres.DB)
}

func (s *PostgresBatchStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "batch_scans"))
}

func (s *PostgresBatchStoreSuite) newBatch(created time.Time) *batch.BatchScan {
	return &batch.BatchScan{
		ID:        uuid.New(),
		BatchType: batch.TypeBidFinal,
		Data:      "A1P1\nB100\n50\nNS",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (s *PostgresBatchStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	scan := s.newBatch(time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.Create(ctx, scan))

	got, err := s.store.Get(ctx, scan.ID)
	s.Require().NoError(err)
	s.Equal(scan.ID, got.ID)
	s.Equal(scan.BatchType, got.BatchType)
	s.Equal(scan.Data, got.Data)
	s.False(got.Processed)
}

func (s *PostgresBatchStoreSuite) TestGetNotFound() {
	_, err := s.store.Get(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresBatchStoreSuite) TestUpdateOutcome() {
	ctx := context.Background()
	scan := s.newBatch(time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, scan))

	scan.Processed = true
	scan.ProcessingLog = "2026-08-28 14:30:00\nProcessing Complete"
	scan.UpdatedAt = time.Now().UTC()
	s.Require().NoError(s.store.Update(ctx, scan))

	got, err := s.store.Get(ctx, scan.ID)
	s.Require().NoError(err)
	s.True(got.Processed)
	s.Equal(scan.ProcessingLog, got.ProcessingLog)
}

func (s *PostgresBatchStoreSuite) TestUpdateMissing() {
	err := s.store.Update(context.Background(), s.newBatch(time.Now()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresBatchStoreSuite) TestListOrdersByCreation() {
	ctx := context.Background()
	base := time.Now().UTC()
	second := s.newBatch(base.Add(time.Second))
	first := s.newBatch(base)
	s.Require().NoError(s.store.Create(ctx, second))
	s.Require().NoError(s.store.Create(ctx, first))

	got, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(first.ID, got[0].ID)
	s.Equal(second.ID, got[1].ID)
}
