//go:build integration

package investor_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bondgate/internal/investor"
	id "bondgate/pkg/domain"
	"bondgate/pkg/platform/sentinel"
	"bondgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *investor.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = investor.NewPostgresStore(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "investors"))
}

func (s *PostgresStoreSuite) TestCreateGetUpdateRoundTrip() {
	ctx := context.Background()
	record := &investor.Record{
		Owner:     id.InvestorID(uuid.New()),
		FullNames: "Wanjiku Kamau",
		Country:   "KE",
		Active:    true,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.Create(ctx, record))

	got, err := s.store.Get(ctx, record.Owner)
	s.Require().NoError(err)
	s.Equal("Wanjiku Kamau", got.FullNames)
	s.True(got.Active)

	got.TotalUnits = 500
	got.AvailableFunds = 5
	s.Require().NoError(s.store.Update(ctx, got))

	after, err := s.store.Get(ctx, record.Owner)
	s.Require().NoError(err)
	s.EqualValues(500, after.TotalUnits)
	s.EqualValues(5, after.AvailableFunds)
}

func (s *PostgresStoreSuite) TestOwnerUniqueness() {
	ctx := context.Background()
	record := &investor.Record{Owner: id.InvestorID(uuid.New()), FullNames: "Wanjiku Kamau", Country: "KE", Active: true, CreatedAt: time.Now()}
	s.Require().NoError(s.store.Create(ctx, record))
	s.ErrorIs(s.store.Create(ctx, record), sentinel.ErrAlreadyExists)
}

func (s *PostgresStoreSuite) TestGetUnknownOwner() {
	_, err := s.store.Get(context.Background(), id.InvestorID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateUnknownOwner() {
	err := s.store.Update(context.Background(), &investor.Record{Owner: id.InvestorID(uuid.New())})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
