package issuer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"bondgate/pkg/platform/sentinel"
)

type IssuerStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *IssuerStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestIssuerStoreSuite(t *testing.T) {
	suite.Run(t, new(IssuerStoreSuite))
}

func (s *IssuerStoreSuite) TestInitOnce() {
	s.Require().NoError(s.store.Init(s.ctx))

	err := s.store.Init(s.ctx)
	s.Require().ErrorIs(err, sentinel.ErrAlreadyExists)
}

func (s *IssuerStoreSuite) TestAppendRequiresInit() {
	err := s.store.Append(s.ctx, Record{Name: "Republic of Kenya"})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *IssuerStoreSuite) TestAppendOrderAndCapacity() {
	s.Require().NoError(s.store.Init(s.ctx))

	for i := 0; i < MaxIssuers; i++ {
		s.Require().NoError(s.store.Append(s.ctx, Record{Name: fmt.Sprintf("Issuer %d", i)}))
	}

	err := s.store.Append(s.ctx, Record{Name: "One Too Many"})
	s.Require().ErrorIs(err, sentinel.ErrCapacity)

	records, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, MaxIssuers)
	s.Equal("Issuer 0", records[0].Name)
	s.Equal("Issuer 4", records[4].Name)
}

func (s *IssuerStoreSuite) TestSnapshotRestore() {
	s.Require().NoError(s.store.Init(s.ctx))
	s.Require().NoError(s.store.Append(s.ctx, Record{Name: "Keep"}))

	snap := s.store.Snapshot()
	s.Require().NoError(s.store.Append(s.ctx, Record{Name: "Discard"}))
	s.store.Restore(snap)

	records, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("Keep", records[0].Name)
}
