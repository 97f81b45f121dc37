package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/requestcontext"
)

type JWTSuite struct {
	suite.Suite
	svc *Service
}

func (s *JWTSuite) SetupTest() {
	s.svc = NewService("test-signing-key", "bondgate", "bondgate-api")
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTSuite))
}

func (s *JWTSuite) TestRoundTrip() {
	callerID := uuid.NewString()
	token, err := s.svc.GenerateAccessToken(callerID, requestcontext.RoleInvestor, time.Minute)
	s.Require().NoError(err)

	claims, err := s.svc.ValidateToken(token)
	s.Require().NoError(err)
	s.Equal(callerID, claims.CallerID)
	s.Equal(string(requestcontext.RoleInvestor), claims.Role)
}

func (s *JWTSuite) TestRejectsExpiredToken() {
	token, err := s.svc.GenerateAccessToken(uuid.NewString(), requestcontext.RoleAdmin, -time.Minute)
	s.Require().NoError(err)

	_, err = s.svc.ValidateToken(token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestRejectsWrongKey() {
	other := NewService("other-key", "bondgate", "bondgate-api")
	token, err := other.GenerateAccessToken(uuid.NewString(), requestcontext.RoleAdmin, time.Minute)
	s.Require().NoError(err)

	_, err = s.svc.ValidateToken(token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestRejectsGarbage() {
	_, err := s.svc.ValidateToken("not-a-token")
	s.Require().Error(err)
}
