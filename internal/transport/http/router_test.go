package httptransport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bondgate/internal/bond"
	"bondgate/internal/custody"
	"bondgate/internal/investor"
	"bondgate/internal/issuer"
	jwttoken "bondgate/internal/jwt_token"
	"bondgate/internal/token"
	"bondgate/internal/transfer"
	"bondgate/pkg/requestcontext"
)

// RouterSuite exercises the full boundary: JWT middleware, role guards,
// and the handlers wired to real services over memory stores.
type RouterSuite struct {
	suite.Suite
	server *httptest.Server
	jwt    *jwttoken.Service
	ledger *token.InProcessLedger

	adminID    string
	investorID string
}

func (s *RouterSuite) SetupTest() {
	logger := testLogger()
	s.jwt = jwttoken.NewService("router-test-key", "bondgate", "bondgate")
	s.ledger = token.NewInProcessLedger()

	deriver, err := custody.NewDeriver([]byte("router-test-seed"))
	s.Require().NoError(err)

	issuers := issuer.NewInMemoryStore()
	bonds := bond.NewInMemoryStore()
	deposits := bond.NewInMemoryDepositStore()
	investors := investor.NewInMemoryStore()

	issuerSvc := issuer.NewService(issuers, issuer.WithLogger(logger))
	investorSvc := investor.NewService(investors, investor.WithLogger(logger))
	bondSvc := bond.NewService(
		bond.NewInMemoryTx(nil, bonds, deposits, issuers),
		bonds, deriver, s.ledger,
		bond.WithLogger(logger),
	)
	engine := transfer.NewEngine(
		transfer.NewInMemoryTx(nil, bonds, deposits, investors),
		s.ledger, deriver,
		transfer.WithLogger(logger),
	)

	router := NewRouter(Deps{
		Logger:       logger,
		JWTValidator: jwttoken.NewMiddlewareAdapter(s.jwt),
		Registry:     NewRegistryHandler(issuerSvc, logger),
		Investors:    NewInvestorHandler(investorSvc, logger),
		Bonds:        NewBondHandler(bondSvc, logger),
		Transfers:    NewTransferHandler(engine, logger),
		Tokens:       NewTokenHandler(s.ledger, deriver, logger),
	})
	s.server = httptest.NewServer(router)

	s.adminID = uuid.NewString()
	s.investorID = uuid.NewString()
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) tokenFor(callerID string, role requestcontext.Role) string {
	tok, err := s.jwt.GenerateAccessToken(callerID, role, time.Hour)
	s.Require().NoError(err)
	return tok
}

func (s *RouterSuite) do(method, path, bearer string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *RouterSuite) decodeError(resp *http.Response) string {
	defer resp.Body.Close()
	var envelope struct {
		Error string `json:"error"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Error
}

func (s *RouterSuite) registerBond(adminToken string) string {
	resp := s.do(http.MethodPost, "/registry/init", adminToken, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodPost, "/bonds", adminToken, map[string]any{
		"issuer_name":           "Republic of Kenya",
		"country":               "KE",
		"issue_no":              "FXD1/2026/10",
		"type_of_bond":          1,
		"tenor":                 10,
		"coupon_rate":           12,
		"total_amounts_offered": 1000000,
		"minimum_bid_amount":    1,
		"unit_cost":             100,
		"decimals":              2,
		"value_date":            "2026-09-01",
		"redemption_date":       "2036-09-01",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	defer resp.Body.Close()
	var created struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&created))
	return created.ID
}

func (s *RouterSuite) TestUnauthenticatedRequestsRejected() {
	resp := s.do(http.MethodPost, "/registry/init", "", nil)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterSuite) TestInvestorCannotUseAdminSurface() {
	investorToken := s.tokenFor(s.investorID, requestcontext.RoleInvestor)
	resp := s.do(http.MethodPost, "/registry/init", investorToken, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *RouterSuite) TestFullSubscriptionFlow() {
	adminToken := s.tokenFor(s.adminID, requestcontext.RoleAdmin)
	investorToken := s.tokenFor(s.investorID, requestcontext.RoleInvestor)

	bondID := s.registerBond(adminToken)

	resp := s.do(http.MethodPost, "/investors", investorToken, map[string]any{
		"full_names": "Wanjiku Kamau",
		"country":    "KE",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Fund the investor's custody account, then subscribe.
	resp = s.do(http.MethodPost, "/tokens/mint", adminToken, map[string]any{
		"investor":   s.investorID,
		"base_units": 500,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodPost, fmt.Sprintf("/bonds/%s/buy", bondID), investorToken, map[string]any{
		"amount": 5,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodGet, "/investors/me", investorToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	var me struct {
		TotalUnits     uint64 `json:"total_units"`
		AvailableFunds uint64 `json:"available_funds"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&me))
	s.EqualValues(500, me.TotalUnits)
	s.EqualValues(5, me.AvailableFunds)
}

func (s *RouterSuite) TestMaturityGateSurfacesAsUnprocessable() {
	adminToken := s.tokenFor(s.adminID, requestcontext.RoleAdmin)
	investorToken := s.tokenFor(s.investorID, requestcontext.RoleInvestor)

	bondID := s.registerBond(adminToken)
	resp := s.do(http.MethodPost, "/investors", investorToken, map[string]any{
		"full_names": "Wanjiku Kamau",
		"country":    "KE",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodPost, fmt.Sprintf("/bonds/%s/redeem", bondID), investorToken, map[string]any{
		"amount": 5,
	})
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	s.Equal("invalid_bond_maturity_status", s.decodeError(resp))
}

func (s *RouterSuite) TestSecondMaturityCommandConflicts() {
	adminToken := s.tokenFor(s.adminID, requestcontext.RoleAdmin)
	bondID := s.registerBond(adminToken)

	resp := s.do(http.MethodPost, fmt.Sprintf("/bonds/%s/mature", bondID), adminToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodPost, fmt.Sprintf("/bonds/%s/mature", bondID), adminToken, nil)
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	s.Equal("invalid_bond_maturity_status", s.decodeError(resp))
}

func (s *RouterSuite) TestValidationErrorEnvelope() {
	adminToken := s.tokenFor(s.adminID, requestcontext.RoleAdmin)
	resp := s.do(http.MethodPost, "/registry/init", adminToken, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodPost, "/bonds", adminToken, map[string]any{
		"issuer_name": "Republic of Kenya",
		"country":     "KE",
		"issue_no":    "FXD1/2026/10",
		"type_of_bond": 1,
		"tenor":        1,
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("invalid_bond_tenor", s.decodeError(resp))
}
