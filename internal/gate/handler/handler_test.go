package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"consentgate/internal/consent"
	"consentgate/internal/gate"
	"consentgate/internal/gate/handler/mocks"
	"consentgate/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/gate_mocks.go -package=mocks Service
type GateHandlerSuite struct {
	suite.Suite
}

func TestGateHandlerSuite(t *testing.T) {
	suite.Run(t, new(GateHandlerSuite))
}

func newTestHandler(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, logger, 30)
	r := chi.NewRouter()
	h.Register(r)
	return r, mockService
}

func (s *GateHandlerSuite) TestHandleEvaluate() {
	router, mockService := newTestHandler(s.T())
	evaluatedAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	mockService.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req gate.EvaluateRequest) *gate.AggregateDecision {
			assert.Equal(s.T(), "photo", req.MediaType)
			assert.Equal(s.T(), "instagram", req.Platform)
			require.Len(s.T(), req.Players, 1)
			assert.Equal(s.T(), "P001", req.Players[0].ID)
			return &gate.AggregateDecision{
				Allowed:   false,
				Reason:    consent.ReasonConsentRevoked,
				MediaType: req.MediaType,
				Platform:  req.Platform,
				Players: []consent.Decision{{
					PlayerID:  "P001",
					Allowed:   false,
					Reason:    consent.ReasonConsentRevoked,
					Redaction: consent.Everything(),
				}},
				Redaction:   consent.Everything(),
				EvaluatedAt: evaluatedAt,
			}
		})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/gate/evaluate", EvaluateRequest{
		Players:   []PlayerRefPayload{{ID: "P001"}},
		MediaType: "photo",
		Platform:  "instagram",
	})
	rr := testutil.DoRequest(router, req)

	assert.Equal(s.T(), http.StatusOK, rr.Code)

	resp := testutil.UnmarshalResponse[EvaluateResponse](s.T(), rr)
	assert.False(s.T(), resp.Allowed)
	assert.Equal(s.T(), consent.ReasonConsentRevoked, resp.Reason)
	assert.True(s.T(), resp.AnonymiseFaces)
	assert.True(s.T(), resp.UseInitialsOnly)
	require.Len(s.T(), resp.Players, 1)
	assert.Equal(s.T(), "P001", resp.Players[0].PlayerID)
}

func (s *GateHandlerSuite) TestHandleEvaluateValidation() {
	s.Run("missing media_type", func() {
		router, _ := newTestHandler(s.T())
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/gate/evaluate", EvaluateRequest{Platform: "instagram"})
		rr := testutil.DoRequest(router, req)
		assert.Equal(s.T(), http.StatusBadRequest, rr.Code)
	})

	s.Run("missing platform", func() {
		router, _ := newTestHandler(s.T())
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/gate/evaluate", EvaluateRequest{MediaType: "photo"})
		rr := testutil.DoRequest(router, req)
		assert.Equal(s.T(), http.StatusBadRequest, rr.Code)
	})

	s.Run("malformed body", func() {
		router, _ := newTestHandler(s.T())
		req := httptest.NewRequest(http.MethodPost, "/gate/evaluate", bytes.NewReader([]byte("{not json")))
		rr := testutil.DoRequest(router, req)
		assert.Equal(s.T(), http.StatusBadRequest, rr.Code)
	})

	s.Run("empty player list is accepted", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
			Return(&gate.AggregateDecision{Allowed: true, Reason: gate.ReasonNoSubjects})
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/gate/evaluate", EvaluateRequest{MediaType: "photo", Platform: "instagram"})
		rr := testutil.DoRequest(router, req)
		assert.Equal(s.T(), http.StatusOK, rr.Code)
	})
}

func (s *GateHandlerSuite) TestHandleDashboard() {
	router, mockService := newTestHandler(s.T())

	mockService.EXPECT().DashboardSummary(gomock.Any(), 14).
		Return(&gate.DashboardSummary{
			TotalPlayers:     22,
			Minors:           5,
			ExpiringConsents: 3,
			WindowDays:       14,
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/gate/dashboard?window_days=14", nil)
	rr := testutil.DoRequest(router, req)

	assert.Equal(s.T(), http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[gate.DashboardSummary](s.T(), rr)
	assert.Equal(s.T(), 22, resp.TotalPlayers)
	assert.Equal(s.T(), 3, resp.ExpiringConsents)
}

func (s *GateHandlerSuite) TestHandleDashboardDefaults() {
	router, mockService := newTestHandler(s.T())
	mockService.EXPECT().DashboardSummary(gomock.Any(), 30).
		Return(&gate.DashboardSummary{WindowDays: 30}, nil)

	req := httptest.NewRequest(http.MethodGet, "/gate/dashboard", nil)
	rr := testutil.DoRequest(router, req)
	assert.Equal(s.T(), http.StatusOK, rr.Code)
}

func (s *GateHandlerSuite) TestHandleDashboardBadWindow() {
	for _, raw := range []string{"0", "-3", "abc"} {
		s.Run(raw, func() {
			router, _ := newTestHandler(s.T())
			req := httptest.NewRequest(http.MethodGet, "/gate/dashboard?window_days="+raw, nil)
			rr := testutil.DoRequest(router, req)
			assert.Equal(s.T(), http.StatusBadRequest, rr.Code)
		})
	}
}
