//go:build unit

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"courtbook/internal/domain/user"
	"courtbook/internal/handler/api"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type stubReservationCommands struct {
	createResult *commands.CreateReservationResult
	createErr    error
	cancelView   *queries.ReservationView
	cancelErr    error
	completeRes  *commands.CompleteReservationResult
	completeErr  error
}

func (s *stubReservationCommands) Create(_ context.Context, _ commands.CreateReservationParams, _ *uuid.UUID) (*commands.CreateReservationResult, error) {
	return s.createResult, s.createErr
}

func (s *stubReservationCommands) Cancel(_ context.Context, _ uuid.UUID, _ commands.Actor) (*queries.ReservationView, error) {
	return s.cancelView, s.cancelErr
}

func (s *stubReservationCommands) Complete(_ context.Context, _ uuid.UUID, _ commands.Actor) (*commands.CompleteReservationResult, error) {
	return s.completeRes, s.completeErr
}

type stubReservationQueries struct {
	view    *queries.ReservationView
	viewErr error
}

func (s *stubReservationQueries) GetByID(_ context.Context, _ uuid.UUID, _ user.Role, _ uuid.UUID) (*queries.ReservationView, error) {
	return s.view, s.viewErr
}

func (s *stubReservationQueries) GetByIDSystem(_ context.Context, _ uuid.UUID) (*queries.ReservationView, error) {
	return s.view, s.viewErr
}

func (s *stubReservationQueries) ListByHolder(_ context.Context, _ uuid.UUID, _ *string, _ int) ([]*queries.ReservationView, error) {
	return nil, nil
}

func (s *stubReservationQueries) CheckAvailability(_ context.Context, _ uuid.UUID, _, _, _ string) (*queries.AvailabilityResult, error) {
	return &queries.AvailabilityResult{Available: true}, nil
}

type ReservationHandlerTestSuite struct {
	suite.Suite
	commands *stubReservationCommands
	queries  *stubReservationQueries
	engine   *gin.Engine
	userID   uuid.UUID
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.commands = &stubReservationCommands{}
	s.queries = &stubReservationQueries{}
	s.userID = uuid.New()

	h := api.NewReservationHandler(s.commands, s.queries)
	s.engine = gin.New()
	s.engine.Use(func(c *gin.Context) {
		c.Set("user_id", s.userID)
		c.Set("user_role", user.RoleMember)
	})
	s.engine.POST("/reservations", h.CreateReservation)
	s.engine.GET("/reservations/:id", h.GetReservation)
	s.engine.POST("/reservations/:id/cancel", h.CancelReservation)
	s.engine.POST("/reservations/:id/complete", h.CompleteReservation)
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func (s *ReservationHandlerTestSuite) postJSON(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func validCreateBody(resourceID uuid.UUID) map[string]any {
	return map[string]any{
		"resource_id": resourceID,
		"day":         "2026-03-14",
		"start_time":  "10:00",
		"end_time":    "12:00",
	}
}

func (s *ReservationHandlerTestSuite) TestCreateReservation() {
	resourceID := uuid.New()

	s.Run("created", func() {
		s.SetupTest()
		s.commands.createResult = &commands.CreateReservationResult{
			Reservation: &queries.ReservationView{ID: uuid.New(), Status: "booked"},
		}

		rec := s.postJSON("/reservations", validCreateBody(resourceID), nil)
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("replayed request returns 200", func() {
		s.SetupTest()
		s.commands.createResult = &commands.CreateReservationResult{
			Reservation: &queries.ReservationView{ID: uuid.New(), Status: "booked"},
			IsReplayed:  true,
		}

		rec := s.postJSON("/reservations", validCreateBody(resourceID), map[string]string{
			"Idempotency-Key": uuid.NewString(),
		})
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("malformed idempotency key", func() {
		s.SetupTest()
		rec := s.postJSON("/reservations", validCreateBody(resourceID), map[string]string{
			"Idempotency-Key": "not-a-uuid",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("invalid time slot", func() {
		s.SetupTest()
		s.commands.createErr = commands.ErrInvalidTimeSlot

		rec := s.postJSON("/reservations", validCreateBody(resourceID), nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown resource", func() {
		s.SetupTest()
		s.commands.createErr = commands.ErrResourceNotFound

		rec := s.postJSON("/reservations", validCreateBody(resourceID), nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("conflict carries the blocking window", func() {
		s.SetupTest()
		s.commands.createErr = errs.Mark(&commands.ConflictError{
			Day:       "2026-03-14",
			StartTime: "11:00",
			EndTime:   "13:00",
		}, commands.ErrReservationConflict)

		rec := s.postJSON("/reservations", validCreateBody(resourceID), nil)
		s.Require().Equal(http.StatusConflict, rec.Code)

		var body struct {
			Conflict struct {
				Day       string `json:"day"`
				StartTime string `json:"start_time"`
				EndTime   string `json:"end_time"`
			} `json:"conflict"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("2026-03-14", body.Conflict.Day)
		s.Equal("11:00", body.Conflict.StartTime)
		s.Equal("13:00", body.Conflict.EndTime)
	})

	s.Run("each failed card precondition is a named 400", func() {
		cases := []struct {
			name string
			err  error
			msg  string
		}{
			{"not scratched", commands.ErrCardNotScratched, "Entitlement card has not been scratched"},
			{"already redeemed", commands.ErrCardAlreadyRedeemed, "Entitlement card already redeemed"},
			{"expired", commands.ErrCardExpired, "Entitlement card expired"},
			{"wrong resource", commands.ErrCardWrongResource, "Entitlement card belongs to a different resource"},
		}

		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.SetupTest()
				s.commands.createErr = tc.err

				rec := s.postJSON("/reservations", validCreateBody(resourceID), nil)
				s.Require().Equal(http.StatusBadRequest, rec.Code)

				var body struct {
					Error string `json:"error"`
				}
				s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
				s.Equal(tc.msg, body.Error)
			})
		}
	})
}

func (s *ReservationHandlerTestSuite) TestGetReservation() {
	s.Run("found", func() {
		s.SetupTest()
		s.queries.view = &queries.ReservationView{ID: uuid.New(), Status: "booked"}

		req := httptest.NewRequest(http.MethodGet, "/reservations/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		s.engine.ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("absent or not the holder's", func() {
		s.SetupTest()
		s.queries.viewErr = queries.ErrReservationNotFound

		req := httptest.NewRequest(http.MethodGet, "/reservations/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		s.engine.ServeHTTP(rec, req)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed id", func() {
		s.SetupTest()
		req := httptest.NewRequest(http.MethodGet, "/reservations/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		s.engine.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestCancelReservation() {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"cancelled", nil, http.StatusOK},
		{"not found", commands.ErrReservationNotFound, http.StatusNotFound},
		{"already cancelled", commands.ErrAlreadyCancelled, http.StatusConflict},
		{"already completed", commands.ErrAlreadyCompleted, http.StatusConflict},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.commands.cancelErr = tc.err
			if tc.err == nil {
				s.commands.cancelView = &queries.ReservationView{ID: uuid.New(), Status: "cancelled"}
			}

			rec := s.postJSON("/reservations/"+uuid.NewString()+"/cancel", nil, nil)
			s.Equal(tc.want, rec.Code)
		})
	}
}

func (s *ReservationHandlerTestSuite) TestCompleteReservation() {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", commands.ErrReservationNotFound, http.StatusNotFound},
		{"not the resource owner", commands.ErrForbidden, http.StatusForbidden},
		{"cancelled cannot complete", commands.ErrAlreadyCancelled, http.StatusConflict},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.commands.completeErr = tc.err

			rec := s.postJSON("/reservations/"+uuid.NewString()+"/complete", nil, nil)
			s.Equal(tc.want, rec.Code)
		})
	}

	s.Run("already completed is a success no-op", func() {
		s.SetupTest()
		s.commands.completeRes = &commands.CompleteReservationResult{
			Reservation: &queries.ReservationView{ID: uuid.New(), Status: "completed"},
			NoOp:        true,
		}

		rec := s.postJSON("/reservations/"+uuid.NewString()+"/complete", nil, nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var body struct {
			AlreadyCompleted bool `json:"alreadyCompleted"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.True(body.AlreadyCompleted)
	})
}
