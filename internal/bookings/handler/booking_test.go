package handler

import (
	"bytes"
	"busbook/internal/bookings/service"
	apperrors "busbook/pkg/errors"
	"busbook/pkg/logger"
	"busbook/pkg/middleware"
	"busbook/pkg/model"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	service.BookingService

	createFunc    func(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, bool, error)
	getByIDFunc   func(ctx context.Context, id string) (*model.Booking, error)
	getAllFunc    func(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	getByUserFunc func(ctx context.Context, userID string) ([]*model.Booking, error)
	cancelFunc    func(ctx context.Context, id string) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, bool, error) {
	return m.createFunc(ctx, req)
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockBookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	return m.getAllFunc(ctx, limit, offset)
}

func (m *mockBookingService) GetByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	return m.getByUserFunc(ctx, userID)
}

func (m *mockBookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return m.cancelFunc(ctx, id)
}

func newRouter(svc service.BookingService, admin middleware.RouteGuard) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard(), admin).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreate_StatusReflectsReplay(t *testing.T) {
	tests := []struct {
		name    string
		created bool
		want    int
	}{
		{name: "new booking", created: true, want: http.StatusCreated},
		{name: "existing transaction", created: false, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockBookingService{
				createFunc: func(_ context.Context, req *model.CreateBookingRequest) (*model.Booking, bool, error) {
					return &model.Booking{ID: "b1", TransactionID: req.TransactionID}, tt.created, nil
				},
			}, nil)

			rec := serve(router, http.MethodPost, "/api/v1/bookings", map[string]any{
				"busId":         "65f1a2b3c4d5e6f708192a3b",
				"seats":         []int{3},
				"transactionId": "TXN_1",
			})
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}

			var body struct {
				Data model.Booking `json:"data"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Data.TransactionID != "TXN_1" {
				t.Errorf("transactionId = %q", body.Data.TransactionID)
			}
		})
	}
}

func TestCreate_MalformedBody(t *testing.T) {
	router := newRouter(&mockBookingService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreate_LockMissingCarriesSeats(t *testing.T) {
	router := newRouter(&mockBookingService{
		createFunc: func(context.Context, *model.CreateBookingRequest) (*model.Booking, bool, error) {
			return nil, false, apperrors.New(apperrors.CodeLockMissing, "Seats are not confirmed on this bus", http.StatusBadRequest).
				WithDetails(map[string]any{"seats": []int{7}})
		},
	}, nil)

	rec := serve(router, http.MethodPost, "/api/v1/bookings", map[string]any{"seats": []int{7}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Code != apperrors.CodeLockMissing {
		t.Errorf("code = %q", body.Code)
	}
	if seats, _ := body.Details["seats"].([]any); len(seats) != 1 {
		t.Errorf("details = %v", body.Details)
	}
}

func TestGetAll_AdminGuardAndPagination(t *testing.T) {
	deny := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusForbidden)
		}
	}
	svc := &mockBookingService{
		getAllFunc: func(_ context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
			return []*model.Booking{{ID: "b1"}}, 42, nil
		},
	}

	if rec := serve(newRouter(svc, deny), http.MethodGet, "/api/v1/bookings", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	rec := serve(newRouter(svc, nil), http.MethodGet, "/api/v1/bookings?limit=5&offset=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		TotalCount int64 `json:"total_count"`
		Limit      int   `json:"limit"`
		Offset     int64 `json:"offset"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.TotalCount != 42 || body.Limit != 5 || body.Offset != 10 {
		t.Errorf("unexpected pagination: %+v", body)
	}
}

func TestGetByUser_PassesParam(t *testing.T) {
	var got string
	router := newRouter(&mockBookingService{
		getByUserFunc: func(_ context.Context, userID string) ([]*model.Booking, error) {
			got = userID
			return []*model.Booking{}, nil
		},
	}, nil)

	rec := serve(router, http.MethodGet, "/api/v1/bookings/user/user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got != "user-1" {
		t.Errorf("userId = %q", got)
	}
}

func TestCancel_MapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "ok", want: http.StatusOK},
		{name: "already cancelled", err: apperrors.Conflict("Booking is already cancelled"), want: http.StatusConflict},
		{name: "not found", err: apperrors.NotFoundWithID("Booking", "b1"), want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockBookingService{
				cancelFunc: func(_ context.Context, id string) (*model.Booking, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.Booking{ID: id, Status: "cancelled"}, nil
				},
			}, nil)

			rec := serve(router, http.MethodDelete, "/api/v1/bookings/id/b1", nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetByID_HidesInternalErrors(t *testing.T) {
	router := newRouter(&mockBookingService{
		getByIDFunc: func(context.Context, string) (*model.Booking, error) {
			return nil, apperrors.Internal("Failed to retrieve booking", context.DeadlineExceeded)
		},
	}, nil)

	rec := serve(router, http.MethodGet, "/api/v1/bookings/id/b1", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("deadline")) {
		t.Errorf("cause leaked: %s", rec.Body.String())
	}
}
