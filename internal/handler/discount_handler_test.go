package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDiscountHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockReturn     *model.DiscountRule
		mockError      error
		expectService  bool
		expectedStatus int
	}{
		{
			name: "Success",
			body: `{"name":"Shoe sale","discountType":"CATEGORY","category":"shoes","percentage":10,"startDate":"2026-01-01T00:00:00Z"}`,
			mockReturn: &model.DiscountRule{
				ID:         uuid.New(),
				Name:       "Shoe sale",
				Target:     model.TargetCategory("shoes"),
				Percentage: 10,
				Priority:   4,
				IsActive:   true,
			},
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Missing target",
			body:           `{"name":"Shoe sale","discountType":"CATEGORY","percentage":10,"startDate":"2026-01-01T00:00:00Z"}`,
			mockError:      model.NewValidationError("a category is required for a CATEGORY discount"),
			expectService:  true,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid JSON",
			body:           `not json`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDiscountService)
			handler := NewDiscountHandler(mockService, zerolog.Nop())

			if tt.expectService {
				if tt.mockReturn != nil {
					mockService.On("Create", mock.Anything, mock.AnythingOfType("*model.DiscountRequest")).Return(tt.mockReturn, nil)
				} else {
					mockService.On("Create", mock.Anything, mock.AnythingOfType("*model.DiscountRequest")).Return(nil, tt.mockError)
				}
			}

			req := as(httptest.NewRequest(http.MethodPost, "/api/admin/discounts", strings.NewReader(tt.body)), admin)
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDiscountHandler_Create_SerialisesTarget(t *testing.T) {
	mockService := new(MockDiscountService)
	handler := NewDiscountHandler(mockService, zerolog.Nop())

	mockService.On("Create", mock.Anything, mock.Anything).Return(&model.DiscountRule{
		ID:         uuid.New(),
		Name:       "Bundle",
		Target:     model.TargetProductList([]string{"P1", "P2"}),
		Percentage: 15,
	}, nil)

	body := `{"name":"Bundle","discountType":"PRODUCT_LIST","products":["P1","P2"],"percentage":15,"startDate":"2026-01-01T00:00:00Z"}`
	req := as(httptest.NewRequest(http.MethodPost, "/api/admin/discounts", strings.NewReader(body)), admin)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"target":{"discountType":"PRODUCT_LIST","products":["P1","P2"]}`)
}

func TestDiscountHandler_Update(t *testing.T) {
	id := uuid.New()
	mockService := new(MockDiscountService)
	handler := NewDiscountHandler(mockService, zerolog.Nop())

	mockService.On("Update", mock.Anything, id, mock.MatchedBy(func(req *model.DiscountRequest) bool {
		return req.DiscountType == model.DiscountGlobal && req.Percentage == 5
	})).Return(&model.DiscountRule{ID: id, Target: model.TargetGlobal(), Percentage: 5}, nil)

	body := `{"name":"Site wide","discountType":"GLOBAL","percentage":5,"startDate":"2026-01-01T00:00:00Z"}`
	req := withURLParam(as(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)), admin), "id", id.String())
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)
}

func TestDiscountHandler_Delete(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{"Deleted", nil, http.StatusNoContent},
		{"Not found", model.ErrDiscountNotFound, http.StatusNotFound},
		{"Database error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDiscountService)
			handler := NewDiscountHandler(mockService, zerolog.Nop())
			mockService.On("Delete", mock.Anything, id).Return(tt.mockError)

			req := withURLParam(as(httptest.NewRequest(http.MethodDelete, "/", nil), admin), "id", id.String())
			rec := httptest.NewRecorder()

			handler.Delete(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDiscountHandler_GetByIDAndList(t *testing.T) {
	id := uuid.New()
	mockService := new(MockDiscountService)
	handler := NewDiscountHandler(mockService, zerolog.Nop())

	mockService.On("GetByID", mock.Anything, id).Return(nil, model.ErrDiscountNotFound)
	mockService.On("List", mock.Anything, 10, 0).Return([]model.DiscountRule{}, nil)

	rec := httptest.NewRecorder()
	handler.GetByID(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, model.ErrCodeDiscountNotFound, decodeError(t, rec).Error)

	rec = httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/admin/discounts", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	mockService.AssertExpectations(t)
}
