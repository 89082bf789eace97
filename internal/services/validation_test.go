package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/harisalimughal/GoSeller-sub002/internal/models"
)

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid order event", func(t *testing.T) {
		event := models.OrderCompletionEvent{
			OrderID:              "order-1",
			TotalAmount:          1000,
			SellerID:             "seller-1",
			SellerTier:           models.TierVIP,
			BuyerID:              "buyer-1",
			SubFranchiseID:       "sub-1",
			MasterFranchiseID:    "master-1",
			CorporateFranchiseID: "corp-1",
		}

		err := vh.ValidateStruct(&event)
		assert.NoError(t, err)
	})

	t.Run("missing fields reported individually", func(t *testing.T) {
		event := models.OrderCompletionEvent{
			OrderID:     "order-1",
			TotalAmount: -5,
			SellerTier:  models.SellerTier("PLATINUM"),
		}

		err := vh.ValidateStruct(&event)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		fields := make(map[string]bool)
		for _, fieldErr := range validationErrors {
			fields[fieldErr.Field()] = true
		}
		assert.True(t, fields["TotalAmount"])
		assert.True(t, fields["SellerTier"])
		assert.True(t, fields["BuyerID"])
	})

	t.Run("complaint priority restricted", func(t *testing.T) {
		event := models.ComplaintCreationEvent{
			OrderID:       "order-1",
			BuyerID:       "buyer-1",
			SellerID:      "seller-1",
			FranchiseID:   "franchise-1",
			ComplaintType: "DELIVERY",
			Priority:      "SOMEDAY",
		}

		err := vh.ValidateStruct(&event)
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 1)
		assert.Equal(t, "Priority", validationErrors[0].Field())
		assert.Equal(t, "oneof", validationErrors[0].Tag())
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Something went wrong", http.StatusInternalServerError, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Something went wrong", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("validation details included", func(t *testing.T) {
		vh := NewValidationHelper()
		event := models.ComplaintCreationEvent{OrderID: "order-1"}

		validationErr := vh.ValidateStruct(&event)
		assert.Error(t, validationErr)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Validation failed", response.Error)
		assert.Contains(t, response.Details, "BuyerID")
		assert.Contains(t, response.Details, "Priority")
	})
}
