package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	partnerapp "github.com/salesdesk/backend/internal/application/partner"
	"github.com/salesdesk/backend/internal/domain/shared"
)

// TestCustomerAPI_CRUD walks a customer through its full lifecycle over HTTP
// against a real database.
func TestCustomerAPI_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)

	var createdID uint

	t.Run("Create customer", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/customers", map[string]interface{}{
			"email":     "ada@example.com",
			"firstName": "Ada",
			"lastName":  "Lovelace",
			"address":   "12 Analytical Lane",
			"phone":     "+44 20 7946 0812",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var customer partnerapp.CustomerResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &customer))
		assert.NotZero(t, customer.ID)
		assert.Equal(t, "ada@example.com", customer.Email)
		assert.Equal(t, "Ada Lovelace", customer.FullName)
		assert.Equal(t, "12 Analytical Lane", customer.Address)

		createdID = customer.ID
	})

	t.Run("Get customer by ID", func(t *testing.T) {
		w := ts.Request(http.MethodGet, fmt.Sprintf("/api/v1/customers/%d", createdID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var customer partnerapp.CustomerResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &customer))
		assert.Equal(t, createdID, customer.ID)
		assert.Equal(t, "Ada", customer.FirstName)
		assert.Equal(t, "Lovelace", customer.LastName)
	})

	t.Run("Update customer name and address", func(t *testing.T) {
		w := ts.Request(http.MethodPut, fmt.Sprintf("/api/v1/customers/%d", createdID), map[string]interface{}{
			"lastName": "King",
			"address":  "1 Ockham Park",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var customer partnerapp.CustomerResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &customer))
		assert.Equal(t, "Ada King", customer.FullName)
		assert.Equal(t, "1 Ockham Park", customer.Address)

		// Omitted fields keep their values.
		assert.Equal(t, "ada@example.com", customer.Email)
	})

	t.Run("List customers", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/customers", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var page shared.Paginated[partnerapp.CustomerListResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "ada@example.com", page.Items[0].Email)
	})

	t.Run("Delete customer", func(t *testing.T) {
		w := ts.Request(http.MethodDelete, fmt.Sprintf("/api/v1/customers/%d", createdID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = ts.Request(http.MethodGet, fmt.Sprintf("/api/v1/customers/%d", createdID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestCustomerAPI_TaxIDEncryptedAtRest verifies that the tax ID round-trips
// as plaintext through the API while the database row only ever holds the
// versioned ciphertext envelope.
func TestCustomerAPI_TaxIDEncryptedAtRest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	const plainTaxID = "DE-811-907-980"

	w := ts.Request(http.MethodPost, "/api/v1/customers", map[string]interface{}{
		"email":     "billing@example.com",
		"firstName": "Billing",
		"lastName":  "Dept",
		"taxId":     plainTaxID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var customer partnerapp.CustomerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &customer))
	assert.Equal(t, plainTaxID, customer.TaxID)

	// The stored column carries the envelope, not the plaintext.
	var storedTaxID string
	err := ts.DB.DB.Raw("SELECT tax_id FROM customers WHERE id = ?", customer.ID).Scan(&storedTaxID).Error
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(storedTaxID, "v1:"), "stored tax ID should carry the envelope prefix, got %q", storedTaxID)
	assert.NotEqual(t, plainTaxID, storedTaxID)
	assert.NotContains(t, storedTaxID, plainTaxID)

	// Reading the customer back decrypts the field.
	w = ts.Request(http.MethodGet, fmt.Sprintf("/api/v1/customers/%d", customer.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &customer))
	assert.Equal(t, plainTaxID, customer.TaxID)

	// Updating the tax ID produces a fresh envelope.
	w = ts.Request(http.MethodPut, fmt.Sprintf("/api/v1/customers/%d", customer.ID), map[string]interface{}{
		"taxId": "DE-129-273-398",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updatedTaxID string
	err = ts.DB.DB.Raw("SELECT tax_id FROM customers WHERE id = ?", customer.ID).Scan(&updatedTaxID).Error
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updatedTaxID, "v1:"))
	assert.NotEqual(t, storedTaxID, updatedTaxID)
}

func TestCustomerAPI_DuplicateEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	ts.createCustomer(t, "dup@example.com", "First", "Customer")

	w := ts.Request(http.MethodPost, "/api/v1/customers", map[string]interface{}{
		"email":     "dup@example.com",
		"firstName": "Second",
		"lastName":  "Customer",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	envelope := decodeError(t, w.Body.Bytes())
	assert.Equal(t, "Customer with email 'dup@example.com' already exists", envelope.Message)
}

func TestCustomerAPI_Validation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)

	w := ts.Request(http.MethodPost, "/api/v1/customers", map[string]interface{}{
		"email":     "not-an-email",
		"firstName": "Bad",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeError(t, w.Body.Bytes())
	assert.Equal(t, "ERROR", envelope.Status)
}
