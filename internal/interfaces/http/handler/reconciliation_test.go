package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fiscalapp "github.com/fiscalflow/backend/internal/application/fiscal"
	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/interfaces/http/dto"
)

type reconciliationTestEnv struct {
	handler  *ReconciliationHandler
	notes    *mockNoteRepository
	receipts *mockReceiptRepository
	client   *mockDistributionClient
}

func setupReconciliationTestHandler(t *testing.T) *reconciliationTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	notes := newMockNoteRepository()
	receipts := newMockReceiptRepository()
	client := &mockDistributionClient{}
	service := fiscalapp.NewReconciliationService(notes, receipts, client, fiscal.DefaultKeywordTable(), nil)

	return &reconciliationTestEnv{
		handler:  NewReconciliationHandler(service),
		notes:    notes,
		receipts: receipts,
		client:   client,
	}
}

func capturedReceipt(locationID uuid.UUID, accessKey string) *fiscal.Receipt {
	return &fiscal.Receipt{
		ID:                 uuid.New(),
		LocationID:         locationID,
		ExtractedAccessKey: accessKey,
		Establishment:      "Supermercado Central",
	}
}

func TestReconciliationHandler_Reconcile(t *testing.T) {
	t.Run("links matching notes and receipts", func(t *testing.T) {
		env := setupReconciliationTestHandler(t)
		locationID := uuid.New()
		receipt := capturedReceipt(locationID, handlerTestAccessKey)
		env.receipts.receipts[receipt.ID] = receipt
		env.notes.add(storedNote(t, locationID, handlerTestAccessKey, "Supermercado Central LTDA", fiscal.CategorySupermarket, "152.90"))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "locationID", Value: locationID.String()}}
		c.Request = httptest.NewRequest(http.MethodPost, "/reconcile", nil)

		env.handler.Reconcile(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response.Data.(map[string]any)
		assert.Equal(t, float64(1), data["linked"])

		note, err := env.notes.FindByAccessKey(c.Request.Context(), locationID, handlerTestAccessKey)
		require.NoError(t, err)
		require.NotNil(t, note.LinkedReceiptID)
		assert.Equal(t, receipt.ID, *note.LinkedReceiptID)
	})

	t.Run("is idempotent across runs", func(t *testing.T) {
		env := setupReconciliationTestHandler(t)
		locationID := uuid.New()
		receipt := capturedReceipt(locationID, handlerTestAccessKey)
		env.receipts.receipts[receipt.ID] = receipt
		env.notes.add(storedNote(t, locationID, handlerTestAccessKey, "Supermercado Central LTDA", fiscal.CategorySupermarket, "152.90"))

		for i, want := range []float64{1, 0} {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "locationID", Value: locationID.String()}}
			c.Request = httptest.NewRequest(http.MethodPost, "/reconcile", nil)

			env.handler.Reconcile(c)

			require.Equal(t, http.StatusOK, w.Code, "run %d", i)
			var response dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, want, response.Data.(map[string]any)["linked"], "run %d", i)
		}
	})

	t.Run("rejects an invalid location ID", func(t *testing.T) {
		env := setupReconciliationTestHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "locationID", Value: "bogus"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/reconcile", nil)

		env.handler.Reconcile(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReconciliationHandler_Enrich(t *testing.T) {
	t.Run("links a receipt to a stored note", func(t *testing.T) {
		env := setupReconciliationTestHandler(t)
		locationID := uuid.New()
		receipt := capturedReceipt(locationID, handlerTestAccessKey)
		env.receipts.receipts[receipt.ID] = receipt
		env.notes.add(storedNote(t, locationID, handlerTestAccessKey, "Supermercado Central LTDA", fiscal.CategorySupermarket, "152.90"))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "receiptID", Value: receipt.ID.String()}}
		c.Request = httptest.NewRequest(http.MethodPost, "/enrich", nil)

		env.handler.Enrich(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response.Data.(map[string]any)
		assert.Equal(t, true, data["linked"])
		assert.Equal(t, handlerTestAccessKey, data["access_key"])
	})

	t.Run("fetches an unknown note from the distribution service", func(t *testing.T) {
		env := setupReconciliationTestHandler(t)
		locationID := uuid.New()
		receipt := capturedReceipt(locationID, handlerTestAccessKey)
		env.receipts.receipts[receipt.ID] = receipt
		env.client.batch = &fiscal.BatchResult{
			Outcome:    fiscal.OutcomeSuccess,
			StatusCode: "138",
			Documents:  []fiscal.RawDocument{summaryDocument("000000000000007", handlerTestAccessKey)},
		}

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "receiptID", Value: receipt.ID.String()}}
		c.Request = httptest.NewRequest(http.MethodPost, "/enrich", nil)

		env.handler.Enrich(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response.Data.(map[string]any)
		assert.Equal(t, true, data["linked"])

		note, err := env.notes.FindByAccessKey(c.Request.Context(), locationID, handlerTestAccessKey)
		require.NoError(t, err)
		assert.Equal(t, "Supermercado Central LTDA", note.IssuerName)
	})

	t.Run("degrades to a warning when the lookup fails", func(t *testing.T) {
		env := setupReconciliationTestHandler(t)
		locationID := uuid.New()
		receipt := capturedReceipt(locationID, handlerTestAccessKey)
		env.receipts.receipts[receipt.ID] = receipt
		env.client.returnErr = fiscal.ErrDistributionUnavailable

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "receiptID", Value: receipt.ID.String()}}
		c.Request = httptest.NewRequest(http.MethodPost, "/enrich", nil)

		env.handler.Enrich(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response.Data.(map[string]any)
		assert.Equal(t, false, data["linked"])
		assert.Contains(t, data["warning"], "lookup failed")
	})

	t.Run("warns when the receipt has no extracted key", func(t *testing.T) {
		env := setupReconciliationTestHandler(t)
		receipt := capturedReceipt(uuid.New(), "")
		env.receipts.receipts[receipt.ID] = receipt

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "receiptID", Value: receipt.ID.String()}}
		c.Request = httptest.NewRequest(http.MethodPost, "/enrich", nil)

		env.handler.Enrich(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response.Data.(map[string]any)
		assert.Equal(t, false, data["linked"])
		assert.Contains(t, data["warning"], "no extracted access key")
	})

	t.Run("returns 404 for an unknown receipt", func(t *testing.T) {
		env := setupReconciliationTestHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "receiptID", Value: uuid.New().String()}}
		c.Request = httptest.NewRequest(http.MethodPost, "/enrich", nil)

		env.handler.Enrich(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReconciliationHandler_Unlink(t *testing.T) {
	t.Run("clears note references to a deleted receipt", func(t *testing.T) {
		env := setupReconciliationTestHandler(t)
		locationID := uuid.New()
		receiptID := uuid.New()
		note := storedNote(t, locationID, handlerTestAccessKey, "Supermercado Central LTDA", fiscal.CategorySupermarket, "152.90")
		require.NoError(t, note.LinkReceipt(receiptID))
		env.notes.add(note)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "receiptID", Value: receiptID.String()}}
		c.Request = httptest.NewRequest(http.MethodDelete, "/links", nil)

		env.handler.Unlink(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response.Data.(map[string]any)
		assert.Equal(t, float64(1), data["unlinked"])

		note, err := env.notes.FindByAccessKey(c.Request.Context(), locationID, handlerTestAccessKey)
		require.NoError(t, err)
		assert.False(t, note.IsLinked())
	})

	t.Run("reports zero for a receipt no note references", func(t *testing.T) {
		env := setupReconciliationTestHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "receiptID", Value: uuid.New().String()}}
		c.Request = httptest.NewRequest(http.MethodDelete, "/links", nil)

		env.handler.Unlink(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, float64(0), response.Data.(map[string]any)["unlinked"])
	})
}
