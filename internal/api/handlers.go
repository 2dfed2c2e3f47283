package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/model"
	"github.com/Veraticus/reckless-spender/internal/ofx"
	"github.com/Veraticus/reckless-spender/internal/service"
)

// DefaultMaxUploadBytes caps the size of an uploaded statement.
const DefaultMaxUploadBytes = 10 << 20

// Handler serves the store's JSON API.
type Handler struct {
	storage        service.Storage
	parser         service.StatementParser
	maxUploadBytes int64
}

// NewHandler creates a handler over storage, parsing uploads with parser.
func NewHandler(storage service.Storage, parser service.StatementParser) *Handler {
	return &Handler{
		storage:        storage,
		parser:         parser,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
}

// UploadResponse is the body of a successful statement upload.
type UploadResponse struct {
	Filename              string `json:"filename"`
	Message               string `json:"message"`
	BatchID               string `json:"batch_id"`
	AccountsProcessed     int    `json:"accounts_processed"`
	TransactionsCollected int    `json:"transactions_collected"`
	TransactionsInserted  int    `json:"transactions_inserted"`
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Reckless Spender API"})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTransactions handles GET /transactions/.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondWithDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := h.storage.GetTransactions(r.Context(), filter)
	if err != nil {
		respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, txns)
}

// UpdateTransaction handles PUT /transactions/{id}.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithDetail(w, http.StatusUnprocessableEntity, "transaction id must be an integer")
		return
	}

	var update model.TransactionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	txn, err := h.storage.UpdateTransaction(r.Context(), id, update)
	if err != nil {
		respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, txn)
}

// ListCategories handles GET /categories/.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.storage.GetCategories(r.Context())
	if err != nil {
		respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, cats)
}

// CreateCategory handles POST /categories/. Categories created here are custom.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondWithDetail(w, http.StatusUnprocessableEntity, "category name is required")
		return
	}

	cat, err := h.storage.CreateCategory(r.Context(), req.Name, true)
	if err != nil {
		respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, cat)
}

// UploadOFX handles POST /upload/ofx.
func (h *Handler) UploadOFX(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithDetail(w, http.StatusUnprocessableEntity, "a statement file is required in the \"file\" field")
		return
	}
	defer func() { _ = file.Close() }()

	if !ofx.IsStatementFile(header.Filename) {
		respondWithDetail(w, http.StatusBadRequest, "Invalid file type. Only .ofx and .qfx files are accepted.")
		return
	}

	batchID := uuid.New().String()
	log := slog.With("batch_id", batchID, "filename", header.Filename)

	stmt, err := h.parser.Parse(r.Context(), file)
	if err != nil {
		log.Warn("failed to parse statement", "error", err)
		respondWithDetail(w, http.StatusBadRequest, fmt.Sprintf("Could not parse statement: %v", err))
		return
	}

	result, err := h.storage.ImportStatement(r.Context(), stmt)
	if err != nil {
		log.Error("failed to import statement", "error", err)
		respondWithStoreError(w, err)
		return
	}

	log.Info("imported statement upload",
		"accounts", len(result.Accounts),
		"inserted", result.TransactionsInserted)
	respondWithJSON(w, http.StatusCreated, UploadResponse{
		Filename:              header.Filename,
		Message:               "OFX file processed successfully.",
		BatchID:               batchID,
		AccountsProcessed:     len(result.Accounts),
		TransactionsCollected: result.TransactionsCollected,
		TransactionsInserted:  result.TransactionsInserted,
	})
}

// parseFilter reads the listing query parameters. Absent parameters leave
// the filter field unset; malformed ones are an error.
func parseFilter(r *http.Request) (service.TransactionFilter, error) {
	q := r.URL.Query()
	var filter service.TransactionFilter

	for _, p := range []struct {
		dst  **time.Time
		name string
	}{
		{&filter.StartDate, "start_date"},
		{&filter.EndDate, "end_date"},
	} {
		if v := q.Get(p.name); v != "" {
			d, err := model.ParseDate(v)
			if err != nil {
				return filter, fmt.Errorf("%s must be a date in YYYY-MM-DD format", p.name)
			}
			t := d.Time
			*p.dst = &t
		}
	}

	for _, p := range []struct {
		dst  **int64
		name string
	}{
		{&filter.AccountID, "account_id"},
		{&filter.CategoryID, "category_id"},
	} {
		if v := q.Get(p.name); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return filter, fmt.Errorf("%s must be an integer", p.name)
			}
			*p.dst = &id
		}
	}

	if v := q.Get("reconciled"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("reconciled must be true or false")
		}
		filter.Reconciled = &b
	}

	filter.Limit = service.DefaultTransactionLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > service.MaxTransactionLimit {
			return filter, fmt.Errorf("limit must be an integer between 1 and %d", service.MaxTransactionLimit)
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("offset must be a non-negative integer")
		}
		filter.Offset = n
	}

	return filter, nil
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		code = http.StatusInternalServerError
		response = []byte(`{"detail":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithDetail(w http.ResponseWriter, code int, detail string) {
	respondWithJSON(w, code, map[string]string{"detail": detail})
}

// respondWithStoreError maps a storage error to its status and reason.
func respondWithStoreError(w http.ResponseWriter, err error) {
	status := common.StatusFor(err)
	detail := err.Error()

	var storeErr *common.StoreError
	if errors.As(err, &storeErr) && storeErr.Reason != "" {
		detail = storeErr.Reason
	}
	if status >= http.StatusInternalServerError {
		slog.Error("storage failure", "error", err)
		detail = "An internal error occurred."
	}
	respondWithDetail(w, status, detail)
}
