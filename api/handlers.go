/*
handlers.go - HTTP API handlers for the commission ledger engine

PURPOSE:
  Exposes the commission engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Sales:
    GET    /api/sales                    List all sales
    POST   /api/sales                    Record a sale
    GET    /api/sales/{id}               Get sale with cached summary
    POST   /api/sales/{id}/status        Move the sale through its lifecycle

  Ledger:
    POST   /api/sales/{id}/ledger/sync   Compute and persist the ledger
    POST   /api/sales/{id}/ledger/void   Retract a cancelled sale's ledger
    GET    /api/sales/{id}/ledger        List the sale's ledger entries

  Profiles / Products:
    GET    /api/profiles                 List profiles
    POST   /api/profiles                 Register a profile
    GET    /api/profiles/{id}            Get a profile
    POST   /api/products                 Register a product
    GET    /api/products/{id}            Get a product

  Settlements:
    GET    /api/settlements?from=&to=    Preview payable totals per payee
    POST   /api/settlements/run          Aggregate and record a run
    GET    /api/settlements/runs         Run history

ERROR HANDLING:
  Engine errors are mapped onto HTTP status codes:
  - 400: Malformed body, invalid dates, validation failures
  - 404: Sale or profile not found
  - 409: Sale state does not permit the operation
  - 422: Computation rejected the inputs (bad amounts, no currency)
  - 500: Persistence failures (retryable)

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - commission/sync.go: The engine these handlers drive
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence surface the handlers need: the transactional
// engine store plus settlement run history.
type Store interface {
	commission.TxStore
	commission.SettlementStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store Store
	Sync  *commission.Synchronizer
	Agg   *commission.Aggregator

	validate *validator.Validate
	log      *logrus.Logger
}

// NewHandler creates a new handler on the given store.
func NewHandler(store Store, cfg commission.Config, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:    store,
		Sync:     commission.NewSynchronizer(store, cfg),
		Agg:      commission.NewAggregator(store),
		validate: validator.New(),
		log:      log,
	}
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns all sales with their cached summaries.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Store.ListSales(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSale returns a single sale.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id := commission.SaleID(chi.URLParam(r, "id"))

	sale, err := h.Store.GetSale(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get sale", err)
		return
	}
	if sale == nil {
		writeError(w, http.StatusNotFound, "Sale not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*sale))
}

// CreateSale records a new sale.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	saleDate, err := time.Parse("2006-01-02", req.SaleDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale_date format (use YYYY-MM-DD)", err)
		return
	}

	status := commission.SaleStatus(req.Status)
	if req.Status == "" {
		status = commission.SalePending
	}

	now := time.Now().UTC()
	sale := commission.Sale{
		ID:                 commission.SaleID(req.ID),
		SaleAmount:         req.SaleAmount,
		CostAmount:         req.CostAmount,
		ManagerProfileID:   profileIDPtr(req.ManagerProfileID),
		AgentProfileID:     profileIDPtr(req.AgentProfileID),
		OverrideProfileID:  profileIDPtr(req.OverrideProfileID),
		BranchCommission:   req.BranchCommission,
		SalesCommission:    req.SalesCommission,
		OverrideCommission: req.OverrideCommission,
		Status:             status,
		SaleDate:           saleDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.ProductID != nil && *req.ProductID != "" {
		pid := commission.ProductID(*req.ProductID)
		sale.ProductID = &pid
	}

	if err := h.Store.SaveSale(r.Context(), sale); err != nil {
		h.writeDomainError(w, "Failed to create sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(sale))
}

// UpdateSaleStatus moves a sale through its lifecycle. Ledger state is not
// touched here; callers re-sync (or void) explicitly afterwards.
func (h *Handler) UpdateSaleStatus(w http.ResponseWriter, r *http.Request) {
	id := commission.SaleID(chi.URLParam(r, "id"))

	var req UpdateSaleStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	sale, err := h.Store.GetSale(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to get sale", err)
		return
	}
	if sale == nil {
		writeError(w, http.StatusNotFound, "Sale not found", nil)
		return
	}

	sale.Status = commission.SaleStatus(req.Status)
	sale.UpdatedAt = time.Now().UTC()
	if err := h.Store.SaveSale(ctx, *sale); err != nil {
		h.writeDomainError(w, "Failed to update sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*sale))
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// SyncLedger computes and persists the commission ledger for a sale.
func (h *Handler) SyncLedger(w http.ResponseWriter, r *http.Request) {
	id := commission.SaleID(chi.URLParam(r, "id"))

	var req SyncLedgerRequest
	if r.ContentLength > 0 {
		if !h.decode(w, r, &req) {
			return
		}
	}

	res, err := h.Sync.SyncSaleLedgers(r.Context(), id, commission.SyncOptions{
		Regenerate: req.Regenerate,
		IncludeHq:  req.IncludeHq,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to synchronize ledger", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"sale_id":         res.SaleID,
		"entries_created": res.EntriesCreated,
		"net_revenue":     res.Breakdown.NetRevenue,
	}).Info("ledger synchronized")

	writeJSON(w, http.StatusOK, SyncResultDTO{
		SaleID:         string(res.SaleID),
		Breakdown:      toBreakdownDTO(res.Breakdown),
		EntriesCreated: res.EntriesCreated,
	})
}

// VoidLedger retracts the ledger of a cancelled sale.
func (h *Handler) VoidLedger(w http.ResponseWriter, r *http.Request) {
	id := commission.SaleID(chi.URLParam(r, "id"))

	res, err := h.Sync.VoidSaleLedgers(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to void ledger", err)
		return
	}

	h.log.WithField("sale_id", res.SaleID).Info("ledger voided")
	writeJSON(w, http.StatusOK, SyncResultDTO{
		SaleID:         string(res.SaleID),
		Breakdown:      toBreakdownDTO(res.Breakdown),
		EntriesCreated: res.EntriesCreated,
	})
}

// GetLedger lists the ledger entries of a sale.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id := commission.SaleID(chi.URLParam(r, "id"))
	ctx := r.Context()

	sale, err := h.Store.GetSale(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to get sale", err)
		return
	}
	if sale == nil {
		writeError(w, http.StatusNotFound, "Sale not found", nil)
		return
	}

	entries, err := h.Store.ListEntriesBySale(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to list ledger entries", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sale_id": string(id),
		"summary": toBreakdownDTO(sale.Summary),
		"entries": toLedgerEntryDTOs(entries),
	})
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// ListProfiles returns all profiles.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Store.ListProfiles(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list profiles", err)
		return
	}

	dtos := make([]ProfileDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = toProfileDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProfile returns a single profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := commission.ProfileID(chi.URLParam(r, "id"))

	p, err := h.Store.GetProfile(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get profile", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Profile not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(*p))
}

// CreateProfile registers a commission-earning party.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	p := commission.Profile{
		ID:              commission.ProfileID(req.ID),
		Type:            commission.ProfileType(req.Type),
		Name:            req.Name,
		WithholdingRate: req.WithholdingRate,
		CreatedAt:       time.Now().UTC(),
	}
	if err := h.Store.SaveProfile(r.Context(), p); err != nil {
		h.writeDomainError(w, "Failed to create profile", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileDTO(p))
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := commission.ProductID(chi.URLParam(r, "id"))

	p, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get product", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

// CreateProduct registers a product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p := commission.Product{
		ID:       commission.ProductID(req.ID),
		Code:     req.Code,
		Name:     req.Name,
		Currency: req.Currency,
	}
	if err := h.Store.SaveProduct(r.Context(), p); err != nil {
		h.writeDomainError(w, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// =============================================================================
// SETTLEMENT HANDLERS
// =============================================================================

// PreviewSettlements aggregates payable totals without recording a run.
// GET /api/settlements?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) PreviewSettlements(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parsePeriod(w, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if !ok {
		return
	}

	lines, err := h.Agg.BuildSettlements(r.Context(), from, to)
	if err != nil {
		h.writeDomainError(w, "Failed to build settlements", err)
		return
	}

	dtos := make([]SettlementLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = toSettlementLineDTO(l)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
		"lines": dtos,
	})
}

// RunSettlement aggregates a period and records the run.
func (h *Handler) RunSettlement(w http.ResponseWriter, r *http.Request) {
	var req RunSettlementRequest
	if !h.decode(w, r, &req) {
		return
	}
	from, to, ok := parsePeriod(w, req.From, req.To)
	if !ok {
		return
	}

	run, err := h.Agg.RunSettlement(r.Context(), h.Store, from, to)
	if err != nil {
		h.writeDomainError(w, "Failed to run settlement", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"run_id": run.ID,
		"lines":  len(run.Lines),
	}).Info("settlement run completed")
	writeJSON(w, http.StatusCreated, toSettlementRunDTO(*run))
}

// ListSettlementRuns returns settlement run history.
func (h *Handler) ListSettlementRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListSettlementRuns(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list settlement runs", err)
		return
	}

	dtos := make([]SettlementRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toSettlementRunDTO(run)
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body. Writes the error
// response itself and returns false when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// writeDomainError maps engine errors onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case commission.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case commission.IsInvalidState(err):
		writeError(w, http.StatusConflict, message, err)
	case commission.IsComputation(err):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		h.log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parsePeriod(w http.ResponseWriter, fromStr, toStr string) (time.Time, time.Time, bool) {
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return time.Time{}, time.Time{}, false
	}
	if !to.After(from) {
		writeError(w, http.StatusBadRequest, "Period end must be after period start", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
