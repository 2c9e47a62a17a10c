/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY REPRESENTATION:
  Request bodies accept decimals as JSON numbers or strings (both are
  parsed exactly). Response bodies always render decimals as strings so
  clients never round-trip amounts through float64.

VALIDATION:
  Struct tags drive go-playground/validator; anything the tags cannot
  express (amount sign rules, state eligibility) is enforced by the
  engine itself and surfaces through the error mapping in handlers.go.

SEE ALSO:
  - handlers.go: Uses these types
  - commission/types.go: The internal model these project
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateProfileRequest is the request to register a commission-earning party.
type CreateProfileRequest struct {
	ID              string           `json:"id" validate:"required"`
	Type            string           `json:"type" validate:"required,oneof=BRANCH_MANAGER SALES_AGENT"`
	Name            string           `json:"name" validate:"required"`
	WithholdingRate *decimal.Decimal `json:"withholding_rate,omitempty"`
}

// CreateProductRequest is the request to register a product.
type CreateProductRequest struct {
	ID       string `json:"id" validate:"required"`
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// CreateSaleRequest is the request to record a sale. The per-tier
// commission amounts are inputs here, not derived by the engine.
type CreateSaleRequest struct {
	ID                 string          `json:"id" validate:"required"`
	SaleAmount         decimal.Decimal `json:"sale_amount"`
	CostAmount         decimal.Decimal `json:"cost_amount"`
	ManagerProfileID   *string         `json:"manager_profile_id,omitempty"`
	AgentProfileID     *string         `json:"agent_profile_id,omitempty"`
	OverrideProfileID  *string         `json:"override_profile_id,omitempty"`
	ProductID          *string         `json:"product_id,omitempty"`
	BranchCommission   decimal.Decimal `json:"branch_commission"`
	SalesCommission    decimal.Decimal `json:"sales_commission"`
	OverrideCommission decimal.Decimal `json:"override_commission"`
	Status             string          `json:"status" validate:"omitempty,oneof=PENDING CONFIRMED PAID PAYOUT_SCHEDULED CANCELLED"`
	SaleDate           string          `json:"sale_date" validate:"required"` // YYYY-MM-DD
}

// UpdateSaleStatusRequest moves a sale through its lifecycle.
type UpdateSaleStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING CONFIRMED PAID PAYOUT_SCHEDULED CANCELLED"`
}

// SyncLedgerRequest controls one ledger synchronization.
type SyncLedgerRequest struct {
	Regenerate bool `json:"regenerate"`
	IncludeHq  bool `json:"include_hq"`
}

// RunSettlementRequest is the request to aggregate a settlement period.
type RunSettlementRequest struct {
	From string `json:"from" validate:"required"` // YYYY-MM-DD, inclusive
	To   string `json:"to" validate:"required"`   // YYYY-MM-DD, exclusive
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ProfileDTO represents a profile in API responses.
type ProfileDTO struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Name            string  `json:"name"`
	WithholdingRate *string `json:"withholding_rate,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

// ProductDTO represents a product in API responses.
type ProductDTO struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// BreakdownDTO is the cached commission split of a sale.
type BreakdownDTO struct {
	NetRevenue         string `json:"net_revenue"`
	BranchCommission   string `json:"branch_commission"`
	SalesCommission    string `json:"sales_commission"`
	OverrideCommission string `json:"override_commission"`
}

// SaleDTO represents a sale in API responses.
type SaleDTO struct {
	ID                 string       `json:"id"`
	SaleAmount         string       `json:"sale_amount"`
	CostAmount         string       `json:"cost_amount"`
	ManagerProfileID   *string      `json:"manager_profile_id,omitempty"`
	AgentProfileID     *string      `json:"agent_profile_id,omitempty"`
	OverrideProfileID  *string      `json:"override_profile_id,omitempty"`
	ProductID          *string      `json:"product_id,omitempty"`
	BranchCommission   string       `json:"branch_commission"`
	SalesCommission    string       `json:"sales_commission"`
	OverrideCommission string       `json:"override_commission"`
	Status             string       `json:"status"`
	SaleDate           string       `json:"sale_date"`
	Summary            BreakdownDTO `json:"summary"`
	CreatedAt          string       `json:"created_at,omitempty"`
	UpdatedAt          string       `json:"updated_at,omitempty"`
}

// LedgerEntryDTO represents one ledger entry.
type LedgerEntryDTO struct {
	ID                string                   `json:"id"`
	SaleID            string                   `json:"sale_id"`
	ProfileID         *string                  `json:"profile_id,omitempty"`
	Role              string                   `json:"role"`
	GrossAmount       string                   `json:"gross_amount"`
	WithholdingRate   string                   `json:"withholding_rate"`
	WithholdingAmount string                   `json:"withholding_amount"`
	NetAmount         string                   `json:"net_amount"`
	Currency          string                   `json:"currency"`
	Metadata          commission.AuditSnapshot `json:"metadata"`
	CreatedAt         string                   `json:"created_at"`
}

// SyncResultDTO is the response after synchronizing a sale's ledger.
type SyncResultDTO struct {
	SaleID         string       `json:"sale_id"`
	Breakdown      BreakdownDTO `json:"breakdown"`
	EntriesCreated int          `json:"entries_created"`
}

// SettlementLineDTO is one payee's payable total for a period.
type SettlementLineDTO struct {
	ProfileID        string `json:"profile_id"`
	Currency         string `json:"currency"`
	GrossTotal       string `json:"gross_total"`
	WithholdingTotal string `json:"withholding_total"`
	NetTotal         string `json:"net_total"`
	EntryCount       int    `json:"entry_count"`
}

// SettlementRunDTO is a recorded settlement run.
type SettlementRunDTO struct {
	ID          string              `json:"id"`
	PeriodStart string              `json:"period_start"`
	PeriodEnd   string              `json:"period_end"`
	Status      string              `json:"status"`
	Lines       []SettlementLineDTO `json:"lines"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   string              `json:"created_at"`
	CompletedAt string              `json:"completed_at,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProfileDTO(p commission.Profile) ProfileDTO {
	dto := ProfileDTO{
		ID:   string(p.ID),
		Type: string(p.Type),
		Name: p.Name,
	}
	if p.WithholdingRate != nil {
		s := p.WithholdingRate.String()
		dto.WithholdingRate = &s
	}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toProductDTO(p commission.Product) ProductDTO {
	return ProductDTO{
		ID:       string(p.ID),
		Code:     p.Code,
		Name:     p.Name,
		Currency: p.Currency,
	}
}

func toBreakdownDTO(b commission.Breakdown) BreakdownDTO {
	return BreakdownDTO{
		NetRevenue:         b.NetRevenue.String(),
		BranchCommission:   b.BranchCommission.String(),
		SalesCommission:    b.SalesCommission.String(),
		OverrideCommission: b.OverrideCommission.String(),
	}
}

func toSaleDTO(s commission.Sale) SaleDTO {
	dto := SaleDTO{
		ID:                 string(s.ID),
		SaleAmount:         s.SaleAmount.String(),
		CostAmount:         s.CostAmount.String(),
		BranchCommission:   s.BranchCommission.String(),
		SalesCommission:    s.SalesCommission.String(),
		OverrideCommission: s.OverrideCommission.String(),
		Status:             string(s.Status),
		SaleDate:           s.SaleDate.Format("2006-01-02"),
		Summary:            toBreakdownDTO(s.Summary),
	}
	dto.ManagerProfileID = profileIDString(s.ManagerProfileID)
	dto.AgentProfileID = profileIDString(s.AgentProfileID)
	dto.OverrideProfileID = profileIDString(s.OverrideProfileID)
	if s.ProductID != nil {
		id := string(*s.ProductID)
		dto.ProductID = &id
	}
	if !s.CreatedAt.IsZero() {
		dto.CreatedAt = s.CreatedAt.Format(time.RFC3339)
	}
	if !s.UpdatedAt.IsZero() {
		dto.UpdatedAt = s.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func toLedgerEntryDTO(e commission.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:                string(e.ID),
		SaleID:            string(e.SaleID),
		ProfileID:         profileIDString(e.ProfileID),
		Role:              string(e.Role),
		GrossAmount:       e.GrossAmount.String(),
		WithholdingRate:   e.WithholdingRate.String(),
		WithholdingAmount: e.WithholdingAmount.String(),
		NetAmount:         e.NetAmount.String(),
		Currency:          e.Currency,
		Metadata:          e.Metadata,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}
}

func toLedgerEntryDTOs(entries []commission.LedgerEntry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLedgerEntryDTO(e)
	}
	return dtos
}

func toSettlementLineDTO(l commission.SettlementLine) SettlementLineDTO {
	return SettlementLineDTO{
		ProfileID:        string(l.ProfileID),
		Currency:         l.Currency,
		GrossTotal:       l.GrossTotal.String(),
		WithholdingTotal: l.WithholdingTotal.String(),
		NetTotal:         l.NetTotal.String(),
		EntryCount:       l.EntryCount,
	}
}

func toSettlementRunDTO(run commission.SettlementRun) SettlementRunDTO {
	lines := make([]SettlementLineDTO, len(run.Lines))
	for i, l := range run.Lines {
		lines[i] = toSettlementLineDTO(l)
	}
	dto := SettlementRunDTO{
		ID:          run.ID,
		PeriodStart: run.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   run.PeriodEnd.Format("2006-01-02"),
		Status:      run.Status,
		Lines:       lines,
		Error:       run.Error,
		CreatedAt:   run.CreatedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

func profileIDString(id *commission.ProfileID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func profileIDPtr(s *string) *commission.ProfileID {
	if s == nil || *s == "" {
		return nil
	}
	id := commission.ProfileID(*s)
	return &id
}
