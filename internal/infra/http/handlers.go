package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"tarledger/internal/domain"
	"tarledger/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type issueRequest struct {
	InvoiceNo    string `json:"invoice_no"`
	PurchaseDate string `json:"purchase_date"`
	Amount       string `json:"amount"`
	ItemName     string `json:"item_name"`
	OwnerAddress string `json:"owner_address"`
	ImageURL     string `json:"image_url"`
}

type verifyRequest struct {
	TokenID      uint64 `json:"token_id"`
	MetadataHash string `json:"metadata_hash"`
}

type receiptResponse struct {
	TokenID         uint64 `json:"token_id"`
	InvoiceNo       string `json:"invoice_no"`
	PurchaseDate    string `json:"purchase_date,omitempty"`
	Amount          string `json:"amount,omitempty"`
	ItemName        string `json:"item_name"`
	OwnerAddress    string `json:"owner_address"`
	MetadataURI     string `json:"metadata_uri"`
	MetadataHash    string `json:"metadata_hash"`
	TransactionHash string `json:"transaction_hash"`
	Revoked         bool   `json:"revoked"`
	CreatedAt       string `json:"created_at"`
	RevokedAt       string `json:"revoked_at,omitempty"`
}

type verdictResponse struct {
	Status       string `json:"status"`
	TokenID      uint64 `json:"token_id"`
	OwnerAddress string `json:"owner_address,omitempty"`
	MetadataHash string `json:"metadata_hash,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type revokeResponse struct {
	TokenID         uint64 `json:"token_id"`
	TransactionHash string `json:"transaction_hash"`
	RevokedAt       string `json:"revoked_at"`
}

func (s *Server) handleIssue(c *gin.Context) {
	if !s.requireAPIKey(c) || !s.enforceRateLimit(c, "receipts:issue") {
		return
	}
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	receipt, err := s.issueUC.Execute(c.Request.Context(), usecase.IssueReceiptRequest{
		InvoiceNo:    req.InvoiceNo,
		PurchaseDate: req.PurchaseDate,
		Amount:       req.Amount,
		ItemName:     req.ItemName,
		OwnerAddress: req.OwnerAddress,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildReceiptResponse(*receipt))
}

func (s *Server) handleVerify(c *gin.Context) {
	if !s.enforceRateLimit(c, "receipts:verify") {
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	// Without a claimed hash the engine fetches the stored document and
	// recomputes it.
	var verdict domain.Verdict
	if req.MetadataHash == "" {
		verdict = s.verifyUC.ExecuteStored(c.Request.Context(), req.TokenID)
	} else {
		verdict = s.verifyUC.Execute(c.Request.Context(), req.TokenID, req.MetadataHash)
	}
	c.JSON(http.StatusOK, buildVerdictResponse(verdict))
}

func (s *Server) handleRevoke(c *gin.Context) {
	if !s.requireAPIKey(c) || !s.enforceRateLimit(c, "receipts:revoke") {
		return
	}
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}
	res, err := s.revokeUC.Execute(c.Request.Context(), tokenID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, revokeResponse{
		TokenID:         res.TokenID,
		TransactionHash: res.TransactionHash,
		RevokedAt:       res.RevokedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetDetails(c *gin.Context) {
	if !s.enforceRateLimit(c, "receipts:read") {
		return
	}
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}
	receipt, err := s.queryUC.GetDetails(c.Request.Context(), tokenID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildReceiptResponse(*receipt))
}

func (s *Server) handleListByOwner(c *gin.Context) {
	if !s.enforceRateLimit(c, "receipts:read") {
		return
	}
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "active must be a boolean")
			return
		}
		activeOnly = parsed
	}
	receipts, err := s.queryUC.ListByOwner(c.Request.Context(), c.Param("address"), activeOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]receiptResponse, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, buildReceiptResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func parseTokenID(c *gin.Context) (uint64, bool) {
	tokenID, err := strconv.ParseUint(c.Param("token_id"), 10, 64)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "token_id must be a non-negative integer")
		return 0, false
	}
	return tokenID, true
}

func buildReceiptResponse(r domain.Receipt) receiptResponse {
	out := receiptResponse{
		TokenID:         r.TokenID,
		InvoiceNo:       r.InvoiceNo,
		PurchaseDate:    r.PurchaseDate,
		Amount:          r.Amount,
		ItemName:        r.ItemName,
		OwnerAddress:    r.OwnerAddress,
		MetadataURI:     r.MetadataURI,
		MetadataHash:    r.MetadataHash,
		TransactionHash: r.TransactionHash,
		Revoked:         r.Revoked,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.RevokedAt != nil {
		out.RevokedAt = r.RevokedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func buildVerdictResponse(v domain.Verdict) verdictResponse {
	return verdictResponse{
		Status:       string(v.Status),
		TokenID:      v.TokenID,
		OwnerAddress: v.OwnerAddress,
		MetadataHash: v.MetadataHash,
		Reason:       v.Reason,
	}
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, domain.ErrDuplicateInvoice):
		status, code = http.StatusConflict, "DUPLICATE_INVOICE"
	case errors.Is(err, domain.ErrAlreadyRevoked):
		status, code = http.StatusConflict, "ALREADY_REVOKED"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrTokenNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrLedgerTimeout):
		status, code = http.StatusGatewayTimeout, "LEDGER_TIMEOUT"
	case errors.Is(err, domain.ErrLedgerReverted):
		status, code = http.StatusBadGateway, "LEDGER_REVERTED"
	case errors.Is(err, domain.ErrContentStore):
		status, code = http.StatusBadGateway, "CONTENT_STORE_ERROR"
	case errors.Is(err, domain.ErrInconsistent):
		status, code = http.StatusInternalServerError, "INCONSISTENT_STATE"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
