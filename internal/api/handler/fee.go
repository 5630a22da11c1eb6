package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/ipl_server/internal/api/middleware"
	"github.com/qs3c/ipl_server/internal/model/dto"
	"github.com/qs3c/ipl_server/internal/pkg/billing"
	"github.com/qs3c/ipl_server/internal/pkg/response"
	"github.com/qs3c/ipl_server/internal/service"
)

const (
	invalidMonthMessage   = "month 格式应为 YYYY-MM"
	snapshotExpireSeconds = 600
)

// SnapshotSigner 生成快照的临时下载地址
type SnapshotSigner interface {
	SignedSnapshotURL(month, auditID string, expireSeconds int64) (string, error)
}

type FeeHandler struct {
	feeService    *service.FeeService
	ledgerService *service.LedgerService
	signer        SnapshotSigner
}

func NewFeeHandler(feeService *service.FeeService, ledgerService *service.LedgerService) *FeeHandler {
	return &FeeHandler{
		feeService:    feeService,
		ledgerService: ledgerService,
	}
}

// ListMine 当前住户的账单
// GET /api/v1/fees
func (h *FeeHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	items, err := h.feeService.ListUserFees(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// Generate 生成月度账单
// POST /api/v1/admin/fees/generate
func (h *FeeHandler) Generate(c *gin.Context) {
	var req dto.GenerateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if !billing.ValidMonth(req.Month) {
		response.ParamError(c, invalidMonthMessage)
		return
	}

	resp, err := h.feeService.GenerateMonthlyFees(c.Request.Context(), req.Month, billing.RateTable(req.Rates))
	if err != nil {
		writeFeeError(c, err)
		return
	}

	response.SuccessWithMessage(c, resp.Message, resp)
}

// Regenerate 按新费率重新生成，已缴账单保留
// POST /api/v1/admin/fees/regenerate
func (h *FeeHandler) Regenerate(c *gin.Context) {
	var req dto.RegenerateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if !billing.ValidMonth(req.Month) {
		response.ParamError(c, invalidMonthMessage)
		return
	}

	adminID, _ := middleware.GetUserID(c)
	resp, err := h.feeService.RegenerateFeesForMonth(c.Request.Context(), req.Month, billing.RateTable(req.Rates), adminID)
	if err != nil {
		writeFeeError(c, err)
		return
	}

	response.SuccessWithMessage(c, resp.Message, resp)
}

// Rollback 回滚最近一次重新生成
// POST /api/v1/admin/fees/rollback
func (h *FeeHandler) Rollback(c *gin.Context) {
	var req dto.RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if !billing.ValidMonth(req.Month) {
		response.ParamError(c, invalidMonthMessage)
		return
	}

	adminID, _ := middleware.GetUserID(c)
	resp, err := h.feeService.RollbackRegeneration(c.Request.Context(), req.Month, adminID)
	if err != nil {
		writeFeeError(c, err)
		return
	}

	// 无可回滚或被阻止时 success=false，仍按业务结果返回
	response.SuccessWithMessage(c, resp.Message, resp)
}

// History 某月的重新生成记录
// GET /api/v1/admin/fees/history?month=
func (h *FeeHandler) History(c *gin.Context) {
	month := c.Query("month")
	if !billing.ValidMonth(month) {
		response.ParamError(c, invalidMonthMessage)
		return
	}

	entries, err := h.ledgerService.History(month)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, entries)
}

// Audit 某月的全部审计记录，包括回滚
// GET /api/v1/admin/fees/audit?month=
func (h *FeeHandler) Audit(c *gin.Context) {
	month := c.Query("month")
	if !billing.ValidMonth(month) {
		response.ParamError(c, invalidMonthMessage)
		return
	}

	entries, err := h.ledgerService.AllActions(month)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, entries)
}

// SetSnapshotSigner 启用快照下载
func (h *FeeHandler) SetSnapshotSigner(signer SnapshotSigner) {
	h.signer = signer
}

// Snapshot 重新生成前被作废账单的快照下载地址
// GET /api/v1/admin/fees/audit/:id/snapshot
func (h *FeeHandler) Snapshot(c *gin.Context) {
	if h.signer == nil {
		response.NotFoundError(c, "快照归档未启用")
		return
	}

	entry, err := h.ledgerService.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAuditNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}
	if entry.SnapshotURL == "" {
		response.NotFoundError(c, "该记录没有快照")
		return
	}

	url, err := h.signer.SignedSnapshotURL(entry.Month, entry.ID, snapshotExpireSeconds)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"url": url, "expires_in": snapshotExpireSeconds})
}

// ListAll 全部账单
// GET /api/v1/admin/fees?include_superseded=
func (h *FeeHandler) ListAll(c *gin.Context) {
	includeSuperseded, _ := strconv.ParseBool(c.DefaultQuery("include_superseded", "false"))

	items, err := h.feeService.ListAllFees(includeSuperseded)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// ListByMonth 某月账单
// GET /api/v1/admin/fees/month/:month
func (h *FeeHandler) ListByMonth(c *gin.Context) {
	month := c.Param("month")
	if !billing.ValidMonth(month) {
		response.ParamError(c, invalidMonthMessage)
		return
	}
	includeSuperseded, _ := strconv.ParseBool(c.DefaultQuery("include_superseded", "false"))

	items, err := h.feeService.ListFeesByMonth(month, includeSuperseded)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// Versions 账单的全部版本
// GET /api/v1/admin/fees/:id/versions
func (h *FeeHandler) Versions(c *gin.Context) {
	items, err := h.feeService.GetFeeVersions(c.Param("id"))
	if err != nil {
		writeFeeError(c, err)
		return
	}

	response.Success(c, items)
}

// UpdateStatus 修改账单状态
// PUT /api/v1/admin/fees/:id/status
func (h *FeeHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateFeeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.feeService.UpdateFeeStatus(c.Param("id"), req.Status)
	if err != nil {
		writeFeeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", item)
}

func writeFeeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMonthLocked):
		response.DuplicateError(c, err.Error())
	case errors.Is(err, service.ErrFeeNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrFeeSuperseded), errors.Is(err, service.ErrDuplicateActiveFee):
		response.ConflictError(c, err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
