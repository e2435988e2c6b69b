package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/stilbar/bulk"
	"github.com/poiesic/stilbar/chem"
	"github.com/poiesic/stilbar/core"
	"github.com/poiesic/stilbar/resolver"
	"github.com/poiesic/stilbar/storage"
)

// Handlers contains the HTTP handlers for the catalog API.
type Handlers struct {
	repo     storage.CompoundRepository
	resolver *resolver.Resolver
	runner   *bulk.Runner
	metrics  *Metrics
	logger   *slog.Logger
}

// NewHandlers creates handlers over the given repository, resolver, and
// batch runner.
func NewHandlers(repo storage.CompoundRepository, res *resolver.Resolver, runner *bulk.Runner, metrics *Metrics, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		repo:     repo,
		resolver: res,
		runner:   runner,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleLookup handles GET /api/lookup?code=...
//
// Response:
//
//	200 OK: LookupResponse
//	400 Bad Request: missing code parameter
//	404 Not Found: LookupResponse with found=false and diagnosis metadata
func (h *Handlers) HandleLookup(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "missing code parameter",
			Code:  "MISSING_CODE",
		})
		return
	}

	start := time.Now()
	result, err := h.resolver.Resolve(c.Request.Context(), code)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			h.metrics.observeLookup(string(resolver.StrategyNotFound), false, elapsed)
			c.JSON(http.StatusNotFound, LookupResponse{
				Found:    false,
				Metadata: toLookupMetadata(result.Metadata),
			})
			return
		}
		h.logger.Error("lookup failed", "code", code, "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "LOOKUP_FAILED",
		})
		return
	}

	h.metrics.observeLookup(string(result.Metadata.Strategy), true, elapsed)
	c.JSON(http.StatusOK, LookupResponse{
		Found:     true,
		Structure: result.Structure,
		Metadata:  toLookupMetadata(result.Metadata),
	})
}

// HandleListCompounds handles GET /api/compounds.
func (h *Handlers) HandleListCompounds(c *gin.Context) {
	records, err := h.repo.All(c.Request.Context())
	if err != nil {
		h.logger.Error("listing compounds failed", "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "LIST_FAILED",
		})
		return
	}

	resp := ListCompoundsResponse{
		Compounds: make([]CompoundResponse, 0, len(records)),
		Count:     len(records),
	}
	for _, record := range records {
		resp.Compounds = append(resp.Compounds, toCompoundResponse(record))
	}
	c.JSON(http.StatusOK, resp)
}

// HandleAddCompound handles POST /api/compounds.
//
// Response:
//
//	201 Created: AddCompoundResponse
//	400 Bad Request: validation error
//	409 Conflict: duplicate identity
func (h *Handlers) HandleAddCompound(c *gin.Context) {
	var req AddCompoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	id, err := h.repo.Add(c.Request.Context(), &core.Compound{
		Name:      req.Name,
		Code:      req.Code,
		Structure: req.Structure,
	})
	h.metrics.observeMutation("add", err)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateIdentity) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error: err.Error(),
				Code:  "DUPLICATE_IDENTITY",
			})
			return
		}
		if errors.Is(err, core.ErrInvalidCompound) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: err.Error(),
				Code:  "INVALID_COMPOUND",
			})
			return
		}
		h.logger.Error("adding compound failed", "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "ADD_FAILED",
		})
		return
	}

	h.logger.Info("compound added via API", "identity", id, "code", req.Code)
	c.JSON(http.StatusCreated, AddCompoundResponse{Identity: string(id)})
}

// HandleDeleteCompounds handles DELETE /api/compounds.
//
// Response:
//
//	200 OK: DeleteCompoundsResponse, possibly with per-identity errors
//	404 Not Found: no requested identity resolved, nothing deleted
func (h *Handlers) HandleDeleteCompounds(c *gin.Context) {
	var req DeleteCompoundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	ids := make([]core.ID, len(req.Identities))
	for i, id := range req.Identities {
		ids[i] = core.ID(id)
	}

	result, err := h.repo.Delete(c.Request.Context(), ids...)
	h.metrics.observeMutation("delete", err)
	if err != nil {
		if errors.Is(err, storage.ErrNoDeletions) {
			c.JSON(http.StatusNotFound, DeleteCompoundsResponse{
				Success: false,
				Errors:  result.Errors,
			})
			return
		}
		h.logger.Error("deleting compounds failed", "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "DELETE_FAILED",
		})
		return
	}

	h.logger.Info("compounds deleted via API",
		"count", result.DeletedCount, "missing", len(result.Errors))
	c.JSON(http.StatusOK, DeleteCompoundsResponse{
		Success:      result.Success,
		DeletedCount: result.DeletedCount,
		Errors:       result.Errors,
	})
}

// HandleBatch handles POST /api/batch.
func (h *Handlers) HandleBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	h.metrics.batchSize.Observe(float64(len(req.Codes)))
	rows := h.runner.Run(c.Request.Context(), req.Codes)

	resp := BatchResponse{Rows: make([]BatchRow, len(rows))}
	for i, row := range rows {
		resp.Rows[i] = BatchRow{
			Input:      row.Input,
			Found:      row.Found,
			Structure:  row.Structure,
			Strategy:   string(row.Strategy),
			Confidence: row.Confidence,
			Name:       row.Name,
			Identity:   string(row.Identity),
			Error:      row.Error,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(c *gin.Context) {
	count, err := h.repo.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Compounds: count})
}

func toLookupMetadata(meta resolver.Metadata) LookupMetadata {
	return LookupMetadata{
		Strategy:    string(meta.Strategy),
		Confidence:  meta.Confidence,
		Identity:    string(meta.Identity),
		Name:        meta.Name,
		MatchedCode: meta.MatchedCode,
		Ambiguous:   meta.Ambiguous,
		Index:       meta.Index,
		Input:       meta.Input,
		Cleaned:     meta.Cleaned,
		Normalized:  meta.Normalized,
	}
}

func toCompoundResponse(record *core.Compound) CompoundResponse {
	return CompoundResponse{
		Identity:       string(record.Identity),
		Name:           record.Name,
		Code:           record.Code,
		Structure:      record.Structure,
		Num:            record.Num,
		ValidStructure: chem.Valid(record.Structure),
		InsertedAt:     record.InsertedAt,
	}
}
