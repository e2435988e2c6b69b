package server

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/stilbar/core"
	"github.com/poiesic/stilbar/resolver"
	"github.com/poiesic/stilbar/storage"
)

// converterPage is the data for the lookup page template.
type converterPage struct {
	Code     string
	Result   *LookupResponse
	NotFound bool
}

// compoundsPage is the data for the catalog table template.
type compoundsPage struct {
	Compounds []CompoundResponse
	Count     int
	Notice    string
	Problem   string
}

// aboutPage is the data for the about template.
type aboutPage struct {
	Compounds int
	CodeKeys  int
}

// PageConverter renders the lookup page, resolving ?code= when present.
func (h *Handlers) PageConverter(c *gin.Context) {
	page := converterPage{Code: c.Query("code")}

	if page.Code != "" {
		start := time.Now()
		result, err := h.resolver.Resolve(c.Request.Context(), page.Code)
		elapsed := time.Since(start).Seconds()

		if err != nil && !errors.Is(err, resolver.ErrNotFound) {
			h.logger.Error("page lookup failed", "code", page.Code, "err", err)
			c.String(http.StatusInternalServerError, "lookup failed")
			return
		}

		found := err == nil
		h.metrics.observeLookup(string(result.Metadata.Strategy), found, elapsed)
		page.NotFound = !found
		page.Result = &LookupResponse{
			Found:     found,
			Structure: result.Structure,
			Metadata:  toLookupMetadata(result.Metadata),
		}
	}

	c.HTML(http.StatusOK, "converter.html", page)
}

// PageCompounds renders the catalog table with add and delete forms.
func (h *Handlers) PageCompounds(c *gin.Context) {
	records, err := h.repo.All(c.Request.Context())
	if err != nil {
		h.logger.Error("listing compounds failed", "err", err)
		c.String(http.StatusInternalServerError, "listing failed")
		return
	}

	page := compoundsPage{
		Compounds: make([]CompoundResponse, 0, len(records)),
		Count:     len(records),
		Notice:    c.Query("notice"),
		Problem:   c.Query("problem"),
	}
	for _, record := range records {
		page.Compounds = append(page.Compounds, toCompoundResponse(record))
	}
	c.HTML(http.StatusOK, "compounds.html", page)
}

// PageAddCompound handles the add form submission.
func (h *Handlers) PageAddCompound(c *gin.Context) {
	compound := &core.Compound{
		Name:      c.PostForm("name"),
		Code:      c.PostForm("code"),
		Structure: c.PostForm("structure"),
	}

	id, err := h.repo.Add(c.Request.Context(), compound)
	h.metrics.observeMutation("add", err)
	if err != nil {
		redirectCompounds(c, "", err.Error())
		return
	}

	h.logger.Info("compound added via form", "identity", id)
	redirectCompounds(c, "added "+string(id), "")
}

// PageDeleteCompounds handles the delete form submission.
func (h *Handlers) PageDeleteCompounds(c *gin.Context) {
	identities := c.PostFormArray("identities")
	if len(identities) == 0 {
		redirectCompounds(c, "", "nothing selected")
		return
	}

	ids := make([]core.ID, len(identities))
	for i, id := range identities {
		ids[i] = core.ID(id)
	}

	result, err := h.repo.Delete(c.Request.Context(), ids...)
	h.metrics.observeMutation("delete", err)
	if err != nil {
		if errors.Is(err, storage.ErrNoDeletions) {
			redirectCompounds(c, "", "no matching compounds")
			return
		}
		redirectCompounds(c, "", err.Error())
		return
	}

	notice := "deleted"
	if len(result.Errors) > 0 {
		notice = "deleted with warnings"
	}
	redirectCompounds(c, notice, "")
}

// PageAbout renders the about page with catalog statistics.
func (h *Handlers) PageAbout(c *gin.Context) {
	page := aboutPage{}
	if count, err := h.repo.Count(c.Request.Context()); err == nil {
		page.Compounds = count
	}
	if keys, err := h.repo.CodeKeys(c.Request.Context()); err == nil {
		page.CodeKeys = len(keys)
	}
	c.HTML(http.StatusOK, "about.html", page)
}

func redirectCompounds(c *gin.Context, notice, problem string) {
	target := "/compounds"
	query := url.Values{}
	if notice != "" {
		query.Set("notice", notice)
	}
	if problem != "" {
		query.Set("problem", problem)
	}
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	c.Redirect(http.StatusSeeOther, target)
}
