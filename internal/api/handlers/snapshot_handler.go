package handlers

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/api/middleware"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/export"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/ingest"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/service"
)

// multipartOverhead is allowed on top of both files for boundaries and
// part headers when checking the declared request size.
const multipartOverhead = 1 << 20

type SnapshotHandler struct {
	service *service.DashboardService
}

func NewSnapshotHandler(service *service.DashboardService) *SnapshotHandler {
	return &SnapshotHandler{service: service}
}

// Upload reads the "inventory" and "sales" parts of a multipart form and
// stores them as a new snapshot.
func (h *SnapshotHandler) Upload(c *gin.Context) {
	limit := h.service.MaxUploadBytes()
	if c.Request.ContentLength > 2*limit+multipartOverhead {
		respondError(c, &domain.TooLargeError{Table: "request", Size: c.Request.ContentLength, Limit: 2*limit + multipartOverhead})
		return
	}

	reader, err := c.Request.MultipartReader()
	if err != nil {
		badRequest(c, "expected multipart form data")
		return
	}

	uploads := make(map[string]service.Upload, 2)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			badRequest(c, "invalid form data")
			return
		}

		name := part.FormName()
		if name != ingest.TableInventory && name != ingest.TableSales {
			_, _ = io.Copy(io.Discard, part)
			part.Close()
			continue
		}

		data, err := ingest.ReadLimited(name, part, limit)
		part.Close()
		if err != nil {
			respondError(c, err)
			return
		}
		uploads[name] = service.Upload{
			Filename: part.FileName(),
			Size:     int64(len(data)),
			Reader:   bytes.NewReader(data),
		}
	}

	inventory, okInv := uploads[ingest.TableInventory]
	sales, okSales := uploads[ingest.TableSales]
	if !okInv || !okSales {
		badRequest(c, "both inventory and sales files are required")
		return
	}

	account, _ := middleware.CurrentAccount(c)
	result, err := h.service.Upload(c.Request.Context(), inventory, sales, account.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Options returns the filter dropdown values for a snapshot.
func (h *SnapshotHandler) Options(c *gin.Context) {
	opts, err := h.service.Options(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// View returns one tab of a snapshot.
func (h *SnapshotHandler) View(c *gin.Context) {
	tab, filter, ok := h.parseQuery(c)
	if !ok {
		return
	}

	view, err := h.service.View(c.Request.Context(), c.Param("id"), tab, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Export downloads one tab as CSV or XLSX.
func (h *SnapshotHandler) Export(c *gin.Context) {
	tab, filter, ok := h.parseQuery(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), &buf, c.Param("id"), tab, filter, format); err != nil {
		respondError(c, err)
		return
	}

	account, _ := middleware.CurrentAccount(c)
	log.Info().
		Str("snapshot", c.Param("id")).
		Str("tab", string(tab)).
		Str("format", string(format)).
		Str("user", account.Username).
		Msg("dashboard: export downloaded")

	filename := export.FileName(tab, format, time.Now().UTC())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Delete discards a snapshot.
func (h *SnapshotHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SnapshotHandler) parseQuery(c *gin.Context) (domain.Tab, domain.Filter, bool) {
	tab, ok := domain.ParseTab(c.Param("tab"))
	if !ok {
		badRequest(c, fmt.Sprintf("unknown tab %q", c.Param("tab")))
		return "", domain.Filter{}, false
	}
	filter, err := parseFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return "", domain.Filter{}, false
	}
	return tab, filter, true
}

// parseFilter reads the filter bar from query parameters. Absent
// parameters keep their first-load defaults.
func parseFilter(c *gin.Context) (domain.Filter, error) {
	filter := domain.DefaultFilter()

	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Category = strings.TrimSpace(c.Query("category"))
	filter.Subcategory = strings.TrimSpace(c.Query("subcategory"))
	filter.Vendor = strings.TrimSpace(c.Query("vendor"))

	if v := strings.TrimSpace(c.Query("window")); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || !domain.ValidWindow(days) {
			return filter, domain.ErrInvalidWindow
		}
		filter.WindowDays = days
	}

	if v, ok := c.GetQuery("top_n"); ok {
		n, valid := domain.ParseTopN(v)
		if !valid {
			return filter, fmt.Errorf("top_n must be 25, 50, 100 or all")
		}
		filter.TopN = n
	}

	if v := strings.TrimSpace(c.Query("sort")); v != "" {
		key, valid := domain.ParseSortKey(v)
		if !valid {
			return filter, fmt.Errorf("unknown sort %q", v)
		}
		filter.Sort = key
	}

	if v, ok := c.GetQuery("expiration"); ok {
		w, valid := domain.ParseExpirationWindow(v)
		if !valid {
			return filter, fmt.Errorf("expiration must be any, 30, 60 or 90")
		}
		filter.Expiration = w
	}

	if v := strings.TrimSpace(c.Query("on_hand_gt_zero")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("on_hand_gt_zero must be true or false")
		}
		filter.OnHandGtZero = b
	}

	for param, dst := range map[string]**float64{"doh_min": &filter.DOHMin, "doh_max": &filter.DOHMax} {
		v := strings.TrimSpace(c.Query(param))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return filter, fmt.Errorf("%s must be a finite non-negative number", param)
		}
		*dst = &f
	}

	if v := strings.TrimSpace(c.Query("as_of")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("as_of must be a YYYY-MM-DD date")
		}
		filter.AsOf = &t
	}

	return filter, nil
}
