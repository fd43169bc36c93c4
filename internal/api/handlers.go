package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mrtommyb/K2fov/internal/campaign"
	"github.com/mrtommyb/K2fov/internal/catalog"
	"github.com/mrtommyb/K2fov/internal/fov"
	"github.com/mrtommyb/K2fov/internal/fovcache"
	"github.com/mrtommyb/K2fov/internal/httputil"
	"github.com/mrtommyb/K2fov/internal/layout"
	"github.com/mrtommyb/K2fov/internal/metrics"
	"github.com/mrtommyb/K2fov/internal/region"
)

// maxCatalogBytes bounds a classify request body.
const maxCatalogBytes = 16 << 20

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

func (h *handlers) tableReady() error {
	if h.deps.Store.Table() == nil {
		return fovcache.ErrNoTable
	}
	return nil
}

func (h *handlers) fovReady() error {
	_, err := h.deps.FOVs.All()
	return err
}

// writeLookupError maps campaign and table errors to HTTP statuses.
func writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrUnknownCampaign):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, fovcache.ErrNoTable):
		httputil.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

type campaignResponse struct {
	campaign.Pointing
	Comments  string  `json:"comments"`
	StartBKJD float64 `json:"start_bkjd"`
	StopBKJD  float64 `json:"stop_bkjd"`
}

func (h *handlers) describe(t *campaign.Table, id string) (campaignResponse, error) {
	// The listing is not a target-selection query; skip preliminary warnings.
	p, err := t.Pointing(id, nil)
	if err != nil {
		return campaignResponse{}, err
	}
	f, err := t.Lookup(id, nil)
	if err != nil {
		return campaignResponse{}, err
	}
	start, stop, err := t.Window(id)
	if err != nil {
		return campaignResponse{}, err
	}
	return campaignResponse{Pointing: p, Comments: f.Comments, StartBKJD: start, StopBKJD: stop}, nil
}

func (h *handlers) listCampaigns(w http.ResponseWriter, r *http.Request) {
	ds := h.deps.Store.Get()
	if ds == nil || ds.Table == nil {
		writeLookupError(w, fovcache.ErrNoTable)
		return
	}

	out := make([]campaignResponse, 0, len(ds.Table.FieldNumbers()))
	for _, id := range ds.Table.FieldNumbers() {
		c, err := h.describe(ds.Table, id)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		out = append(out, c)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"source":    ds.Source,
		"loaded_at": ds.LoadedAt.UTC().Format(time.RFC3339),
		"campaigns": out,
	})
}

func (h *handlers) getCampaign(w http.ResponseWriter, r *http.Request) {
	t := h.deps.Store.Table()
	if t == nil {
		writeLookupError(w, fovcache.ErrNoTable)
		return
	}
	c, err := h.describe(t, r.PathValue("id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// campaignFOV resolves the {id} path value, writing the error response
// itself when it fails.
func (h *handlers) campaignFOV(w http.ResponseWriter, r *http.Request) (string, *fov.FieldOfView, bool) {
	id := campaign.NormalizeID(r.PathValue("id"))
	f, err := h.deps.FOVs.Get(id)
	if err != nil {
		writeLookupError(w, err)
		return "", nil, false
	}
	h.warnIfPreliminary(id)
	return id, f, true
}

// warnIfPreliminary repeats the preliminary-position warning on every
// target-selection query, not only when the field of view is first built.
func (h *handlers) warnIfPreliminary(id string) {
	t := h.deps.Store.Table()
	if t == nil {
		return
	}
	if field, err := t.Lookup(id, nil); err == nil && field.Preliminary {
		h.logger.Warn("campaign position is preliminary, do not use it for final target selection",
			"campaign", id)
	}
}

func (h *handlers) onSilicon(w http.ResponseWriter, r *http.Request) {
	ra, dec, err := httputil.QueryRaDec(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	padding, err := httputil.QueryFloatDefault(r, "padding", h.deps.Options.Padding)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, f, ok := h.campaignFOV(w, r)
	if !ok {
		return
	}

	opts := h.deps.Options
	opts.Padding = padding
	flag := catalog.Classify(f, catalog.Target{RA: ra, Dec: dec}, opts)
	metrics.RecordQuery("onsilicon", flag == catalog.OnSilicon)

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"campaign":     id,
		"ra":           ra,
		"dec":          dec,
		"padding":      padding,
		"on_silicon":   flag == catalog.OnSilicon,
		"near_silicon": f.NearSilicon(ra, dec, opts.NearSiliconSep),
		"flag":         int(flag),
	})
}

type pixelResponse struct {
	Campaign  string  `json:"campaign"`
	RA        float64 `json:"ra"`
	Dec       float64 `json:"dec"`
	Found     bool    `json:"found"`
	Channel   int     `json:"channel,omitempty"`
	Module    int     `json:"module,omitempty"`
	Output    int     `json:"output,omitempty"`
	Col       float64 `json:"col,omitempty"`
	Row       float64 `json:"row,omitempty"`
	OnSilicon bool    `json:"on_silicon"`
}

func (h *handlers) pixel(w http.ResponseWriter, r *http.Request) {
	ra, dec, err := httputil.QueryRaDec(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, f, ok := h.campaignFOV(w, r)
	if !ok {
		return
	}

	resp := pixelResponse{Campaign: id, RA: ra, Dec: dec}
	if pc, found := f.ChannelColRow(ra, dec); found {
		mod, out, err := layout.ModOutFromChannel(pc.Channel)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Found = true
		resp.Channel, resp.Module, resp.Output = pc.Channel, mod, out
		resp.Col, resp.Row = pc.Col, pc.Row
		resp.OnSilicon = f.IsOnSilicon(ra, dec, h.deps.Options.Padding)
	}
	metrics.RecordQuery("pixel", resp.Found)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) sky(w http.ResponseWriter, r *http.Request) {
	chStr := r.URL.Query().Get("channel")
	ch, err := strconv.Atoi(chStr)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid channel parameter %q", chStr))
		return
	}
	col, err := httputil.QueryFloat(r, "col")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err := httputil.QueryFloat(r, "row")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, f, ok := h.campaignFOV(w, r)
	if !ok {
		return
	}

	ra, dec, err := f.RaDecForChannelColRow(ch, col, row)
	if err != nil {
		if errors.Is(err, fov.ErrInvalidChannel) {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.RecordQuery("sky", true)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"campaign": id,
		"channel":  ch,
		"col":      col,
		"row":      row,
		"ra":       ra,
		"dec":      dec,
	})
}

func (h *handlers) findCampaigns(w http.ResponseWriter, r *http.Request) {
	ra, dec, err := httputil.QueryRaDec(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	campaigns, err := h.deps.Finder.FindCampaigns(ra, dec)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	metrics.RecordQuery("findcampaigns", len(campaigns) > 0)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"ra":        ra,
		"dec":       dec,
		"campaigns": campaigns,
	})
}

func (h *handlers) microlens(w http.ResponseWriter, r *http.Request) {
	ra, dec, err := httputil.QueryRaDec(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	padding, err := httputil.QueryFloatDefault(r, "padding", 0)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := strconv.Itoa(h.deps.Mask.Campaign())
	f, err := h.deps.FOVs.Get(id)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	sr := region.NewSkyRegion(f, h.deps.Mask, h.logger)
	in := sr.ContainsWithPadding(ra, dec, padding)
	metrics.RecordQuery("microlens", in)

	resp := map[string]any{
		"campaign":  id,
		"ra":        ra,
		"dec":       dec,
		"padding":   padding,
		"in_region": in,
	}
	if pc, ok := sr.Locate(ra, dec); ok {
		resp["channel"], resp["col"], resp["row"] = pc.Channel, pc.Col, pc.Row
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) classify(w http.ResponseWriter, r *http.Request) {
	lenient := false
	if v := r.URL.Query().Get("lenient"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid lenient parameter %q", v))
			return
		}
		lenient = b
	}
	_, f, ok := h.campaignFOV(w, r)
	if !ok {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxCatalogBytes)
	targets, skipped, err := catalog.Parse(body, catalog.ParseOptions{Lenient: lenient}, h.logger)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.deps.MaxTargets > 0 && len(targets) > h.deps.MaxTargets {
		httputil.WriteError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("catalog has %d targets, limit is %d", len(targets), h.deps.MaxTargets))
		return
	}

	rows, err := h.deps.Pool.ClassifyBatch(r.Context(), f, targets, h.deps.Options)
	if err != nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("X-Skipped-Rows", strconv.Itoa(len(skipped)))
	w.WriteHeader(http.StatusOK)
	if err := catalog.Write(w, rows); err != nil {
		h.logger.Warn("failed to write classify response", "error", err)
	}
}
