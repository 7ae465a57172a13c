package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/models"
	"github.com/BTreeMap/ReportPipe/internal/store"
	"github.com/go-chi/chi/v5"
)

// FeatureCollection is the GeoJSON document served to the map.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one report as a GeoJSON point.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// Geometry holds [longitude, latitude].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type FeatureProperties struct {
	ID        string              `json:"id"`
	Type      models.DisasterType `json:"type"`
	Desc      *string             `json:"desc"`
	Address   *string             `json:"address"`
	Kecamatan *string             `json:"kecamatan"`
	Desa      *string             `json:"desa"`
	Severity  *string             `json:"severity"`
	CreatedAt time.Time           `json:"created_at"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) listReportsHandler(w http.ResponseWriter, r *http.Request) {
	page, size := 1, store.DefaultPageSize
	if v, ok := queryInt(r, "page"); ok {
		page = v
	}
	if v, ok := queryInt(r, "size"); ok {
		size = max(v, 1)
	}
	page, size = store.NormalizePage(page, size)

	items, total, err := s.reports.ListReports(r.Context(), page, size)
	if err != nil {
		writeStoreError(w, "list", err, "Failed to fetch reports")
		return
	}
	if items == nil {
		items = []models.Report{}
	}
	writeJSON(w, http.StatusOK, models.ReportPage{Items: items, Page: page, Size: size, Total: total})
}

func (s *Server) geoJSONHandler(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reports.ListMapReports(r.Context(), store.MaxMapReports)
	if err != nil {
		writeStoreError(w, "geojson", err, "Failed to fetch reports")
		return
	}
	writeJSON(w, http.StatusOK, toFeatureCollection(reports))
}

func toFeatureCollection(reports []models.Report) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(reports))}
	for _, rep := range reports {
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "Point", Coordinates: [2]float64{rep.Lon, rep.Lat}},
			Properties: FeatureProperties{
				ID:        rep.ID,
				Type:      rep.DisasterType,
				Desc:      rep.Description,
				Address:   rep.Address,
				Kecamatan: rep.District,
				Desa:      rep.Village,
				Severity:  rep.Severity,
				CreatedAt: rep.CreatedAt,
			},
		})
	}
	return fc
}

func (s *Server) deleteReportHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.reports.DeleteReport(r.Context(), id); err != nil {
		writeStoreError(w, "delete "+id, err, "Failed to delete report")
		return
	}
	slog.Info("Report deleted", "id", id)
	writeAck(w, "Report deleted successfully")
}

func (s *Server) qrHandler(w http.ResponseWriter, r *http.Request) {
	var qr *string
	if code := s.cfg.QR.LatestQR(); code != "" {
		qr = &code
	}
	writeJSON(w, http.StatusOK, map[string]*string{"qr": qr})
}

func (s *Server) reloginHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.QR.Relogin(r.Context()); err != nil {
		slog.Error("Server.reloginHandler: failed to force relogin", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to force relogin")
		return
	}
	writeAck(w, "Relogin started")
}

// queryInt reports false when the parameter is absent or not an integer.
func queryInt(r *http.Request, key string) (int, bool) {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0, false
	}
	return v, true
}
