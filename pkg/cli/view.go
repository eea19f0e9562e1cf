package cli

import (
	"log/slog"
	"net/http"

	"github.com/mchmarny/rimecast/pkg/render"
	"github.com/mchmarny/rimecast/pkg/score"
)

func faviconHandler(w http.ResponseWriter, _ *http.Request) {
	var r score.AspectRates
	r[score.North], r[score.NorthEast], r[score.East] = 0.9, 0.5, 0.1
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := w.Write([]byte(render.CompassSVG(r, render.CompassOptions{Size: 64}))); err != nil {
		slog.Error("failed to write favicon", "error", err)
	}
}

func mapViewHandler(srv *scoreServer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		res := srv.current()
		if res == nil {
			http.Error(w, "no scores available yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.WriteHTML(w, res, mapOptions(srv.app.Config)); err != nil {
			slog.Error("template render failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}

// compassHandler draws the rime compass of a location at the latest time, or
// the verglas compass with kind=verglas. mode=cumulative draws the totals.
func compassHandler(srv *scoreServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lr := srv.current().Find(r.PathValue("name"))
		if lr == nil {
			http.NotFound(w, r)
			return
		}

		p := lr.At(srv.now())
		if p == nil && len(lr.Points) > 0 {
			p = &lr.Points[len(lr.Points)-1]
		}
		if p == nil {
			http.Error(w, "no scores for location", http.StatusNotFound)
			return
		}

		cumulative := r.URL.Query().Get("mode") == "cumulative"
		kind := r.URL.Query().Get("kind")

		rates, verglas := p.Score.Rime, p.Score.Verglas
		if cumulative {
			rates, verglas = p.Cumulative.Rime, p.Cumulative.Verglas
		}

		title := lr.Location.Name + " rime"
		if kind == "verglas" {
			rates = render.Uniform(verglas)
			title = lr.Location.Name + " verglas"
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		svg := render.CompassSVG(rates, render.CompassOptions{
			Title:      title,
			Size:       min(queryParamInt(r, "size", 0), maxCompassSize),
			Cumulative: cumulative,
		})
		if _, err := w.Write([]byte(svg)); err != nil {
			slog.Error("failed to write compass", "error", err)
		}
	}
}
