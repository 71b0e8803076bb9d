package handlers

import (
	"encoding/json"
	"net/http"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/audit"
	"github.com/jwaldner/bsmpricer/internal/dto"
	"github.com/jwaldner/bsmpricer/internal/export"
	"github.com/jwaldner/bsmpricer/internal/models"
	"github.com/jwaldner/bsmpricer/internal/services"
)

// CurveHandler samples price and Greek curves over spot
type CurveHandler struct {
	engine   *bsm.Engine
	charts   *export.ChartWriter
	requests *services.RequestService
}

// NewCurveHandler creates a curve handler
func NewCurveHandler(engine *bsm.Engine, charts *export.ChartWriter, requests *services.RequestService) *CurveHandler {
	return &CurveHandler{engine: engine, charts: charts, requests: requests}
}

// CurveHandler serves GET /api/curve
func (h *CurveHandler) CurveHandler(w http.ResponseWriter, r *http.Request) {
	req, err := h.requests.DecodeCurveRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	typ, err := bsm.ParseOptionType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	measure := bsm.MeasurePrice
	if req.Measure != "" {
		if measure, err = bsm.ParseMeasure(req.Measure); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	spots := h.charts.SpotRange()
	if req.SpotStep > 0 {
		spots = bsm.SpotRange{From: req.SpotMin, To: req.SpotMax, Step: req.SpotStep}
	}
	if spots.Len() == 0 {
		writeError(w, http.StatusBadRequest, "empty spot range")
		return
	}

	spec := bsm.CurveSpec{Type: typ, Strike: req.Strike, Maturity: req.Maturity, Volatility: req.Volatility, Spots: spots}
	points, err := h.engine.SampleCurve(spec, measure)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	precision := int32(bsm.GreekPrecision)
	if measure == bsm.MeasurePrice {
		precision = bsm.PricePrecision
	}

	response := models.CurveResponse{
		Success:    true,
		Type:       typ.String(),
		Measure:    measure.String(),
		Strike:     req.Strike,
		Maturity:   req.Maturity,
		Volatility: req.Volatility,
		Points:     make([]models.CurvePoint, len(points)),
		Warnings:   audit.ValidateInputs(req.Strike, spots.From, req.Maturity, req.Volatility),
	}
	for i, p := range points {
		response.Points[i] = models.CurvePoint{Spot: p.Spot, Value: models.NumberField(p.Value, precision, "greek")}
	}
	if audit.HasNonFinite(points) {
		response.Warnings = append(response.Warnings, audit.CheckInputsMessage)
	}

	writeJSON(w, http.StatusOK, response)
}

// ChartHandler serves POST /api/chart, writing one PNG per requested measure
func (h *CurveHandler) ChartHandler(w http.ResponseWriter, r *http.Request) {
	var req dto.ChartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	typ, err := bsm.ParseOptionType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var measures []bsm.Measure
	for _, name := range req.Measures {
		m, err := bsm.ParseMeasure(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		measures = append(measures, m)
	}

	spec := bsm.CurveSpec{Type: typ, Strike: req.Strike, Maturity: req.Maturity, Volatility: req.Volatility, Spots: h.charts.SpotRange()}
	files, err := h.charts.WriteCharts(h.engine, spec, measures)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.ChartResponse{Success: true, Files: files})
}
