package export

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/logger"
	"github.com/jwaldner/bsmpricer/internal/portfolio"
	"github.com/jwaldner/bsmpricer/internal/providers"
	"github.com/jwaldner/bsmpricer/internal/providers/mock"
)

func appleRun(t *testing.T) *portfolio.Run {
	t.Helper()
	logger.Discard()
	engine := bsm.NewEngine(bsm.Defaults{RiskFreeRate: 0.05, DividendYield: 0.04})
	runner := portfolio.NewRunner(engine, providers.NewProviderManager(mock.NewAppleProvider()), config.ModelConfig{}).
		WithClock(func() time.Time { return time.Date(2025, 12, 16, 10, 0, 0, 0, time.UTC) })

	run, err := runner.Run(context.Background(), portfolio.Options{Symbols: []string{"AAPL"}})
	require.NoError(t, err)
	return run
}

func TestTableRoundTrip(t *testing.T) {
	rows := TableFromRun(appleRun(t))
	require.Len(t, rows, 2)
	assert.Equal(t, "CALL", rows[0].Type)
	assert.Equal(t, "2026-01-16", rows[0].Maturity)

	path := filepath.Join(t.TempDir(), "out", "bsm.csv")
	require.NoError(t, WriteTableFile(path, rows))

	back, err := ReadTableFile(path)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}

func TestTableHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, nil))
	assert.Equal(t,
		"Ticker,Spot,Maturity,Type,Contract Symbol,Strike,Volatility,Volume,Currency,Price,Delta,Gamma,Vega,Theta,Status,Intrinsic Value",
		strings.TrimSpace(buf.String()))
}

func TestTableNonFiniteSurvivesAsText(t *testing.T) {
	rows := []TableRow{{Ticker: "ZERO", Price: math.NaN(), Gamma: math.Inf(1)}}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rows))

	back, err := ReadTable(&buf)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.True(t, math.IsNaN(back[0].Price))
	assert.True(t, math.IsInf(back[0].Gamma, 1))
}

func TestCurveTable(t *testing.T) {
	engine := bsm.NewEngine(bsm.Defaults{RiskFreeRate: 0.05})
	spec := bsm.CurveSpec{Type: bsm.Call, Strike: 100, Maturity: 1, Volatility: 0.2, Spots: bsm.SpotRange{From: 90, To: 110, Step: 10}}

	rows, err := CurveTable(engine, spec)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	c, err := bsm.NewContract(100, 100, 1, 0.2, 0.05, 0)
	require.NoError(t, err)
	price, _ := c.Price(bsm.Call)
	delta, _ := c.Delta(bsm.Call)
	assert.Equal(t, 100.0, rows[1].Spot)
	assert.Equal(t, price, rows[1].Price)
	assert.Equal(t, delta, rows[1].Delta)
	assert.Equal(t, c.Gamma(), rows[1].Gamma)

	var buf bytes.Buffer
	require.NoError(t, WriteCurveTable(&buf, rows))
	assert.True(t, strings.HasPrefix(buf.String(), "Spot,Price,Delta,Gamma,Vega,Theta\n"))
}

func TestWriteCurve(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCurve(&buf, []bsm.Point{{Spot: 1, Value: 0.5}, {Spot: 2, Value: math.NaN()}}))
	assert.Equal(t, "Spot,Value\n1,0.5\n2,NaN\n", buf.String())
}

func TestWriteCharts(t *testing.T) {
	cfg := config.Default().Chart
	cfg.OutputDir = t.TempDir()

	engine := bsm.NewEngine(bsm.Defaults{RiskFreeRate: 0.05})
	writer := NewChartWriter(cfg)
	spec := bsm.CurveSpec{Type: bsm.Put, Strike: 100, Maturity: 0.5, Volatility: 0.25, Spots: writer.SpotRange()}

	files, err := writer.WriteCharts(engine, spec, []bsm.Measure{bsm.MeasurePrice, bsm.MeasureGamma})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(cfg.OutputDir, "put_price.png"),
		filepath.Join(cfg.OutputDir, "put_gamma.png"),
	}, files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), f)
	}
}

func TestWriteChartWithoutFinitePoints(t *testing.T) {
	writer := NewChartWriter(config.Default().Chart)
	err := writer.WriteChart(filepath.Join(t.TempDir(), "x.png"), bsm.CurveSpec{Type: bsm.Call}, bsm.MeasurePrice,
		[]bsm.Point{{Spot: 1, Value: math.NaN()}}, color.Black)
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#1f77b4")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}, c)

	c, err = ParseHexColor("fff")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, c)

	_, err = ParseHexColor("#12345g")
	assert.Error(t, err)
	_, err = ParseHexColor("#1234")
	assert.Error(t, err)
}

func TestTableValues(t *testing.T) {
	values, err := TableValues([]TableRow{{Ticker: "AAPL", Spot: 272.225, Type: "CALL", Price: math.NaN()}})
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "Ticker", values[0][0])
	assert.Equal(t, "AAPL", values[1][0])
	assert.Equal(t, "272.225", values[1][1])
	assert.Equal(t, "NaN", values[1][9])
}

func TestSheetsExport(t *testing.T) {
	var paths []string
	var updated sheets.ValueRange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &updated))
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
			w.Write([]byte(`{"updatedRange":"BSM!A1:P3"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	srv, err := sheets.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"), option.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	exporter := NewSheetsExporterWithService(srv, "sheet-id", "BSM")
	rng, err := exporter.Export(context.Background(), TableFromRun(appleRun(t)))
	require.NoError(t, err)

	assert.Equal(t, "BSM!A1:P3", rng)
	require.Len(t, paths, 2)
	assert.True(t, strings.HasPrefix(paths[0], "POST /v4/spreadsheets/sheet-id/values/BSM:clear"), paths[0])
	assert.True(t, strings.HasPrefix(paths[1], "PUT /v4/spreadsheets/sheet-id/values/"), paths[1])
	assert.Len(t, updated.Values, 3)
}

func TestSheetsExporterBadCredentials(t *testing.T) {
	_, err := NewSheetsExporter(context.Background(), "not base64!", "id", "BSM")
	assert.Error(t, err)

	t.Setenv("BSM_TEST_CREDS", "")
	_, err = NewSheetsExporterFromEnv(context.Background(), "BSM_TEST_CREDS", "id", "BSM")
	assert.Error(t, err)
}
