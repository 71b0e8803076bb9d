package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/jwaldner/bsmpricer/internal/portfolio"
)

const dateLayout = "2006-01-02"

// TableRow is one line of the exported portfolio table
type TableRow struct {
	Ticker         string  `csv:"Ticker"`
	Spot           float64 `csv:"Spot"`
	Maturity       string  `csv:"Maturity"`
	Type           string  `csv:"Type"`
	ContractSymbol string  `csv:"Contract Symbol"`
	Strike         float64 `csv:"Strike"`
	Volatility     float64 `csv:"Volatility"`
	Volume         int64   `csv:"Volume"`
	Currency       string  `csv:"Currency"`
	Price          float64 `csv:"Price"`
	Delta          float64 `csv:"Delta"`
	Gamma          float64 `csv:"Gamma"`
	Vega           float64 `csv:"Vega"`
	Theta          float64 `csv:"Theta"`
	Status         string  `csv:"Status"`
	IntrinsicValue float64 `csv:"Intrinsic Value"`
}

// TableFromRun flattens priced contracts into table rows, keeping run order
func TableFromRun(run *portfolio.Run) []TableRow {
	rows := make([]TableRow, 0, len(run.Contracts))
	for _, c := range run.Contracts {
		rows = append(rows, TableRow{
			Ticker:         c.Row.Ticker,
			Spot:           c.Row.Spot,
			Maturity:       c.Row.Expiry.Format(dateLayout),
			Type:           c.Type.String(),
			ContractSymbol: c.ContractSymbol,
			Strike:         c.Row.Strike,
			Volatility:     c.Row.Volatility,
			Volume:         c.Volume,
			Currency:       c.Currency,
			Price:          c.Price,
			Delta:          c.Delta,
			Gamma:          c.Gamma,
			Vega:           c.Vega,
			Theta:          c.Theta,
			Status:         c.Moneyness.Status,
			IntrinsicValue: c.Moneyness.Value,
		})
	}
	return rows
}

// WriteTable writes rows as CSV with a header line
func WriteTable(w io.Writer, rows []TableRow) error {
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}

// WriteTableFile writes rows to path, creating parent directories
func WriteTableFile(path string, rows []TableRow) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadTable parses a table previously written by WriteTable
func ReadTable(r io.Reader) ([]TableRow, error) {
	var rows []TableRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	return rows, nil
}

// ReadTableFile parses a table file
func ReadTableFile(path string) ([]TableRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadTable(file)
}
