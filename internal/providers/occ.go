package providers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OCCSymbol is a decoded OCC option symbol such as AAPL260116C00275000
type OCCSymbol struct {
	Root       string
	Expiration time.Time
	OptionType string // "call" or "put"
	Strike     float64
}

// ParseOCCSymbol decodes root, YYMMDD expiry, C/P flag and strike in thousandths
func ParseOCCSymbol(symbol string) (OCCSymbol, error) {
	symbol = strings.TrimSpace(symbol)
	// root (1-6) + 6 date + 1 type + 8 strike
	if len(symbol) < 16 {
		return OCCSymbol{}, fmt.Errorf("%w: OCC symbol %q too short", ErrUpstreamData, symbol)
	}

	tail := symbol[len(symbol)-15:]
	root := strings.TrimSpace(symbol[:len(symbol)-15])

	expiration, err := time.Parse("060102", tail[:6])
	if err != nil {
		return OCCSymbol{}, fmt.Errorf("%w: OCC symbol %q expiry: %v", ErrUpstreamData, symbol, err)
	}

	var optionType string
	switch tail[6] {
	case 'C':
		optionType = "call"
	case 'P':
		optionType = "put"
	default:
		return OCCSymbol{}, fmt.Errorf("%w: OCC symbol %q type flag %q", ErrUpstreamData, symbol, tail[6])
	}

	thousandths, err := strconv.ParseInt(tail[7:], 10, 64)
	if err != nil {
		return OCCSymbol{}, fmt.Errorf("%w: OCC symbol %q strike: %v", ErrUpstreamData, symbol, err)
	}

	return OCCSymbol{
		Root:       root,
		Expiration: expiration,
		OptionType: optionType,
		Strike:     float64(thousandths) / 1000,
	}, nil
}
