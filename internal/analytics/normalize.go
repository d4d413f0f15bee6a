// Package analytics computes trading performance statistics from closed trades.
//
// Every exported function is total: malformed input degrades to zero values and
// zero denominators map to 0 or the NoDownside sentinel, never to NaN or Inf.
package analytics

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/atlas-desktop/tradestats/pkg/types"
)

// RawTrade is a loosely typed trade record as produced by an import source
type RawTrade map[string]any

// Field aliases, tried in order. The first present non-nil value wins.
var (
	dateAliases      = []string{"trade_date", "tradeDate", "TradeDate", "date", "Date"}
	symbolAliases    = []string{"symbol", "Symbol", "tradingsymbol", "ticker", "instrument"}
	tradeTypeAliases = []string{"trade_type", "tradeType", "TradeType", "type", "Type"}
	segmentAliases   = []string{"segment", "Segment", "product", "Product"}
	quantityAliases  = []string{"quantity", "Quantity", "qty", "Qty"}
	buyValueAliases  = []string{"buy_value", "buyValue", "BuyValue", "buy_amount"}
	sellValueAliases = []string{"sell_value", "sellValue", "SellValue", "sell_amount"}
	grossPnLAliases  = []string{"gross_pnl", "grossPnl", "grossPL", "gross_pl", "GrossPnL"}
	chargesAliases   = []string{"charges", "Charges", "fees", "brokerage", "total_charges"}
	netPnLAliases    = []string{"net_pnl", "netPnl", "netPL", "net_pl", "NetPnL", "pnl"}
)

const isoDate = "2006-01-02"

// Normalize maps a raw record onto the canonical Trade.
func Normalize(raw RawTrade) types.Trade {
	return types.Trade{
		TradeDate: normalizeDate(lookup(raw, dateAliases)),
		Symbol:    toText(lookup(raw, symbolAliases)),
		TradeType: toText(lookup(raw, tradeTypeAliases)),
		Segment:   toText(lookup(raw, segmentAliases)),
		Quantity:  toNumber(lookup(raw, quantityAliases)),
		BuyValue:  toNumber(lookup(raw, buyValueAliases)),
		SellValue: toNumber(lookup(raw, sellValueAliases)),
		GrossPnL:  toNumber(lookup(raw, grossPnLAliases)),
		Charges:   toNumber(lookup(raw, chargesAliases)),
		NetPnL:    toNumber(lookup(raw, netPnLAliases)),
		Raw:       finiteRaw(raw),
	}
}

// finiteRaw returns raw with NaN and infinite floats replaced by their string
// form so the record stays JSON-encodable. raw itself is returned when nothing
// needs replacing.
func finiteRaw(raw RawTrade) RawTrade {
	var out RawTrade
	for key, v := range raw {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case float32:
			f = float64(n)
		default:
			continue
		}
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			continue
		}
		if out == nil {
			out = make(RawTrade, len(raw))
			for k, val := range raw {
				out[k] = val
			}
		}
		out[key] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	if out == nil {
		return raw
	}
	return out
}

// NormalizeAll normalizes a list of raw records, preserving order.
func NormalizeAll(raws []RawTrade) []types.Trade {
	trades := make([]types.Trade, len(raws))
	for i, raw := range raws {
		trades[i] = Normalize(raw)
	}
	return trades
}

func lookup(raw RawTrade, aliases []string) any {
	for _, key := range aliases {
		if v, ok := raw[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// toNumber coerces v to a finite float64, defaulting to 0.
func toNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		f = parseFloat(string(n))
	case string:
		f = parseFloat(n)
	case []byte:
		f = parseFloat(string(n))
	default:
		return 0
	}
	return finite(f)
}

func parseFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func toText(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case []byte:
		return strings.TrimSpace(string(s))
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(finite(s), 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(finite(float64(s)), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case time.Time:
		if s.IsZero() {
			return ""
		}
		return s.Format(time.RFC3339)
	default:
		return ""
	}
}

// normalizeDate keeps the YYYY-MM-DD prefix of timestamps so that
// date-keyed grouping and lexicographic ordering work.
func normalizeDate(v any) string {
	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return ""
		}
		return t.Format(isoDate)
	}
	s := toText(v)
	if len(s) > len(isoDate) {
		if _, err := time.Parse(isoDate, s[:len(isoDate)]); err == nil {
			return s[:len(isoDate)]
		}
	}
	return s
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
