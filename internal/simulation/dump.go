package simulation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// tickBufferRow is one JSON-dumped OHLCV print (§6's tick buffer dump
// format).
type tickBufferRow struct {
	Tick   int64   `json:"tick"`
	Open   string  `json:"open"`
	High   string  `json:"high"`
	Low    string  `json:"low"`
	Close  string  `json:"close"`
	Volume int64   `json:"volume"`
}

type tickBufferSeries struct {
	Ticks      []tickBufferRow `json:"ticks"`
	OrderBooks struct{}        `json:"orderbooks"`
}

type tickBufferNewsRow struct {
	Symbol    string  `json:"symbol"`
	Category  string  `json:"category"`
	Sentiment string  `json:"sentiment"`
	Magnitude float64 `json:"magnitude"`
	Headline  string  `json:"headline"`
}

// DumpJSON writes the tick buffer's full retained history to w as one
// object keyed by symbol, plus a "_news" object keyed by tick index
// (§6's JSON tick buffer dump format).
func (s *Simulation) DumpJSON(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.tickBuffer.Symbols())+1)
	ticks := s.tickBuffer.Ticks()

	for _, symbol := range s.tickBuffer.Symbols() {
		rows := s.tickBuffer.Rows(symbol)
		series := tickBufferSeries{Ticks: make([]tickBufferRow, len(rows))}
		for i, r := range rows {
			series.Ticks[i] = tickBufferRow{
				Tick:   ticks[i],
				Open:   r.Open.String(),
				High:   r.High.String(),
				Low:    r.Low.String(),
				Close:  r.Close.String(),
				Volume: r.Volume,
			}
		}
		out[symbol] = series
	}

	news := make(map[string][]tickBufferNewsRow)
	for _, tick := range ticks {
		rows := s.tickBuffer.NewsAt(tick)
		if len(rows) == 0 {
			continue
		}
		converted := make([]tickBufferNewsRow, len(rows))
		for i, n := range rows {
			converted[i] = tickBufferNewsRow{
				Symbol:    n.Symbol,
				Category:  n.Category,
				Sentiment: n.Sentiment,
				Magnitude: n.Magnitude,
				Headline:  n.Headline,
			}
		}
		news[fmt.Sprintf("%d", tick)] = converted
	}
	if len(news) > 0 {
		out["_news"] = news
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// dumpMetadata is written alongside the per-symbol CSV files (§6).
type dumpMetadata struct {
	TotalTicks   int64    `json:"totalTicks"`
	ExportedTicks int     `json:"exportedTicks"`
	Commodities  []string `json:"commodities"`
	ExportedAt   string   `json:"exportedAt"`
}

// DumpCSV writes one tick,open,high,low,close,volume CSV file per symbol
// into dir, plus a metadata.json describing the export (§6's CSV tick
// buffer dump format).
func (s *Simulation) DumpCSV(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("simulation: create dump dir: %w", err)
	}

	ticks := s.tickBuffer.Ticks()
	for _, symbol := range s.tickBuffer.Symbols() {
		if err := s.dumpSymbolCSV(dir, symbol, ticks); err != nil {
			return err
		}
	}

	meta := dumpMetadata{
		TotalTicks:    s.engine.Clock().TotalTicks(),
		ExportedTicks: len(ticks),
		Commodities:   s.tickBuffer.Symbols(),
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	f, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return fmt.Errorf("simulation: write metadata.json: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func (s *Simulation) dumpSymbolCSV(dir, symbol string, ticks []int64) error {
	f, err := os.Create(filepath.Join(dir, symbol+".csv"))
	if err != nil {
		return fmt.Errorf("simulation: write %s.csv: %w", symbol, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"tick", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for i, r := range s.tickBuffer.Rows(symbol) {
		openF, _ := r.Open.Float64()
		highF, _ := r.High.Float64()
		lowF, _ := r.Low.Float64()
		closeF, _ := r.Close.Float64()
		record := []string{
			fmt.Sprintf("%d", ticks[i]),
			fmt.Sprintf("%.4f", openF),
			fmt.Sprintf("%.4f", highF),
			fmt.Sprintf("%.4f", lowF),
			fmt.Sprintf("%.4f", closeF),
			fmt.Sprintf("%.2f", float64(r.Volume)),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
