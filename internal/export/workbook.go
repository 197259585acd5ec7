// Package export writes and reads the ranked picks workbook and uploads it to object storage.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/models"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Columns is the header row of every non-empty horizon sheet.
var Columns = []string{
	"symbol", "prob_est", "return", "volatility", "avg_vol", "score",
	"stop_loss_est", "target_price_est", "reason",
}

// FileName returns the workbook name for a run started at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("top_stocks_%d.xlsx", t.Unix())
}

// Workbook is the content of a picks workbook.
type Workbook struct {
	Horizons []int
	Picks    map[int][]models.Pick
}

// WriteWorkbook writes one sheet per horizon, in the given order, to path.
// A horizon without picks gets a sheet holding only the symbol header.
func WriteWorkbook(path string, horizons []int, picks map[int][]models.Pick) error {
	if len(horizons) == 0 {
		return fmt.Errorf("no horizons to export")
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close workbook", "error", err)
		}
	}()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range horizons {
		sheet := models.HorizonLabel(h)
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeSheet(f, sheet, picks[h], header); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, picks []models.Pick, header int) error {
	if len(picks) == 0 {
		if err := f.SetCellValue(sheet, "A1", "symbol"); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		return f.SetCellStyle(sheet, "A1", "A1", header)
	}

	headerRow := make([]any, len(Columns))
	for i, c := range Columns {
		headerRow[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, p := range picks {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			p.Symbol, p.ProbEst, p.Return, p.Volatility, p.AvgVolume, p.Score,
			optional(p.StopLoss), optional(p.TargetPrice), p.Reason,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "H", 14)
	_ = f.SetColWidth(sheet, "I", "I", 40)
	return nil
}

// optional leaves absent values as blank cells.
func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// ReadWorkbook loads a workbook written by WriteWorkbook. Sheets whose names
// are not horizon labels are ignored.
func ReadWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close workbook", "error", err)
		}
	}()

	wb := &Workbook{Picks: make(map[int][]models.Pick)}
	for _, sheet := range f.GetSheetList() {
		h, ok := parseHorizon(sheet)
		if !ok {
			continue
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		picks, err := parseSheet(h, rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		wb.Horizons = append(wb.Horizons, h)
		wb.Picks[h] = picks
	}

	sort.Ints(wb.Horizons)
	return wb, nil
}

func parseHorizon(sheet string) (int, bool) {
	months, ok := strings.CutSuffix(sheet, "m")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(months)
	if err != nil || h <= 0 {
		return 0, false
	}
	return h, true
}

func parseSheet(horizon int, rows [][]string) ([]models.Pick, error) {
	if len(rows) <= 1 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	if _, ok := index["symbol"]; !ok {
		return nil, fmt.Errorf("missing symbol column")
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	num := func(row []string, name string) (float64, error) {
		s := cell(row, name)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	optNum := func(row []string, name string) (*float64, error) {
		s := cell(row, name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}

	picks := make([]models.Pick, 0, len(rows)-1)
	for i, row := range rows[1:] {
		p := models.Pick{Horizon: horizon, Rank: i + 1, Symbol: cell(row, "symbol"), Reason: cell(row, "reason")}
		if p.Symbol == "" {
			continue
		}

		var err error
		if p.ProbEst, err = num(row, "prob_est"); err != nil {
			return nil, fmt.Errorf("row %d prob_est: %w", i+2, err)
		}
		if p.Return, err = num(row, "return"); err != nil {
			return nil, fmt.Errorf("row %d return: %w", i+2, err)
		}
		if p.Volatility, err = num(row, "volatility"); err != nil {
			return nil, fmt.Errorf("row %d volatility: %w", i+2, err)
		}
		if p.AvgVolume, err = num(row, "avg_vol"); err != nil {
			return nil, fmt.Errorf("row %d avg_vol: %w", i+2, err)
		}
		if p.Score, err = num(row, "score"); err != nil {
			return nil, fmt.Errorf("row %d score: %w", i+2, err)
		}
		if p.StopLoss, err = optNum(row, "stop_loss_est"); err != nil {
			return nil, fmt.Errorf("row %d stop_loss_est: %w", i+2, err)
		}
		if p.TargetPrice, err = optNum(row, "target_price_est"); err != nil {
			return nil, fmt.Errorf("row %d target_price_est: %w", i+2, err)
		}
		picks = append(picks, p)
	}
	return picks, nil
}
