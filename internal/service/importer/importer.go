// Package importer loads the historical oficio ledger kept in Excel.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/internal/numbering"
	"github.com/feichai0017/correspondence-tracker/internal/repository"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

// Ledger column headers.
const (
	ColumnOficio  = "OFICIO"
	ColumnFecha   = "FECHA ENVIO"
	ColumnAsunto  = "ASUNTO"
	ColumnResumen = "RESUMEN"
)

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

type DocumentStore interface {
	FindByNumero(ctx context.Context, numero string) (models.Document, error)
	Create(ctx context.Context, d *models.Document) error
	Update(ctx context.Context, d *models.Document) error
	Reindex(ctx context.Context) (int, error)
}

type Importer struct {
	docs   DocumentStore
	logger logger.Logger
}

// RowError points at a spreadsheet row, counted from 1 including the
// header.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("fila %d: %v", e.Row, e.Err) }

type Report struct {
	Imported int
	Updated  int
	Failures []RowError
}

func (r *Report) Errors() int { return len(r.Failures) }

func (r *Report) Total() int { return r.Imported + r.Updated + r.Errors() }

func New(docs DocumentStore, log logger.Logger) *Importer {
	return &Importer{docs: docs, logger: log.Named("importer")}
}

// ImportFile reads the workbook at path. An empty sheet selects the first
// one.
func (i *Importer) ImportFile(ctx context.Context, path, sheet string) (*Report, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return i.importWorkbook(ctx, f, sheet)
}

func (i *Importer) Import(ctx context.Context, r io.Reader, sheet string) (*Report, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return i.importWorkbook(ctx, f, sheet)
}

func (i *Importer) importWorkbook(ctx context.Context, f *excelize.File, sheet string) (*Report, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	cols, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	i.logger.Info("Importing ledger",
		logger.String("sheet", sheet),
		logger.Int("rows", len(rows)-1),
	)

	report := &Report{}
	for n, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if blank(row) {
			continue
		}
		rowNum := n + 2

		updated, err := i.importRow(ctx, cols, row)
		if err != nil {
			report.Failures = append(report.Failures, RowError{Row: rowNum, Err: err})
			i.logger.Warn("Row skipped", logger.Int("row", rowNum), logger.Error(err))
			continue
		}
		if updated {
			report.Updated++
		} else {
			report.Imported++
		}
	}

	i.logger.Info("Ledger imported",
		logger.Int("imported", report.Imported),
		logger.Int("updated", report.Updated),
		logger.Int("errors", report.Errors()),
	)
	return report, nil
}

type columns struct {
	oficio, fecha, asunto, resumen int
}

func columnIndex(header []string) (columns, error) {
	c := columns{oficio: -1, fecha: -1, asunto: -1, resumen: -1}
	for i, h := range header {
		switch strings.ToUpper(strings.TrimSpace(h)) {
		case ColumnOficio:
			c.oficio = i
		case ColumnFecha:
			c.fecha = i
		case ColumnAsunto:
			c.asunto = i
		case ColumnResumen:
			c.resumen = i
		}
	}
	if c.oficio < 0 {
		return c, fmt.Errorf("column %s not found", ColumnOficio)
	}
	return c, nil
}

func (i *Importer) importRow(ctx context.Context, cols columns, row []string) (bool, error) {
	numero := numbering.NormalizeLegacy(cell(row, cols.oficio))
	if numero == "" {
		return false, errors.New("sin número de oficio")
	}
	fecha, err := parseDate(cell(row, cols.fecha))
	if err != nil {
		i.logger.Warn("Date ignored", logger.String("numero", numero), logger.Error(err))
	}
	asunto := strings.TrimSpace(cell(row, cols.asunto))
	resumen := strings.TrimSpace(cell(row, cols.resumen))

	existing, err := i.docs.FindByNumero(ctx, numero)
	switch {
	case err == nil:
		existing.Asunto = asunto
		existing.Resumen = resumen
		if fecha != "" {
			existing.Fecha = fecha
		}
		existing.Titulo = numero
		if err := i.docs.Update(ctx, &existing); err != nil {
			return false, err
		}
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
	default:
		return false, err
	}

	d := &models.Document{
		TipoDocumento: models.TipoOficio,
		Direccion:     models.DireccionRecibido,
		NumeroOficio:  numero,
		Titulo:        numero,
		Fecha:         fecha,
		Asunto:        asunto,
		Resumen:       resumen,
		CreatedBy:     "importer",
	}
	return false, i.docs.Create(ctx, d)
}

// Reindex recomputes the sort keys of the whole inbox.
func (i *Importer) Reindex(ctx context.Context) (int, error) {
	n, err := i.docs.Reindex(ctx)
	if err != nil {
		return 0, err
	}
	i.logger.Info("Sort keys recomputed", logger.Int("changed", n))
	return n, nil
}

// parseDate accepts Excel serial dates and the usual text layouts and
// returns YYYY-MM-DD.
func parseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return "", fmt.Errorf("fecha inválida %q: %w", raw, err)
		}
		return t.Format(time.DateOnly), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.DateOnly), nil
		}
	}
	return "", fmt.Errorf("fecha inválida %q", raw)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
