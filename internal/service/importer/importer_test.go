package importer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/internal/repository"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

func newRepo(t *testing.T) *repository.DocumentRepository {
	t.Helper()
	db, err := repository.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewDocumentRepository(db)
}

func ledger(t *testing.T, rows ...[]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"OFICIO", "FECHA ENVIO", "ASUNTO", "RESUMEN"}))
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	return f
}

func TestImportLedger(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	f := ledger(t,
		[]any{"OFICIO-291-2025-UGPE", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), "Pago de valorización", "Se remite"},
		[]any{"OFICIO N°000295-2025-MIDIS/FONCODES/UGPE", "2025-02-12", "Observaciones", ""},
		[]any{"", "", "", ""},
		[]any{"", "2025-02-13", "Sin número", ""},
	)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tl := logger.NewTestLogger()
	report, err := New(repo, tl).Import(ctx, buf, "")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 0, report.Updated)
	require.Equal(t, 1, report.Errors())
	assert.Equal(t, 5, report.Failures[0].Row)
	assert.Equal(t, 3, report.Total())
	assert.True(t, tl.HasMessage("INFO", "Ledger imported"))

	d, err := repo.FindByNumero(ctx, "OFICIO N°000291-2025-MIDIS/FONCODES/UGPE")
	require.NoError(t, err)
	assert.Equal(t, models.TipoOficio, d.TipoDocumento)
	assert.Equal(t, models.DireccionRecibido, d.Direccion)
	assert.Equal(t, d.NumeroOficio, d.Titulo)
	assert.Equal(t, "2025-02-10", d.Fecha)
	assert.Equal(t, "Pago de valorización", d.Asunto)
	assert.Equal(t, 2025, d.SortYear)
	assert.Equal(t, 291, d.SortCorrelative)

	d, err = repo.FindByNumero(ctx, "OFICIO N°000295-2025-MIDIS/FONCODES/UGPE")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-12", d.Fecha)
}

func TestImportUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	existing := &models.Document{
		TipoDocumento: models.TipoOficio,
		Direccion:     models.DireccionEnviado,
		NumeroOficio:  "OFICIO N°000291-2025-MIDIS/FONCODES/UGPE",
		Titulo:        "Antiguo",
		Fecha:         "2025-01-05",
	}
	require.NoError(t, repo.Create(ctx, existing))

	f := ledger(t, []any{"OFICIO-000291-2025-UGPE", "no es fecha", "Nuevo asunto", "Nuevo resumen"})
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	require.NoError(t, f.SaveAs(path))

	report, err := New(repo, logger.NewNop()).ImportFile(ctx, path, "")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Zero(t, report.Imported)

	got, err := repo.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nuevo asunto", got.Asunto)
	assert.Equal(t, "Nuevo resumen", got.Resumen)
	assert.Equal(t, got.NumeroOficio, got.Titulo)
	assert.Equal(t, "2025-01-05", got.Fecha)
	assert.Equal(t, models.DireccionEnviado, got.Direccion)
}

func TestImportMissingColumn(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"NUMERO", "ASUNTO"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = New(newRepo(t), logger.NewNop()).Import(context.Background(), buf, "Sheet1")
	assert.ErrorContains(t, err, "column OFICIO not found")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"2025-03-01", "2025-03-01", false},
		{"01/03/2025", "2025-03-01", false},
		{"45717", "2025-03-01", false},
		{"ayer", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseDate(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
