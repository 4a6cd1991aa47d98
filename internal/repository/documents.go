package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/internal/numbering"
)

const documentColumns = `id, tipo_documento, direccion, numero_oficio, fecha, remitente, destinatario,
	titulo, asunto, resumen, mensaje_whatsapp, oficio_referencia, archivo,
	sort_year, sort_correlative, created_by, fecha_creacion, fecha_modificacion`

// DocumentRepository stores the correspondence inbox.
type DocumentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (models.Document, error) {
	var (
		d                 models.Document
		numero, fecha     sql.NullString
		year, correlative sql.NullInt64
		created, modified string
	)
	err := row.Scan(&d.ID, &d.TipoDocumento, &d.Direccion, &numero, &fecha, &d.Remitente, &d.Destinatario,
		&d.Titulo, &d.Asunto, &d.Resumen, &d.MensajeWhatsapp, &d.OficioReferencia, &d.Archivo,
		&year, &correlative, &d.CreatedBy, &created, &modified)
	if err != nil {
		return d, err
	}
	d.NumeroOficio = numero.String
	d.Fecha = fecha.String
	d.SortYear = int(year.Int64)
	d.SortCorrelative = int(correlative.Int64)
	d.FechaCreacion = parseTime(created)
	d.FechaModificacion = parseTime(modified)
	return d, nil
}

func sortKeys(numero string) (sql.NullInt64, sql.NullInt64) {
	year, correlative, ok := numbering.SortKey(numero)
	return nullInt(year, ok && year > 0), nullInt(correlative, ok && correlative > 0)
}

// Create inserts d and fills its id, sort keys and timestamps. A non-empty
// number already in use yields ErrDuplicateNumber.
func (r *DocumentRepository) Create(ctx context.Context, d *models.Document) error {
	if err := r.checkNumber(ctx, d.NumeroOficio, 0); err != nil {
		return err
	}

	now := r.now()
	year, correlative := sortKeys(d.NumeroOficio)
	res, err := r.db.ExecContext(ctx, `INSERT INTO documentos (
		tipo_documento, direccion, numero_oficio, fecha, remitente, destinatario,
		titulo, asunto, resumen, mensaje_whatsapp, oficio_referencia, archivo,
		sort_year, sort_correlative, created_by, fecha_creacion, fecha_modificacion
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.TipoDocumento, d.Direccion, nullString(d.NumeroOficio), nullString(d.Fecha), d.Remitente, d.Destinatario,
		d.Titulo, d.Asunto, d.Resumen, d.MensajeWhatsapp, d.OficioReferencia, d.Archivo,
		year, correlative, d.CreatedBy, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read document id: %w", err)
	}

	d.ID = id
	d.SortYear = int(year.Int64)
	d.SortCorrelative = int(correlative.Int64)
	d.FechaCreacion = now.UTC()
	d.FechaModificacion = now.UTC()
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, id int64) (models.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documentos WHERE id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// FindByNumero returns the first document carrying exactly numero.
func (r *DocumentRepository) FindByNumero(ctx context.Context, numero string) (models.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documentos WHERE numero_oficio = ? ORDER BY id LIMIT 1`, numero)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("failed to find document: %w", err)
	}
	return d, nil
}

// Update writes every field of d back and refreshes its sort keys.
func (r *DocumentRepository) Update(ctx context.Context, d *models.Document) error {
	if err := r.checkNumber(ctx, d.NumeroOficio, d.ID); err != nil {
		return err
	}

	now := r.now()
	year, correlative := sortKeys(d.NumeroOficio)
	res, err := r.db.ExecContext(ctx, `UPDATE documentos SET
		tipo_documento = ?, direccion = ?, numero_oficio = ?, fecha = ?, remitente = ?, destinatario = ?,
		titulo = ?, asunto = ?, resumen = ?, mensaje_whatsapp = ?, oficio_referencia = ?, archivo = ?,
		sort_year = ?, sort_correlative = ?, fecha_modificacion = ?
		WHERE id = ?`,
		d.TipoDocumento, d.Direccion, nullString(d.NumeroOficio), nullString(d.Fecha), d.Remitente, d.Destinatario,
		d.Titulo, d.Asunto, d.Resumen, d.MensajeWhatsapp, d.OficioReferencia, d.Archivo,
		year, correlative, formatTime(now), d.ID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	d.SortYear = int(year.Int64)
	d.SortCorrelative = int(correlative.Int64)
	d.FechaModificacion = now.UTC()
	return nil
}

// SetArchivo records the stored file name of a document.
func (r *DocumentRepository) SetArchivo(ctx context.Context, id int64, archivo string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documentos SET archivo = ?, fecha_modificacion = ? WHERE id = ?`,
		archivo, formatTime(r.now()), id)
	if err != nil {
		return fmt.Errorf("failed to set document file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documentos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of the inbox. The default order is newest number
// first (year, then correlative); SortFecha orders by document date. Rows
// without a key go last and ties fall back to creation time.
func (r *DocumentRepository) List(ctx context.Context, f models.DocumentFilter) (models.DocumentList, error) {
	f.Normalize()

	var (
		where []string
		args  []any
	)
	if f.TipoDocumento != "" {
		where = append(where, "tipo_documento = ?")
		args = append(args, f.TipoDocumento)
	}
	if f.Direccion != "" {
		where = append(where, "direccion = ?")
		args = append(args, f.Direccion)
	}
	if q := strings.TrimSpace(f.Busqueda); q != "" {
		like := "%" + q + "%"
		where = append(where, `(titulo LIKE ? OR asunto LIKE ? OR remitente LIKE ?
			OR destinatario LIKE ? OR numero_oficio LIKE ?)`)
		args = append(args, like, like, like, like, like)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	list := models.DocumentList{Pagina: f.Pagina, PorPagina: f.PorPagina, Documentos: []models.Document{}}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documentos`+clause, args...).Scan(&list.Total); err != nil {
		return list, fmt.Errorf("failed to count documents: %w", err)
	}
	list.Paginas = (list.Total + f.PorPagina - 1) / f.PorPagina

	order := " ORDER BY sort_year IS NULL, sort_year DESC, sort_correlative IS NULL, sort_correlative DESC, fecha_creacion DESC, id DESC"
	if f.OrdenarPor == models.SortFecha {
		order = " ORDER BY fecha IS NULL, fecha DESC, fecha_creacion DESC, id DESC"
	}

	query := `SELECT ` + documentColumns + ` FROM documentos` + clause + order + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, f.PorPagina, (f.Pagina-1)*f.PorPagina)...)
	if err != nil {
		return list, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return list, fmt.Errorf("failed to scan document: %w", err)
		}
		list.Documentos = append(list.Documentos, d)
	}
	if err := rows.Err(); err != nil {
		return list, fmt.Errorf("failed to list documents: %w", err)
	}
	return list, nil
}

// Reindex recomputes the sort keys of every stored document and returns
// how many rows changed.
func (r *DocumentRepository) Reindex(ctx context.Context) (int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, numero_oficio, sort_year, sort_correlative FROM documentos`)
	if err != nil {
		return 0, fmt.Errorf("failed to read documents: %w", err)
	}

	type key struct {
		id                int64
		year, correlative sql.NullInt64
	}
	var changed []key
	for rows.Next() {
		var (
			id         int64
			numero     sql.NullString
			oldY, oldC sql.NullInt64
		)
		if err := rows.Scan(&id, &numero, &oldY, &oldC); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan document: %w", err)
		}
		y, c := sortKeys(numero.String)
		if y != oldY || c != oldC {
			changed = append(changed, key{id: id, year: y, correlative: c})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read documents: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin reindex: %w", err)
	}
	defer tx.Rollback()
	for _, k := range changed {
		if _, err := tx.ExecContext(ctx,
			`UPDATE documentos SET sort_year = ?, sort_correlative = ? WHERE id = ?`,
			k.year, k.correlative, k.id); err != nil {
			return 0, fmt.Errorf("failed to reindex document %d: %w", k.id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reindex: %w", err)
	}
	return len(changed), nil
}

func (r *DocumentRepository) checkNumber(ctx context.Context, numero string, selfID int64) error {
	if numero == "" {
		return nil
	}
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM documentos WHERE numero_oficio = ? AND id != ? LIMIT 1`, numero, selfID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check document number: %w", err)
	default:
		return fmt.Errorf("%w: %s", ErrDuplicateNumber, numero)
	}
}
