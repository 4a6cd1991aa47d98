package models

import (
	"time"
)

type TipoDocumento string

const (
	TipoOficio TipoDocumento = "oficio"
	TipoCarta  TipoDocumento = "carta"
)

func (t TipoDocumento) Valid() bool {
	return t == TipoOficio || t == TipoCarta
}

type Direccion string

const (
	DireccionRecibido Direccion = "recibido"
	DireccionEnviado  Direccion = "enviado"
)

func (d Direccion) Valid() bool {
	return d == DireccionRecibido || d == DireccionEnviado
}

// Document is one registered oficio or carta.
type Document struct {
	ID                int64         `json:"id"`
	TipoDocumento     TipoDocumento `json:"tipo_documento"`
	Direccion         Direccion     `json:"direccion"`
	NumeroOficio      string        `json:"numero_oficio"`
	Fecha             string        `json:"fecha"`
	Remitente         string        `json:"remitente"`
	Destinatario      string        `json:"destinatario"`
	Titulo            string        `json:"titulo"`
	Asunto            string        `json:"asunto"`
	Resumen           string        `json:"resumen"`
	MensajeWhatsapp   string        `json:"mensaje_whatsapp"`
	OficioReferencia  string        `json:"oficio_referencia"`
	Archivo           string        `json:"archivo"`
	SortYear          int           `json:"-"`
	SortCorrelative   int           `json:"-"`
	CreatedBy         string        `json:"created_by"`
	FechaCreacion     time.Time     `json:"fecha_creacion"`
	FechaModificacion time.Time     `json:"fecha_modificacion"`
}

// DocumentInput carries the writable fields of a Document. Nil pointers
// are left untouched on update.
type DocumentInput struct {
	TipoDocumento    *TipoDocumento `json:"tipo_documento"`
	Direccion        *Direccion     `json:"direccion"`
	NumeroOficio     *string        `json:"numero_oficio"`
	Fecha            *string        `json:"fecha"`
	Remitente        *string        `json:"remitente"`
	Destinatario     *string        `json:"destinatario"`
	Titulo           *string        `json:"titulo"`
	Asunto           *string        `json:"asunto"`
	Resumen          *string        `json:"resumen"`
	MensajeWhatsapp  *string        `json:"mensaje_whatsapp"`
	OficioReferencia *string        `json:"oficio_referencia"`
	Archivo          *string        `json:"archivo"`
}

// Apply copies the set fields of in onto d.
func (in DocumentInput) Apply(d *Document) {
	if in.TipoDocumento != nil {
		d.TipoDocumento = *in.TipoDocumento
	}
	if in.Direccion != nil {
		d.Direccion = *in.Direccion
	}
	setString(&d.NumeroOficio, in.NumeroOficio)
	setString(&d.Fecha, in.Fecha)
	setString(&d.Remitente, in.Remitente)
	setString(&d.Destinatario, in.Destinatario)
	setString(&d.Titulo, in.Titulo)
	setString(&d.Asunto, in.Asunto)
	setString(&d.Resumen, in.Resumen)
	setString(&d.MensajeWhatsapp, in.MensajeWhatsapp)
	setString(&d.OficioReferencia, in.OficioReferencia)
	setString(&d.Archivo, in.Archivo)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

const (
	SortDefault = "numero"
	SortFecha   = "fecha"
)

// DocumentFilter selects one page of the inbox.
type DocumentFilter struct {
	TipoDocumento TipoDocumento
	Direccion     Direccion
	Busqueda      string
	OrdenarPor    string
	Pagina        int
	PorPagina     int
}

// Normalize clamps paging to sane bounds.
func (f *DocumentFilter) Normalize() {
	if f.Pagina < 1 {
		f.Pagina = 1
	}
	if f.PorPagina < 1 {
		f.PorPagina = 20
	}
	if f.PorPagina > 100 {
		f.PorPagina = 100
	}
	if f.OrdenarPor != SortFecha {
		f.OrdenarPor = SortDefault
	}
}

type DocumentList struct {
	Documentos []Document `json:"documentos"`
	Total      int        `json:"total"`
	Pagina     int        `json:"pagina"`
	PorPagina  int        `json:"por_pagina"`
	Paginas    int        `json:"paginas"`
}

type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Nombre        string    `json:"nombre"`
	PasswordHash  string    `json:"-"`
	Activo        bool      `json:"activo"`
	FechaCreacion time.Time `json:"fecha_creacion"`
}

// AnalysisResult is what the assistant proposes for a document. Exito false
// means the fields should be filled in by hand; Mensaje explains why.
type AnalysisResult struct {
	NumeroOficio     string `json:"numero_oficio"`
	Fecha            string `json:"fecha"`
	Remitente        string `json:"remitente"`
	Destinatario     string `json:"destinatario"`
	Asunto           string `json:"asunto"`
	Resumen          string `json:"resumen"`
	MensajeWhatsapp  string `json:"mensaje_whatsapp"`
	OficioReferencia string `json:"oficio_referencia"`
	Exito            bool   `json:"exito"`
	Mensaje          string `json:"mensaje"`
}

// WhatsappMessage renders the three-line sharing template.
func WhatsappMessage(numero, asunto, resumen string) string {
	return numero + "\nAsunto: " + asunto + "\nResumen: " + resumen
}
