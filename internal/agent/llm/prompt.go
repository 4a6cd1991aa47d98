package llm

import "strings"

const promptTemplate = `Analiza el siguiente documento institucional (oficio o carta) y extrae la información:

1. Número de Oficio: busca primero en la línea "NOMBRE DEL ARCHIVO:" y luego en el encabezado.
   El correlativo tiene 5 dígitos. Formato final: "OFICIO N°00003-2025-MIDIS/FONCODES/UGPE".
   Las cartas NEMAEC usan 3 dígitos: "Carta N° 007-2026-NEMAEC/PRESIDENCIA".
2. Fecha: fecha del documento en formato YYYY-MM-DD.
3. Remitente: persona que firma el documento.
4. Destinatario: persona a quien va dirigido (después de "Señor:", "Sr.", "A:").
5. Asunto: asunto principal (máximo 200 caracteres).
6. Resumen: 2-3 líneas con qué pide y para cuándo, sin mencionar adjuntos ni destinatario (máximo 350 caracteres).
7. Mensaje WhatsApp: "[NÚMERO]\nAsunto: [ASUNTO BREVE]\nResumen: [qué pide y para cuándo]".
8. Oficio de Referencia: si es una CARTA que responde a un OFICIO, el número del OFICIO citado en "Referencia:" o "Ref.". Vacío si no hay.

No inventes información. No dejes espacios dentro del número de oficio.

Documento a analizar:
---
{{TEXT}}
---

Responde ÚNICAMENTE con un JSON válido con las claves:
numero_oficio, fecha, remitente, destinatario, asunto, resumen, mensaje_whatsapp, oficio_referencia`

// BuildPrompt embeds at most maxChars runes of text into the instructions.
func BuildPrompt(text string, maxChars int) string {
	if maxChars > 0 {
		if r := []rune(text); len(r) > maxChars {
			text = string(r[:maxChars])
		}
	}
	return strings.Replace(promptTemplate, "{{TEXT}}", text, 1)
}
