// seed_afip genera un script SQL para poblar las tablas paramétricas de AFIP
// (tipos de comprobante y condiciones de IVA del receptor) a partir de
// respuestas guardadas de WSFE.
//
// Uso:
//
//	go run ./cmd/seed_afip [-out seed_afip.sql] FEParamGetTiposCbte.xml FEParamGetCondicionIvaReceptor.xml
//
// Los XML pueden venir en ISO-8859-1 (así los devuelve el sitio de AFIP).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type tipoCbte struct {
	ID       int
	Desc     string
	FchDesde string
	FchHasta string
}

type condicionIVA struct {
	ID       int
	Desc     string
	CmpClase string
}

type params struct {
	TiposCbte     []tipoCbte
	CondicionesIV []condicionIVA
}

func main() {
	outPath := flag.String("out", "seed_afip.sql", "archivo SQL de salida")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "uso: seed_afip [-out archivo.sql] respuesta.xml [respuesta.xml...]")
		os.Exit(2)
	}

	var all params
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
			os.Exit(1)
		}
		p, err := parseParams(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(1)
		}
		all.TiposCbte = append(all.TiposCbte, p.TiposCbte...)
		all.CondicionesIV = append(all.CondicionesIV, p.CondicionesIV...)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := writeSeed(out, all); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d tipos de comprobante, %d condiciones de IVA\n",
		*outPath, len(all.TiposCbte), len(all.CondicionesIV))
}

// parseParams lee una respuesta SOAP de FEParamGetTiposCbte o
// FEParamGetCondicionIvaReceptor (o ambas, si vienen concatenadas en un sobre).
func parseParams(r io.Reader) (params, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToUpper(charset) {
		case "ISO-8859-1", "ISO8859-1", "LATIN1":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return params{}, fmt.Errorf("decodificar XML: %w", err)
	}
	if errs := doc.FindElements("//Errors/Err"); len(errs) > 0 {
		return params{}, fmt.Errorf("la respuesta contiene errores de AFIP: %s - %s",
			childText(errs[0], "Code"), childText(errs[0], "Msg"))
	}

	var p params
	for _, e := range doc.FindElements("//ResultGet/CbteTipo") {
		id, err := strconv.Atoi(childText(e, "Id"))
		if err != nil {
			return params{}, fmt.Errorf("CbteTipo sin Id numérico: %w", err)
		}
		p.TiposCbte = append(p.TiposCbte, tipoCbte{
			ID:       id,
			Desc:     childText(e, "Desc"),
			FchDesde: childText(e, "FchDesde"),
			FchHasta: childText(e, "FchHasta"),
		})
	}
	for _, e := range doc.FindElements("//ResultGet/CondicionIvaReceptor") {
		id, err := strconv.Atoi(childText(e, "Id"))
		if err != nil {
			return params{}, fmt.Errorf("CondicionIvaReceptor sin Id numérico: %w", err)
		}
		p.CondicionesIV = append(p.CondicionesIV, condicionIVA{
			ID:       id,
			Desc:     childText(e, "Desc"),
			CmpClase: childText(e, "Cmp_Clase"),
		})
	}
	if len(p.TiposCbte) == 0 && len(p.CondicionesIV) == 0 {
		return params{}, fmt.Errorf("no se encontraron CbteTipo ni CondicionIvaReceptor")
	}
	return p, nil
}

func writeSeed(w io.Writer, p params) error {
	// Un mismo INSERT ... ON CONFLICT DO UPDATE no admite ids repetidos.
	p.TiposCbte = uniqueByID(p.TiposCbte, func(t tipoCbte) int { return t.ID })
	p.CondicionesIV = uniqueByID(p.CondicionesIV, func(c condicionIVA) int { return c.ID })

	var b strings.Builder
	b.WriteString("-- Tablas paramétricas AFIP (WSFEv1)\n")
	b.WriteString("-- Generado por cmd/seed_afip\n\n")

	if len(p.TiposCbte) > 0 {
		b.WriteString("-- 1. Tipos de comprobante (FEParamGetTiposCbte)\n")
		b.WriteString("INSERT INTO afip_tipos_cbte (id, desc_, fch_desde, fch_hasta) VALUES\n")
		for i, t := range p.TiposCbte {
			fmt.Fprintf(&b, "  (%d, %s, %s, %s)%s\n", t.ID, quote(t.Desc), nullable(t.FchDesde), nullable(t.FchHasta), sep(i, len(p.TiposCbte)))
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET desc_ = EXCLUDED.desc_, fch_desde = EXCLUDED.fch_desde, fch_hasta = EXCLUDED.fch_hasta;\n\n")
	}
	if len(p.CondicionesIV) > 0 {
		b.WriteString("-- 2. Condiciones de IVA del receptor (FEParamGetCondicionIvaReceptor)\n")
		b.WriteString("INSERT INTO afip_condiciones_iva_receptor (id, desc_, cmp_clase) VALUES\n")
		for i, c := range p.CondicionesIV {
			fmt.Fprintf(&b, "  (%d, %s, %s)%s\n", c.ID, quote(c.Desc), nullable(c.CmpClase), sep(i, len(p.CondicionesIV)))
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET desc_ = EXCLUDED.desc_, cmp_clase = EXCLUDED.cmp_clase;\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// uniqueByID ordena por id y deja la última aparición de cada uno
// (el último archivo leído manda).
func uniqueByID[T any](rows []T, id func(T) int) []T {
	last := make(map[int]T, len(rows))
	for _, r := range rows {
		last[id(r)] = r
	}
	out := make([]T, 0, len(last))
	for _, r := range last {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

func childText(e *etree.Element, tag string) string {
	if c := e.SelectElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// nullable "NULL" para vacíos (AFIP devuelve FchHasta "NULL" en los vigentes).
func nullable(s string) string {
	if s == "" || strings.EqualFold(s, "NULL") {
		return "NULL"
	}
	return quote(s)
}

func sep(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}
