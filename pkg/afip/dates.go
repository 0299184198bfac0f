package afip

import (
	"fmt"
	"time"
)

// Argentina huso horario oficial de AFIP (UTC-3, sin horario de verano).
var Argentina = time.FixedZone("ART", -3*60*60)

const (
	layoutCbteFch    = "20060102"
	layoutFchProceso = "20060102150405"
)

// FormatCbteFch fecha de comprobante en formato yyyymmdd (hora argentina).
func FormatCbteFch(t time.Time) string {
	return t.In(Argentina).Format(layoutCbteFch)
}

// ParseCbteFch parsea fechas yyyymmdd (CbteFch, CAEFchVto).
func ParseCbteFch(s string) (time.Time, error) {
	t, err := time.ParseInLocation(layoutCbteFch, s, Argentina)
	if err != nil {
		return time.Time{}, fmt.Errorf("afip: fecha %q inválida (yyyymmdd): %w", s, err)
	}
	return t, nil
}

// ParseFchProceso parsea FchProceso (yyyymmddHHMMSS).
func ParseFchProceso(s string) (time.Time, error) {
	t, err := time.ParseInLocation(layoutFchProceso, s, Argentina)
	if err != nil {
		return time.Time{}, fmt.Errorf("afip: fecha de proceso %q inválida (yyyymmddHHMMSS): %w", s, err)
	}
	return t, nil
}
