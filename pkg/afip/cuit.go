package afip

import "strings"

// cuitWeights pesos del dígito verificador (módulo 11).
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// NormalizeCUIT quita guiones y espacios: "20-12345678-6" → "20123456786".
func NormalizeCUIT(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ValidCUIT verifica formato (11 dígitos, guiones opcionales) y dígito verificador.
func ValidCUIT(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '-' && r != ' ' {
			return false
		}
	}
	d := NormalizeCUIT(s)
	if len(d) != 11 {
		return false
	}
	sum := 0
	for i, w := range cuitWeights {
		sum += int(d[i]-'0') * w
	}
	check := 11 - sum%11
	switch check {
	case 11:
		check = 0
	case 10:
		// AFIP no emite CUIT con verificador 10 (cambia el prefijo).
		return false
	}
	return int(d[10]-'0') == check
}
