package entity

import "time"

// AccessTicket Ticket de Acceso (TA) otorgado por WSAA.
// Token y Sign autentican cada llamada a WSFE hasta ExpirationTime.
type AccessTicket struct {
	Token          string
	Sign           string
	GenerationTime time.Time
	ExpirationTime time.Time
}

// ValidAt indica si el ticket sigue vigente en el instante t.
func (t *AccessTicket) ValidAt(at time.Time) bool {
	return t != nil && t.Token != "" && at.Before(t.ExpirationTime)
}
