// Package server exposes the local view surface: HTTP intent routes for
// notifications and payments, plus an SSE stream so UI consumers can react
// to mutations without polling.
package server

import (
	"github.com/brocode/spot/internal/notify"
	"github.com/brocode/spot/internal/payments"
	"github.com/brocode/spot/internal/roster"
)

// Server wires the two entity stores and the roster collaborator to HTTP.
type Server struct {
	notifications *notify.Store
	payments      *payments.Store
	roster        roster.Roster
	hub           *Hub
}

// NewServer returns a Server serving the given stores. The hub is passed in
// rather than created here because the daemon includes it in the stores'
// publisher fan-out, so it must exist before the stores are opened.
// Authorization is delegated to the roster collaborator; the stores
// themselves are trusted to be gate-free.
func NewServer(n *notify.Store, p *payments.Store, r roster.Roster, hub *Hub) *Server {
	return &Server{
		notifications: n,
		payments:      p,
		roster:        r,
		hub:           hub,
	}
}
