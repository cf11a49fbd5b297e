package httpapi

import (
	"net/http/httptest"

	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	"github.com/R3E-Network/storefront/internal/app/domain/tracking"
	"github.com/R3E-Network/storefront/internal/app/domain/user"
)

// Server runs the reference API on a loopback listener and exposes hooks
// for inspecting traffic and injecting faults.
type Server struct {
	*httptest.Server

	state *state
	rec   *recorder
}

// NewServer starts a reference API with the seeded catalog.
func NewServer() *Server {
	st := newState()
	rec := newRecorder()
	srv := &Server{state: st, rec: rec}
	srv.Server = httptest.NewServer(newHandler(st, rec).router())
	return srv
}

// SeedUser registers an account and returns it with a valid token.
func (s *Server) SeedUser(email, password, fullName string) (user.User, string) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if u, token, ok := s.state.login(email, password); ok {
		return u, token
	}
	u, token, _ := s.state.register(email, password, fullName)
	return u, token
}

// AddProduct inserts or replaces a catalog entry.
func (s *Server) AddProduct(p catalog.Product) {
	s.state.mu.Lock()
	s.state.addProduct(p)
	s.state.mu.Unlock()
}

// SetPricing configures tax and shipping applied to cart summaries.
func (s *Server) SetPricing(taxRate, shippingFlat, freeShippingMin float64) {
	s.state.mu.Lock()
	s.state.taxRate = taxRate
	s.state.shippingFlat = shippingFlat
	s.state.freeShippingMin = freeShippingMin
	s.state.mu.Unlock()
}

// CorruptSummary skews the reported item count by offset.
func (s *Server) CorruptSummary(offset int) {
	s.state.mu.Lock()
	s.state.summaryOffset = offset
	s.state.mu.Unlock()
}

// StripDisplayFields omits product name and image from cart lines.
func (s *Server) StripDisplayFields(strip bool) {
	s.state.mu.Lock()
	s.state.stripDisplay = strip
	s.state.mu.Unlock()
}

// Fail makes route answer with status (or StatusDrop) until Recover.
func (s *Server) Fail(route string, status int) { s.rec.fail(route, status) }

// Recover clears an injected failure.
func (s *Server) Recover(route string) { s.rec.heal(route) }

// Hold blocks requests to route until the returned release is called.
func (s *Server) Hold(route string) (release func()) { return s.rec.hold(route) }

// Requests returns every request observed so far.
func (s *Server) Requests() []Request { return s.rec.snapshot() }

// RequestsTo returns the observed requests for route.
func (s *Server) RequestsTo(route string) []Request {
	var out []Request
	for _, r := range s.rec.snapshot() {
		if r.Route == route {
			out = append(out, r)
		}
	}
	return out
}

// ResetRequests forgets observed requests.
func (s *Server) ResetRequests() { s.rec.reset() }

// Events returns the tracking events accepted so far.
func (s *Server) Events() []tracking.Event {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return append([]tracking.Event(nil), s.state.events...)
}

// EventsOfType filters accepted events by type.
func (s *Server) EventsOfType(t tracking.EventType) []tracking.Event {
	var out []tracking.Event
	for _, e := range s.Events() {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}
