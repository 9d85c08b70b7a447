// Package api - HTTP handlers for the instrument catalogue and history.
// Handlers delegate to the service; they contain NO budget logic.
package api

import (
	"net/http"

	"uncertainty-budget/core/instrument"
	"uncertainty-budget/core/service"
)

// handleSaveCalculation handles POST /calculations
func (s *Server) handleSaveCalculation(w http.ResponseWriter, r *http.Request) {
	var req CalculationRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.svc.Save(r.Context(), req.Selection, req.Components)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, rec, http.StatusCreated)
}

// handleListCalculations handles GET /calculations
func (s *Server) handleListCalculations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Store().ListCalculations(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, &CalculationList{Calculations: recs, Count: len(recs)}, http.StatusOK)
}

// handleGetCalculation handles GET /calculations/{id}
func (s *Server) handleGetCalculation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Store().GetCalculation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, rec, http.StatusOK)
}

// handleListInstruments handles GET /instruments
func (s *Server) handleListInstruments(w http.ResponseWriter, r *http.Request) {
	insts, err := s.svc.Store().ListInstruments(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, &InstrumentList{Instruments: insts, Count: len(insts)}, http.StatusOK)
}

// handleCreateInstrument handles POST /instruments
func (s *Server) handleCreateInstrument(w http.ResponseWriter, r *http.Request) {
	var inst instrument.Instrument
	if !s.decode(w, r, &inst) {
		return
	}
	// IDs are server-assigned on create
	inst.ID = ""

	if err := s.svc.AddInstrument(r.Context(), &inst); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, &inst, http.StatusCreated)
}

// handleGetInstrument handles GET /instruments/{id}
func (s *Server) handleGetInstrument(w http.ResponseWriter, r *http.Request) {
	inst, err := s.svc.Store().GetInstrument(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, inst, http.StatusOK)
}

// handleDefaults handles GET /instruments/{id}/quantities/{qid}/ranges/{rid}/defaults
func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	sel := service.Selection{
		InstrumentID: r.PathValue("id"),
		QuantityID:   r.PathValue("qid"),
		RangeID:      r.PathValue("rid"),
	}
	cs, res, err := s.svc.Defaults(r.Context(), sel)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, &DefaultsResponse{
		Range:      res.Range.Reference(),
		Components: cs,
	}, http.StatusOK)
}
