package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/types"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	var req types.StartInterviewRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resp, err := s.interviews.Start(r.Context(), req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var req types.SubmitAnswerRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resp, err := s.interviews.SubmitAnswer(r.Context(), id, req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteInterview(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resp, err := s.interviews.Complete(r.Context(), id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resp, err := s.interviews.Status(r.Context(), id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sess, err := s.interviews.Session(r.Context(), id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

// sessionID extracts and checks the "session_<uuid>" path value.
func sessionID(r *http.Request) (string, error) {
	id := r.PathValue("session_id")
	raw, ok := strings.CutPrefix(id, "session_")
	if !ok {
		return "", &ErrValidation{Field: "session_id", Message: "must start with session_"}
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", &ErrValidation{Field: "session_id", Message: "invalid uuid"}
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &ErrValidation{Field: "body", Message: "request body is required"}
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}
