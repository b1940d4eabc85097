package server

import "net/http"

type userRequest struct {
	Name string `json:"name"`
}

type messageRequest struct {
	UserID *int   `json:"user_id"`
	Text   string `json:"text"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, nonNil(s.svc.Users()))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	u, err := s.svc.User(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUserMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	msgs, err := s.svc.MessagesByUser(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(msgs))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[userRequest](s, w, r)
	if !ok {
		return
	}
	u, err := s.svc.SaveUser(r.Context(), nil, req.Name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[userRequest](s, w, r)
	if !ok {
		return
	}
	u, err := s.svc.SaveUser(r.Context(), &id, req.Name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, deleteResponse{Deleted: s.svc.DeleteUser(r.Context(), id)})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, nonNil(s.svc.Messages()))
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	msg, err := s.svc.Message(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[messageRequest](s, w, r)
	if !ok {
		return
	}
	msg, err := s.svc.SaveMessage(r.Context(), nil, req.UserID, req.Text)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[messageRequest](s, w, r)
	if !ok {
		return
	}
	msg, err := s.svc.SaveMessage(r.Context(), &id, nil, req.Text)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, deleteResponse{Deleted: s.svc.DeleteMessage(r.Context(), id)})
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
