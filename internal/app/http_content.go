package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"costlaw/api/internal/store"
)

func (s *HTTPServer) handleListServices(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListServices(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleGetService(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.GetServiceBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var body ServiceInput
	if !decode(w, r, &body) {
		return
	}
	created, err := s.service.CreateService(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body ServiceUpdate
	if !decode(w, r, &body) {
		return
	}
	updated, err := s.service.UpdateService(r.Context(), id, body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteService(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	noContent(w)
}

func (s *HTTPServer) handleListNews(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListNews(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleGetNews(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.GetNewsBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleCreateNews(w http.ResponseWriter, r *http.Request) {
	var body NewsInput
	if !decode(w, r, &body) {
		return
	}
	created, err := s.service.CreateNews(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleUpdateNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body NewsUpdate
	if !decode(w, r, &body) {
		return
	}
	updated, err := s.service.UpdateNews(r.Context(), id, body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) handleDeleteNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteNews(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	noContent(w)
}

func (s *HTTPServer) handleListTeam(w http.ResponseWriter, r *http.Request) {
	members, err := s.service.ListTeamMembers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *HTTPServer) handleGetTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	member, err := s.service.GetTeamMember(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *HTTPServer) handleCreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var body TeamMemberInput
	if !decode(w, r, &body) {
		return
	}
	created, err := s.service.CreateTeamMember(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleUpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body TeamMemberUpdate
	if !decode(w, r, &body) {
		return
	}
	updated, err := s.service.UpdateTeamMember(r.Context(), id, body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) handleDeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteTeamMember(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	noContent(w)
}

func (s *HTTPServer) handleContact(w http.ResponseWriter, r *http.Request) {
	var body store.NewContact
	if !decode(w, r, &body) {
		return
	}
	contact, err := s.service.SubmitContact(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Contact form submitted successfully",
		"id":      contact.ID,
	})
}

func (s *HTTPServer) handleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.service.ListContacts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *HTTPServer) handleGetCommunity(w http.ResponseWriter, r *http.Request) {
	community, err := s.service.GetCommunity(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, community)
}

func (s *HTTPServer) handleUpdateCommunity(w http.ResponseWriter, r *http.Request) {
	var body CommunityUpdate
	if !decode(w, r, &body) {
		return
	}
	community, err := s.service.UpdateCommunity(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, community)
}

func (s *HTTPServer) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var body store.NewSubscription
	if !decode(w, r, &body) {
		return
	}
	subscription, err := s.service.Subscribe(r.Context(), body.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Subscription created successfully",
		"id":      subscription.ID,
	})
}

func (s *HTTPServer) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subscriptions, err := s.service.ListSubscriptions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptions)
}

func (s *HTTPServer) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteSubscription(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	noContent(w)
}
