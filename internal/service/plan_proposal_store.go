package service

import (
	"sync"
	"time"

	"github.com/noah-isme/studyplan-api/internal/dto"
)

type planProposal struct {
	ID          string
	UserID      string
	GeneratedAt time.Time
	ExpiresAt   time.Time
	Location    *time.Location
	Sessions    []dto.SuggestedSession
	Report      []dto.ExamPlanReport
}

func (p planProposal) response() *dto.PlanPreviewResponse {
	resp := &dto.PlanPreviewResponse{
		ProposalID:  p.ID,
		GeneratedAt: p.GeneratedAt,
		ExpiresAt:   p.ExpiresAt,
		Sessions:    p.Sessions,
		Report:      p.Report,
	}
	for _, r := range p.Report {
		resp.Requested += r.Requested
		resp.Placed += r.Placed
	}
	return resp
}

// proposalStore keeps previews in memory until they are accepted or expire.
type proposalStore struct {
	mu    sync.RWMutex
	items map[string]planProposal
	now   func() time.Time
}

func newProposalStore(now func() time.Time) *proposalStore {
	return &proposalStore{items: make(map[string]planProposal), now: now}
}

func (s *proposalStore) Save(proposal planProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ID] = proposal
}

func (s *proposalStore) Get(id string) (planProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return planProposal{}, false
	}
	if !s.now().Before(proposal.ExpiresAt) {
		s.Delete(id)
		return planProposal{}, false
	}
	return proposal, true
}

// Take removes and returns the user's unexpired proposal. Only one caller can take a
// given proposal; the rest see it as missing.
func (s *proposalStore) Take(id, userID string) (planProposal, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, ok := s.items[id]
	if !ok {
		return planProposal{}, false
	}
	if !now.Before(proposal.ExpiresAt) {
		delete(s.items, id)
		return planProposal{}, false
	}
	if proposal.UserID != userID {
		return planProposal{}, false
	}
	delete(s.items, id)
	return proposal, true
}

// Restore puts back a proposal whose acceptance failed, unless it expired meanwhile.
func (s *proposalStore) Restore(proposal planProposal) {
	if !s.now().Before(proposal.ExpiresAt) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[proposal.ID]; !exists {
		s.items[proposal.ID] = proposal
	}
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Purge drops every expired proposal and returns how many were removed.
func (s *proposalStore) Purge() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, proposal := range s.items {
		if !now.Before(proposal.ExpiresAt) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

func (s *proposalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
