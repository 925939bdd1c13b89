package services

import (
	"log"
	"sync"
	"time"

	"github.com/tujali/ussd-backend/internal/models"
)

// SessionState identifies where a dialog session is in the conversation
type SessionState string

// Dialog states
const (
	StateMainMenu                SessionState = "main_menu"
	StateLocationInput           SessionState = "location_input"
	StateDoctorSelection         SessionState = "doctor_selection"
	StateDoctorDetails           SessionState = "doctor_details"
	StateAppointmentTime         SessionState = "appointment_time"
	StateAppointmentConfirmation SessionState = "appointment_confirmation"
	StateMyAppointments          SessionState = "my_appointments"
)

// Session holds the per-conversation working memory between dialog turns.
// The gateway serializes turns per session, so fields are only ever touched
// by one in-flight turn; the store's mutex protects the map across sessions.
type Session struct {
	SessionID   string       `json:"session_id"`
	PhoneNumber string       `json:"phone_number"`
	State       SessionState `json:"state"`
	CreatedAt   time.Time    `json:"created_at"`
	LastActive  time.Time    `json:"last_active"`
	ExpiresAt   time.Time    `json:"expires_at"`

	// Working memory, populated as the conversation advances
	Patient          *models.Patient
	LocationInput    string
	Location         Location
	Providers        []*RankedProvider
	SelectedProvider *RankedProvider
	AppointmentKind  string
	Slots            []*models.AvailabilitySlot
	SelectedSlot     *models.AvailabilitySlot
	Appointments     []*models.Appointment
}

// SessionStore keeps dialog sessions in memory, keyed by session ID.
// Sessions are removed on terminal responses and swept after the idle TTL.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
}

// DefaultSessionTTL is how long an idle session survives before eviction
const DefaultSessionTTL = 10 * time.Minute

// NewSessionStore creates a session store with the given idle TTL
func NewSessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClock(ttl, time.Now)
}

// NewSessionStoreWithClock creates a session store with an injected clock
// (used by tests to control expiry)
func NewSessionStoreWithClock(ttl time.Duration, now func() time.Time) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      now,
		done:     make(chan struct{}),
	}
}

// GetOrCreate returns the session for sessionID, creating it on first
// contact. Expired sessions are evicted lazily and replaced with a fresh one.
func (s *SessionStore) GetOrCreate(sessionID, phoneNumber string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	session, exists := s.sessions[sessionID]
	if exists && now.Before(session.ExpiresAt) {
		session.LastActive = now
		session.ExpiresAt = now.Add(s.ttl)
		return session
	}

	session = &Session{
		SessionID:   sessionID,
		PhoneNumber: phoneNumber,
		State:       StateMainMenu,
		CreatedAt:   now,
		LastActive:  now,
		ExpiresAt:   now.Add(s.ttl),
	}
	s.sessions[sessionID] = session
	return session
}

// Get returns an active session, or false if it is unknown or expired
func (s *SessionStore) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists || s.now().After(session.ExpiresAt) {
		return nil, false
	}
	return session, true
}

// Delete removes a session (called on every terminal response)
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
}

// ActiveCount returns the number of non-expired sessions (for monitoring)
func (s *SessionStore) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	now := s.now()
	for _, session := range s.sessions {
		if now.Before(session.ExpiresAt) {
			count++
		}
	}
	return count
}

// StartSweeper launches the background eviction loop
func (s *SessionStore) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop halts the background sweeper
func (s *SessionStore) Stop() {
	close(s.done)
}

func (s *SessionStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			log.Printf("Swept expired session %s (%s)", id, session.PhoneNumber)
		}
	}
}
