package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/game"
)

// APIHandler serves the REST surface: registration, login, and the
// read-only score endpoints. The adjudicator is the only score writer; there
// is deliberately no score submission endpoint.
type APIHandler struct {
	auth        *auth.Service
	ledger      game.ScoreLedger
	leaderboard game.LeaderboardSource
}

func NewAPIHandler(authService *auth.Service, ledger game.ScoreLedger, leaderboard game.LeaderboardSource) *APIHandler {
	return &APIHandler{auth: authService, ledger: ledger, leaderboard: leaderboard}
}

func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is already in use, please try another"})
			return
		}
		log.Printf("register failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "there was an error creating the user, please try again"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "user created successfully"})
}

func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password are required"})
		return
	}

	token, userID, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid username or password"})
			return
		}
		log.Printf("login failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "userId": userID})
}

// Logout acknowledges a logout. Tokens are stateless, so the server keeps no
// session to tear down; the client discards its token.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Scores returns the caller's own score record. A user with no record yet
// reads as zero points rather than a missing resource.
func (h *APIHandler) Scores(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	record, found, err := h.ledger.Find(r.Context(), userID)
	if err != nil {
		log.Printf("score lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load score"})
		return
	}
	if !found {
		record = domain.ScoreRecord{UserID: userID}
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *APIHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	entries, err := h.leaderboard.TopScores(r.Context(), limit)
	if err != nil {
		log.Printf("leaderboard lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load leaderboard"})
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *APIHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
		return "", false
	}
	userID, err := h.auth.VerifyToken(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
