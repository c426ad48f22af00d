package http

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"riddleme-service/internal/domain"
)

type answerRequest struct {
	Username      string `json:"username" validate:"required,max=64"`
	Answer        string `json:"answer" validate:"required,max=200"`
	RiddleID      int64  `json:"riddleId" validate:"required,gt=0"`
	HintsUsed     int    `json:"hintsUsed" validate:"gte=0,lte=3"`
	CurrentPoints int    `json:"currentPoints"`
}

type skipRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	RiddleID int64  `json:"riddleId" validate:"required,gt=0"`
}

type riddleResponse struct {
	Message string              `json:"message"`
	Riddle  domain.PublicRiddle `json:"riddle"`
}

type playerResponse struct {
	Username   string                `json:"username"`
	Points     int                   `json:"points"`
	LastActive time.Time             `json:"lastActive"`
	History    []domain.HistoryEntry `json:"history"`
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	riddle, err := s.riddles.Current(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, riddle.Public())
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.scoring.SubmitAnswer(r.Context(), req.submission())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (req answerRequest) submission() domain.AnswerSubmission {
	return domain.AnswerSubmission{
		Username:       req.Username,
		RiddleID:       req.RiddleID,
		Answer:         req.Answer,
		HintsUsed:      req.HintsUsed,
		ProposedPoints: req.CurrentPoints,
	}
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	var req skipRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	riddle, err := s.scoring.Skip(r.Context(), req.Username, req.RiddleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, riddleResponse{Message: "Riddle skipped", Riddle: riddle.Public()})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	riddle, err := s.riddles.Regenerate(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, riddleResponse{Message: "New riddle generated", Riddle: riddle.Public()})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.LeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation))
			return
		}
		limit = n
	}
	entries, err := s.scoring.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.scoring.Player(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	history := make([]domain.HistoryEntry, 0, len(player.History))
	for _, entry := range player.History {
		history = append(history, entry)
	}
	sort.Slice(history, func(i, j int) bool { return history[i].RiddleID < history[j].RiddleID })
	writeJSON(w, http.StatusOK, playerResponse{
		Username:   player.Username,
		Points:     player.Points,
		LastActive: player.LastActive,
		History:    history,
	})
}
