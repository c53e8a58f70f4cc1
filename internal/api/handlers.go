package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

type prepareResponse struct {
	Token string `json:"token"`
}

type claimRequest struct {
	Token string `json:"token"`
}

type withdrawalRequest struct {
	Token       string `json:"token"`
	Amount      int64  `json:"amount"`
	Destination string `json:"destination"`
}

type withdrawalResponse struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}

func (s *Server) handlePrepareAd(w http.ResponseWriter, r *http.Request) {
	token, err := s.users.PrepareAd(s.user(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, prepareResponse{Token: token})
}

func (s *Server) handleClaimAd(w http.ResponseWriter, r *http.Request) {
	req := claimRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, model.ErrInvalidInput)
		return
	}

	result, err := s.users.WatchAd(s.user(r), req.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePrepareSpin(w http.ResponseWriter, r *http.Request) {
	token, err := s.users.PrepareSpin(s.user(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, prepareResponse{Token: token})
}

func (s *Server) handleClaimSpin(w http.ResponseWriter, r *http.Request) {
	req := claimRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, model.ErrInvalidInput)
		return
	}

	result, err := s.users.Spin(s.user(r), req.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.users.ListTasks(s.user(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleClaimTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, model.ErrInvalidInput)
		return
	}

	result, err := s.users.ClaimTask(s.user(r), taskID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePrepareWithdrawal(w http.ResponseWriter, r *http.Request) {
	token, err := s.users.PrepareWithdrawal(s.user(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, prepareResponse{Token: token})
}

func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	req := withdrawalRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, model.ErrInvalidInput)
		return
	}

	withdrawal, balance, err := s.users.WithdrawMoneyFromBalance(s.user(r), req.Token, req.Amount, req.Destination)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, withdrawalResponse{
		ID:      withdrawal.ID,
		Balance: balance,
	})
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, model.ErrInvalidInput)
		return
	}

	if err := s.users.BanUser(s.user(r), targetID); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": model.StatusBanned})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.users.GetProfile(s.user(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, profile)
}
