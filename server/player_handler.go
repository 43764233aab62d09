package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"Bt1QPlay/config"
	"Bt1QPlay/core/player"
	"Bt1QPlay/logger"
	"Bt1QPlay/model"
	"Bt1QPlay/repository"
	"Bt1QPlay/storage"

	"github.com/gorilla/mux"
)

// APIHandler bundles the shared session with its collaborators for the
// HTTP control surface.
type APIHandler struct {
	session   *player.Session
	trackRepo repository.TrackRepository
	hub       *PlayerHub
	cfg       *config.Config
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(session *player.Session, trackRepo repository.TrackRepository, hub *PlayerHub, cfg *config.Config) *APIHandler {
	return &APIHandler{
		session:   session,
		trackRepo: trackRepo,
		hub:       hub,
		cfg:       cfg,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", logger.ErrorField(err))
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HandleState returns the current playback state snapshot.
func (h *APIHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

type playRequest struct {
	TrackID int64 `json:"trackId"`
}

// HandlePlay loads a catalog track into the shared session and starts it.
func (h *APIHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.trackRepo.GetTrackByID(req.TrackID)
	if err != nil {
		logger.Error("failed to load track", logger.ErrorField(err), logger.Int64("track", req.TrackID))
		respondError(w, http.StatusInternalServerError, "failed to load track")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "track not found")
		return
	}

	track := h.toPlayerTrack(r, record)
	if err := h.session.Play(r.Context(), track); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// HandlePause pauses the shared session.
func (h *APIHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.session.Pause()
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// HandleToggle toggles play/pause.
func (h *APIHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	if err := h.session.TogglePlay(r.Context()); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

type seekRequest struct {
	Time float64 `json:"time"`
}

// HandleSeek moves the playhead.
func (h *APIHandler) HandleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.session.Seek(req.Time)
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

// HandleVolume sets the user volume.
func (h *APIHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.session.SetVolume(r.Context(), req.Volume)
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// HandleStop stops playback and unloads the track.
func (h *APIHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.session.Stop()
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// HandleListTracks returns the catalog.
func (h *APIHandler) HandleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.ListTracks()
	if err != nil {
		logger.Error("failed to list tracks", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to list tracks")
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}

type createTrackRequest struct {
	Title    string    `json:"title"`
	Artist   string    `json:"artist"`
	Album    string    `json:"album"`
	FilePath string    `json:"filePath"`
	Duration float64   `json:"duration"`
	Peaks    []float64 `json:"peaks"`
}

// HandleCreateTrack registers a new catalog track.
func (h *APIHandler) HandleCreateTrack(w http.ResponseWriter, r *http.Request) {
	var req createTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.FilePath == "" {
		respondError(w, http.StatusBadRequest, "title and filePath are required")
		return
	}

	track := &model.Track{
		Title:    req.Title,
		Artist:   req.Artist,
		Album:    req.Album,
		FilePath: req.FilePath,
		Duration: req.Duration,
	}
	if err := track.SetPeakSamples(req.Peaks); err != nil {
		respondError(w, http.StatusBadRequest, "invalid peaks")
		return
	}

	id, err := h.trackRepo.CreateTrack(track)
	if err != nil {
		logger.Error("failed to create track", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to create track")
		return
	}
	track.ID = id
	respondJSON(w, http.StatusCreated, track)
}

// HandleGetTrack returns a single catalog track.
func (h *APIHandler) HandleGetTrack(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid track id")
		return
	}

	record, err := h.trackRepo.GetTrackByID(id)
	if err != nil {
		logger.Error("failed to load track", logger.ErrorField(err), logger.Int64("track", id))
		respondError(w, http.StatusInternalServerError, "failed to load track")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "track not found")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// toPlayerTrack 把目录记录转换为会话曲目。配置了对象存储时
// 把对象键解析成限时的预签名定位符。
func (h *APIHandler) toPlayerTrack(r *http.Request, record *model.Track) player.Track {
	audioURL := record.FilePath
	if storage.Ready() {
		presigned, err := storage.PresignAudioURL(r.Context(), h.cfg, record.FilePath, h.cfg.MinioURLTTL)
		if err != nil {
			logger.Warn("failed to presign audio url, falling back to raw path",
				logger.ErrorField(err),
				logger.Int64("track", record.ID))
		} else {
			audioURL = presigned
		}
	}

	return player.Track{
		ID:       strconv.FormatInt(record.ID, 10),
		Title:    record.Title,
		Artist:   record.Artist,
		Album:    record.Album,
		AudioURL: audioURL,
		Duration: record.Duration,
		Peaks:    record.PeakSamples(),
	}
}
