package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"eduai-backend/internal/domain"
	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/infra/logging"
	"eduai-backend/internal/infra/metrics"
	"eduai-backend/internal/usecase"
)

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, Status: status})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const quotaExceededMsg = "Prekoračena je mjesečna kvota potrošnje."

// statusFor maps domain errors onto the HTTP contract: 401, 429, 404, 400,
// 500.
func statusFor(err error) (int, string) {
	var rl *usecase.RateLimitError
	switch {
	case errors.As(err, &rl):
		return http.StatusTooManyRequests, rl.Reason
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusTooManyRequests, quotaExceededMsg
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "Invalid request"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// --- chat streaming ---

type chatRequestBody struct {
	Messages   []model.ChatMessage `json:"messages"`
	ID         string              `json:"id"`
	Model      string              `json:"model"`
	System     string              `json:"system"`
	ChatAreaID string              `json:"chatAreaId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var body chatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if body.ID == "" {
		body.ID = uuid.NewString()
	}
	if body.Model == "" {
		body.Model = s.defaultModel
	}
	side, ok := model.ParseChatSide(body.ChatAreaID)
	if !ok {
		side = model.SideLeft
	}

	ctx := logging.WithChatID(r.Context(), body.ID)
	req := &usecase.TutorRequest{
		ChatID:   body.ID,
		UserID:   sess.UserID,
		Tier:     sess.Tier,
		Side:     side,
		Model:    body.Model,
		System:   body.System,
		Messages: body.Messages,
	}

	flusher, canFlush := w.(http.Flusher)
	wrote := false
	onDelta := func(delta string) error {
		if !wrote {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			wrote = true
		}
		if _, err := w.Write([]byte(delta)); err != nil {
			return err
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	}

	start := time.Now()
	res, err := s.tutorUC.StreamChat(ctx, req, onDelta)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusTooManyRequests {
			gate := "total_limit"
			if errors.Is(err, domain.ErrPremiumLimitReached) {
				gate = "premium_limit"
			} else if errors.Is(err, domain.ErrQuotaExceeded) {
				gate = "quota"
			}
			metrics.IncGateDenial(gate, body.Model)
		}
		if wrote {
			// The response is already streaming; the caller sees a truncated
			// body and server state is consistent with "turn did not happen".
			logging.With(ctx, s.log).Error().Err(err).Msg("stream aborted mid-response")
			return
		}
		writeError(w, status, msg)
		return
	}

	cost := (&model.UsageRecord{
		Model:            body.Model,
		PromptTokens:     res.Usage.PromptTokens,
		CompletionTokens: res.Usage.CompletionTokens,
		TotalTokens:      res.Usage.TotalTokens,
	}).PriceCost()
	metrics.ObserveTurn(model.FamilyFor(body.Model).String(), body.Model,
		res.Usage.PromptTokens, res.Usage.CompletionTokens, res.Usage.TotalTokens,
		cost, time.Since(start).Milliseconds(), true)

	if !wrote {
		// Empty stream; still commit a well-formed response.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(res.Text))
	}
}

// --- chat history ---

type chatListItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Path      string `json:"path"`
	CreatedAt int64  `json:"createdAt"`
}

type sidePaneView struct {
	Messages     []model.ChatMessage `json:"messages"`
	Model        string              `json:"model,omitempty"`
	SystemPrompt string              `json:"systemPrompt,omitempty"`
}

type chatView struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Title     string       `json:"title"`
	Path      string       `json:"path"`
	CreatedAt int64        `json:"createdAt"`
	Left      sidePaneView `json:"left"`
	Right     sidePaneView `json:"right"`
}

func toChatView(c *model.Chat) chatView {
	return chatView{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		Path:      c.Path,
		CreatedAt: c.CreatedAt.UnixMilli(),
		Left:      sidePaneView{Messages: c.Left.Messages, Model: c.Left.Model, SystemPrompt: c.Left.SystemPrompt},
		Right:     sidePaneView{Messages: c.Right.Messages, Model: c.Right.Model, SystemPrompt: c.Right.SystemPrompt},
	}
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	if s.views != nil {
		if cached, ok := s.views.GetChatsView(r.Context(), sess.UserID); ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(cached)
			return
		}
	}

	chats, err := s.historyUC.GetChats(r.Context(), sess.UserID)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	items := make([]chatListItem, 0, len(chats))
	for _, c := range chats {
		items = append(items, chatListItem{
			ID:        c.ID,
			Title:     c.Title,
			Path:      c.Path,
			CreatedAt: c.CreatedAt.UnixMilli(),
		})
	}
	body, err := json.Marshal(items)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if s.views != nil {
		s.views.StoreChatsView(r.Context(), sess.UserID, body)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// cachedChatView wraps the rendered detail view with its owner so a cache hit
// still fails closed on owner mismatch.
type cachedChatView struct {
	UserID string          `json:"userId"`
	Body   json.RawMessage `json:"body"`
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	chatID := chi.URLParam(r, "id")

	if s.views != nil {
		if raw, ok := s.views.GetChatView(r.Context(), chatID); ok {
			var cached cachedChatView
			if json.Unmarshal(raw, &cached) == nil && cached.UserID == sess.UserID {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write(cached.Body)
				return
			}
		}
	}

	c, err := s.historyUC.GetChat(r.Context(), chatID, sess.UserID)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	body, err := json.Marshal(toChatView(c))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if s.views != nil {
		if raw, err := json.Marshal(cachedChatView{UserID: c.UserID, Body: body}); err == nil {
			s.views.StoreChatView(r.Context(), chatID, raw)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *Server) handleRemoveChat(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	chatID := chi.URLParam(r, "id")

	if err := s.historyUC.RemoveChat(r.Context(), chatID, sess.UserID); err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- usage dashboard ---

type usageItem struct {
	ID               string `json:"id"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	TotalTokens      int    `json:"totalTokens"`
	CostMicros       int64  `json:"costMicros"`
	CreatedAt        int64  `json:"createdAt"`
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	recs, err := s.quotaUC.ListUsage(r.Context(), sess.UserID, 0)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	items := make([]usageItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, usageItem{
			ID:               rec.ID,
			Model:            rec.Model,
			PromptTokens:     rec.PromptTokens,
			CompletionTokens: rec.CompletionTokens,
			TotalTokens:      rec.TotalTokens,
			CostMicros:       rec.CostMicros,
			CreatedAt:        rec.CreatedAt.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// --- uploads ---

const maxUploadBytes = 16 << 20

type uploadResponse struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Name        string `json:"name"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		writeError(w, http.StatusNotFound, "Uploads disabled")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	defer file.Close()

	contentType := hdr.Header.Get("Content-Type")
	name := "uploads/" + uuid.NewString() + filepath.Ext(hdr.Filename)
	url, err := s.uploads.Upload(r.Context(), name, contentType, file)
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("upload failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{
		URL:         url,
		ContentType: contentType,
		Name:        hdr.Filename,
	})
}
