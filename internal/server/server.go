package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"readkeeper/internal/pagecount"
	"readkeeper/internal/util"
	"readkeeper/pkg/domain"
	"readkeeper/pkg/metrics"
	"readkeeper/pkg/store"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	Store             *store.ReadingStore
	MaxUploadBytes    int64
	AllowedExtensions []string
	Now               func() time.Time
}

// Server exposes the reading service over HTTP.
type Server struct {
	store          *store.ReadingStore
	mux            *http.ServeMux
	maxUploadBytes int64
	allowedExts    map[string]struct{}
	now            func() time.Time
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 100 * 1024 * 1024
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}
	s := &Server{
		store:          cfg.Store,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
		allowedExts:    allowed,
		now:            now,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/books", s.handleBooks)
	s.mux.HandleFunc("/books/", s.handleBookByID)

	s.mux.HandleFunc("/sessions", s.handleSessions)
	s.mux.HandleFunc("/sessions/end", s.handleEndSession)
	s.mux.HandleFunc("/sessions/", s.handleSessionByID)

	s.mux.HandleFunc("/notes", s.handleNotes)
	s.mux.HandleFunc("/notes/", s.handleNoteByID)

	s.mux.HandleFunc("/highlights", s.handleHighlights)
	s.mux.HandleFunc("/highlights/", s.handleHighlightByID)

	s.mux.HandleFunc("/goals", s.handleGoals)
	s.mux.HandleFunc("/goals/", s.handleGoalByID)

	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/data", s.handleData)
	s.mux.HandleFunc("/maintenance/sweep", s.handleSweep)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// books

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleUploadBook(w, r)
	case http.MethodGet:
		snap := s.store.Snapshot()
		writeJSON(w, http.StatusOK, listResponse{Items: snap.Books, Count: len(snap.Books)})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUploadBook(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if len(s.allowedExts) > 0 {
		if _, ok := s.allowedExts[ext]; !ok {
			writeError(w, http.StatusBadRequest, "unsupported file type")
			return
		}
	}
	fileType, ok := domain.ParseFileType(ext)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported file type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file too large")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	author := strings.TrimSpace(r.FormValue("author"))
	if author == "" {
		author = "Unknown"
	}
	totalPages := 0
	if pages, ok := pagecount.Detect(fileType, data); ok {
		totalPages = pages
	}

	book, err := s.store.AddBook(r.Context(), store.BookDraft{
		Title:            title,
		Author:           author,
		FileType:         fileType,
		OriginalFilename: header.Filename,
		TotalPages:       totalPages,
		Content:          bytes.NewReader(data),
		Size:             int64(len(data)),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// /books/{id}, /books/{id}/file, /books/{id}/open,
// /books/{id}/progress, /books/{id}/pages
func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/books/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "file":
			s.handleBookFile(w, r, id)
		case "open":
			s.handleOpenBook(w, r, id)
		case "progress":
			s.handleBookProgress(w, r, id)
		case "pages":
			s.handleBookPages(w, r, id)
		default:
			notFound(w, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		book, ok := s.store.GetBook(id)
		if !ok {
			notFound(w, "book not found")
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodDelete:
		if err := s.store.DeleteBook(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleBookFile(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	book, ok := s.store.GetBook(id)
	if !ok {
		notFound(w, "book not found")
		return
	}
	data, ok, err := s.store.BookContent(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !ok {
		notFound(w, "book content missing")
		return
	}
	w.Header().Set("Content-Type", store.ContentTypeFor(book.FileType))
	w.Header().Set("Content-Disposition", "attachment; filename=\""+book.OriginalFilename+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleOpenBook(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.store.OpenBook(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "opened"})
}

func (s *Server) handleBookProgress(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req struct {
		CurrentPage int     `json:"currentPage"`
		Progress    float64 `json:"progress"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	book, err := s.store.UpdateBookProgress(r.Context(), id, req.CurrentPage, req.Progress)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleBookPages(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req struct {
		TotalPages int `json:"totalPages"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	book, err := s.store.SetBookTotalPages(r.Context(), id, req.TotalPages)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// sessions

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			BookID string `json:"bookId"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		sess, err := s.store.StartSession(r.Context(), req.BookID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	case http.MethodGet:
		snap := s.store.Snapshot()
		sessions := filterSessions(snap.Sessions, r.URL.Query().Get("bookId"))
		writeJSON(w, http.StatusOK, listResponse{Items: sessions, Count: len(sessions)})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess, ok, err := s.store.EndSession(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !ok {
		notFound(w, "no open session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req struct {
		PagesRead *int `json:"pagesRead"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.store.UpdateSession(r.Context(), id, store.SessionUpdate{PagesRead: req.PagesRead})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// notes

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			BookID  string   `json:"bookId"`
			Page    int      `json:"page"`
			Content string   `json:"content"`
			Type    string   `json:"type"`
			Tags    []string `json:"tags"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		noteType, ok := domain.ParseNoteType(req.Type)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid note type")
			return
		}
		note, err := s.store.AddNote(r.Context(), store.NoteDraft{
			BookID:  req.BookID,
			Page:    req.Page,
			Content: req.Content,
			Type:    noteType,
			Tags:    req.Tags,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, note)
	case http.MethodGet:
		snap := s.store.Snapshot()
		notes := filterNotes(snap.Notes, r.URL.Query().Get("bookId"))
		writeJSON(w, http.StatusOK, listResponse{Items: notes, Count: len(notes)})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleNoteByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/notes/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var req struct {
			Page    *int      `json:"page"`
			Content *string   `json:"content"`
			Type    *string   `json:"type"`
			Tags    *[]string `json:"tags"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		patch := store.NoteUpdate{Page: req.Page, Content: req.Content, Tags: req.Tags}
		if req.Type != nil {
			noteType, ok := domain.ParseNoteType(*req.Type)
			if !ok {
				writeError(w, http.StatusBadRequest, "invalid note type")
				return
			}
			patch.Type = &noteType
		}
		note, err := s.store.UpdateNote(r.Context(), id, patch)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	case http.MethodDelete:
		if err := s.store.DeleteNote(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// highlights

func (s *Server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			BookID string        `json:"bookId"`
			Page   int           `json:"page"`
			Text   string        `json:"text"`
			Color  string        `json:"color"`
			Note   string        `json:"note"`
			Rects  []domain.Rect `json:"rects"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		color, ok := domain.ParseHighlightColor(req.Color)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid highlight color")
			return
		}
		hl, err := s.store.AddHighlight(r.Context(), store.HighlightDraft{
			BookID: req.BookID,
			Page:   req.Page,
			Text:   req.Text,
			Color:  color,
			Note:   req.Note,
			Rects:  req.Rects,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, hl)
	case http.MethodGet:
		snap := s.store.Snapshot()
		highlights := filterHighlights(snap.Highlights, r.URL.Query().Get("bookId"))
		writeJSON(w, http.StatusOK, listResponse{Items: highlights, Count: len(highlights)})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleHighlightByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/highlights/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var req struct {
			Page  *int           `json:"page"`
			Text  *string        `json:"text"`
			Color *string        `json:"color"`
			Note  *string        `json:"note"`
			Rects *[]domain.Rect `json:"rects"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		patch := store.HighlightUpdate{Page: req.Page, Text: req.Text, Note: req.Note, Rects: req.Rects}
		if req.Color != nil {
			color, ok := domain.ParseHighlightColor(*req.Color)
			if !ok {
				writeError(w, http.StatusBadRequest, "invalid highlight color")
				return
			}
			patch.Color = &color
		}
		hl, err := s.store.UpdateHighlight(r.Context(), id, patch)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hl)
	case http.MethodDelete:
		if err := s.store.DeleteHighlight(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// goals

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			BookID      string     `json:"bookId"`
			TargetPages int        `json:"targetPages"`
			DailyTarget int        `json:"dailyTarget"`
			StartDate   time.Time  `json:"startDate"`
			EndDate     *time.Time `json:"endDate"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		goal, err := s.store.AddGoal(r.Context(), store.GoalDraft{
			BookID:      req.BookID,
			TargetPages: req.TargetPages,
			DailyTarget: req.DailyTarget,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, goal)
	case http.MethodGet:
		snap := s.store.Snapshot()
		goals := filterGoals(snap.Goals, r.URL.Query().Get("bookId"))
		writeJSON(w, http.StatusOK, listResponse{Items: goals, Count: len(goals)})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleGoalByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/goals/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var req struct {
			TargetPages *int       `json:"targetPages"`
			DailyTarget *int       `json:"dailyTarget"`
			EndDate     *time.Time `json:"endDate"`
			Completed   *bool      `json:"completed"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		goal, err := s.store.UpdateGoal(r.Context(), id, store.GoalUpdate{
			TargetPages: req.TargetPages,
			DailyTarget: req.DailyTarget,
			EndDate:     req.EndDate,
			Completed:   req.Completed,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, goal)
	case http.MethodDelete:
		if err := s.store.DeleteGoal(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// stats and maintenance

type goalStats struct {
	Goal     domain.ReadingGoal   `json:"goal"`
	Progress metrics.GoalProgress `json:"progress"`
}

type statsResponse struct {
	TotalReadingSeconds   float64                          `json:"totalReadingSeconds"`
	AverageSessionSeconds float64                          `json:"averageSessionSeconds"`
	TotalPagesRead        int                              `json:"totalPagesRead"`
	BooksByFileType       map[domain.FileType]int          `json:"booksByFileType"`
	NotesByType           map[domain.NoteType]int          `json:"notesByType"`
	BooksByProgress       map[metrics.ProgressRange]int    `json:"booksByProgress"`
	Goals                 []goalStats                      `json:"goals"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	snap := s.store.Snapshot()
	now := s.now()

	goals := make([]goalStats, 0, len(snap.Goals))
	byID := make(map[string]domain.Book, len(snap.Books))
	for _, b := range snap.Books {
		byID[b.ID] = b
	}
	for _, g := range snap.Goals {
		book := byID[g.BookID]
		goals = append(goals, goalStats{
			Goal:     g,
			Progress: metrics.ProgressForGoal(book, g, now),
		})
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalReadingSeconds:   metrics.TotalReadingTime(snap.Sessions).Seconds(),
		AverageSessionSeconds: metrics.AverageSessionTime(snap.Sessions).Seconds(),
		TotalPagesRead:        metrics.TotalPagesRead(snap.Sessions),
		BooksByFileType:       metrics.CountByFileType(snap.Books),
		NotesByType:           metrics.CountByNoteType(snap.Notes),
		BooksByProgress:       metrics.CountByProgressRange(snap.Books),
		Goals:                 goals,
	})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.store.ClearAllData(r.Context()); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	removed, err := s.store.SweepOrphanBlobs(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// helpers

type listResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

func filterSessions(sessions []domain.ReadingSession, bookID string) []domain.ReadingSession {
	if bookID == "" {
		return sessions
	}
	filtered := make([]domain.ReadingSession, 0, len(sessions))
	for _, s := range sessions {
		if s.BookID == bookID {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func filterNotes(notes []domain.Note, bookID string) []domain.Note {
	if bookID == "" {
		return notes
	}
	filtered := make([]domain.Note, 0, len(notes))
	for _, n := range notes {
		if n.BookID == bookID {
			filtered = append(filtered, n)
		}
	}
	return filtered
}

func filterHighlights(highlights []domain.Highlight, bookID string) []domain.Highlight {
	if bookID == "" {
		return highlights
	}
	filtered := make([]domain.Highlight, 0, len(highlights))
	for _, h := range highlights {
		if h.BookID == bookID {
			filtered = append(filtered, h)
		}
	}
	return filtered
}

func filterGoals(goals []domain.ReadingGoal, bookID string) []domain.ReadingGoal {
	if bookID == "" {
		return goals
	}
	filtered := make([]domain.ReadingGoal, 0, len(goals))
	for _, g := range goals {
		if g.BookID == bookID {
			filtered = append(filtered, g)
		}
	}
	return filtered
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrSnapshotWrite):
		writeError(w, http.StatusInternalServerError, "state persist failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case strings.Contains(message, "book content missing"):
		return "BOOK_CONTENT_MISSING"
	case strings.Contains(message, "book not found"), strings.Contains(message, "book "):
		if status == http.StatusNotFound {
			return "BOOK_NOT_FOUND"
		}
	case strings.Contains(message, "session"):
		if status == http.StatusNotFound {
			return "SESSION_NOT_FOUND"
		}
	case strings.Contains(message, "note"):
		if status == http.StatusNotFound {
			return "NOTE_NOT_FOUND"
		}
	case strings.Contains(message, "highlight"):
		if status == http.StatusNotFound {
			return "HIGHLIGHT_NOT_FOUND"
		}
	case strings.Contains(message, "goal"):
		if status == http.StatusNotFound {
			return "GOAL_NOT_FOUND"
		}
	case message == "file too large":
		return "BOOK_FILE_TOO_LARGE"
	case strings.Contains(message, "file is required"):
		return "BOOK_FILE_REQUIRED"
	case strings.Contains(message, "unsupported file type"):
		return "BOOK_UNSUPPORTED_FILE_TYPE"
	case message == "invalid form data":
		return "BOOK_INVALID_UPLOAD_FORM"
	case message == "invalid json body":
		return "REQUEST_INVALID_BODY"
	case message == "state persist failed":
		return "STATE_PERSIST_FAILED"
	}

	switch status {
	case http.StatusBadRequest:
		return "REQUEST_VALIDATION_FAILED"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
