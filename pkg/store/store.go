// Package store owns every entity collection of the reading assistant:
// books, sessions, notes, highlights, and goals. All mutation goes through
// one mutator per lifecycle transition; collaborators only ever see
// deep-copied snapshots. After each mutation the serializable projection
// is written through to the snapshot slot, and binary book content is kept
// in the blob store, joined to its book by ID alone.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"readkeeper/pkg/blobstore"
	"readkeeper/pkg/domain"
	"readkeeper/pkg/ident"
)

var (
	// ErrValidation marks a rejected draft or patch. No state was mutated.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to an entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSnapshotWrite marks a failed projection write. The in-memory
	// mutation stands; callers may retry or surface the error.
	ErrSnapshotWrite = errors.New("snapshot write failed")
)

// Config wires the reading store's collaborators.
type Config struct {
	Blobs     blobstore.BlobStore
	Snapshots SnapshotStore
	IDs       ident.Generator
	Now       func() time.Time
}

// ReadingStore is the single owner of all entity state.
type ReadingStore struct {
	mu        sync.RWMutex
	blobs     blobstore.BlobStore
	snapshots SnapshotStore
	ids       ident.Generator
	now       func() time.Time

	books      map[string]domain.Book
	bookOrder  []string
	sessions   map[string]domain.ReadingSession
	sessOrder  []string
	notes      map[string]domain.Note
	noteOrder  []string
	highlights map[string]domain.Highlight
	hlOrder    []string
	goals      map[string]domain.ReadingGoal
	goalOrder  []string

	currentBookID    string
	currentSessionID string

	subs map[int]chan struct{}
	sub  int
}

// New constructs the store and rehydrates it from the snapshot slot. A
// missing snapshot means a fresh start with empty collections.
func New(ctx context.Context, cfg Config) (*ReadingStore, error) {
	if cfg.Blobs == nil {
		return nil, errors.New("blob store required")
	}
	if cfg.Snapshots == nil {
		return nil, errors.New("snapshot store required")
	}
	ids := cfg.IDs
	if ids == nil {
		ids = ident.New()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	s := &ReadingStore{
		blobs:     cfg.Blobs,
		snapshots: cfg.Snapshots,
		ids:       ids,
		now:       now,
		subs:      map[int]chan struct{}{},
	}
	s.reset()
	p, ok, err := cfg.Snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if ok {
		s.rehydrate(p)
	}
	return s, nil
}

func (s *ReadingStore) reset() {
	s.books = map[string]domain.Book{}
	s.bookOrder = nil
	s.sessions = map[string]domain.ReadingSession{}
	s.sessOrder = nil
	s.notes = map[string]domain.Note{}
	s.noteOrder = nil
	s.highlights = map[string]domain.Highlight{}
	s.hlOrder = nil
	s.goals = map[string]domain.ReadingGoal{}
	s.goalOrder = nil
	s.currentBookID = ""
	s.currentSessionID = ""
}

func (s *ReadingStore) rehydrate(p Projection) {
	for _, b := range p.Books {
		s.books[b.ID] = b
		s.bookOrder = append(s.bookOrder, b.ID)
	}
	for _, sess := range p.Sessions {
		s.sessions[sess.ID] = sess
		s.sessOrder = append(s.sessOrder, sess.ID)
	}
	for _, n := range p.Notes {
		s.notes[n.ID] = n
		s.noteOrder = append(s.noteOrder, n.ID)
	}
	for _, h := range p.Highlights {
		s.highlights[h.ID] = h
		s.hlOrder = append(s.hlOrder, h.ID)
	}
	for _, g := range p.Goals {
		s.goals[g.ID] = g
		s.goalOrder = append(s.goalOrder, g.ID)
	}
	if _, ok := s.books[p.CurrentBookID]; ok {
		s.currentBookID = p.CurrentBookID
	}
	if _, ok := s.sessions[p.CurrentSessionID]; ok {
		s.currentSessionID = p.CurrentSessionID
	}
}

// projectionLocked builds the serializable projection. Callers hold mu.
func (s *ReadingStore) projectionLocked() Projection {
	p := Projection{
		Books:            make([]domain.Book, 0, len(s.bookOrder)),
		Sessions:         make([]domain.ReadingSession, 0, len(s.sessOrder)),
		Notes:            make([]domain.Note, 0, len(s.noteOrder)),
		Highlights:       make([]domain.Highlight, 0, len(s.hlOrder)),
		Goals:            make([]domain.ReadingGoal, 0, len(s.goalOrder)),
		CurrentBookID:    s.currentBookID,
		CurrentSessionID: s.currentSessionID,
	}
	for _, id := range s.bookOrder {
		p.Books = append(p.Books, s.books[id])
	}
	for _, id := range s.sessOrder {
		p.Sessions = append(p.Sessions, s.sessions[id])
	}
	for _, id := range s.noteOrder {
		p.Notes = append(p.Notes, s.notes[id])
	}
	for _, id := range s.hlOrder {
		p.Highlights = append(p.Highlights, s.highlights[id])
	}
	for _, id := range s.goalOrder {
		p.Goals = append(p.Goals, s.goals[id])
	}
	return p
}

// persistLocked writes the projection through and notifies subscribers.
// Callers hold mu.
func (s *ReadingStore) persistLocked(ctx context.Context) error {
	err := s.snapshots.Save(ctx, s.projectionLocked())
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	if err != nil {
		return fmt.Errorf("persist projection: %w", err)
	}
	return nil
}

// Subscribe returns a channel that receives a signal after every mutation,
// and a cancel function releasing the subscription.
func (s *ReadingStore) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.sub
	s.sub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// BookDraft is the input for AddBook. Content is optional; when present it
// must be durably stored before the book exists.
type BookDraft struct {
	Title            string
	Author           string
	FilePath         string
	FileType         domain.FileType
	OriginalFilename string
	TotalPages       int
	Content          io.Reader
	Size             int64
}

// AddBook validates the draft, stores its content blob first, and only
// then commits the metadata entity. A failed blob write adds nothing.
func (s *ReadingStore) AddBook(ctx context.Context, draft BookDraft) (domain.Book, error) {
	title := strings.TrimSpace(draft.Title)
	author := strings.TrimSpace(draft.Author)
	if title == "" {
		return domain.Book{}, fmt.Errorf("%w: title required", ErrValidation)
	}
	if author == "" {
		return domain.Book{}, fmt.Errorf("%w: author required", ErrValidation)
	}
	if _, ok := domain.ParseFileType(string(draft.FileType)); !ok {
		return domain.Book{}, fmt.Errorf("%w: unsupported file type %q", ErrValidation, draft.FileType)
	}

	id := s.ids.NewID()
	now := s.now()
	book := domain.Book{
		ID:               id,
		Title:            title,
		Author:           author,
		FilePath:         draft.FilePath,
		FileType:         draft.FileType,
		OriginalFilename: draft.OriginalFilename,
		TotalPages:       draft.TotalPages,
		CurrentPage:      1,
		Progress:         0,
		SizeBytes:        draft.Size,
		AddedAt:          now,
		LastReadAt:       now,
	}

	// Blob first. The book must never exist without retrievable content.
	if draft.Content != nil {
		if err := s.blobs.Put(ctx, id, draft.Content, draft.Size, ContentTypeFor(draft.FileType)); err != nil {
			return domain.Book{}, fmt.Errorf("store content: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[id] = book
	s.bookOrder = append(s.bookOrder, id)
	if err := s.persistLocked(ctx); err != nil {
		return book, err
	}
	return book, nil
}

// GetBook returns a book by ID.
func (s *ReadingStore) GetBook(id string) (domain.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	return b, ok
}

// BookContent resolves a book's binary content through the blob store.
// A missing blob for an existing book means "re-upload required".
func (s *ReadingStore) BookContent(ctx context.Context, id string) ([]byte, bool, error) {
	if _, ok := s.GetBook(id); !ok {
		return nil, false, fmt.Errorf("%w: book %s", ErrNotFound, id)
	}
	return s.blobs.Get(ctx, id)
}

// OpenBook marks a book as the one currently being read.
func (s *ReadingStore) OpenBook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return fmt.Errorf("%w: book %s", ErrNotFound, id)
	}
	s.currentBookID = id
	return s.persistLocked(ctx)
}

// UpdateBookProgress records a page turn. Progress is clamped to [0,100]
// and the page floor is 1. Every goal for the book completes once progress
// reaches 100 and stays completed afterwards.
func (s *ReadingStore) UpdateBookProgress(ctx context.Context, bookID string, page int, progress float64) (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.books[bookID]
	if !ok {
		return domain.Book{}, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}
	if page < 1 {
		page = 1
	}
	book.CurrentPage = page
	book.Progress = clampProgress(progress)
	book.LastReadAt = s.now()
	s.books[bookID] = book
	s.completeGoalsLocked(book)

	if err := s.persistLocked(ctx); err != nil {
		return book, err
	}
	return book, nil
}

// completeGoalsLocked marks every goal for the book completed once its
// progress reaches 100. Completion never reverts here. Callers hold mu
// and must call it from every mutator that can move a book's progress.
func (s *ReadingStore) completeGoalsLocked(book domain.Book) {
	if book.Progress < 100 {
		return
	}
	for _, id := range s.goalOrder {
		g := s.goals[id]
		if g.BookID == book.ID && !g.Completed {
			g.Completed = true
			s.goals[id] = g
		}
	}
}

// SetBookTotalPages records the true page count once a viewer knows it,
// superseding any earlier guess, and recomputes progress from it.
func (s *ReadingStore) SetBookTotalPages(ctx context.Context, bookID string, totalPages int) (domain.Book, error) {
	if totalPages <= 0 {
		return domain.Book{}, fmt.Errorf("%w: total pages must be positive", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.books[bookID]
	if !ok {
		return domain.Book{}, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}
	book.TotalPages = totalPages
	book.Progress = clampProgress(float64(book.CurrentPage) / float64(totalPages) * 100)
	s.books[bookID] = book
	s.completeGoalsLocked(book)
	if err := s.persistLocked(ctx); err != nil {
		return book, err
	}
	return book, nil
}

// DeleteBook removes the metadata entity. Notes, highlights, sessions, and
// goals referencing the book stay in place, and the blob is left for
// SweepOrphanBlobs rather than evicted here.
func (s *ReadingStore) DeleteBook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return nil
	}
	delete(s.books, id)
	s.bookOrder = removeID(s.bookOrder, id)
	if s.currentBookID == id {
		s.currentBookID = ""
	}
	return s.persistLocked(ctx)
}

// StartSession opens a reading session for a book. Any session still open
// is closed first, so at most one session is ever current.
func (s *ReadingStore) StartSession(ctx context.Context, bookID string) (domain.ReadingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[bookID]; !ok {
		return domain.ReadingSession{}, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}
	now := s.now()
	s.closeCurrentLocked(now)
	sess := domain.ReadingSession{
		ID:        s.ids.NewID(),
		BookID:    bookID,
		StartTime: now,
		PagesRead: 0,
	}
	s.sessions[sess.ID] = sess
	s.sessOrder = append(s.sessOrder, sess.ID)
	s.currentSessionID = sess.ID
	if err := s.persistLocked(ctx); err != nil {
		return sess, err
	}
	return sess, nil
}

// EndSession closes the current session. ok is false when none was open.
func (s *ReadingStore) EndSession(ctx context.Context) (domain.ReadingSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.currentSessionID
	if id == "" {
		return domain.ReadingSession{}, false, nil
	}
	s.closeCurrentLocked(s.now())
	closed := s.sessions[id]
	if err := s.persistLocked(ctx); err != nil {
		return closed, true, err
	}
	return closed, true, nil
}

func (s *ReadingStore) closeCurrentLocked(at time.Time) {
	id := s.currentSessionID
	if id == "" {
		return
	}
	if sess, ok := s.sessions[id]; ok && sess.EndTime == nil {
		end := at
		sess.EndTime = &end
		s.sessions[id] = sess
	}
	s.currentSessionID = ""
}

// SessionUpdate is a shallow-merge patch for a session.
type SessionUpdate struct {
	PagesRead *int
}

// UpdateSession applies a patch to one session.
func (s *ReadingStore) UpdateSession(ctx context.Context, id string, patch SessionUpdate) (domain.ReadingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ReadingSession{}, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	if patch.PagesRead != nil {
		if *patch.PagesRead < 0 {
			return domain.ReadingSession{}, fmt.Errorf("%w: pages read cannot be negative", ErrValidation)
		}
		sess.PagesRead = *patch.PagesRead
	}
	s.sessions[id] = sess
	if err := s.persistLocked(ctx); err != nil {
		return sess, err
	}
	return sess, nil
}

// NoteDraft is the input for AddNote.
type NoteDraft struct {
	BookID  string
	Page    int
	Content string
	Type    domain.NoteType
	Tags    []string
}

// AddNote creates a note against an existing book.
func (s *ReadingStore) AddNote(ctx context.Context, draft NoteDraft) (domain.Note, error) {
	if strings.TrimSpace(draft.Content) == "" {
		return domain.Note{}, fmt.Errorf("%w: content required", ErrValidation)
	}
	if draft.Page < 1 {
		return domain.Note{}, fmt.Errorf("%w: page must be >= 1", ErrValidation)
	}
	if _, ok := domain.ParseNoteType(string(draft.Type)); !ok {
		return domain.Note{}, fmt.Errorf("%w: unknown note type %q", ErrValidation, draft.Type)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[draft.BookID]; !ok {
		return domain.Note{}, fmt.Errorf("%w: book %s", ErrNotFound, draft.BookID)
	}
	note := domain.Note{
		ID:        s.ids.NewID(),
		BookID:    draft.BookID,
		Page:      draft.Page,
		Content:   draft.Content,
		Type:      draft.Type,
		Tags:      dedupeTags(draft.Tags),
		CreatedAt: s.now(),
	}
	s.notes[note.ID] = note
	s.noteOrder = append(s.noteOrder, note.ID)
	if err := s.persistLocked(ctx); err != nil {
		return note, err
	}
	return note, nil
}

// NoteUpdate is a shallow-merge patch for a note.
type NoteUpdate struct {
	Page    *int
	Content *string
	Type    *domain.NoteType
	Tags    *[]string
}

// UpdateNote applies a patch to one note.
func (s *ReadingStore) UpdateNote(ctx context.Context, id string, patch NoteUpdate) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok {
		return domain.Note{}, fmt.Errorf("%w: note %s", ErrNotFound, id)
	}
	if patch.Page != nil {
		if *patch.Page < 1 {
			return domain.Note{}, fmt.Errorf("%w: page must be >= 1", ErrValidation)
		}
		note.Page = *patch.Page
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return domain.Note{}, fmt.Errorf("%w: content required", ErrValidation)
		}
		note.Content = *patch.Content
	}
	if patch.Type != nil {
		if _, ok := domain.ParseNoteType(string(*patch.Type)); !ok {
			return domain.Note{}, fmt.Errorf("%w: unknown note type %q", ErrValidation, *patch.Type)
		}
		note.Type = *patch.Type
	}
	if patch.Tags != nil {
		note.Tags = dedupeTags(*patch.Tags)
	}
	s.notes[id] = note
	if err := s.persistLocked(ctx); err != nil {
		return note, err
	}
	return note, nil
}

// DeleteNote removes one note. Missing notes are a no-op.
func (s *ReadingStore) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return nil
	}
	delete(s.notes, id)
	s.noteOrder = removeID(s.noteOrder, id)
	return s.persistLocked(ctx)
}

// HighlightDraft is the input for AddHighlight.
type HighlightDraft struct {
	BookID string
	Page   int
	Text   string
	Color  domain.HighlightColor
	Note   string
	Rects  []domain.Rect
}

// AddHighlight creates a highlight against an existing book.
func (s *ReadingStore) AddHighlight(ctx context.Context, draft HighlightDraft) (domain.Highlight, error) {
	if strings.TrimSpace(draft.Text) == "" {
		return domain.Highlight{}, fmt.Errorf("%w: text required", ErrValidation)
	}
	if draft.Page < 1 {
		return domain.Highlight{}, fmt.Errorf("%w: page must be >= 1", ErrValidation)
	}
	if _, ok := domain.ParseHighlightColor(string(draft.Color)); !ok {
		return domain.Highlight{}, fmt.Errorf("%w: unknown color %q", ErrValidation, draft.Color)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[draft.BookID]; !ok {
		return domain.Highlight{}, fmt.Errorf("%w: book %s", ErrNotFound, draft.BookID)
	}
	hl := domain.Highlight{
		ID:        s.ids.NewID(),
		BookID:    draft.BookID,
		Page:      draft.Page,
		Text:      draft.Text,
		Color:     draft.Color,
		Note:      draft.Note,
		Rects:     append([]domain.Rect(nil), draft.Rects...),
		CreatedAt: s.now(),
	}
	s.highlights[hl.ID] = hl
	s.hlOrder = append(s.hlOrder, hl.ID)
	if err := s.persistLocked(ctx); err != nil {
		return hl, err
	}
	return hl, nil
}

// HighlightUpdate is a shallow-merge patch for a highlight.
type HighlightUpdate struct {
	Page  *int
	Text  *string
	Color *domain.HighlightColor
	Note  *string
	Rects *[]domain.Rect
}

// UpdateHighlight applies a patch to one highlight.
func (s *ReadingStore) UpdateHighlight(ctx context.Context, id string, patch HighlightUpdate) (domain.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hl, ok := s.highlights[id]
	if !ok {
		return domain.Highlight{}, fmt.Errorf("%w: highlight %s", ErrNotFound, id)
	}
	if patch.Page != nil {
		if *patch.Page < 1 {
			return domain.Highlight{}, fmt.Errorf("%w: page must be >= 1", ErrValidation)
		}
		hl.Page = *patch.Page
	}
	if patch.Text != nil {
		if strings.TrimSpace(*patch.Text) == "" {
			return domain.Highlight{}, fmt.Errorf("%w: text required", ErrValidation)
		}
		hl.Text = *patch.Text
	}
	if patch.Color != nil {
		if _, ok := domain.ParseHighlightColor(string(*patch.Color)); !ok {
			return domain.Highlight{}, fmt.Errorf("%w: unknown color %q", ErrValidation, *patch.Color)
		}
		hl.Color = *patch.Color
	}
	if patch.Note != nil {
		hl.Note = *patch.Note
	}
	if patch.Rects != nil {
		hl.Rects = append([]domain.Rect(nil), (*patch.Rects)...)
	}
	s.highlights[id] = hl
	if err := s.persistLocked(ctx); err != nil {
		return hl, err
	}
	return hl, nil
}

// DeleteHighlight removes one highlight. Missing highlights are a no-op.
func (s *ReadingStore) DeleteHighlight(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.highlights[id]; !ok {
		return nil
	}
	delete(s.highlights, id)
	s.hlOrder = removeID(s.hlOrder, id)
	return s.persistLocked(ctx)
}

// GoalDraft is the input for AddGoal.
type GoalDraft struct {
	BookID      string
	TargetPages int
	DailyTarget int
	StartDate   time.Time
	EndDate     *time.Time
}

// AddGoal creates a reading goal against an existing book.
func (s *ReadingStore) AddGoal(ctx context.Context, draft GoalDraft) (domain.ReadingGoal, error) {
	if draft.TargetPages <= 0 {
		return domain.ReadingGoal{}, fmt.Errorf("%w: target pages must be positive", ErrValidation)
	}
	if draft.DailyTarget <= 0 {
		return domain.ReadingGoal{}, fmt.Errorf("%w: daily target must be positive", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[draft.BookID]; !ok {
		return domain.ReadingGoal{}, fmt.Errorf("%w: book %s", ErrNotFound, draft.BookID)
	}
	now := s.now()
	start := draft.StartDate
	if start.IsZero() {
		start = now
	}
	goal := domain.ReadingGoal{
		ID:          s.ids.NewID(),
		BookID:      draft.BookID,
		TargetPages: draft.TargetPages,
		DailyTarget: draft.DailyTarget,
		StartDate:   start,
		EndDate:     draft.EndDate,
		CreatedAt:   now,
	}
	s.goals[goal.ID] = goal
	s.goalOrder = append(s.goalOrder, goal.ID)
	if err := s.persistLocked(ctx); err != nil {
		return goal, err
	}
	return goal, nil
}

// GoalUpdate is a shallow-merge patch for a goal.
type GoalUpdate struct {
	TargetPages *int
	DailyTarget *int
	EndDate     *time.Time
	Completed   *bool
}

// UpdateGoal applies a patch to one goal.
func (s *ReadingStore) UpdateGoal(ctx context.Context, id string, patch GoalUpdate) (domain.ReadingGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	goal, ok := s.goals[id]
	if !ok {
		return domain.ReadingGoal{}, fmt.Errorf("%w: goal %s", ErrNotFound, id)
	}
	if patch.TargetPages != nil {
		if *patch.TargetPages <= 0 {
			return domain.ReadingGoal{}, fmt.Errorf("%w: target pages must be positive", ErrValidation)
		}
		goal.TargetPages = *patch.TargetPages
	}
	if patch.DailyTarget != nil {
		if *patch.DailyTarget <= 0 {
			return domain.ReadingGoal{}, fmt.Errorf("%w: daily target must be positive", ErrValidation)
		}
		goal.DailyTarget = *patch.DailyTarget
	}
	if patch.EndDate != nil {
		goal.EndDate = patch.EndDate
	}
	if patch.Completed != nil {
		goal.Completed = *patch.Completed
	}
	s.goals[id] = goal
	if err := s.persistLocked(ctx); err != nil {
		return goal, err
	}
	return goal, nil
}

// DeleteGoal removes one goal. Missing goals are a no-op.
func (s *ReadingStore) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return nil
	}
	delete(s.goals, id)
	s.goalOrder = removeID(s.goalOrder, id)
	return s.persistLocked(ctx)
}

// ClearAllData empties every collection, persists the empty projection,
// and then clears the blob store as well (best effort). Blobs are listed
// rather than walked by book ID so already-orphaned blobs go too.
func (s *ReadingStore) ClearAllData(ctx context.Context) error {
	s.mu.Lock()
	s.reset()
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	ids, lerr := s.blobs.List(ctx)
	if lerr != nil {
		slog.Warn("clear blob list failed", "err", lerr)
		return err
	}
	for _, id := range ids {
		if derr := s.blobs.Delete(ctx, id); derr != nil {
			slog.Warn("clear blob failed", "book_id", id, "err", derr)
		}
	}
	return err
}

// SweepOrphanBlobs deletes blobs whose book no longer exists and returns
// how many were removed.
func (s *ReadingStore) SweepOrphanBlobs(ctx context.Context) (int, error) {
	ids, err := s.blobs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list blobs: %w", err)
	}
	removed := 0
	for _, id := range ids {
		if _, ok := s.GetBook(id); ok {
			continue
		}
		if err := s.blobs.Delete(ctx, id); err != nil {
			return removed, fmt.Errorf("delete orphan blob %s: %w", id, err)
		}
		removed++
	}
	return removed, nil
}

// Snapshot is a deep-copied read-only view of the store.
type Snapshot struct {
	Books          []domain.Book           `json:"books"`
	Sessions       []domain.ReadingSession `json:"sessions"`
	Notes          []domain.Note           `json:"notes"`
	Highlights     []domain.Highlight      `json:"highlights"`
	Goals          []domain.ReadingGoal    `json:"goals"`
	CurrentBook    *domain.Book            `json:"currentBook,omitempty"`
	CurrentSession *domain.ReadingSession  `json:"currentSession,omitempty"`
}

// Snapshot returns the full current state. The copy shares nothing with
// the store's internals.
func (s *ReadingStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.projectionLocked()
	snap := Snapshot{
		Books:      p.Books,
		Sessions:   p.Sessions,
		Notes:      p.Notes,
		Highlights: p.Highlights,
		Goals:      p.Goals,
	}
	for i := range snap.Notes {
		snap.Notes[i].Tags = append([]string(nil), snap.Notes[i].Tags...)
	}
	for i := range snap.Highlights {
		snap.Highlights[i].Rects = append([]domain.Rect(nil), snap.Highlights[i].Rects...)
	}
	if b, ok := s.books[s.currentBookID]; ok {
		snap.CurrentBook = &b
	}
	if sess, ok := s.sessions[s.currentSessionID]; ok {
		snap.CurrentSession = &sess
	}
	return snap
}

// ContentTypeFor maps a file type to its MIME type for blob storage.
func ContentTypeFor(ft domain.FileType) string {
	switch ft {
	case domain.FileTypePDF:
		return "application/pdf"
	case domain.FileTypeEPUB:
		return "application/epub+zip"
	case domain.FileTypeMOBI:
		return "application/x-mobipocket-ebook"
	case domain.FileTypeTXT:
		return "text/plain"
	case domain.FileTypeHTML:
		return "text/html"
	default:
		return "application/octet-stream"
	}
}

func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func removeID(order []string, id string) []string {
	filtered := order[:0]
	for _, item := range order {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
