package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"readkeeper/pkg/blobstore"
	"readkeeper/pkg/domain"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return string(rune('a'+s.n-1)) + "-id"
}

type fixture struct {
	store *ReadingStore
	blobs *blobstore.MemoryBlobStore
	snaps *MemorySnapshotStore
	clock *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	blobs := blobstore.NewMemoryBlobStore()
	snaps := NewMemorySnapshotStore()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &now
	s, err := New(context.Background(), Config{
		Blobs:     blobs,
		Snapshots: snaps,
		Now:       func() time.Time { return *clock },
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return &fixture{store: s, blobs: blobs, snaps: snaps, clock: clock}
}

func (f *fixture) advance(d time.Duration) {
	next := f.clock.Add(d)
	*f.clock = next
}

func (f *fixture) addBook(t *testing.T, title string) domain.Book {
	t.Helper()
	book, err := f.store.AddBook(context.Background(), BookDraft{
		Title: title, Author: "Author", FileType: domain.FileTypeTXT,
	})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	return book
}

func TestAddBookWithContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := bytes.Repeat([]byte{0x1}, 500)

	book, err := f.store.AddBook(ctx, BookDraft{
		Title:    "A",
		Author:   "B",
		FileType: domain.FileTypeTXT,
		Content:  bytes.NewReader(payload),
		Size:     int64(len(payload)),
	})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	if book.Progress != 0 || book.CurrentPage != 1 {
		t.Fatalf("new book progress=%v page=%d, want 0 and 1", book.Progress, book.CurrentPage)
	}

	snap := f.store.Snapshot()
	if len(snap.Books) != 1 {
		t.Fatalf("books = %d, want 1", len(snap.Books))
	}
	data, ok, err := f.store.BookContent(ctx, book.ID)
	if err != nil || !ok {
		t.Fatalf("content: ok=%v err=%v", ok, err)
	}
	if len(data) != 500 {
		t.Fatalf("blob size = %d, want 500", len(data))
	}
}

func TestAddBookAtomicOnBlobFailure(t *testing.T) {
	f := newFixture(t)
	f.blobs.FailPuts = true

	_, err := f.store.AddBook(context.Background(), BookDraft{
		Title:    "A",
		Author:   "B",
		FileType: domain.FileTypePDF,
		Content:  bytes.NewReader([]byte("doomed")),
		Size:     6,
	})
	if !errors.Is(err, blobstore.ErrWriteFailed) {
		t.Fatalf("expected blob write failure, got: %v", err)
	}
	if len(f.store.Snapshot().Books) != 0 {
		t.Fatalf("failed add must not leave book metadata behind")
	}
	if f.snaps.Saves != 0 {
		t.Fatalf("failed add must not persist a projection")
	}
}

func TestAddBookValidation(t *testing.T) {
	f := newFixture(t)
	cases := []BookDraft{
		{Title: "", Author: "B", FileType: domain.FileTypeTXT},
		{Title: "  ", Author: "B", FileType: domain.FileTypeTXT},
		{Title: "A", Author: "", FileType: domain.FileTypeTXT},
		{Title: "A", Author: "B", FileType: "docx"},
	}
	for _, draft := range cases {
		if _, err := f.store.AddBook(context.Background(), draft); !errors.Is(err, ErrValidation) {
			t.Fatalf("draft %+v: expected ErrValidation, got %v", draft, err)
		}
	}
	if len(f.store.Snapshot().Books) != 0 {
		t.Fatalf("rejected drafts must not mutate state")
	}
}

func TestUpdateBookProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")
	before := book.LastReadAt

	f.advance(time.Minute)
	updated, err := f.store.UpdateBookProgress(ctx, book.ID, 42, 50)
	if err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if updated.CurrentPage != 42 || updated.Progress != 50 {
		t.Fatalf("page=%d progress=%v, want 42 and 50", updated.CurrentPage, updated.Progress)
	}
	if !updated.LastReadAt.After(before) {
		t.Fatalf("lastReadAt not advanced")
	}

	// Defensive clamping.
	updated, err = f.store.UpdateBookProgress(ctx, book.ID, -3, 250)
	if err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if updated.CurrentPage != 1 || updated.Progress != 100 {
		t.Fatalf("page=%d progress=%v, want clamped 1 and 100", updated.CurrentPage, updated.Progress)
	}

	if _, err := f.store.UpdateBookProgress(ctx, "nope", 1, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGoalCompletionIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")
	goal, err := f.store.AddGoal(ctx, GoalDraft{BookID: book.ID, TargetPages: 100, DailyTarget: 10})
	if err != nil {
		t.Fatalf("add goal: %v", err)
	}

	if _, err := f.store.UpdateBookProgress(ctx, book.ID, 50, 50); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if g := findGoal(t, f.store, goal.ID); g.Completed {
		t.Fatalf("goal completed at 50%%")
	}

	if _, err := f.store.UpdateBookProgress(ctx, book.ID, 100, 100); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if g := findGoal(t, f.store, goal.ID); !g.Completed {
		t.Fatalf("goal not completed at 100%%")
	}

	// Further updates never un-complete.
	if _, err := f.store.UpdateBookProgress(ctx, book.ID, 10, 10); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if g := findGoal(t, f.store, goal.ID); !g.Completed {
		t.Fatalf("goal un-completed by later update")
	}
}

func findGoal(t *testing.T, s *ReadingStore, id string) domain.ReadingGoal {
	t.Helper()
	for _, g := range s.Snapshot().Goals {
		if g.ID == id {
			return g
		}
	}
	t.Fatalf("goal %s not in snapshot", id)
	return domain.ReadingGoal{}
}

func TestSetBookTotalPagesCompletesGoals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")
	goal, err := f.store.AddGoal(ctx, GoalDraft{BookID: book.ID, TargetPages: 100, DailyTarget: 10})
	if err != nil {
		t.Fatalf("add goal: %v", err)
	}

	if _, err := f.store.UpdateBookProgress(ctx, book.ID, 150, 75); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if g := findGoal(t, f.store, goal.ID); g.Completed {
		t.Fatalf("goal completed at 75%%")
	}

	// Correcting the page count can push progress to 100, which must
	// complete goals just like a page-turn mutation does.
	updated, err := f.store.SetBookTotalPages(ctx, book.ID, 120)
	if err != nil {
		t.Fatalf("set total pages: %v", err)
	}
	if updated.Progress != 100 {
		t.Fatalf("progress = %v, want 100", updated.Progress)
	}
	if g := findGoal(t, f.store, goal.ID); !g.Completed {
		t.Fatalf("goal not completed when total-pages update drove progress to 100")
	}
}

func TestSetBookTotalPagesRecomputesProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")
	if _, err := f.store.UpdateBookProgress(ctx, book.ID, 30, 0); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	updated, err := f.store.SetBookTotalPages(ctx, book.ID, 120)
	if err != nil {
		t.Fatalf("set total pages: %v", err)
	}
	if updated.TotalPages != 120 || updated.Progress != 25 {
		t.Fatalf("totalPages=%d progress=%v, want 120 and 25", updated.TotalPages, updated.Progress)
	}
	if _, err := f.store.SetBookTotalPages(ctx, book.ID, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for zero pages, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")

	sess, err := f.store.StartSession(ctx, book.ID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if !sess.Open() {
		t.Fatalf("new session should be open")
	}
	if cur := f.store.Snapshot().CurrentSession; cur == nil || cur.ID != sess.ID {
		t.Fatalf("current session not set")
	}

	f.advance(25 * time.Minute)
	closed, ok, err := f.store.EndSession(ctx)
	if err != nil || !ok {
		t.Fatalf("end session: ok=%v err=%v", ok, err)
	}
	if closed.EndTime == nil || !closed.EndTime.After(closed.StartTime) {
		t.Fatalf("endTime must be after startTime")
	}
	if f.store.Snapshot().CurrentSession != nil {
		t.Fatalf("current session should be cleared")
	}

	// Ending again is a no-op.
	if _, ok, err := f.store.EndSession(ctx); ok || err != nil {
		t.Fatalf("second end: ok=%v err=%v, want no-op", ok, err)
	}
}

func TestStartSessionClosesPreviousOpenSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")

	first, err := f.store.StartSession(ctx, book.ID)
	if err != nil {
		t.Fatalf("start first: %v", err)
	}
	f.advance(time.Minute)
	second, err := f.store.StartSession(ctx, book.ID)
	if err != nil {
		t.Fatalf("start second: %v", err)
	}

	open := 0
	for _, sess := range f.store.Snapshot().Sessions {
		if sess.ID == first.ID && sess.EndTime == nil {
			t.Fatalf("first session left open")
		}
		if sess.EndTime == nil {
			open++
		}
	}
	if open != 1 {
		t.Fatalf("open sessions = %d, want exactly 1", open)
	}
	if cur := f.store.Snapshot().CurrentSession; cur == nil || cur.ID != second.ID {
		t.Fatalf("current session should be the second one")
	}
}

func TestUpdateSessionPagesRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")
	sess, err := f.store.StartSession(ctx, book.ID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	pages := 12
	updated, err := f.store.UpdateSession(ctx, sess.ID, SessionUpdate{PagesRead: &pages})
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	if updated.PagesRead != 12 {
		t.Fatalf("pagesRead = %d, want 12", updated.PagesRead)
	}
	negative := -1
	if _, err := f.store.UpdateSession(ctx, sess.ID, SessionUpdate{PagesRead: &negative}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNoteCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")

	note, err := f.store.AddNote(ctx, NoteDraft{
		BookID: book.ID, Page: 3, Content: "insightful", Type: domain.NoteTypeInsight,
		Tags: []string{"go", "go", " ", "memory"},
	})
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	if len(note.Tags) != 2 {
		t.Fatalf("tags = %v, want deduped [go memory]", note.Tags)
	}

	content := "revised"
	updated, err := f.store.UpdateNote(ctx, note.ID, NoteUpdate{Content: &content})
	if err != nil {
		t.Fatalf("update note: %v", err)
	}
	if updated.Content != "revised" || updated.Page != 3 {
		t.Fatalf("shallow merge broken: %+v", updated)
	}

	if err := f.store.DeleteNote(ctx, note.ID); err != nil {
		t.Fatalf("delete note: %v", err)
	}
	if len(f.store.Snapshot().Notes) != 0 {
		t.Fatalf("note not removed")
	}
	if err := f.store.DeleteNote(ctx, note.ID); err != nil {
		t.Fatalf("deleting missing note should be a no-op: %v", err)
	}

	if _, err := f.store.AddNote(ctx, NoteDraft{BookID: "nope", Page: 1, Content: "x", Type: domain.NoteTypeNote}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for dangling bookId, got %v", err)
	}
}

func TestHighlightCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")

	hl, err := f.store.AddHighlight(ctx, HighlightDraft{
		BookID: book.ID, Page: 7, Text: "the span", Color: domain.ColorYellow,
		Rects: []domain.Rect{{X: 1, Y: 2, Width: 100, Height: 12}},
	})
	if err != nil {
		t.Fatalf("add highlight: %v", err)
	}

	color := domain.ColorPink
	updated, err := f.store.UpdateHighlight(ctx, hl.ID, HighlightUpdate{Color: &color})
	if err != nil {
		t.Fatalf("update highlight: %v", err)
	}
	if updated.Color != domain.ColorPink || updated.Text != "the span" {
		t.Fatalf("shallow merge broken: %+v", updated)
	}

	bad := domain.HighlightColor("mauve")
	if _, err := f.store.UpdateHighlight(ctx, hl.ID, HighlightUpdate{Color: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown color, got %v", err)
	}

	if err := f.store.DeleteHighlight(ctx, hl.ID); err != nil {
		t.Fatalf("delete highlight: %v", err)
	}
	if len(f.store.Snapshot().Highlights) != 0 {
		t.Fatalf("highlight not removed")
	}
}

func TestDeleteBookLeavesAnnotationsInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")
	note, err := f.store.AddNote(ctx, NoteDraft{BookID: book.ID, Page: 1, Content: "keep me", Type: domain.NoteTypeNote})
	if err != nil {
		t.Fatalf("add note: %v", err)
	}

	if err := f.store.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	snap := f.store.Snapshot()
	if len(snap.Books) != 0 {
		t.Fatalf("book not removed")
	}
	if len(snap.Notes) != 1 || snap.Notes[0].ID != note.ID {
		t.Fatalf("note must survive its book's deletion")
	}
}

func TestSweepOrphanBlobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book, err := f.store.AddBook(ctx, BookDraft{
		Title: "A", Author: "B", FileType: domain.FileTypeTXT,
		Content: bytes.NewReader([]byte("body")), Size: 4,
	})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	if err := f.store.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	// The blob survives deletion until swept.
	if _, ok, _ := f.blobs.Get(ctx, book.ID); !ok {
		t.Fatalf("blob should outlive the book until swept")
	}
	removed, err := f.store.SweepOrphanBlobs(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok, _ := f.blobs.Get(ctx, book.ID); ok {
		t.Fatalf("orphan blob not removed")
	}
}

func TestClearAllData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book, err := f.store.AddBook(ctx, BookDraft{
		Title: "A", Author: "B", FileType: domain.FileTypeTXT,
		Content: bytes.NewReader([]byte("body")), Size: 4,
	})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	if _, err := f.store.StartSession(ctx, book.ID); err != nil {
		t.Fatalf("start session: %v", err)
	}

	if err := f.store.ClearAllData(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	snap := f.store.Snapshot()
	if len(snap.Books)+len(snap.Sessions)+len(snap.Notes)+len(snap.Highlights)+len(snap.Goals) != 0 {
		t.Fatalf("collections not empty after clear")
	}
	if snap.CurrentBook != nil || snap.CurrentSession != nil {
		t.Fatalf("current pointers not cleared")
	}
	if _, ok, _ := f.blobs.Get(ctx, book.ID); ok {
		t.Fatalf("clear should cascade to blobs")
	}
}

func TestClearAllDataRemovesOrphanedBlobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book, err := f.store.AddBook(ctx, BookDraft{
		Title: "A", Author: "B", FileType: domain.FileTypeTXT,
		Content: bytes.NewReader([]byte("body")), Size: 4,
	})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	// Orphan the blob before the clear.
	if err := f.store.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	if _, ok, _ := f.blobs.Get(ctx, book.ID); !ok {
		t.Fatalf("blob should survive book delete")
	}

	if err := f.store.ClearAllData(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := f.blobs.Get(ctx, book.ID); ok {
		t.Fatalf("clear should remove blobs with no matching book")
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book, err := f.store.AddBook(ctx, BookDraft{
		Title: "A", Author: "B", FileType: domain.FileTypeEPUB,
		Content: bytes.NewReader([]byte("content")), Size: 7,
	})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	if _, err := f.store.AddNote(ctx, NoteDraft{BookID: book.ID, Page: 2, Content: "n", Type: domain.NoteTypeSummary, Tags: []string{"t"}}); err != nil {
		t.Fatalf("add note: %v", err)
	}
	if _, err := f.store.StartSession(ctx, book.ID); err != nil {
		t.Fatalf("start session: %v", err)
	}

	saved, ok, err := f.snaps.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load snapshot: ok=%v err=%v", ok, err)
	}
	data, err := json.Marshal(saved)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if bytes.Contains(data, []byte("fileData")) {
		t.Fatalf("projection must not carry binary payloads: %s", data)
	}
	var revived Projection
	if err := json.Unmarshal(data, &revived); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(revived.Books) != 1 || !revived.Books[0].AddedAt.Equal(saved.Books[0].AddedAt) {
		t.Fatalf("addedAt did not survive round trip")
	}
	if !revived.Sessions[0].StartTime.Equal(saved.Sessions[0].StartTime) {
		t.Fatalf("startTime did not survive round trip")
	}

	// A second store built over the same slot sees everything, including
	// the still-open session as current.
	restored, err := New(ctx, Config{Blobs: f.blobs, Snapshots: f.snaps})
	if err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	snap := restored.Snapshot()
	if len(snap.Books) != 1 || len(snap.Notes) != 1 || len(snap.Sessions) != 1 {
		t.Fatalf("rehydrated collections incomplete: %+v", snap)
	}
	if snap.CurrentSession == nil || snap.CurrentSession.EndTime != nil {
		t.Fatalf("open session must persist as current across restarts")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")
	if _, err := f.store.AddNote(ctx, NoteDraft{BookID: book.ID, Page: 1, Content: "x", Type: domain.NoteTypeNote, Tags: []string{"a"}}); err != nil {
		t.Fatalf("add note: %v", err)
	}
	snap := f.store.Snapshot()
	snap.Books[0].Title = "mutated"
	snap.Notes[0].Tags[0] = "mutated"

	fresh := f.store.Snapshot()
	if fresh.Books[0].Title != "A" || fresh.Notes[0].Tags[0] != "a" {
		t.Fatalf("snapshot mutation leaked into store")
	}
}

func TestSnapshotPersistFailureKeepsMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "A")
	f.snaps.FailSaves = true

	_, err := f.store.UpdateBookProgress(ctx, book.ID, 2, 10)
	if !errors.Is(err, ErrSnapshotWrite) {
		t.Fatalf("expected ErrSnapshotWrite, got %v", err)
	}
	got, _ := f.store.GetBook(book.ID)
	if got.CurrentPage != 2 {
		t.Fatalf("mutation should stand when only the persist fails")
	}
}

func TestSubscribeSignalsOnMutation(t *testing.T) {
	f := newFixture(t)
	ch, cancel := f.store.Subscribe()
	defer cancel()

	f.addBook(t, "A")
	select {
	case <-ch:
	default:
		t.Fatalf("expected a change signal after mutation")
	}
}

func TestSequentialIDsFromInjectedGenerator(t *testing.T) {
	blobs := blobstore.NewMemoryBlobStore()
	s, err := New(context.Background(), Config{
		Blobs: blobs, Snapshots: NewMemorySnapshotStore(), IDs: &seqIDs{},
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	b1, _ := s.AddBook(context.Background(), BookDraft{Title: "T", Author: "A", FileType: domain.FileTypeTXT})
	b2, _ := s.AddBook(context.Background(), BookDraft{Title: "T2", Author: "A", FileType: domain.FileTypeTXT})
	if b1.ID == b2.ID || b1.ID != "a-id" {
		t.Fatalf("generator not honored: %s / %s", b1.ID, b2.ID)
	}
}
