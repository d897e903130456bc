package domain

import "time"

type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeEPUB FileType = "epub"
	FileTypeMOBI FileType = "mobi"
	FileTypeAZW  FileType = "azw"
	FileTypeAZW3 FileType = "azw3"
	FileTypeTXT  FileType = "txt"
	FileTypeHTML FileType = "html"
)

// FileTypes lists every supported book format.
var FileTypes = []FileType{
	FileTypePDF, FileTypeEPUB, FileTypeMOBI, FileTypeAZW, FileTypeAZW3, FileTypeTXT, FileTypeHTML,
}

// ParseFileType normalizes a raw format tag.
func ParseFileType(raw string) (FileType, bool) {
	for _, ft := range FileTypes {
		if string(ft) == raw {
			return ft, true
		}
	}
	return "", false
}

type NoteType string

const (
	NoteTypeNote     NoteType = "note"
	NoteTypeSummary  NoteType = "summary"
	NoteTypeQuestion NoteType = "question"
	NoteTypeInsight  NoteType = "insight"
)

// ParseNoteType normalizes a raw note type tag.
func ParseNoteType(raw string) (NoteType, bool) {
	switch NoteType(raw) {
	case NoteTypeNote, NoteTypeSummary, NoteTypeQuestion, NoteTypeInsight:
		return NoteType(raw), true
	default:
		return "", false
	}
}

type HighlightColor string

const (
	ColorYellow HighlightColor = "yellow"
	ColorGreen  HighlightColor = "green"
	ColorBlue   HighlightColor = "blue"
	ColorPink   HighlightColor = "pink"
	ColorPurple HighlightColor = "purple"
)

// ParseHighlightColor normalizes a raw color tag.
func ParseHighlightColor(raw string) (HighlightColor, bool) {
	switch HighlightColor(raw) {
	case ColorYellow, ColorGreen, ColorBlue, ColorPink, ColorPurple:
		return HighlightColor(raw), true
	default:
		return "", false
	}
}

// Book is a library entry. Metadata only: binary content lives in the
// blob store, joined by ID, and is never serialized with the book.
type Book struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Author           string    `json:"author"`
	FilePath         string    `json:"filePath"`
	FileType         FileType  `json:"fileType"`
	OriginalFilename string    `json:"originalFilename,omitempty"`
	TotalPages       int       `json:"totalPages,omitempty"`
	CurrentPage      int       `json:"currentPage"`
	Progress         float64   `json:"progress"`
	SizeBytes        int64     `json:"sizeBytes,omitempty"`
	AddedAt          time.Time `json:"addedAt"`
	LastReadAt       time.Time `json:"lastReadAt"`
}

// ReadingSession is one bounded interval of active reading. EndTime is
// nil while the session is open.
type ReadingSession struct {
	ID        string     `json:"id"`
	BookID    string     `json:"bookId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	PagesRead int        `json:"pagesRead"`
}

// Open reports whether the session has not been closed yet.
func (s ReadingSession) Open() bool { return s.EndTime == nil }

// Duration returns the closed session length, zero while still open.
func (s ReadingSession) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

type Note struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	Page      int       `json:"page"`
	Content   string    `json:"content"`
	Type      NoteType  `json:"type"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Rect positions a highlight on its page, in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Highlight struct {
	ID        string         `json:"id"`
	BookID    string         `json:"bookId"`
	Page      int            `json:"page"`
	Text      string         `json:"text"`
	Color     HighlightColor `json:"color"`
	Note      string         `json:"note,omitempty"`
	Rects     []Rect         `json:"rects,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type ReadingGoal struct {
	ID          string     `json:"id"`
	BookID      string     `json:"bookId"`
	TargetPages int        `json:"targetPages"`
	DailyTarget int        `json:"dailyTarget"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
}
