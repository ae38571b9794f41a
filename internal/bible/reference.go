package bible

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrUnknownBook      = errors.New("unknown book")
	ErrInvalidChapter   = errors.New("invalid chapter")
	ErrInvalidVerse     = errors.New("invalid verse range")
	ErrInvalidReference = errors.New("invalid reference")
)

// Passage is a parsed passage reference. Zero StartVerse means the whole
// chapter; zero EndVerse with a StartVerse means a single verse.
type Passage struct {
	Book       string `json:"book"`
	Chapter    int    `json:"chapter"`
	StartVerse int    `json:"startVerse,omitempty"`
	EndVerse   int    `json:"endVerse,omitempty"`
}

// String formats the passage as a reference.
func (p Passage) String() string {
	return Reference(p.Book, p.Chapter, p.StartVerse, p.EndVerse)
}

// Reference builds "John 1:1-18", "John 1:5" or "John 1".
func Reference(book string, chapter, start, end int) string {
	switch {
	case start <= 0:
		return fmt.Sprintf("%s %d", book, chapter)
	case end <= 0 || end == start:
		return fmt.Sprintf("%s %d:%d", book, chapter, start)
	default:
		return fmt.Sprintf("%s %d:%d-%d", book, chapter, start, end)
	}
}

// ValidateRange checks the chapter against the book and, when verses are
// given, that 1 <= start <= end <= MaxVerse. It returns the canonical book.
func ValidateRange(book string, chapter, start, end int) (Book, error) {
	b, ok := Lookup(book)
	if !ok {
		return Book{}, fmt.Errorf("%w: %q", ErrUnknownBook, book)
	}
	if chapter < 1 || chapter > b.Chapters {
		return Book{}, fmt.Errorf("%w: %s has %d chapters, got %d", ErrInvalidChapter, b.Name, b.Chapters, chapter)
	}
	if start == 0 && end == 0 {
		return b, nil
	}
	if start < 1 {
		return Book{}, fmt.Errorf("%w: start verse must be at least 1", ErrInvalidVerse)
	}
	if end == 0 {
		end = start
	}
	if end < start {
		return Book{}, fmt.Errorf("%w: end verse %d is before start verse %d", ErrInvalidVerse, end, start)
	}
	if end > MaxVerse {
		return Book{}, fmt.Errorf("%w: verse %d exceeds %d", ErrInvalidVerse, end, MaxVerse)
	}
	return b, nil
}

// "1 John 3:16-18", "Psalm 23", "Song of Solomon 2:4"
var referencePattern = regexp.MustCompile(`^\s*(.+?)\s+(\d+)(?::(\d+)(?:\s*[-–]\s*(\d+))?)?\s*$`)

// Parse reads a reference string back into a validated Passage with the
// canonical book name.
func Parse(reference string) (Passage, error) {
	m := referencePattern.FindStringSubmatch(reference)
	if m == nil {
		return Passage{}, fmt.Errorf("%w: %q", ErrInvalidReference, reference)
	}
	p := Passage{Book: m[1]}
	p.Chapter, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		p.StartVerse, _ = strconv.Atoi(m[3])
	}
	if m[4] != "" {
		p.EndVerse, _ = strconv.Atoi(m[4])
	}
	b, err := ValidateRange(p.Book, p.Chapter, p.StartVerse, p.EndVerse)
	if err != nil {
		return Passage{}, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	p.Book = b.Name
	if p.EndVerse == p.StartVerse {
		p.EndVerse = 0
	}
	return p, nil
}

// Normalize re-formats a reference with the canonical book name.
func Normalize(reference string) (string, error) {
	p, err := Parse(reference)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// IsValidReference reports whether reference parses.
func IsValidReference(reference string) bool {
	_, err := Parse(strings.TrimSpace(reference))
	return err == nil
}
