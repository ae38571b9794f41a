// Package bible holds the 66-book Protestant canon and passage reference
// helpers: building, parsing and validating "Book Chapter:Start-End" strings.
package bible

import "strings"

// Testament groups books for listing.
type Testament string

const (
	OldTestament Testament = "OT"
	NewTestament Testament = "NT"
)

// Book is one canonical book with its chapter count.
type Book struct {
	Name      string    `json:"name"`
	Chapters  int       `json:"chapters"`
	Testament Testament `json:"testament"`
}

// MaxVerse is the verse count of the longest chapter (Psalm 119). Verse
// numbers above it are rejected for every book.
const MaxVerse = 176

var books = []Book{
	{"Genesis", 50, OldTestament},
	{"Exodus", 40, OldTestament},
	{"Leviticus", 27, OldTestament},
	{"Numbers", 36, OldTestament},
	{"Deuteronomy", 34, OldTestament},
	{"Joshua", 24, OldTestament},
	{"Judges", 21, OldTestament},
	{"Ruth", 4, OldTestament},
	{"1 Samuel", 31, OldTestament},
	{"2 Samuel", 24, OldTestament},
	{"1 Kings", 22, OldTestament},
	{"2 Kings", 25, OldTestament},
	{"1 Chronicles", 29, OldTestament},
	{"2 Chronicles", 36, OldTestament},
	{"Ezra", 10, OldTestament},
	{"Nehemiah", 13, OldTestament},
	{"Esther", 10, OldTestament},
	{"Job", 42, OldTestament},
	{"Psalms", 150, OldTestament},
	{"Proverbs", 31, OldTestament},
	{"Ecclesiastes", 12, OldTestament},
	{"Song of Solomon", 8, OldTestament},
	{"Isaiah", 66, OldTestament},
	{"Jeremiah", 52, OldTestament},
	{"Lamentations", 5, OldTestament},
	{"Ezekiel", 48, OldTestament},
	{"Daniel", 12, OldTestament},
	{"Hosea", 14, OldTestament},
	{"Joel", 3, OldTestament},
	{"Amos", 9, OldTestament},
	{"Obadiah", 1, OldTestament},
	{"Jonah", 4, OldTestament},
	{"Micah", 7, OldTestament},
	{"Nahum", 3, OldTestament},
	{"Habakkuk", 3, OldTestament},
	{"Zephaniah", 3, OldTestament},
	{"Haggai", 2, OldTestament},
	{"Zechariah", 14, OldTestament},
	{"Malachi", 4, OldTestament},
	{"Matthew", 28, NewTestament},
	{"Mark", 16, NewTestament},
	{"Luke", 24, NewTestament},
	{"John", 21, NewTestament},
	{"Acts", 28, NewTestament},
	{"Romans", 16, NewTestament},
	{"1 Corinthians", 16, NewTestament},
	{"2 Corinthians", 13, NewTestament},
	{"Galatians", 6, NewTestament},
	{"Ephesians", 6, NewTestament},
	{"Philippians", 4, NewTestament},
	{"Colossians", 4, NewTestament},
	{"1 Thessalonians", 5, NewTestament},
	{"2 Thessalonians", 3, NewTestament},
	{"1 Timothy", 6, NewTestament},
	{"2 Timothy", 4, NewTestament},
	{"Titus", 3, NewTestament},
	{"Philemon", 1, NewTestament},
	{"Hebrews", 13, NewTestament},
	{"James", 5, NewTestament},
	{"1 Peter", 5, NewTestament},
	{"2 Peter", 3, NewTestament},
	{"1 John", 5, NewTestament},
	{"2 John", 1, NewTestament},
	{"3 John", 1, NewTestament},
	{"Jude", 1, NewTestament},
	{"Revelation", 22, NewTestament},
}

// aliases maps common abbreviations and alternate names to canonical names.
var aliases = map[string]string{
	"gen": "Genesis", "ex": "Exodus", "exod": "Exodus", "lev": "Leviticus",
	"num": "Numbers", "deut": "Deuteronomy", "josh": "Joshua", "judg": "Judges",
	"1 sam": "1 Samuel", "2 sam": "2 Samuel", "1 kgs": "1 Kings", "2 kgs": "2 Kings",
	"1 chr": "1 Chronicles", "2 chr": "2 Chronicles", "neh": "Nehemiah", "esth": "Esther",
	"ps": "Psalms", "psa": "Psalms", "psalm": "Psalms", "prov": "Proverbs",
	"eccl": "Ecclesiastes", "song": "Song of Solomon", "song of songs": "Song of Solomon",
	"isa": "Isaiah", "jer": "Jeremiah", "lam": "Lamentations", "ezek": "Ezekiel",
	"dan": "Daniel", "hos": "Hosea", "obad": "Obadiah", "mic": "Micah", "nah": "Nahum",
	"hab": "Habakkuk", "zeph": "Zephaniah", "hag": "Haggai", "zech": "Zechariah",
	"mal": "Malachi", "matt": "Matthew", "mt": "Matthew", "mk": "Mark", "lk": "Luke",
	"jn": "John", "rom": "Romans", "1 cor": "1 Corinthians", "2 cor": "2 Corinthians",
	"gal": "Galatians", "eph": "Ephesians", "phil": "Philippians", "col": "Colossians",
	"1 thess": "1 Thessalonians", "2 thess": "2 Thessalonians", "1 tim": "1 Timothy",
	"2 tim": "2 Timothy", "phlm": "Philemon", "heb": "Hebrews", "jas": "James",
	"1 pet": "1 Peter", "2 pet": "2 Peter", "1 jn": "1 John", "2 jn": "2 John",
	"3 jn": "3 John", "rev": "Revelation",
}

var byKey = func() map[string]Book {
	m := make(map[string]Book, len(books)+len(aliases))
	for _, b := range books {
		m[strings.ToLower(b.Name)] = b
	}
	for alias, name := range aliases {
		m[alias] = m[strings.ToLower(name)]
	}
	return m
}()

// Books returns the canon in order.
func Books() []Book {
	out := make([]Book, len(books))
	copy(out, books)
	return out
}

// Lookup finds a book by name or abbreviation, case-insensitively.
func Lookup(name string) (Book, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(name), " "))
	key = strings.TrimSuffix(key, ".")
	b, ok := byKey[key]
	return b, ok
}

// ChapterCount returns the number of chapters in a book, or 0 if unknown.
func ChapterCount(name string) int {
	b, ok := Lookup(name)
	if !ok {
		return 0
	}
	return b.Chapters
}
