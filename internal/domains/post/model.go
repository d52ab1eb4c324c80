package post

import (
	"fmt"
	"time"
)

const (
	// ExcerptLength is the number of leading content characters kept in the
	// derived excerpt before the ellipsis.
	ExcerptLength = 150

	// DefaultImageURL is used when a post is created without an image.
	DefaultImageURL = "/placeholder.svg?height=400&width=800"

	// Collection is the realtime store path holding all posts.
	Collection = "posts"
)

// Post is a published article. ID is the store-assigned collection key and
// never lives inside the stored document; Date is stamped once at creation
// and survives edits; Excerpt is derived from Content on every write.
type Post struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	ImageURL string `json:"imageUrl"`
	Date     string `json:"date"`
	Excerpt  string `json:"excerpt"`
}

// Fields are the author-supplied parts of a post. Everything else (key,
// date, excerpt) is derived at write time.
type Fields struct {
	Title    string
	Content  string
	Category string
	ImageURL string
}

// New builds a post from its fields, stamping the publish date and deriving
// the excerpt. The ID is left empty; the repository fills it with the key
// allocated by the store.
func New(f Fields, now time.Time) Post {
	imageURL := f.ImageURL
	if imageURL == "" {
		imageURL = DefaultImageURL
	}
	return Post{
		Title:    f.Title,
		Content:  f.Content,
		Category: f.Category,
		ImageURL: imageURL,
		Date:     FormatDate(now),
		Excerpt:  MakeExcerpt(f.Content),
	}
}

// MakeExcerpt derives the excerpt from content: the first ExcerptLength
// characters plus an ellipsis when truncated, the content itself otherwise.
func MakeExcerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return string(runes[:ExcerptLength]) + "..."
}

var ptBRMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// FormatDate renders the publish date the way the site displays it,
// e.g. "30 de agosto de 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), ptBRMonths[t.Month()-1], t.Year())
}
