package tumblr

import (
	"encoding/json"
	"strings"
	"time"
)

const dateLayout = "2006-01-02 15:04:05 MST"

// Size is one rendition of a photo.
type Size struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Photo is an entry of a photo post.
type Photo struct {
	Caption      string `json:"caption"`
	AltSizes     []Size `json:"alt_sizes"`
	OriginalSize *Size  `json:"original_size"`
}

// Post is a dashboard or blog post. Fields are shared across post types.
type Post struct {
	ID        int64    `json:"id"`
	BlogName  string   `json:"blog_name"`
	ShortURL  string   `json:"short_url"`
	Type      string   `json:"type"`
	Date      string   `json:"date"`
	Timestamp int64    `json:"timestamp"`
	Body      string   `json:"body"`
	Text      string   `json:"text"`
	NoteCount int64    `json:"note_count"`
	Liked     bool     `json:"liked"`
	ReblogKey string   `json:"reblog_key"`
	Tags      []string `json:"tags"`

	// photo
	Photos  []Photo `json:"photos"`
	Caption string  `json:"caption"`
	// quote
	SourceTitle string `json:"source_title"`
	SourceURL   string `json:"source_url"`
	// link
	Title       string `json:"title"`
	URL         string `json:"url"`
	LinkImage   string `json:"link_image"`
	Description string `json:"description"`
	// answer
	Question string `json:"question"`
	Answer   string `json:"answer"`

	RebloggedFromID       json.Number `json:"reblogged_from_id"`
	RebloggedFromURL      string      `json:"reblogged_from_url"`
	RebloggedFromName     string      `json:"reblogged_from_name"`
	RebloggedFromRootName string      `json:"reblogged_from_root_name"`
	RebloggedFromRootURL  string      `json:"reblogged_from_root_url"`
}

// Created returns the post time, preferring the epoch timestamp.
func (p *Post) Created() time.Time {
	if p.Timestamp > 0 {
		return time.Unix(p.Timestamp, 0).UTC()
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(p.Date))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// meta is the status block of every response.
type meta struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

// envelope wraps every response; Response is decoded by the caller.
type envelope struct {
	Meta     *meta           `json:"meta"`
	Response json.RawMessage `json:"response"`
}

type postsResponse struct {
	Posts []*Post `json:"posts"`
}
