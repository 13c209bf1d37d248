package youtube

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// kindVideo marks a Data API v3 video resource.
const kindVideo = "youtube#video"

// Number is a counter sent either as a JSON number or a decimal string.
type Number int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("youtube number %q: %w", b, err)
	}
	*n = Number(v)
	return nil
}

// text is the GData {"$t": ...} wrapper.
type text struct {
	T string `json:"$t"`
}

// Author is the uploader of a GData entry.
type Author struct {
	Name text `json:"name"`
	URI  text `json:"uri"`
}

// Statistics are the counters of either API shape.
type Statistics struct {
	ViewCount     Number `json:"viewCount"`
	LikeCount     Number `json:"likeCount"`
	DislikeCount  Number `json:"dislikeCount"`
	CommentCount  Number `json:"commentCount"`
	FavoriteCount Number `json:"favoriteCount"`
}

// MediaGroup holds the thumbnails and duration of a GData entry.
type MediaGroup struct {
	Thumbnails []struct {
		URL string `json:"url"`
	} `json:"media$thumbnail"`
	Duration *struct {
		Seconds Number `json:"seconds"`
	} `json:"yt$duration"`
}

// Entry is a legacy GData subscription feed entry.
type Entry struct {
	ID         text        `json:"id"`
	Published  text        `json:"published"`
	Title      text        `json:"title"`
	Content    text        `json:"content"`
	Author     []Author    `json:"author"`
	Statistics *Statistics `json:"yt$statistics"`
	MediaGroup *MediaGroup `json:"media$group"`

	// PaginationID is the 1-based position of the entry in the feed.
	PaginationID int64 `json:"-"`
}

// Video is a Data API v3 video resource requested with part=id,statistics.
type Video struct {
	Kind       string      `json:"kind"`
	ID         string      `json:"id"`
	Statistics *Statistics `json:"statistics"`
}

// Post is one of the two raw shapes: a feed Entry or a statistics-only Video.
// Exactly one field is set.
type Post struct {
	Entry *Entry
	Video *Video
}

// UnmarshalJSON picks the variant from the kind field.
func (p *Post) UnmarshalJSON(b []byte) error {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	if probe.Kind == kindVideo {
		p.Video = &Video{}
		return json.Unmarshal(b, p.Video)
	}
	p.Entry = &Entry{}
	return json.Unmarshal(b, p.Entry)
}

// videoList is the v3 videos.list response.
type videoList struct {
	Items []*Video `json:"items"`
}

// profile is the GData users/default entry.
type profile struct {
	Entry struct {
		ID       text `json:"id"`
		Title    text `json:"title"`
		Username text `json:"yt$username"`
		Link     []struct {
			Href string `json:"href"`
		} `json:"link"`
		Thumbnail *struct {
			URL string `json:"url"`
		} `json:"media$thumbnail"`
	} `json:"entry"`
}
