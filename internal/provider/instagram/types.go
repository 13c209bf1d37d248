package instagram

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// UnixTime is an epoch-seconds timestamp sent as a string or a number.
type UnixTime struct{ time.Time }

// UnmarshalJSON implements json.Unmarshaler.
func (t *UnixTime) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	sec, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	t.Time = time.Unix(sec, 0).UTC()
	return nil
}

// User is a media owner or comment author.
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	ProfilePicture string `json:"profile_picture"`
}

// Image is one rendition of a media item.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Media is an entry of users/self/feed.
type Media struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Link        string   `json:"link"`
	CreatedTime UnixTime `json:"created_time"`
	User        *User    `json:"user"`
	Caption     *struct {
		Text string `json:"text"`
	} `json:"caption"`
	Comments *struct {
		Count int64 `json:"count"`
	} `json:"comments"`
	Likes *struct {
		Count int64 `json:"count"`
	} `json:"likes"`
	UserHasLiked bool `json:"user_has_liked"`
	Images       struct {
		LowResolution      *Image `json:"low_resolution"`
		StandardResolution *Image `json:"standard_resolution"`
	} `json:"images"`
	Videos *struct {
		StandardResolution *Image `json:"standard_resolution"`
	} `json:"videos"`
}

// Comment is an entry of media/{id}/comments.
type Comment struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	CreatedTime UnixTime `json:"created_time"`
	From        *User    `json:"from"`
}

// meta is the status block of every response.
type meta struct {
	Code         int    `json:"code"`
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
}

// envelope is the response wrapper; Data is decoded by the caller.
type envelope struct {
	Meta *meta           `json:"meta"`
	Data json.RawMessage `json:"data"`
}
