package facebook

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Time is a Graph API timestamp ("2014-04-05T17:07:29+0000").
type Time struct{ time.Time }

const graphTimeLayout = "2006-01-02T15:04:05-0700"

// UnmarshalJSON accepts the Graph API layout, RFC 3339 and null.
func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := time.Parse(graphTimeLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed.UTC()
	return nil
}

// User is a Graph API user or page reference.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

// Tag is an entry of message_tags.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Tags decodes message_tags, which older API versions send as an
// offset-keyed object of arrays and newer ones as a flat array.
type Tags []Tag

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tags) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		var flat []Tag
		if err := json.Unmarshal(b, &flat); err != nil {
			return err
		}
		*t = flat
		return nil
	}

	var byOffset map[string][]Tag
	if err := json.Unmarshal(b, &byOffset); err != nil {
		return err
	}
	offsets := make([]string, 0, len(byOffset))
	for k := range byOffset {
		offsets = append(offsets, k)
	}
	sort.Slice(offsets, func(i, j int) bool { return lessNumeric(offsets[i], offsets[j]) })
	for _, k := range offsets {
		*t = append(*t, byOffset[k]...)
	}
	return nil
}

// Post is an entry of /me/home.
type Post struct {
	ID          string `json:"id"`
	ObjectID    string `json:"object_id,omitempty"`
	CreatedTime Time   `json:"created_time"`
	Type        string `json:"type"`
	StatusType  string `json:"status_type,omitempty"`
	Story       string `json:"story,omitempty"`
	// Message is nil when the post has none.
	Message     *string `json:"message,omitempty"`
	MessageTags Tags    `json:"message_tags,omitempty"`
	From        *User   `json:"from,omitempty"`
	To          *struct {
		Data []User `json:"data"`
	} `json:"to,omitempty"`
	Picture     string `json:"picture,omitempty"`
	FullPicture string `json:"full_picture,omitempty"`
	Name        string `json:"name,omitempty"`
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	// Link is nil when the post has none.
	Link  *string `json:"link,omitempty"`
	Likes *struct {
		Data []User `json:"data"`
	} `json:"likes,omitempty"`
	Shares *struct {
		Count int64 `json:"count"`
	} `json:"shares,omitempty"`
	Comments *struct {
		Data    []Comment `json:"data"`
		Summary *struct {
			TotalCount int64 `json:"total_count"`
		} `json:"summary,omitempty"`
	} `json:"comments,omitempty"`
	UserShared bool `json:"user_shared,omitempty"`
	Actions    []struct {
		Name string `json:"name"`
		Link string `json:"link"`
	} `json:"actions,omitempty"`
	Place *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"place,omitempty"`
}

// Comment is an entry of /{post}/comments.
type Comment struct {
	ID          string `json:"id"`
	From        *User  `json:"from,omitempty"`
	Message     string `json:"message"`
	CanRemove   bool   `json:"can_remove"`
	CreatedTime Time   `json:"created_time"`
	LikeCount   int64  `json:"like_count"`
	UserLikes   bool   `json:"user_likes"`
}

// Notification is an entry of /me/notifications.
type Notification struct {
	ID          string `json:"id"`
	From        *User  `json:"from,omitempty"`
	To          *User  `json:"to,omitempty"`
	CreatedTime Time   `json:"created_time"`
	UpdatedTime Time   `json:"updated_time"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Unread      int    `json:"unread"`
}

// Page is an entry of /me/accounts.
type Page struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AccessToken string   `json:"access_token"`
	Category    string   `json:"category,omitempty"`
	Perms       []string `json:"perms"`
}

// list is the Graph API collection envelope.
type list[T any] struct {
	Data   []*T `json:"data"`
	Paging *struct {
		Previous string `json:"previous,omitempty"`
		Next     string `json:"next,omitempty"`
	} `json:"paging,omitempty"`
}

// graphError is the Graph API error envelope.
type graphError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func lessNumeric(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
