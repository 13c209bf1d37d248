package twitter

import (
	"strings"
	"time"
)

// Time is a REST v1.1 timestamp ("Wed Aug 27 13:08:45 +0000 2008").
type Time struct{ time.Time }

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := time.Parse(time.RubyDate, s)
	if err != nil {
		return err
	}
	t.Time = parsed.UTC()
	return nil
}

// User is the embedded author of a tweet.
type User struct {
	IDStr                string `json:"id_str"`
	Name                 string `json:"name"`
	ScreenName           string `json:"screen_name"`
	ProfileImageURLHTTPS string `json:"profile_image_url_https"`
}

// URL is an entry of entities.urls.
type URL struct {
	URL         string `json:"url"`
	DisplayURL  string `json:"display_url"`
	ExpandedURL string `json:"expanded_url"`
}

// Size is one rendition of a media entity.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Media is an entry of entities.media.
type Media struct {
	URL
	MediaURLHTTPS string `json:"media_url_https"`
	Sizes         struct {
		Small Size `json:"small"`
		Large Size `json:"large"`
	} `json:"sizes"`
}

// Entities are the parsed references of a tweet.
type Entities struct {
	URLs     []URL   `json:"urls"`
	Media    []Media `json:"media"`
	Hashtags []struct {
		Text string `json:"text"`
	} `json:"hashtags"`
	UserMentions []struct {
		IDStr      string `json:"id_str"`
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
	} `json:"user_mentions"`
}

// Tweet is a status as returned by the timeline, show and search endpoints.
type Tweet struct {
	IDStr                string    `json:"id_str"`
	CreatedAt            Time      `json:"created_at"`
	Text                 string    `json:"text"`
	User                 *User     `json:"user"`
	RetweetCount         int64     `json:"retweet_count"`
	FavoriteCount        int64     `json:"favorite_count"`
	Retweeted            bool      `json:"retweeted"`
	Favorited            bool      `json:"favorited"`
	InReplyToStatusIDStr *string   `json:"in_reply_to_status_id_str"`
	Entities             *Entities `json:"entities"`
	RetweetedStatus      *Tweet    `json:"retweeted_status"`
	CurrentUserRetweet   *struct {
		IDStr string `json:"id_str"`
	} `json:"current_user_retweet"`
}

// searchResult is the search/tweets.json envelope.
type searchResult struct {
	Statuses []*Tweet `json:"statuses"`
}

// apiErrors is the REST v1.1 error envelope.
type apiErrors struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}
