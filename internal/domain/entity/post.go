package entity

import (
	"encoding/json"
	"strconv"
	"time"
)

// Action counter keys used in PostContent.ActionCounts.
const (
	CountLikes     = "likes"
	CountShares    = "shares"
	CountComments  = "comments"
	CountViews     = "views"
	CountDislikes  = "dislikes"
	CountRetweets  = "retweets"
	CountReplies   = "replies"
	CountFavorites = "favorites"
	CountNotes     = "notes"
)

// Keys used in PostContent.ActionsPerformed.
const (
	PerformedLiked     = "liked"
	PerformedDisliked  = "disliked"
	PerformedShared    = "shared"
	PerformedCommented = "commented"
	PerformedRetweeted = "retweeted"
	PerformedFavorited = "favorited"
)

// Post action types.
const (
	ActionToUser    = "to_user"
	ActionRetweet   = "retweet"
	ActionReblogged = "reblogged"
)

// Post is the provider-agnostic feed entry every feed strategy produces.
type Post struct {
	ID string `json:"id"`
	// PaginationID is the numeric feed position youtube uses for paging.
	PaginationID int64  `json:"pagination_id,omitempty"`
	OriginalID   string `json:"original_id,omitempty"`
	PostLink     string `json:"post_link,omitempty"`

	User       PostUser     `json:"user"`
	Provider   PostProvider `json:"provider"`
	Content    PostContent  `json:"content"`
	Pagination Pagination   `json:"pagination"`

	Twitter *TwitterMeta `json:"twitter,omitempty"`
	Tumblr  *TumblrMeta  `json:"tumblr,omitempty"`
}

// PostUser is the author of a post, comment or notification.
type PostUser struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	NameFormatted string `json:"name_formatted,omitempty"`
	Image         string `json:"image,omitempty"`
	ProfileLink   string `json:"profile_link,omitempty"`
}

// PostProvider links a post back to the UserProvider it was fetched for.
type PostProvider struct {
	ID   string       `json:"id"`
	Name ProviderName `json:"name"`
}

// PostContent holds the normalized body of a post.
type PostContent struct {
	Title            string           `json:"title,omitempty"`
	Message          string           `json:"message"`
	DateCreated      time.Time        `json:"date_created"`
	IsConversation   bool             `json:"is_conversation,omitempty"`
	Action           *PostAction      `json:"action,omitempty"`
	ActionCounts     map[string]Count `json:"action_counts,omitempty"`
	ActionsPerformed map[string]bool  `json:"actions_performed,omitempty"`
	Entities         *Entities        `json:"entities,omitempty"`
}

// PostAction describes why a post shows up in a feed when it is not a plain
// original post (retweets, reblogs, wall posts).
type PostAction struct {
	Type    string    `json:"type,omitempty"`
	Message string    `json:"message,omitempty"`
	User    *PostUser `json:"user,omitempty"`
}

// Pagination carries the incremental fetch cursor. Since is opaque to callers;
// compare cursors with CompareCursor.
type Pagination struct {
	Since string `json:"since"`
}

// TwitterMeta is passed through for twitter posts.
type TwitterMeta struct {
	InReplyToStatusIDStr *string `json:"in_reply_to_status_id_str"`
}

// TumblrMeta is passed through for tumblr posts; actions need the reblog key.
type TumblrMeta struct {
	ReblogKey string `json:"reblog_key"`
	PostType  string `json:"post_type"`
}

// Count is an action counter. AtLeast marks counters the provider caps, which
// are rendered as "<n>+".
type Count struct {
	Value   int64
	AtLeast bool
}

// N builds an exact Count.
func N(v int64) Count { return Count{Value: v} }

// MarshalJSON renders capped counters as strings and exact ones as numbers.
func (c Count) MarshalJSON() ([]byte, error) {
	if c.AtLeast {
		return json.Marshal(strconv.FormatInt(c.Value, 10) + "+")
	}
	return []byte(strconv.FormatInt(c.Value, 10)), nil
}

// Entities groups the structured media and references found in a post.
type Entities struct {
	Pictures      []Picture      `json:"pictures"`
	Videos        []Video        `json:"videos"`
	Hashtags      []Hashtag      `json:"hashtags"`
	Mentions      []Mention      `json:"mentions"`
	Links         []Link         `json:"links"`
	Place         *Place         `json:"place,omitempty"`
	ExtendedLink  *ExtendedLink  `json:"extended_link,omitempty"`
	ExtendedVideo *ExtendedVideo `json:"extended_video,omitempty"`
}

// NewEntities returns Entities with every list initialized so it encodes as
// empty arrays.
func NewEntities() *Entities {
	return &Entities{
		Pictures: []Picture{},
		Videos:   []Video{},
		Hashtags: []Hashtag{},
		Mentions: []Mention{},
		Links:    []Link{},
	}
}

// Image is a sized image reference.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Picture is a picture attached to a post.
type Picture struct {
	Small   *Image `json:"small_picture,omitempty"`
	Large   *Image `json:"large_picture,omitempty"`
	Caption string `json:"caption"`
}

// Video is an embedded video.
type Video struct {
	Name        string `json:"name,omitempty"`
	Image       string `json:"image,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Hashtag is a tag or tagged object with a link.
type Hashtag struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Mention is a referenced user.
type Mention struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	ProfileLink string `json:"profile_link,omitempty"`
}

// Link is a URL found in or attached to a post.
type Link struct {
	ShortenedURL string `json:"shortened_url,omitempty"`
	DisplayURL   string `json:"display_url"`
	ExpandedURL  string `json:"expanded_url"`
}

// Place is a location attached to a post.
type Place struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ExtendedLink is a link preview.
type ExtendedLink struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Image       string `json:"image,omitempty"`
}

// ExtendedVideo is a video preview.
type ExtendedVideo struct {
	Link        string `json:"link"`
	Thumbnail   string `json:"thumbnail"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int64  `json:"duration"`
}

// Comment is a normalized comment on a post.
type Comment struct {
	ID      string         `json:"id"`
	User    PostUser       `json:"user"`
	Content CommentContent `json:"content"`
}

// CommentContent is the body of a Comment.
type CommentContent struct {
	DateCreated time.Time `json:"date_created"`
	Message     string    `json:"message"`
	CanRemove   bool      `json:"can_remove"`
}

// CommentThread is the result of a comment lookup for one post.
type CommentThread struct {
	UserProviderID  string    `json:"userProviderId"`
	PostID          string    `json:"postId"`
	Comments        []Comment `json:"comments"`
	ParentComments  []Comment `json:"parentComments"`
	HasMoreComments bool      `json:"hasMoreComments"`
	PostLink        string    `json:"postLink"`
}

// Notification is a normalized provider notification.
type Notification struct {
	ID          string              `json:"id"`
	CreatedTime time.Time           `json:"created_time"`
	Link        string              `json:"link"`
	Read        int                 `json:"read"`
	UserFrom    PostUser            `json:"user_from"`
	UserTo      *PostUser           `json:"user_to,omitempty"`
	Content     NotificationContent `json:"content"`
	Pagination  Pagination          `json:"pagination"`
}

// NotificationContent is the body of a Notification.
type NotificationContent struct {
	Message string `json:"message"`
}

// Page is a page or account managed by the user.
type Page struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AccessToken string   `json:"access_token"`
	Permissions []string `json:"permissions"`
}
