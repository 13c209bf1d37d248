package twitter

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

const (
	// maxParentDepth bounds the walk up a reply chain.
	maxParentDepth = 3
	searchCount    = 100
)

// Feed reads the home timeline.
type Feed struct {
	auth   *Auth
	apiURL string
}

var _ provider.FeedStrategy[Tweet, Tweet] = (*Feed)(nil)

// NewFeed builds the strategy on top of auth.
func NewFeed(auth *Auth, opts provider.Options) (*Feed, error) {
	if auth == nil {
		return nil, entity.ErrMissingAuthStrategy
	}
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	return &Feed{auth: auth, apiURL: opts.APIURL}, nil
}

// GetFeed implements provider.FeedStrategy. Since maps to since_id and
// Until to max_id.
func (f *Feed) GetFeed(ctx context.Context, up *entity.UserProvider, q provider.FeedQuery) ([]*Tweet, error) {
	params := url.Values{"include_rts": {"true"}}
	if q.Limit > 0 {
		params.Set("count", strconv.Itoa(q.Limit))
	}
	if q.Since != "" {
		params.Set("since_id", q.Since)
	}
	if q.Until != "" {
		params.Set("max_id", q.Until)
	}

	res, err := f.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, f.apiURL+"/statuses/home_timeline.json", params)
	})
	if err != nil {
		return nil, err
	}
	var tweets []*Tweet
	if err := res.JSON(&tweets); err != nil {
		return nil, err
	}
	return tweets, nil
}

// GetPost implements provider.FeedStrategy.
func (f *Feed) GetPost(ctx context.Context, up *entity.UserProvider, postID string) (*Tweet, error) {
	return show(ctx, f.auth, f.apiURL, up, postID)
}

// GetPostComments implements provider.FeedStrategy. There is no replies
// endpoint, so replies are found by searching mentions of the author
// (q.UserID) since the post, and the reply chain above the post is walked
// up to maxParentDepth tweets. HasMore is true when the walk hit that bound.
func (f *Feed) GetPostComments(ctx context.Context, up *entity.UserProvider, q provider.CommentQuery) (*provider.RawComments[Tweet], error) {
	if q.UserID == "" || q.PostID == "" {
		return nil, fmt.Errorf("%w: userId, post_id", entity.ErrFormEmptyFields)
	}

	params := url.Values{
		"q":                {"@" + q.UserID},
		"since_id":         {q.PostID},
		"include_entities": {"true"},
		"result_type":      {"mixed"},
		"count":            {strconv.Itoa(searchCount)},
	}
	res, err := f.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, f.apiURL+"/search/tweets.json", params)
	})
	if err != nil {
		return nil, err
	}
	var found searchResult
	if err := res.JSON(&found); err != nil {
		return nil, err
	}

	replies := make([]*Tweet, 0, len(found.Statuses))
	for _, t := range found.Statuses {
		if t != nil && t.InReplyToStatusIDStr != nil && *t.InReplyToStatusIDStr == q.PostID {
			replies = append(replies, t)
		}
	}

	current, err := f.GetPost(ctx, up, q.PostID)
	if err != nil {
		return nil, err
	}

	var parents []*Tweet
	next := current
	for next != nil && next.InReplyToStatusIDStr != nil && len(parents) < maxParentDepth {
		parent, err := f.GetPost(ctx, up, *next.InReplyToStatusIDStr)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		parents = append(parents, parent)
		next = parent
	}
	sort.SliceStable(parents, func(i, j int) bool {
		return parents[i].CreatedAt.Before(parents[j].CreatedAt.Time)
	})

	return &provider.RawComments[Tweet]{
		Comments:       replies,
		ParentComments: parents,
		HasMore:        len(parents) >= maxParentDepth,
	}, nil
}

// ProcessPost implements provider.FeedStrategy. A retweet is shown as the
// original tweet with the retweeting user recorded as the action.
func (f *Feed) ProcessPost(t *Tweet, up *entity.UserProvider) *entity.Post {
	if t.User == nil {
		return nil
	}

	post := &entity.Post{
		ID:       t.IDStr,
		PostLink: statusLink(t.User, t.IDStr),
		User:     postUser(t.User),
		Provider: entity.PostProvider{ID: up.ID, Name: entity.Twitter},
		Content: entity.PostContent{
			Message:        t.Text,
			DateCreated:    t.CreatedAt.Time,
			IsConversation: t.InReplyToStatusIDStr != nil,
			ActionCounts: map[string]entity.Count{
				entity.CountRetweets:  entity.N(t.RetweetCount),
				entity.CountFavorites: entity.N(t.FavoriteCount),
			},
			ActionsPerformed: map[string]bool{
				entity.PerformedRetweeted: t.Retweeted,
				entity.PerformedFavorited: t.Favorited,
			},
		},
		Pagination: entity.Pagination{Since: t.IDStr},
		Twitter:    &entity.TwitterMeta{InReplyToStatusIDStr: t.InReplyToStatusIDStr},
	}

	if t.Entities != nil {
		post.Content.Entities = entities(t.Entities)
	}

	if rt := t.RetweetedStatus; rt != nil && rt.User != nil {
		retweeter := postUser(t.User)
		post.PostLink = statusLink(rt.User, rt.IDStr)
		post.User = postUser(rt.User)
		post.Content.Message = rt.Text
		post.OriginalID = rt.IDStr
		post.Content.Action = &entity.PostAction{Type: entity.ActionRetweet, User: &retweeter}
	}
	return post
}

// ProcessComment implements provider.FeedStrategy. Replies are tweets; the
// account can remove its own.
func (f *Feed) ProcessComment(t *Tweet, up *entity.UserProvider) *entity.Comment {
	if t.User == nil {
		return nil
	}
	return &entity.Comment{
		ID:   t.IDStr,
		User: postUser(t.User),
		Content: entity.CommentContent{
			DateCreated: t.CreatedAt.Time,
			Message:     t.Text,
			CanRemove:   up.ProviderUserID != "" && t.User.IDStr == up.ProviderUserID,
		},
	}
}

func entities(src *Entities) *entity.Entities {
	e := entity.NewEntities()
	for _, u := range src.URLs {
		e.Links = append(e.Links, entity.Link{ShortenedURL: u.URL, DisplayURL: u.DisplayURL, ExpandedURL: u.ExpandedURL})
	}
	for _, m := range src.Media {
		e.Pictures = append(e.Pictures, entity.Picture{
			Small: &entity.Image{URL: m.MediaURLHTTPS, Width: m.Sizes.Small.W, Height: m.Sizes.Small.H},
			Large: &entity.Image{URL: m.MediaURLHTTPS, Width: m.Sizes.Large.W, Height: m.Sizes.Large.H},
		})
		e.Links = append(e.Links, entity.Link{ShortenedURL: m.URL.URL, DisplayURL: m.DisplayURL, ExpandedURL: m.ExpandedURL})
	}
	for _, h := range src.Hashtags {
		e.Hashtags = append(e.Hashtags, entity.Hashtag{Name: h.Text, Link: webURL + "hashtag/" + h.Text})
	}
	for _, m := range src.UserMentions {
		e.Mentions = append(e.Mentions, entity.Mention{ID: m.IDStr, Name: "@" + m.ScreenName, ProfileLink: webURL + m.ScreenName})
	}
	return e
}

func postUser(u *User) entity.PostUser {
	return entity.PostUser{
		ID:            u.IDStr,
		Name:          u.Name,
		NameFormatted: "@" + u.ScreenName,
		Image:         u.ProfileImageURLHTTPS,
		ProfileLink:   webURL + screenName(u),
	}
}

func statusLink(u *User, id string) string {
	return webURL + screenName(u) + "/status/" + id
}

func screenName(u *User) string {
	if u.ScreenName == "" {
		return "undefined"
	}
	return u.ScreenName
}

// show loads one tweet including the account's own retweet of it.
func show(ctx context.Context, auth *Auth, apiURL string, up *entity.UserProvider, id string) (*Tweet, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: tweet_id", entity.ErrFormEmptyFields)
	}
	params := url.Values{"id": {id}, "include_my_retweet": {"true"}}
	res, err := auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, apiURL+"/statuses/show.json", params)
	})
	if err != nil {
		return nil, err
	}
	var t Tweet
	if err := res.JSON(&t); err != nil {
		return nil, err
	}
	if t.IDStr == "" {
		return nil, nil
	}
	return &t, nil
}
