package facebook

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

const (
	feedFields = "object_id,id,created_time,type,story,to,message_tags,status_type,picture,name,full_picture," +
		"caption,source,properties,with_tags,description,link,comments.summary(true),likes{id,name},from," +
		"message,shares,actions,place"

	defaultFeedLimit    = 30
	defaultCommentLimit = 20

	defaultPagesURL = "https://www.facebook.com/pages"
	webURL          = "https://facebook.com/"
)

var (
	excludedTypes = map[string]bool{
		"created_note":      true,
		"created_group":     true,
		"created_event":     true,
		"app_created_story": true,
		"approved_friend":   true,
	}
	unsupportedStory = regexp.MustCompile(`(commented)|(like)|(going)|(event)`)
)

// Feed reads the news feed (/me/home).
type Feed struct {
	auth     *Auth
	apiURL   string
	pagesURL string
}

var _ provider.FeedStrategy[Post, Comment] = (*Feed)(nil)

// NewFeed builds the strategy on top of auth.
func NewFeed(auth *Auth, opts provider.Options) (*Feed, error) {
	if auth == nil {
		return nil, entity.ErrMissingAuthStrategy
	}
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	return &Feed{auth: auth, apiURL: opts.APIURL, pagesURL: defaultPagesURL}, nil
}

// GetFeed implements provider.FeedStrategy. Since and Until are unix seconds.
func (f *Feed) GetFeed(ctx context.Context, up *entity.UserProvider, q provider.FeedQuery) ([]*Post, error) {
	params := token(up)
	params.Set("fields", feedFields)
	params.Set("limit", strconv.Itoa(limitOr(q.Limit, defaultFeedLimit)))
	if q.Since != "" {
		params.Set("since", q.Since)
	}
	if q.Until != "" {
		params.Set("until", q.Until)
	}

	res, err := f.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, f.apiURL+"/me/home", params)
	})
	if err != nil {
		return nil, err
	}

	var page list[Post]
	if err := res.JSON(&page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// GetPost implements provider.FeedStrategy.
func (f *Feed) GetPost(ctx context.Context, up *entity.UserProvider, postID string) (*Post, error) {
	if postID == "" {
		return nil, fmt.Errorf("%w: post_id", entity.ErrFormEmptyFields)
	}
	params := token(up)
	params.Set("fields", feedFields)

	res, err := f.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, f.apiURL+"/"+url.PathEscape(postID), params)
	})
	if err != nil {
		return nil, err
	}

	var post Post
	if err := res.JSON(&post); err != nil {
		return nil, err
	}
	if post.ID == "" {
		return nil, nil
	}
	return &post, nil
}

// GetPostComments implements provider.FeedStrategy. BeforeTime, when set,
// must be unix seconds.
func (f *Feed) GetPostComments(ctx context.Context, up *entity.UserProvider, q provider.CommentQuery) (*provider.RawComments[Comment], error) {
	since := q.BeforeTime
	if since == "" {
		since = "0"
	}
	if q.PostID == "" || !isNumber(since) {
		return nil, fmt.Errorf("%w: post_id, beforeTime", entity.ErrFormEmptyFields)
	}

	params := token(up)
	params.Set("limit", strconv.Itoa(limitOr(q.Limit, defaultCommentLimit)))
	params.Set("since", since)

	res, err := f.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, f.apiURL+"/"+url.PathEscape(q.PostID)+"/comments", params)
	})
	if err != nil {
		return nil, err
	}

	var page list[Comment]
	if err := res.JSON(&page); err != nil {
		return nil, err
	}
	return &provider.RawComments[Comment]{
		Comments: page.Data,
		PostLink: postLinkFromID(q.PostID),
		HasMore:  page.Paging != nil,
	}, nil
}

// ProcessComment implements provider.FeedStrategy.
func (f *Feed) ProcessComment(c *Comment, up *entity.UserProvider) *entity.Comment {
	from := User{}
	if c.From != nil {
		from = *c.From
	}
	return &entity.Comment{
		ID: c.ID,
		User: entity.PostUser{
			ID:          from.ID,
			Name:        from.Name,
			Image:       f.auth.picture(from.ID, up.Tokens.AccessToken),
			ProfileLink: webURL + from.ID,
		},
		Content: entity.CommentContent{
			DateCreated: c.CreatedTime.Time,
			Message:     c.Message,
			CanRemove:   c.CanRemove,
		},
	}
}

// ProcessPost implements provider.FeedStrategy. Notes, groups, events,
// activity stories, links without a link and statuses without a message
// are unsupported.
func (f *Feed) ProcessPost(p *Post, up *entity.UserProvider) *entity.Post {
	if !isSupported(p) {
		return nil
	}

	accessToken := up.Tokens.AccessToken
	from := User{}
	if p.From != nil {
		from = *p.From
	}
	profileLink := from.Link
	if profileLink == "" {
		profileLink = webURL + from.ID
	}

	postLink := postLinkFromID(p.ID)
	if len(p.Actions) > 0 && p.Actions[0].Link != "" {
		postLink = p.Actions[0].Link
	}

	message := deref(p.Message)
	link := deref(p.Link)

	post := &entity.Post{
		ID:       p.ID,
		PostLink: postLink,
		User: entity.PostUser{
			ID:          from.ID,
			Name:        from.Name,
			Image:       f.auth.picture(from.ID, accessToken),
			ProfileLink: profileLink,
		},
		Provider: entity.PostProvider{ID: up.ID, Name: entity.Facebook},
		Content: entity.PostContent{
			Message:     message,
			DateCreated: p.CreatedTime.Time,
			ActionCounts: map[string]entity.Count{
				entity.CountLikes:    entity.N(likeCount(p)),
				entity.CountShares:   entity.N(shareCount(p)),
				entity.CountComments: entity.N(commentCount(p)),
			},
			ActionsPerformed: map[string]bool{
				entity.PerformedShared: p.UserShared,
				entity.PerformedLiked:  likedBy(p, up),
			},
		},
		Pagination: entity.Pagination{Since: entity.UnixCursor(p.CreatedTime.Time)},
	}

	if p.Story != "" {
		post.Content.Action = &entity.PostAction{Message: p.Story}
	} else if to := f.directRecipient(p, accessToken); to != nil {
		post.Content.Action = &entity.PostAction{Type: entity.ActionToUser, User: to}
	}

	post.Content.Entities = f.entities(p, message, link, accessToken)
	return post
}

// directRecipient returns the single addressee of a wall post who is not
// merely tagged in the message.
func (f *Feed) directRecipient(p *Post, accessToken string) *entity.PostUser {
	if p.To == nil || len(p.To.Data) != 1 {
		return nil
	}
	to := p.To.Data[0]
	for _, tag := range p.MessageTags {
		if tag.ID == to.ID || tag.Name == to.Name {
			return nil
		}
	}
	return &entity.PostUser{
		ID:          to.ID,
		Name:        to.Name,
		Image:       f.auth.picture(to.ID, accessToken),
		ProfileLink: to.Link,
	}
}

func (f *Feed) entities(p *Post, message, link, accessToken string) *entity.Entities {
	e := entity.NewEntities()

	if p.Type == "link" {
		e.ExtendedLink = &entity.ExtendedLink{
			Name:        p.Name,
			Description: p.Description,
			URL:         link,
			Image:       p.Picture,
		}
	}

	if p.Picture != "" && p.Type != "link" && p.Type != "video" {
		src := f.auth.picture(p.ObjectID, accessToken)
		caption := p.Caption
		if caption == "" {
			caption = p.Description
		}
		e.Pictures = append(e.Pictures, entity.Picture{
			Small:   &entity.Image{URL: src},
			Large:   &entity.Image{URL: src},
			Caption: caption,
		})
	}

	if p.To != nil {
		for _, u := range p.To.Data {
			e.Mentions = append(e.Mentions, entity.Mention{ID: u.ID, Name: u.Name, ProfileLink: u.Link})
		}
	}

	if link != "" && p.Type != "link" && p.Type != "photo" && p.Type != "video" {
		e.Links = append(e.Links, entity.Link{DisplayURL: link, ExpandedURL: link})
	}

	if p.Type == "video" && (p.StatusType == "added_video" || p.StatusType == "shared_story") {
		e.Videos = append(e.Videos, entity.Video{
			Name:        p.Name,
			Image:       p.Picture,
			URL:         p.Source,
			Description: p.Description,
		})
	}

	if message != "" {
		provider.AppendTextLinks(e, message)
		provider.AppendTextHashtags(e, message, webURL+"hashtag/")
	}

	for _, tag := range p.MessageTags {
		e.Hashtags = append(e.Hashtags, entity.Hashtag{Name: tag.Name, Link: webURL + tag.ID})
	}

	if p.Place != nil {
		e.Place = &entity.Place{
			URL:  f.pagesURL + "/" + p.Place.Name + "/" + p.Place.ID,
			Name: p.Place.Name,
		}
	}
	return e
}

func isSupported(p *Post) bool {
	if excludedTypes[p.Type] || excludedTypes[p.StatusType] {
		return false
	}
	if p.Story != "" && unsupportedStory.MatchString(p.Story) {
		return false
	}
	if p.Type == "link" && p.Link == nil {
		return false
	}
	if p.Type == "status" && p.Message == nil {
		return false
	}
	return true
}

func likedBy(p *Post, up *entity.UserProvider) bool {
	if p.Likes == nil || up.Account == nil {
		return false
	}
	for _, u := range p.Likes.Data {
		if u.Name == up.Account.UserFullName || (up.ProviderUserID != "" && u.ID == up.ProviderUserID) {
			return true
		}
	}
	return false
}

func likeCount(p *Post) int64 {
	if p.Likes == nil {
		return 0
	}
	return int64(len(p.Likes.Data))
}

func shareCount(p *Post) int64 {
	if p.Shares == nil {
		return 0
	}
	return p.Shares.Count
}

func commentCount(p *Post) int64 {
	if p.Comments == nil {
		return 0
	}
	if p.Comments.Summary != nil {
		return p.Comments.Summary.TotalCount
	}
	return int64(len(p.Comments.Data))
}

func postLinkFromID(id string) string {
	return webURL + strings.Replace(id, "_", "/posts/", 1)
}

func limitOr(limit, def int) int {
	if limit > 0 {
		return limit
	}
	return def
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
