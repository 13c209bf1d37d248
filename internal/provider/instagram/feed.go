package instagram

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
	webURL = "https://instagram.com/"
	// commentPageSize is the most comments the API returns at once.
	commentPageSize = 150
)

var mentionRegex = regexp.MustCompile(`(?i)(?:^|[^a-z./])@([a-z0-9_]+)`)

// Feed reads the media feed (users/self/feed).
type Feed struct {
	auth   *Auth
	apiURL string
	proxy  provider.ImageProxy
}

var _ provider.FeedStrategy[Media, Comment] = (*Feed)(nil)

// NewFeed builds the strategy on top of auth.
func NewFeed(auth *Auth, opts provider.Options) (*Feed, error) {
	if auth == nil {
		return nil, entity.ErrMissingAuthStrategy
	}
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	return &Feed{auth: auth, apiURL: opts.APIURL, proxy: opts.ImageProxy}, nil
}

// GetFeed implements provider.FeedStrategy. Since maps to min_id and Until
// to max_id. A response without data is an empty feed.
func (f *Feed) GetFeed(ctx context.Context, up *entity.UserProvider, q provider.FeedQuery) ([]*Media, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("count", strconv.Itoa(q.Limit))
	}
	if q.Since != "" {
		params.Set("min_id", q.Since)
	}
	if q.Until != "" {
		params.Set("max_id", q.Until)
	}

	media := []*Media{}
	if err := f.auth.get(ctx, up, f.apiURL+"/users/self/feed", params, &media); err != nil {
		return nil, err
	}
	return media, nil
}

// GetPost implements provider.FeedStrategy.
func (f *Feed) GetPost(ctx context.Context, up *entity.UserProvider, postID string) (*Media, error) {
	if postID == "" {
		return nil, fmt.Errorf("%w: media_id", entity.ErrFormEmptyFields)
	}
	var m *Media
	if err := f.auth.get(ctx, up, f.apiURL+"/media/"+url.PathEscape(postID), nil, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetPostComments implements provider.FeedStrategy. The API returns at most
// commentPageSize comments, so a full page means there may be more.
func (f *Feed) GetPostComments(ctx context.Context, up *entity.UserProvider, q provider.CommentQuery) (*provider.RawComments[Comment], error) {
	if q.PostID == "" {
		return nil, fmt.Errorf("%w: post_id", entity.ErrFormEmptyFields)
	}
	var comments []*Comment
	if err := f.auth.get(ctx, up, f.apiURL+"/media/"+url.PathEscape(q.PostID)+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	return &provider.RawComments[Comment]{
		Comments:       comments,
		ParentComments: []*Comment{},
		HasMore:        len(comments) >= commentPageSize,
	}, nil
}

// ProcessComment implements provider.FeedStrategy.
func (f *Feed) ProcessComment(c *Comment, _ *entity.UserProvider) *entity.Comment {
	if c.From == nil {
		return nil
	}
	return &entity.Comment{
		ID:   c.ID,
		User: f.postUser(c.From),
		Content: entity.CommentContent{
			DateCreated: c.CreatedTime.Time,
			Message:     c.Text,
		},
	}
}

// ProcessPost implements provider.FeedStrategy.
func (f *Feed) ProcessPost(m *Media, up *entity.UserProvider) *entity.Post {
	if m.User == nil {
		return nil
	}

	var caption string
	if m.Caption != nil {
		caption = m.Caption.Text
	}
	var likes, comments int64
	if m.Likes != nil {
		likes = m.Likes.Count
	}
	if m.Comments != nil {
		comments = m.Comments.Count
	}

	post := &entity.Post{
		ID:       m.ID,
		PostLink: m.Link,
		User:     f.postUser(m.User),
		Provider: entity.PostProvider{ID: up.ID, Name: entity.Instagram},
		Content: entity.PostContent{
			Message:     caption,
			DateCreated: m.CreatedTime.Time,
			ActionCounts: map[string]entity.Count{
				entity.CountComments: entity.N(comments),
				entity.CountLikes:    entity.N(likes),
			},
			ActionsPerformed: map[string]bool{
				entity.PerformedLiked: m.UserHasLiked,
			},
		},
		Pagination: entity.Pagination{Since: m.ID},
	}

	e := entity.NewEntities()
	if m.Link != "" {
		e.Links = append(e.Links, entity.Link{DisplayURL: m.Link, ExpandedURL: m.Link})
	}
	if std := m.Images.StandardResolution; std != nil {
		large := secure(*std)
		small := large
		if low := m.Images.LowResolution; low != nil {
			small = secure(*low)
		}
		e.Pictures = append(e.Pictures, entity.Picture{Small: &small, Large: &large})
	}
	if m.Videos != nil && m.Videos.StandardResolution != nil {
		v := entity.Video{URL: httpsURL(m.Videos.StandardResolution.URL)}
		if std := m.Images.StandardResolution; std != nil {
			v.Image = httpsURL(std.URL)
		}
		e.Videos = append(e.Videos, v)
	}
	if caption != "" {
		for _, match := range mentionRegex.FindAllStringSubmatch(caption, -1) {
			e.Mentions = append(e.Mentions, entity.Mention{Name: "@" + match[1], ProfileLink: webURL + match[1]})
		}
		provider.AppendTextLinks(e, caption)
	}
	post.Content.Entities = e
	return post
}

func (f *Feed) postUser(u *User) entity.PostUser {
	return entity.PostUser{
		ID:            u.ID,
		Name:          u.FullName,
		NameFormatted: u.Username,
		Image:         avatarURL(f.proxy, u.ProfilePicture),
		ProfileLink:   webURL + u.Username,
	}
}

func secure(img Image) entity.Image {
	return entity.Image{URL: httpsURL(img.URL), Width: img.Width, Height: img.Height}
}

func httpsURL(u string) string {
	return strings.Replace(u, "http://", "https://", 1)
}
