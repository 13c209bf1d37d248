package tumblr

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

// attributionLine is the "blogname:" header tumblr prepends to reblogged text.
var attributionLine = regexp.MustCompile(`^.+:\n\n`)

// htmlTag strips markup from captions and bodies. Text between tags is kept
// verbatim so the attribution header stays matchable.
var htmlTag = regexp.MustCompile(`<[^>]+>`)

// Feed reads the dashboard.
type Feed struct {
	auth   *Auth
	apiURL string
}

var _ provider.FeedStrategy[Post, Post] = (*Feed)(nil)

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

// GetFeed implements provider.FeedStrategy. The dashboard pages by numeric
// offset, which Until carries; Since is applied by the caller.
func (f *Feed) GetFeed(ctx context.Context, up *entity.UserProvider, q provider.FeedQuery) ([]*Post, error) {
	params := url.Values{"reblog_info": {"true"}}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Until != "" {
		params.Set("offset", q.Until)
	}

	var resp postsResponse
	if _, err := f.auth.call(ctx, up, &resp, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, f.apiURL+"/user/dashboard", params)
	}); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

// GetPost implements provider.FeedStrategy. Posts are looked up on the
// account's own blog.
func (f *Feed) GetPost(ctx context.Context, up *entity.UserProvider, postID string) (*Post, error) {
	if postID == "" {
		return nil, fmt.Errorf("%w: post_id", entity.ErrFormEmptyFields)
	}
	params := url.Values{"id": {postID}, "api_key": {f.auth.consumerKey}}

	var resp postsResponse
	if _, err := f.auth.call(ctx, up, &resp, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, f.apiURL+"/blog/"+url.PathEscape(up.ProviderUserID)+".tumblr.com/posts", params)
	}); err != nil {
		return nil, err
	}
	if len(resp.Posts) == 0 {
		return nil, nil
	}
	return resp.Posts[0], nil
}

// GetPostComments implements provider.FeedStrategy. Tumblr has notes, not
// comments, so the thread is always empty.
func (f *Feed) GetPostComments(context.Context, *entity.UserProvider, provider.CommentQuery) (*provider.RawComments[Post], error) {
	return provider.NoComments[Post](), nil
}

// ProcessComment implements provider.FeedStrategy.
func (f *Feed) ProcessComment(*Post, *entity.UserProvider) *entity.Comment {
	return nil
}

// ProcessPost implements provider.FeedStrategy. Audio and video posts are
// unsupported. Reblogs are shown as the original post with the reblogging
// blog recorded as the action.
func (f *Feed) ProcessPost(p *Post, up *entity.UserProvider) *entity.Post {
	if p.Type == "audio" || p.Type == "video" {
		return nil
	}

	blog := f.blogUser(p.BlogName)
	message := p.Body
	if message == "" {
		message = p.Text
	}

	created := p.Created()
	post := &entity.Post{
		ID:       strconv.FormatInt(p.ID, 10),
		PostLink: p.ShortURL,
		User:     blog,
		Provider: entity.PostProvider{ID: up.ID, Name: entity.Tumblr},
		Content: entity.PostContent{
			DateCreated: created,
			ActionCounts: map[string]entity.Count{
				entity.CountNotes: entity.N(p.NoteCount),
			},
			ActionsPerformed: map[string]bool{
				entity.PerformedLiked: p.Liked,
			},
		},
		Pagination: entity.Pagination{Since: entity.UnixCursor(created)},
		Tumblr:     &entity.TumblrMeta{ReblogKey: p.ReblogKey, PostType: p.Type},
	}

	e := entity.NewEntities()
	for _, tag := range p.Tags {
		e.Hashtags = append(e.Hashtags, entity.Hashtag{Name: tag, Link: blog.ProfileLink + "/tagged/" + url.PathEscape(tag)})
	}
	link := entity.ExtendedLink{Name: p.RebloggedFromRootName, URL: p.RebloggedFromRootURL}

	switch p.Type {
	case "photo":
		for _, photo := range p.Photos {
			e.Pictures = append(e.Pictures, picture(p, photo))
		}
	case "quote":
		link = entity.ExtendedLink{Name: p.SourceTitle, URL: p.SourceURL}
	case "link":
		link = entity.ExtendedLink{Name: p.Title, URL: p.URL, Image: p.LinkImage}
		message = p.Description
	case "answer":
		message = p.Question + " \n\n " + p.Answer
	case "text":
		if src := provider.FirstImage(p.Body); src != "" {
			img := &entity.Image{URL: src}
			e.Pictures = append(e.Pictures, entity.Picture{Small: img, Large: img})
		}
	}
	if link != (entity.ExtendedLink{}) {
		e.ExtendedLink = &link
	}
	post.Content.Entities = e

	if p.RebloggedFromID != "" {
		post.Content.Action = &entity.PostAction{Type: entity.ActionReblogged, User: &blog}
		post.ID = p.RebloggedFromID.String()
		post.PostLink = p.RebloggedFromURL
		post.User = f.blogUser(p.RebloggedFromName)
	}

	if message != "" {
		message = htmlTag.ReplaceAllString(message, "")
		message = attributionLine.ReplaceAllString(message, "")
	}
	post.Content.Message = message
	return post
}

func (f *Feed) blogUser(name string) entity.PostUser {
	return entity.PostUser{
		ID:          name,
		Name:        name,
		ProfileLink: "http://" + name + ".tumblr.com",
		Image:       f.auth.avatar(name),
	}
}

// picture maps a photo; the small rendition is the 250px one, third from the
// end of alt_sizes.
func picture(p *Post, photo Photo) entity.Picture {
	pic := entity.Picture{}
	if i := len(photo.AltSizes) - 3; i >= 0 {
		s := photo.AltSizes[i]
		u := strings.Replace(strings.Replace(s.URL, "http://", "https://", 1), "37.media.tumblr.com", "24.media.tumblr.com", 1)
		pic.Small = &entity.Image{URL: u, Width: s.Width, Height: s.Height}
	}
	if o := photo.OriginalSize; o != nil {
		pic.Large = &entity.Image{URL: strings.Replace(o.URL, "http://", "https://", 1), Width: o.Width, Height: o.Height}
	}
	caption := p.Caption
	if caption == "" {
		caption = photo.Caption
	}
	pic.Caption = htmlTag.ReplaceAllString(caption, "")
	return pic
}
