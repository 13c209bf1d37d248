package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

// cappedViews is the view count YouTube freezes new uploads at until they
// are verified; it is rendered as "301+".
const cappedViews = 301

// Feed reads the GData subscription feed of the linked channel.
type Feed struct {
	auth *Auth
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
	return &Feed{auth: auth}, nil
}

// GetFeed implements provider.FeedStrategy. Until is the 1-based start
// index; Since is applied by the caller on the date cursor. When the token
// has to be refreshed the fetch is repeated exactly once.
func (f *Feed) GetFeed(ctx context.Context, up *entity.UserProvider, q provider.FeedQuery) ([]*Post, error) {
	return f.getFeed(ctx, up, q, true)
}

func (f *Feed) getFeed(ctx context.Context, up *entity.UserProvider, q provider.FeedQuery, tryAgain bool) ([]*Post, error) {
	if up.Account == nil || up.Account.ChannelID == "" {
		return nil, fmt.Errorf("%w: channelId", entity.ErrFormEmptyFields)
	}

	query := url.Values{
		"alt":          {"json"},
		"orderby":      {"published"},
		"access_token": {up.Tokens.AccessToken},
	}
	if q.Until != "" {
		query.Set("start-index", q.Until)
	}
	if q.Limit > 0 {
		query.Set("max-results", strconv.Itoa(q.Limit))
	}
	header := http.Header{"X-Gdata-Key": {"key=" + f.auth.developerKey}}
	target := f.auth.apiURL + "/users/" + url.PathEscape(up.Account.ChannelID) + "/newsubscriptionvideos"

	res, fresh, err := f.auth.call(ctx, up, tryAgain, get(target, query, header))
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		return f.getFeed(ctx, fresh, q, false)
	}

	var doc struct {
		Feed *struct {
			StartIndex *struct {
				T Number `json:"$t"`
			} `json:"openSearch$startIndex"`
			Entries []*Entry `json:"entry"`
		} `json:"feed"`
	}
	if err := res.JSON(&doc); err != nil {
		return nil, err
	}
	if doc.Feed == nil {
		return nil, nil
	}

	var start int64
	if doc.Feed.StartIndex != nil {
		start = int64(doc.Feed.StartIndex.T)
	}
	posts := make([]*Post, 0, len(doc.Feed.Entries))
	for i, e := range doc.Feed.Entries {
		if e == nil {
			continue
		}
		e.PaginationID = start + int64(i) + 1
		posts = append(posts, &Post{Entry: e})
	}
	return posts, nil
}

// GetPost implements provider.FeedStrategy. It loads the v3 statistics of a
// video, which is all ProcessPost renders for that shape.
func (f *Feed) GetPost(ctx context.Context, up *entity.UserProvider, postID string) (*Post, error) {
	if postID == "" {
		return nil, fmt.Errorf("%w: media_id", entity.ErrFormEmptyFields)
	}

	res, err := f.auth.do(ctx, up, func(up *entity.UserProvider) requestFunc {
		query := url.Values{"part": {"id,statistics"}, "id": {postID}, "key": {f.auth.developerKey}}
		return get(f.auth.dataAPIURL+"/videos", query, bearer(up))
	})
	if err != nil {
		return nil, err
	}

	var list videoList
	if err := res.JSON(&list); err != nil {
		return nil, err
	}
	if len(list.Items) == 0 || list.Items[0] == nil || list.Items[0].Statistics == nil {
		return nil, fmt.Errorf("%w: statistics", entity.ErrFormEmptyFields)
	}
	return &Post{Video: list.Items[0]}, nil
}

// GetPostComments implements provider.FeedStrategy. Comments are not read
// from YouTube.
func (f *Feed) GetPostComments(context.Context, *entity.UserProvider, provider.CommentQuery) (*provider.RawComments[Post], error) {
	return provider.NoComments[Post](), nil
}

// ProcessComment implements provider.FeedStrategy.
func (f *Feed) ProcessComment(*Post, *entity.UserProvider) *entity.Comment {
	return nil
}

// ProcessPost implements provider.FeedStrategy. A statistics-only video
// yields a partial post carrying just the id and counters.
func (f *Feed) ProcessPost(p *Post, up *entity.UserProvider) *entity.Post {
	switch {
	case p.Video != nil:
		return processVideo(p.Video, up)
	case p.Entry != nil:
		return processEntry(p.Entry, up)
	}
	return nil
}

func processVideo(v *Video, up *entity.UserProvider) *entity.Post {
	var s Statistics
	if v.Statistics != nil {
		s = *v.Statistics
	}
	return &entity.Post{
		ID:       v.ID,
		Provider: entity.PostProvider{ID: up.ID, Name: entity.YouTube},
		Content: entity.PostContent{
			ActionCounts: map[string]entity.Count{
				entity.CountViews:     entity.N(int64(s.ViewCount)),
				entity.CountLikes:     entity.N(int64(s.LikeCount)),
				entity.CountDislikes:  entity.N(int64(s.DislikeCount)),
				entity.CountComments:  entity.N(int64(s.CommentCount)),
				entity.CountFavorites: entity.N(int64(s.FavoriteCount)),
			},
		},
	}
}

func processEntry(e *Entry, up *entity.UserProvider) *entity.Post {
	if len(e.Author) == 0 {
		return nil
	}
	created, err := time.Parse(time.RFC3339, e.Published.T)
	if err != nil {
		return nil
	}

	videoID := strings.TrimPrefix(e.ID.T, gdataVideosPrefix)
	author := e.Author[0]
	userID := strings.TrimPrefix(author.URI.T, authorPrefix)

	var s Statistics
	if e.Statistics != nil {
		s = *e.Statistics
	}
	views := entity.N(int64(s.ViewCount))
	if views.Value == cappedViews {
		views.AtLeast = true
	}

	video := &entity.ExtendedVideo{
		Link:        watchURL + videoID,
		Title:       e.Title.T,
		Description: e.Content.T,
	}
	if g := e.MediaGroup; g != nil {
		if len(g.Thumbnails) > 0 {
			video.Thumbnail = g.Thumbnails[0].URL
		}
		if g.Duration != nil {
			video.Duration = int64(g.Duration.Seconds)
		}
	}

	ents := entity.NewEntities()
	ents.ExtendedVideo = video
	for _, l := range provider.FindLinks(e.Content.T) {
		ents.Links = append(ents.Links, entity.Link{DisplayURL: l, ExpandedURL: l})
	}

	return &entity.Post{
		ID:           videoID,
		PaginationID: e.PaginationID,
		PostLink:     legacyWatchURL + videoID,
		User: entity.PostUser{
			ID:            userID,
			Name:          author.Name.T,
			NameFormatted: "has uploaded a video",
			ProfileLink:   userProfilePrefix + userID,
		},
		Provider: entity.PostProvider{ID: up.ID, Name: entity.YouTube},
		Content: entity.PostContent{
			DateCreated: created.UTC(),
			ActionCounts: map[string]entity.Count{
				entity.CountViews:    views,
				entity.CountLikes:    entity.N(int64(s.LikeCount)),
				entity.CountDislikes: entity.N(int64(s.DislikeCount)),
			},
			ActionsPerformed: map[string]bool{
				entity.PerformedLiked:    false,
				entity.PerformedDisliked: false,
			},
			Entities: ents,
		},
		Pagination: entity.Pagination{Since: entity.TimeCursor(created)},
	}
}
