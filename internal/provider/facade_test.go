package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"feedient/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawPost struct {
	ID          string
	Created     int64
	Unsupported bool
}

type rawComment struct {
	ID      string
	Created int64
}

type fakeFeed struct {
	posts    []*rawPost
	post     *rawPost
	comments *RawComments[rawComment]
	err      error
	gotQuery FeedQuery
}

func (f *fakeFeed) GetFeed(_ context.Context, _ *entity.UserProvider, q FeedQuery) ([]*rawPost, error) {
	f.gotQuery = q
	return f.posts, f.err
}

func (f *fakeFeed) GetPost(context.Context, *entity.UserProvider, string) (*rawPost, error) {
	return f.post, f.err
}

func (f *fakeFeed) GetPostComments(context.Context, *entity.UserProvider, CommentQuery) (*RawComments[rawComment], error) {
	return f.comments, f.err
}

func (f *fakeFeed) ProcessPost(raw *rawPost, up *entity.UserProvider) *entity.Post {
	if raw.Unsupported {
		return nil
	}
	return &entity.Post{
		ID:         raw.ID,
		Provider:   entity.PostProvider{ID: up.ID, Name: up.Provider},
		Content:    entity.PostContent{DateCreated: Unix(raw.Created)},
		Pagination: entity.Pagination{Since: entity.UnixCursor(Unix(raw.Created))},
	}
}

func (f *fakeFeed) ProcessComment(raw *rawComment, _ *entity.UserProvider) *entity.Comment {
	return &entity.Comment{ID: raw.ID, Content: entity.CommentContent{DateCreated: Unix(raw.Created)}}
}

var testUP = &entity.UserProvider{ID: "up-1", Provider: entity.Facebook}

func ids(posts []*entity.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestFeedAPI_GetFeed_DropsUnsupported(t *testing.T) {
	fake := &fakeFeed{posts: []*rawPost{
		{ID: "a", Created: 100},
		{ID: "b", Created: 200, Unsupported: true},
		nil,
		{ID: "c", Created: 300},
	}}

	posts, err := NewFeedAPI[rawPost, rawComment](fake).GetFeed(context.Background(), testUP, FeedQuery{})
	require.NoError(t, err)

	assert.Less(t, len(posts), len(fake.posts))
	for _, p := range posts {
		assert.NotNil(t, p)
	}
	assert.Equal(t, []string{"c", "a"}, ids(posts))
}

func TestFeedAPI_GetFeed_SortsNewestFirst(t *testing.T) {
	fake := &fakeFeed{posts: []*rawPost{
		{ID: "old", Created: 1},
		{ID: "new", Created: 1000},
		{ID: "mid", Created: 500},
		{ID: "mid2", Created: 500},
	}}

	posts, err := NewFeedAPI[rawPost, rawComment](fake).GetFeed(context.Background(), testUP, FeedQuery{})
	require.NoError(t, err)

	assert.Equal(t, []string{"new", "mid", "mid2", "old"}, ids(posts))
	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].Content.DateCreated.After(posts[i-1].Content.DateCreated))
	}
}

func TestFeedAPI_GetFeed_SinceFilter(t *testing.T) {
	fake := &fakeFeed{posts: []*rawPost{
		{ID: "before", Created: 999},
		{ID: "at", Created: 1000},
		{ID: "after", Created: 10000},
	}}
	q := FeedQuery{Since: "1000", Limit: 10}

	posts, err := NewFeedAPI[rawPost, rawComment](fake).GetFeed(context.Background(), testUP, q)
	require.NoError(t, err)

	assert.Equal(t, q, fake.gotQuery)
	assert.Equal(t, []string{"after", "at"}, ids(posts))
	for _, p := range posts {
		assert.GreaterOrEqual(t, entity.CompareCursor(p.Pagination.Since, q.Since), 0)
	}
}

func TestFeedAPI_GetFeed_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewFeedAPI[rawPost, rawComment](&fakeFeed{err: boom}).GetFeed(context.Background(), testUP, FeedQuery{})
	assert.ErrorIs(t, err, boom)

	_, err = NewFeedAPI[rawPost, rawComment](&fakeFeed{}).GetFeed(context.Background(), testUP, FeedQuery{})
	var te *entity.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Posts is undefined", te.Error())

	posts, err := NewFeedAPI[rawPost, rawComment](&fakeFeed{posts: []*rawPost{}}).GetFeed(context.Background(), testUP, FeedQuery{})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFeedAPI_GetPost(t *testing.T) {
	api := NewFeedAPI[rawPost, rawComment](&fakeFeed{post: &rawPost{ID: "p", Created: 5}})
	post, err := api.GetPost(context.Background(), testUP, "p")
	require.NoError(t, err)
	assert.Equal(t, "p", post.ID)
	assert.Equal(t, "up-1", post.Provider.ID)

	var te *entity.TransformError
	_, err = NewFeedAPI[rawPost, rawComment](&fakeFeed{}).GetPost(context.Background(), testUP, "p")
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Post", te.Subject)

	_, err = NewFeedAPI[rawPost, rawComment](&fakeFeed{post: &rawPost{Unsupported: true}}).GetPost(context.Background(), testUP, "p")
	require.ErrorAs(t, err, &te)
}

func TestFeedAPI_GetPostComments(t *testing.T) {
	fake := &fakeFeed{comments: &RawComments[rawComment]{
		Comments:       []*rawComment{{ID: "c1", Created: 10}, {ID: "c2", Created: 20}},
		ParentComments: []*rawComment{{ID: "p1", Created: 30}, {ID: "p2", Created: 5}},
		PostLink:       "https://facebook.com/1/posts/2",
		HasMore:        true,
	}}

	thread, err := NewFeedAPI[rawPost, rawComment](fake).GetPostComments(context.Background(), testUP, CommentQuery{PostID: "1_2"})
	require.NoError(t, err)

	assert.Equal(t, "up-1", thread.UserProviderID)
	assert.Equal(t, "1_2", thread.PostID)
	assert.Equal(t, "c2", thread.Comments[0].ID)
	assert.Equal(t, "c1", thread.Comments[1].ID)
	assert.Equal(t, "p1", thread.ParentComments[0].ID, "parents keep walk order")
	assert.True(t, thread.HasMoreComments)
	assert.Equal(t, "https://facebook.com/1/posts/2", thread.PostLink)

	_, err = NewFeedAPI[rawPost, rawComment](&fakeFeed{}).GetPostComments(context.Background(), testUP, CommentQuery{})
	var te *entity.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Comments", te.Subject)
}

type rawNote struct {
	ID   string
	At   time.Time
	Skip bool
}

type fakeNotifications struct {
	notes []*rawNote
	err   error
}

func (f *fakeNotifications) GetNotifications(context.Context, *entity.UserProvider, string, int) ([]*rawNote, error) {
	return f.notes, f.err
}

func (f *fakeNotifications) ProcessNotification(raw *rawNote, _ *entity.UserProvider) *entity.Notification {
	if raw.Skip {
		return nil
	}
	return &entity.Notification{ID: raw.ID, CreatedTime: raw.At}
}

func TestNotificationAPI_GetNotifications(t *testing.T) {
	base := time.Date(2014, 4, 5, 0, 0, 0, 0, time.UTC)
	fake := &fakeNotifications{notes: []*rawNote{
		{ID: "1", At: base},
		{ID: "2", At: base.Add(time.Hour)},
		{ID: "3", At: base.Add(2 * time.Hour), Skip: true},
	}}

	notes, err := NewNotificationAPI[rawNote](fake).GetNotifications(context.Background(), testUP, "", 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "2", notes[0].ID)
	assert.Equal(t, "1", notes[1].ID)

	notes, err = NewNotificationAPI[rawNote](&fakeNotifications{notes: []*rawNote{}}).GetNotifications(context.Background(), testUP, "", 0)
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = NewNotificationAPI[rawNote](&fakeNotifications{}).GetNotifications(context.Background(), testUP, "", 0)
	assert.EqualError(t, err, "Notifications is undefined")
}

type fakePages struct{ pages []*entity.Page }

func (f *fakePages) GetPages(context.Context, *entity.UserProvider) ([]*entity.Page, error) {
	return f.pages, nil
}

func (f *fakePages) ProcessPage(raw *entity.Page, _ *entity.UserProvider) *entity.Page {
	if raw.ID == "" {
		return nil
	}
	return raw
}

func TestPagesAPI_GetPages_KeepsProviderOrder(t *testing.T) {
	fake := &fakePages{pages: []*entity.Page{{ID: "z"}, {ID: ""}, {ID: "a"}}}

	pages, err := NewPagesAPI[entity.Page](fake).GetPages(context.Background(), testUP)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "z", pages[0].ID)
	assert.Equal(t, "a", pages[1].ID)

	_, err = NewPagesAPI[entity.Page](&fakePages{}).GetPages(context.Background(), testUP)
	assert.EqualError(t, err, "Pages is undefined")
}
