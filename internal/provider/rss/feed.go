package rss

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"

	"github.com/mmcdole/gofeed"
)

// Item is one parsed feed entry together with the detected feed format.
type Item struct {
	*gofeed.Item
	// Format is "rss" or "atom".
	Format string
}

// Feed reads the linked feed URL.
type Feed struct {
	auth *Auth
	now  func() time.Time
}

var _ provider.FeedStrategy[Item, Item] = (*Feed)(nil)

// NewFeed builds the strategy on top of auth.
func NewFeed(auth *Auth, _ provider.Options) (*Feed, error) {
	if auth == nil {
		return nil, entity.ErrMissingAuthStrategy
	}
	return &Feed{auth: auth, now: time.Now}, nil
}

// GetFeed implements provider.FeedStrategy. The whole document is returned;
// the caller filters on Since.
func (f *Feed) GetFeed(ctx context.Context, up *entity.UserProvider, _ provider.FeedQuery) ([]*Item, error) {
	doc, err := f.fetch(ctx, up)
	if err != nil {
		return nil, err
	}
	items := make([]*Item, 0, len(doc.Items))
	for _, it := range doc.Items {
		if it != nil {
			items = append(items, &Item{Item: it, Format: doc.FeedType})
		}
	}
	return items, nil
}

// GetPost implements provider.FeedStrategy. Posts are identified by their
// link, so the feed is fetched again and searched.
func (f *Feed) GetPost(ctx context.Context, up *entity.UserProvider, postID string) (*Item, error) {
	if postID == "" {
		return nil, fmt.Errorf("%w: post_id", entity.ErrFormEmptyFields)
	}
	doc, err := f.fetch(ctx, up)
	if err != nil {
		return nil, err
	}
	for _, it := range doc.Items {
		if it != nil && itemLink(it) == postID {
			return &Item{Item: it, Format: doc.FeedType}, nil
		}
	}
	return nil, nil
}

func (f *Feed) fetch(ctx context.Context, up *entity.UserProvider) (*gofeed.Feed, error) {
	if up.Account == nil || up.Account.URL == "" {
		return nil, fmt.Errorf("%w: url", entity.ErrFormEmptyFields)
	}
	res, err := f.auth.client.Get(ctx, up.Account.URL, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 400 {
		return nil, &entity.ProviderError{
			Provider: entity.RSS,
			Message:  fmt.Sprintf("unable to fetch feed: status %d", res.StatusCode),
		}
	}
	doc, err := gofeed.NewParser().Parse(bytes.NewReader(res.Body))
	if err != nil {
		return nil, &entity.ParseError{Provider: entity.RSS, Err: err}
	}
	return doc, nil
}

// GetPostComments implements provider.FeedStrategy. Feeds have no comments.
func (f *Feed) GetPostComments(context.Context, *entity.UserProvider, provider.CommentQuery) (*provider.RawComments[Item], error) {
	return provider.NoComments[Item](), nil
}

// ProcessComment implements provider.FeedStrategy.
func (f *Feed) ProcessComment(*Item, *entity.UserProvider) *entity.Comment {
	return nil
}

// ProcessPost implements provider.FeedStrategy. An entry without a link or a
// date becomes a stub dated now instead of being dropped.
func (f *Feed) ProcessPost(it *Item, up *entity.UserProvider) *entity.Post {
	stub := &entity.Post{
		Provider: entity.PostProvider{ID: up.ID, Name: entity.RSS},
		Content:  entity.PostContent{DateCreated: f.now().UTC()},
	}
	if it.Item == nil {
		return stub
	}
	link := itemLink(it.Item)
	created := itemDate(it.Item)
	if link == "" || created.IsZero() {
		return stub
	}

	body := it.Content
	if body == "" {
		body = it.Description
	}

	var account entity.Account
	if up.Account != nil {
		account = *up.Account
	}

	e := entity.NewEntities()
	e.Links = append(e.Links, entity.Link{DisplayURL: it.Title, ExpandedURL: link})
	for _, src := range images(it.Item, body) {
		img := entity.Image{URL: src}
		e.Pictures = append(e.Pictures, entity.Picture{Small: &img, Large: &img})
	}

	return &entity.Post{
		ID:       link,
		PostLink: link,
		User: entity.PostUser{
			Name:        account.Username,
			ProfileLink: account.URL,
		},
		Provider: entity.PostProvider{ID: up.ID, Name: entity.RSS},
		Content: entity.PostContent{
			Title:            it.Title,
			Message:          provider.StripHTML(body),
			DateCreated:      created,
			ActionCounts:     map[string]entity.Count{},
			ActionsPerformed: map[string]bool{},
			Entities:         e,
		},
		Pagination: entity.Pagination{Since: entity.TimeCursor(created)},
	}
}

func itemLink(it *gofeed.Item) string {
	if it.Link != "" {
		return it.Link
	}
	if len(it.Links) > 0 {
		return it.Links[0]
	}
	return ""
}

// itemDate prefers pubDate/published and falls back to the Atom updated date.
func itemDate(it *gofeed.Item) time.Time {
	switch {
	case it.PublishedParsed != nil:
		return it.PublishedParsed.UTC()
	case it.UpdatedParsed != nil:
		return it.UpdatedParsed.UTC()
	}
	return time.Time{}
}

// images collects the item image, image enclosures and the first inline
// image of the body, without duplicates.
func images(it *gofeed.Item, body string) []string {
	var out []string
	add := func(src string) {
		if src == "" {
			return
		}
		for _, s := range out {
			if s == src {
				return
			}
		}
		out = append(out, src)
	}
	if it.Image != nil {
		add(it.Image.URL)
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			add(enc.URL)
		}
	}
	if strings.Contains(body, "<img") {
		add(provider.FirstImage(body))
	}
	return out
}
