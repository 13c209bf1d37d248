package twitter

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

const (
	maxTweetLength = 140
	// Links are shortened to t.co URLs of a fixed length.
	httpLinkLength  = 22
	httpsLinkLength = 23

	// maxRetweetHops bounds how far delete_retweet follows a retweet of a retweet.
	maxRetweetHops = 3
)

var composeLinkRegex = regexp.MustCompile(`(https?://(www\.)?[^\s]+|(www\.)[^\s]+)`)

// Actions performs writes against the REST API.
type Actions struct {
	auth   *Auth
	apiURL string
}

var _ provider.ActionStrategy = (*Actions)(nil)

// NewActions builds the strategy on top of auth.
func NewActions(auth *Auth, opts provider.Options) (*Actions, error) {
	if auth == nil {
		return nil, entity.ErrMissingAuthStrategy
	}
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	return &Actions{auth: auth, apiURL: opts.APIURL}, nil
}

// Actions implements provider.ActionStrategy.
func (a *Actions) Actions() map[provider.ActionName]provider.ActionFunc {
	return map[provider.ActionName]provider.ActionFunc{
		provider.ActionCompose:            a.compose,
		provider.ActionComposeWithPicture: a.composeWithPicture,
		provider.ActionRetweet:            a.retweet,
		provider.ActionReply:              a.reply,
		provider.ActionFavorite:           a.favorite,
		provider.ActionUnfavorite:         a.unfavorite,
		provider.ActionDelete:             a.delete,
		provider.ActionDeleteRetweet:      a.deleteRetweet,
	}
}

// TweetLength is the length of message once every link is shortened.
func TweetLength(message string) int {
	n := utf8.RuneCountInString(message)
	for _, link := range composeLinkRegex.FindAllString(message, -1) {
		n -= utf8.RuneCountInString(link)
		if strings.Contains(link, "https") {
			n += httpsLinkLength
		} else {
			n += httpLinkLength
		}
	}
	return n
}

func (a *Actions) compose(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("message"); err != nil {
		return nil, err
	}
	msg := p.Get("message")
	if TweetLength(msg) > maxTweetLength {
		return nil, entity.ErrComposeMaxLength
	}
	return a.post(ctx, up, "/statuses/update.json", url.Values{"status": {msg}})
}

func (a *Actions) composeWithPicture(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if p.Picture == nil || len(p.Picture.Data) == 0 {
		return nil, fmt.Errorf("%w: picture", entity.ErrFormEmptyFields)
	}
	fields := map[string]string{}
	if msg := p.Get("message"); msg != "" {
		fields["status"] = msg
	}
	res, err := a.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.PostMultipart(ctx, a.apiURL+"/statuses/update_with_media.json", fields, "media[]", p.Picture)
	})
	if err != nil {
		return nil, err
	}
	return result(res)
}

func (a *Actions) retweet(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("tweet_id"); err != nil {
		return nil, err
	}
	return a.post(ctx, up, "/statuses/retweet/"+url.PathEscape(p.Get("tweet_id"))+".json", url.Values{})
}

func (a *Actions) reply(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("tweet_id", "tweet_reply_msg"); err != nil {
		return nil, err
	}
	return a.post(ctx, up, "/statuses/update.json", url.Values{
		"in_reply_to_status_id": {p.Get("tweet_id")},
		"status":                {p.Get("tweet_reply_msg")},
	})
}

func (a *Actions) favorite(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("tweet_id"); err != nil {
		return nil, err
	}
	return a.post(ctx, up, "/favorites/create.json", url.Values{"id": {p.Get("tweet_id")}})
}

func (a *Actions) unfavorite(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("tweet_id"); err != nil {
		return nil, err
	}
	return a.post(ctx, up, "/favorites/destroy.json", url.Values{"id": {p.Get("tweet_id")}})
}

func (a *Actions) delete(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("tweet_id"); err != nil {
		return nil, err
	}
	return a.destroy(ctx, up, p.Get("tweet_id"))
}

// deleteRetweet removes the account's retweet of tweet_id. When tweet_id is
// itself a retweet the account did not retweet, the original is looked up.
func (a *Actions) deleteRetweet(ctx context.Context, up *entity.UserProvider, p provider.ActionPayload) (*provider.ActionResult, error) {
	if err := p.Require("tweet_id"); err != nil {
		return nil, err
	}
	id := p.Get("tweet_id")
	for hop := 0; hop < maxRetweetHops; hop++ {
		t, err := show(ctx, a.auth, a.apiURL, up, id)
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		if t.CurrentUserRetweet != nil {
			return a.destroy(ctx, up, t.CurrentUserRetweet.IDStr)
		}
		if t.RetweetedStatus == nil {
			break
		}
		id = t.RetweetedStatus.IDStr
	}
	return nil, &entity.ProviderError{Provider: entity.Twitter, Message: "no retweet of " + p.Get("tweet_id") + " to delete"}
}

func (a *Actions) destroy(ctx context.Context, up *entity.UserProvider, id string) (*provider.ActionResult, error) {
	return a.post(ctx, up, "/statuses/destroy/"+url.PathEscape(id)+".json", url.Values{})
}

func (a *Actions) post(ctx context.Context, up *entity.UserProvider, path string, form url.Values) (*provider.ActionResult, error) {
	res, err := a.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.PostForm(ctx, a.apiURL+path, form)
	})
	if err != nil {
		return nil, err
	}
	return result(res)
}

func result(res *provider.Response) (*provider.ActionResult, error) {
	var body struct {
		IDStr string `json:"id_str"`
	}
	if err := res.JSON(&body); err != nil {
		return nil, err
	}
	return &provider.ActionResult{ID: body.IDStr, Data: res.Body}, nil
}
