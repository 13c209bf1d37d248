package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"feedient/internal/domain/entity"
)

// ActionName identifies a write action.
type ActionName string

// Known actions. Each provider declares the subset it supports.
const (
	ActionCompose            ActionName = "compose"
	ActionComposeWithPicture ActionName = "composeWithPicture"
	ActionDelete             ActionName = "delete"
	ActionLike               ActionName = "like"
	ActionUnlike             ActionName = "unlike"
	ActionDislike            ActionName = "dislike"
	ActionComment            ActionName = "comment"
	ActionDeleteComment      ActionName = "deletecomment"
	// ActionDeleteCommentCamel is the instagram spelling of deletecomment.
	ActionDeleteCommentCamel ActionName = "deleteComment"
	ActionShare              ActionName = "share"
	ActionRetweet            ActionName = "retweet"
	ActionReply              ActionName = "reply"
	ActionFavorite           ActionName = "favorite"
	ActionUnfavorite         ActionName = "unfavorite"
	ActionDeleteRetweet      ActionName = "delete_retweet"
	ActionReblog             ActionName = "reblog"
)

// Attachment is an uploaded file passed to an action.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ActionPayload is the form submitted with an action.
type ActionPayload struct {
	Fields  map[string]string
	Picture *Attachment
}

// Get returns the field named key, or "".
func (p ActionPayload) Get(key string) string {
	return p.Fields[key]
}

// Require returns entity.ErrFormEmptyFields unless every key has a non-empty value.
func (p ActionPayload) Require(keys ...string) error {
	for _, k := range keys {
		if p.Fields[k] == "" {
			return fmt.Errorf("%w: %s", entity.ErrFormEmptyFields, k)
		}
	}
	return nil
}

// ActionResult is the provider-native success payload of an action.
type ActionResult struct {
	// ID is the id of the created object when the provider returns one.
	ID string `json:"id,omitempty"`
	// Data is the raw provider payload.
	Data json.RawMessage `json:"data,omitempty"`
}

// ActionFunc performs one action for up.
type ActionFunc func(ctx context.Context, up *entity.UserProvider, payload ActionPayload) (*ActionResult, error)

// ActionAPI dispatches actions to the set a strategy declares.
type ActionAPI struct {
	actions map[ActionName]ActionFunc
}

// NewActionAPI wraps strategy. The declared set is captured once.
func NewActionAPI(strategy ActionStrategy) *ActionAPI {
	return &ActionAPI{actions: strategy.Actions()}
}

// HasAction reports whether name is declared.
func (a *ActionAPI) HasAction(name ActionName) bool {
	_, ok := a.actions[name]
	return ok
}

// Names lists the declared actions in sorted order.
func (a *ActionAPI) Names() []ActionName {
	names := make([]ActionName, 0, len(a.actions))
	for n := range a.actions {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Do runs the action name, or returns entity.ErrActionNotFound.
func (a *ActionAPI) Do(ctx context.Context, up *entity.UserProvider, name ActionName, payload ActionPayload) (*ActionResult, error) {
	fn, ok := a.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrActionNotFound, name)
	}
	return fn(ctx, up, payload)
}
