package facebook

import (
	"context"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
)

// Pages lists the pages the user manages (/me/accounts).
type Pages struct {
	auth   *Auth
	apiURL string
}

var _ provider.PageStrategy[Page] = (*Pages)(nil)

// NewPages builds the strategy on top of auth.
func NewPages(auth *Auth, opts provider.Options) (*Pages, error) {
	if auth == nil {
		return nil, entity.ErrMissingAuthStrategy
	}
	if err := opts.RequireAPIURL(); err != nil {
		return nil, err
	}
	return &Pages{auth: auth, apiURL: opts.APIURL}, nil
}

// GetPages implements provider.PageStrategy.
func (p *Pages) GetPages(ctx context.Context, up *entity.UserProvider) ([]*Page, error) {
	res, err := p.auth.call(ctx, up, func(c *provider.Client) (*provider.Response, error) {
		return c.Get(ctx, p.apiURL+"/me/accounts", token(up))
	})
	if err != nil {
		return nil, err
	}

	var page list[Page]
	if err := res.JSON(&page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// ProcessPage implements provider.PageStrategy.
func (p *Pages) ProcessPage(raw *Page, _ *entity.UserProvider) *entity.Page {
	perms := raw.Perms
	if perms == nil {
		perms = []string{}
	}
	return &entity.Page{
		ID:          raw.ID,
		Name:        raw.Name,
		AccessToken: raw.AccessToken,
		Permissions: perms,
	}
}
