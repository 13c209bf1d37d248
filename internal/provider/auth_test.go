package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"feedient/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct{}

func (stubAuth) Provider() entity.ProviderName { return entity.RSS }

func (stubAuth) HandleCallback(context.Context, CallbackPayload) ([]entity.Profile, error) {
	return []entity.Profile{{UserID: "u"}}, nil
}

func (stubAuth) CheckAccessToken(context.Context, *entity.UserProvider, *Response) (*entity.UserProvider, error) {
	return nil, nil
}

func (stubAuth) FormatProvider(up *entity.UserProvider) *entity.ProviderView {
	return FormatProvider(up)
}

func TestAuthAPI_UnsupportedSteps(t *testing.T) {
	api := NewAuthAPI(stubAuth{})

	_, err := api.GetRequestToken(context.Background())
	assert.ErrorIs(t, err, entity.ErrCapabilityNotSupported)

	_, err = api.GetAccessToken(context.Background(), "code", AccessTokenOptions{})
	assert.ErrorIs(t, err, entity.ErrCapabilityNotSupported)

	profiles, err := api.HandleCallback(context.Background(), CallbackPayload{})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestFormatProvider(t *testing.T) {
	assert.Nil(t, FormatProvider(nil))

	up := &entity.UserProvider{
		ID:             "up-7",
		Provider:       entity.Twitter,
		ProviderUserID: "12345",
		Account:        &entity.Account{Username: "jack", UserFullName: "Jack", Avatar: "https://a/b.png"},
		Tokens:         entity.Tokens{AccessToken: "tok", AccessTokenSecret: "secret"},
		Order:          2,
		DateAdded:      time.Date(2014, 4, 5, 17, 7, 29, 0, time.UTC),
	}

	view := FormatProvider(up)
	require.NotNil(t, view)
	assert.Equal(t, "up-7", view.ID)
	assert.Equal(t, "jack", view.Provider.Username)
	assert.Equal(t, "12345", *view.Provider.UserID)
	assert.Equal(t, "tok", *view.Provider.Authentication.AccessToken)

	first, err := json.Marshal(FormatProvider(up))
	require.NoError(t, err)
	second, err := json.Marshal(FormatProvider(up))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "output must be byte-identical")
	assert.NotContains(t, string(first), "secret")
}

func TestFormatProvider_MissingAccount(t *testing.T) {
	view := FormatProvider(&entity.UserProvider{ID: "x", Provider: entity.Facebook})

	assert.Equal(t, "undefined", view.Provider.Username)
	assert.Equal(t, "undefined", *view.Provider.FullName)
	assert.Nil(t, view.Provider.Authentication.AccessToken)
}
