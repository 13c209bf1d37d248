package accounts

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"feedient/internal/domain/entity"
	"feedient/internal/handler/http/respond"
	"feedient/internal/provider"
	"feedient/internal/provider/registry"
)

// ProviderDTO describes one configured provider.
type ProviderDTO struct {
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
}

var capabilities = []registry.Capability{
	registry.CapabilityAuth,
	registry.CapabilityFeed,
	registry.CapabilityNotifications,
	registry.CapabilityPages,
	registry.CapabilityActions,
}

// ListProviders lists the providers accounts can be linked with.
// @Summary      List providers
// @Description  Lists every provider with the capabilities it supports
// @Tags         providers
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} ProviderDTO
// @Failure      401 {object} map[string]string
// @Router       /v1/providers [get]
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	names := h.Catalog.Providers()
	out := make([]ProviderDTO, 0, len(names))
	for _, name := range names {
		dto := ProviderDTO{Name: name.String(), Capabilities: []string{}}
		for _, c := range capabilities {
			if h.Catalog.Supports(name, c) {
				dto.Capabilities = append(dto.Capabilities, string(c))
			}
		}
		out = append(out, dto)
	}
	respond.JSON(w, http.StatusOK, out)
}

// RequestToken starts an OAuth1 handshake.
// @Summary      Start OAuth1 handshake
// @Description  Obtains a request token and the URL the user authorizes it at
// @Tags         providers
// @Security     BearerAuth
// @Produce      json
// @Param        provider path string true "Provider name"
// @Success      200 {object} provider.RequestToken
// @Failure      404 {object} map[string]string "Unknown provider"
// @Failure      502 {object} map[string]string "Provider error"
// @Router       /v1/providers/{provider}/request-token [get]
func (h *Handler) RequestToken(w http.ResponseWriter, r *http.Request) {
	name, err := entity.ParseProviderName(r.PathValue("provider"))
	if err != nil {
		fail(w, r, err)
		return
	}
	rt, err := h.Svc.RequestToken(r.Context(), name)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rt)
}

// Callback completes a handshake and links the resulting accounts.
// @Summary      Link accounts
// @Description  Completes the provider callback and links every account it yields. Accepts JSON or a form.
// @Tags         providers
// @Security     BearerAuth
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        provider path string true "Provider name"
// @Param        payload body provider.CallbackPayload true "Callback fields"
// @Success      201 {array} entity.ProviderView
// @Failure      400 {object} map[string]string "Missing fields"
// @Failure      401 {object} map[string]string "Provider rejected the credentials"
// @Failure      404 {object} map[string]string "Unknown provider"
// @Router       /v1/providers/{provider}/callback [post]
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	name, err := entity.ParseProviderName(r.PathValue("provider"))
	if err != nil {
		fail(w, r, err)
		return
	}
	payload, err := decodeCallback(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	views, err := h.Svc.Link(r.Context(), userID, name, payload)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, views)
}

func decodeCallback(r *http.Request) (provider.CallbackPayload, error) {
	var p provider.CallbackPayload
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			return p, errors.New("invalid JSON body")
		}
		return p, nil
	}

	if err := r.ParseForm(); err != nil {
		return p, errors.New("invalid form body")
	}
	p.Code = r.Form.Get("oauth_code")
	p.OAuthToken = r.Form.Get("oauth_token")
	p.OAuthSecret = r.Form.Get("oauth_secret")
	p.OAuthVerifier = r.Form.Get("oauth_verifier")
	p.RSSURL = r.Form.Get("rss_url")
	p.RSSName = r.Form.Get("rss_name")
	p.RSSFavicon = r.Form.Get("rss_favicon")
	return p, nil
}
