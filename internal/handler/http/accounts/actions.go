package accounts

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"feedient/internal/handler/http/respond"
	"feedient/internal/provider"
)

// Do runs a write action as the account.
// @Summary      Run action
// @Description  Runs a provider action such as compose, like or comment. Pictures are sent as a multipart "picture" file.
// @Tags         accounts
// @Security     BearerAuth
// @Accept       x-www-form-urlencoded
// @Accept       multipart/form-data
// @Produce      json
// @Param        id      path     string true  "Account id"
// @Param        action  path     string true  "Action name"
// @Param        picture formData file   false "Picture for composeWithPicture"
// @Success      200 {object} provider.ActionResult
// @Failure      400 {object} map[string]string "Missing fields or message too long"
// @Failure      404 {object} map[string]string "Account or action not found"
// @Router       /v1/accounts/{id}/actions/{action} [post]
func (h *Handler) Do(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	payload, err := h.decodeAction(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.Svc.Do(r.Context(), userID, r.PathValue("id"), provider.ActionName(r.PathValue("action")), payload)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) decodeAction(r *http.Request) (provider.ActionPayload, error) {
	payload := provider.ActionPayload{Fields: map[string]string{}}

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		limit := h.MaxUpload
		if limit <= 0 {
			limit = DefaultMaxUpload
		}
		if err := r.ParseMultipartForm(limit); err != nil {
			return payload, errors.New("invalid multipart body")
		}
		pic, err := readPicture(r)
		if err != nil {
			return payload, err
		}
		payload.Picture = pic
	} else if err := r.ParseForm(); err != nil {
		return payload, errors.New("invalid form body")
	}

	for key, values := range r.PostForm {
		if len(values) > 0 {
			payload.Fields[key] = values[0]
		}
	}
	return payload, nil
}

func readPicture(r *http.Request) (*provider.Attachment, error) {
	file, header, err := r.FormFile("picture")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("invalid picture")
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("invalid picture")
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &provider.Attachment{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}
