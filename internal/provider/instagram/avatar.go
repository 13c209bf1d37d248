package instagram

import (
	"regexp"
	"strings"

	"feedient/internal/provider"
)

const (
	legacyImagesPrefix = "http://images.ak.instagram.com/profiles/"
	unknownAvatar      = "app/images/unknown-avatar.jpg"
)

var legacyPhotosHost = regexp.MustCompile(`^http://photos-([a-h])\.ak\.instagram\.com/`)

// avatarURL routes plain-http legacy avatars through the HTTPS image proxy.
// Avatars on akamaihd.net are served as is; every other host, https ones
// included, gets the placeholder avatar.
func avatarURL(proxy provider.ImageProxy, avatar string) string {
	switch {
	case strings.Contains(avatar, "akamaihd.net"):
		return avatar
	case strings.HasPrefix(avatar, legacyImagesPrefix) && proxy.AvatarsImages != "":
		return proxy.AvatarsImages + strings.TrimPrefix(avatar, legacyImagesPrefix)
	}

	if m := legacyPhotosHost.FindStringSubmatch(avatar); m != nil {
		if prefix := proxy.AvatarsPhotos[m[1]]; prefix != "" {
			return prefix + strings.TrimPrefix(avatar, m[0])
		}
	}
	return proxy.ClientURL + unknownAvatar
}
