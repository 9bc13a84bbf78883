package identity

import "net/url"

const avatarBaseURL = "https://ui-avatars.com/api/"

// DefaultAvatarURL returns the generated avatar used when a user has no
// profile picture. The URL depends only on name.
func DefaultAvatarURL(name string) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("background", "random")
	q.Set("color", "fff")
	q.Set("size", "128")
	return avatarBaseURL + "?" + q.Encode()
}
