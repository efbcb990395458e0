package domain

// MediaType selects the temporary media kind accepted by media/upload.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVoice MediaType = "voice"
	MediaVideo MediaType = "video"
	MediaFile  MediaType = "file"
)

// ParseMediaType maps a string onto a MediaType, defaulting to file.
func ParseMediaType(s string) (MediaType, bool) {
	switch t := MediaType(s); t {
	case "":
		return MediaFile, true
	case MediaImage, MediaVoice, MediaVideo, MediaFile:
		return t, true
	}
	return "", false
}

// MediaUpload is the result of a temporary media upload. The media id is
// valid for three days on the platform side.
type MediaUpload struct {
	Type      MediaType `json:"type"`
	MediaID   string    `json:"media_id"`
	CreatedAt string    `json:"created_at"`
}
