package tumblr

// Folder names under the output directory
const (
	PicsFolder   = "pics"
	VideosFolder = "videos"
)

// MediaURLs lists the media a post carries: the original-size URL of every
// photo in order, the video URL, or nothing for any other kind
func MediaURLs(p Post) []string {
	switch p.Kind() {
	case KindPhoto:
		urls := make([]string, 0, len(p.Photos))
		for _, photo := range p.Photos {
			if photo.OriginalSize.URL != "" {
				urls = append(urls, photo.OriginalSize.URL)
			}
		}
		return urls
	case KindVideo:
		if p.VideoURL != nil && *p.VideoURL != "" {
			return []string{*p.VideoURL}
		}
		return nil
	case KindText, KindOther:
		return nil
	default:
		return nil
	}
}

// MediaFolder returns the folder a kind's media is stored in, or "" for
// kinds without downloadable media
func MediaFolder(k Kind) string {
	switch k {
	case KindPhoto:
		return PicsFolder
	case KindVideo:
		return VideosFolder
	case KindText, KindOther:
		return ""
	default:
		return ""
	}
}
