package mediatypes

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MediaType classifies a filesystem entry by extension.
type MediaType string

const (
	// TypeVideo is a playable video file.
	TypeVideo MediaType = "video"
	// TypeAudio is an audio file.
	TypeAudio MediaType = "audio"
	// TypeSubtitle is an external subtitle file.
	TypeSubtitle MediaType = "subtitle"
	// TypeOther is anything the catalog does not classify.
	TypeOther MediaType = "other"
)

// VideoExtensions maps file extensions to whether they are recognized video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
	".iso":  true,
}

// AudioExtensions maps file extensions to whether they are recognized audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".wav":  true,
	".wma":  true,
}

// SubtitleExtensions maps file extensions to whether they are recognized subtitle formats.
var SubtitleExtensions = map[string]bool{
	".srt": true,
	".sub": true,
	".ass": true,
	".ssa": true,
	".vtt": true,
}

// multiPartPattern matches the stem suffix of a split media file,
// e.g. "movie-cd1.mkv", "movie part 2.avi", "movie_disc3.mp4".
var multiPartPattern = regexp.MustCompile(`(?i)[ _.-](cd|dvd|disc|disk|part|pt)[ _.-]?\d+$`)

// GetType returns the MediaType for a file extension. The extension should
// be lowercase and include the leading dot (e.g. ".mkv").
func GetType(ext string) MediaType {
	switch {
	case VideoExtensions[ext]:
		return TypeVideo
	case AudioExtensions[ext]:
		return TypeAudio
	case SubtitleExtensions[ext]:
		return TypeSubtitle
	default:
		return TypeOther
	}
}

// IsVideoFile reports whether the file name has a recognized video extension.
func IsVideoFile(name string) bool {
	return GetType(strings.ToLower(filepath.Ext(name))) == TypeVideo
}

// IsMultiPart reports whether the file name carries a multi-part suffix
// (cd1, part2, disc 3, ...). Directories containing only multi-part files
// are treated as containers and never resolved as standalone items.
func IsMultiPart(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return multiPartPattern.MatchString(stem)
}
