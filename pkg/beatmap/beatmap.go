package beatmap

import (
	"fmt"
	"strconv"
	"strings"
)

// ArchiveExt is the file extension of a downloaded beatmap set archive
const ArchiveExt = ".osz"

// illegalChars replaces characters that are not allowed in file names on
// common filesystems.
var illegalChars = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"/", "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// Set identifies one beatmap set as returned by the search API.
// Two sets are the same set when their IDs match.
type Set struct {
	ID     int64
	Artist string
	Title  string
}

// New builds a Set from the fields of a search record
func New(id int64, artist, title string) Set {
	return Set{ID: id, Artist: artist, Title: title}
}

// String returns the display name "{id} {artist} - {title}" made safe for
// use as a file name. It doubles as the library entry name.
func (s Set) String() string {
	return Sanitize(fmt.Sprintf("%d %s - %s", s.ID, s.Artist, s.Title))
}

// ArchiveName returns the file name of the downloaded archive
func (s Set) ArchiveName() string {
	return s.String() + ArchiveExt
}

// PagePath returns the site path of the beatmap set page
func (s Set) PagePath() string {
	return "/beatmapsets/" + strconv.FormatInt(s.ID, 10)
}

// DownloadPath returns the site path of the archive download
func (s Set) DownloadPath(noVideo bool) string {
	path := s.PagePath() + "/download"
	if noVideo {
		path += "?noVideo=1"
	}
	return path
}

// Sanitize replaces each of < > : " / \ | ? * with an underscore
func Sanitize(name string) string {
	return illegalChars.Replace(name)
}
