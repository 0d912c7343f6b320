// Package storage maps beatmap sets onto the local library directory.
//
// A set counts as present when either "<root>/<id> <artist> - <title>" is a
// directory (an imported, extracted set) or the same name with ".osz" is a
// regular file (a downloaded archive). The check is read-only; nothing is
// cached between calls.
//
// Archives are written atomically through a temporary file and rename. All
// failures are returned as io-typed errors from osudl/pkg/errors.
package storage
