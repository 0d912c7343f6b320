package osu

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"osudl/pkg/config"
)

// Cursor is the pagination position for a favourites_desc search. The next
// page holds sets with fewer favourites than FavouriteCount.
type Cursor struct {
	FavouriteCount int64
	ID             int64
}

// InitialCursor returns the cursor for the first page: every set ranks
// below it.
func InitialCursor() Cursor {
	return Cursor{FavouriteCount: math.MaxInt64, ID: 0}
}

// CursorEncoder turns a cursor into search query parameters. The site has
// accepted two encodings over time.
type CursorEncoder interface {
	Encode(c Cursor) url.Values
}

// ParamsCursor sends the cursor as cursor[favourite_count] and cursor[_id]
type ParamsCursor struct{}

func (ParamsCursor) Encode(c Cursor) url.Values {
	v := url.Values{}
	v.Set("cursor[favourite_count]", strconv.FormatInt(c.FavouriteCount, 10))
	v.Set("cursor[_id]", strconv.FormatInt(c.ID, 10))
	return v
}

// StringCursor sends the cursor as cursor_string, the standard base64 of
// {"favourite_count": N, "id": M}.
type StringCursor struct{}

func (StringCursor) Encode(c Cursor) url.Values {
	v := url.Values{}
	v.Set("cursor_string", EncodeCursorString(c))
	return v
}

// EncodeCursorString renders the cursor_string value. The JSON text keeps
// a space after each colon and comma, which is what the site issues itself.
func EncodeCursorString(c Cursor) string {
	raw := fmt.Sprintf(`{"favourite_count": %d, "id": %d}`, c.FavouriteCount, c.ID)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursorString parses a cursor_string value
func DecodeCursorString(s string) (Cursor, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor string encoding: %w", err)
	}
	var body struct {
		FavouriteCount int64 `json:"favourite_count"`
		ID             int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor string payload: %w", err)
	}
	return Cursor{FavouriteCount: body.FavouriteCount, ID: body.ID}, nil
}

// NewCursorEncoder selects the encoder for a config cursor format
func NewCursorEncoder(format string) (CursorEncoder, error) {
	switch format {
	case config.CursorFormatString, "":
		return StringCursor{}, nil
	case config.CursorFormatParams:
		return ParamsCursor{}, nil
	default:
		return nil, fmt.Errorf("unknown cursor format: %s", format)
	}
}
