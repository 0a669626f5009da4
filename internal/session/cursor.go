package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// pageKey is the keyset boundary of the last row returned by a page:
// the catalog orders by (start_time DESC, id DESC), so the next page is
// everything strictly below this pair.
type pageKey struct {
	StartUnixNano int64  `json:"s"`
	ID            string `json:"id"`
}

func (k pageKey) startTime() time.Time {
	return time.Unix(0, k.StartUnixNano).UTC()
}

// encodeCursor turns a page boundary into an opaque continuation token.
func encodeCursor(k pageKey) string {
	data, _ := json.Marshal(k)
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor parses a continuation token. Any malformed token is an error;
// the catalog maps that to an empty page rather than failing the call.
func decodeCursor(token string) (pageKey, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return pageKey{}, fmt.Errorf("decode cursor: %w", err)
	}
	var k pageKey
	if err := json.Unmarshal(data, &k); err != nil {
		return pageKey{}, fmt.Errorf("unmarshal cursor: %w", err)
	}
	if k.ID == "" || k.StartUnixNano == 0 {
		return pageKey{}, fmt.Errorf("incomplete cursor")
	}
	return k, nil
}
