package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// LikeMap is a per-post mapping from user id to like status, stored on the
// post as a single JSON column. Keys are decimal user ids; the map only ever
// holds true entries, absence means "not liked".
type LikeMap map[string]bool

// Key returns the map key for a user id.
func (LikeMap) Key(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// Liked reports whether the given user currently likes the post.
func (m LikeMap) Liked(userID uint) bool {
	return m[m.Key(userID)]
}

// Toggle flips the like state for the given user and reports the new state.
func (m LikeMap) Toggle(userID uint) bool {
	key := m.Key(userID)
	if m[key] {
		delete(m, key)
		return false
	}
	m[key] = true
	return true
}

// Value implements driver.Valuer so GORM persists the map as JSON.
func (m LikeMap) Value() (driver.Value, error) {
	if m == nil {
		m = LikeMap{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *LikeMap) Scan(src any) error {
	return scanJSON(src, m, "LikeMap")
}

// IDList is an ordered list of record ids stored as a single JSON column.
// Posts use it for their comment-id list, users for their friend list.
type IDList []uint

// Contains reports whether id is present in the list.
func (l IDList) Contains(id uint) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Without returns a copy of the list with every occurrence of id removed.
func (l IDList) Without(id uint) IDList {
	out := make(IDList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Value implements driver.Valuer.
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		l = IDList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *IDList) Scan(src any) error {
	return scanJSON(src, l, "IDList")
}

func scanJSON(src, dest any, typeName string) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %s", src, typeName)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
