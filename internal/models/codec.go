package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// SongFromMap decodes a song document. It reports false for documents without a string title or without a content field.
func SongFromMap(id string, data map[string]any) (Song, bool) {
	title, ok := data["title"].(string)
	if !ok {
		return Song{}, false
	}
	content, ok := data["content"]
	if !ok {
		return Song{}, false
	}
	text, _ := content.(string)

	return Song{
		ID:        id,
		Title:     title,
		Content:   text,
		Timestamp: getInt64(data, "timestamp"),
		OwnerUID:  getString(data, "userId"),
		Source:    getString(data, "_source"),
		FromUID:   getString(data, "_fromUid"),
	}, true
}

// ToMap encodes the stored fields of a song.
func (s Song) ToMap() map[string]any {
	out := map[string]any{
		"title":     s.Title,
		"content":   s.Content,
		"timestamp": s.Timestamp,
		"userId":    s.OwnerUID,
	}
	if s.Source != "" {
		out["_source"] = s.Source
	}
	if s.FromUID != "" {
		out["_fromUid"] = s.FromUID
	}
	return out
}

// PlaylistFromMap decodes a playlist document owned by ownerUID.
func PlaylistFromMap(id, ownerUID string, data map[string]any) Playlist {
	p := Playlist{
		ID:             id,
		OwnerUID:       ownerUID,
		Name:           getString(data, "name"),
		Notes:          getString(data, "notes"),
		CreatedByShare: getBool(data, "createdByShare"),
		CreatedAt:      getTime(data, "createdAt"),
		SongIDs:        getStrings(data, "songs"),
	}
	if from, ok := data["from"].(map[string]any); ok {
		p.From = &Sender{
			UID:         getString(from, "uid"),
			Email:       getString(from, "email"),
			DisplayName: getString(from, "displayName"),
		}
	}
	return p
}

// ToMap encodes the descriptive fields of a playlist. Timestamps and the legacy songs array are written separately.
func (p Playlist) ToMap() map[string]any {
	out := map[string]any{
		"name":  p.Name,
		"notes": p.Notes,
	}
	if p.From != nil {
		out["from"] = p.From.ToMap()
	}
	if p.CreatedByShare {
		out["createdByShare"] = true
	}
	return out
}

// ToMap encodes a sender as the nested "from" object.
func (s Sender) ToMap() map[string]any {
	return map[string]any{
		"uid":         s.UID,
		"email":       s.Email,
		"displayName": s.DisplayName,
	}
}

// EntryFromMap decodes an entry document whose id is the song id.
func EntryFromMap(songID string, data map[string]any) Entry {
	return Entry{
		SongID:    songID,
		Order:     getInt(data, "order"),
		Transpose: getInt(data, "transpose"),
	}
}

// ToMap encodes an entry.
func (e Entry) ToMap() map[string]any {
	return map[string]any{
		"order":     e.Order,
		"transpose": e.Transpose,
	}
}

// GrantFromMap decodes a grant document.
func GrantFromMap(data map[string]any) Grant {
	return Grant{
		OwnerUID:     getString(data, "ownerUid"),
		PlaylistID:   getString(data, "playlistId"),
		PlaylistName: getString(data, "playlistName"),
		Role:         ParseRole(getString(data, "role")),
		From: Sender{
			UID:         getString(data, "fromUid"),
			Email:       getString(data, "fromEmail"),
			DisplayName: getString(data, "fromDisplayName"),
		},
	}
}

// ToMap encodes a grant.
func (g Grant) ToMap() map[string]any {
	return map[string]any{
		"ownerUid":        g.OwnerUID,
		"playlistId":      g.PlaylistID,
		"playlistName":    g.PlaylistName,
		"role":            string(g.Role),
		"fromUid":         g.From.UID,
		"fromEmail":       g.From.Email,
		"fromDisplayName": g.From.DisplayName,
	}
}

// LiveStateFromMap decodes the live session document. A nil map decodes to an inactive session.
func LiveStateFromMap(data map[string]any) LiveState {
	if data == nil {
		return LiveState{}
	}
	return LiveState{
		IsActive:    getBool(data, "isActive"),
		SongID:      getString(data, "currentSongId"),
		SongTitle:   getString(data, "currentSongTitle"),
		SongContent: getString(data, "currentSongContent"),
		Transpose:   getInt(data, "transpose"),
		UpdatedAt:   getTime(data, "updatedAt"),
	}
}

// ToMap encodes the song fields of the live state. isActive and updatedAt are written by the broadcaster.
func (s LiveState) ToMap() map[string]any {
	return map[string]any{
		"currentSongId":      s.SongID,
		"currentSongTitle":   s.SongTitle,
		"currentSongContent": s.SongContent,
		"transpose":          s.Transpose,
	}
}

func getString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func getBool(data map[string]any, key string) bool {
	b, _ := data[key].(bool)
	return b
}

func getInt(data map[string]any, key string) int {
	return int(getInt64(data, key))
}

// getInt64 accepts the integer shapes produced by the memory store, the firestore client and JSON decoding.
func getInt64(data map[string]any, key string) int64 {
	switch v := data[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(math.Round(v))
	case float32:
		return int64(math.Round(float64(v)))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(math.Round(f))
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func getTime(data map[string]any, key string) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func getStrings(data map[string]any, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func getMaps(data map[string]any, key string) []map[string]any {
	switch v := data[key].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}
