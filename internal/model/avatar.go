package model

import (
	"fmt"
	"strconv"
	"strings"
)

// AvatarCount is the number of selectable avatars; ids run 1..AvatarCount.
const AvatarCount = 500

const spriteURLFormat = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%d.png"

// Avatar is one selectable icon.
type Avatar struct {
	ID        int    `json:"id"`
	SpriteURL string `json:"spriteUrl"`
}

// ValidAvatar reports whether id is in range.
func ValidAvatar(id int) bool {
	return id >= 1 && id <= AvatarCount
}

// SpriteURL returns the image URL for an avatar id.
func SpriteURL(id int) string {
	return fmt.Sprintf(spriteURLFormat, id)
}

// SearchAvatars lists avatars whose decimal id contains search. An empty
// search returns all of them.
func SearchAvatars(search string) []Avatar {
	search = strings.TrimSpace(search)
	avatars := make([]Avatar, 0, AvatarCount)
	for id := 1; id <= AvatarCount; id++ {
		if search != "" && !strings.Contains(strconv.Itoa(id), search) {
			continue
		}
		avatars = append(avatars, Avatar{ID: id, SpriteURL: SpriteURL(id)})
	}
	return avatars
}
