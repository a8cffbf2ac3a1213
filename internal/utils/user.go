package utils

import (
	"math/rand"
)

var defaultAvatars = []string{"📚", "🐼", "🦊", "🐨", "🐸", "🦉", "🐯", "🐱", "🐶", "🌸", "⭐", "🔥"}

// GetRandomEmoji 返回一个随机 emoji 用于默认头像
func GetRandomEmoji() string {
	return defaultAvatars[rand.Intn(len(defaultAvatars))]
}
