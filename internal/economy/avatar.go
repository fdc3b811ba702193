package economy

import (
	"net/url"
	"strings"

	"github.com/talgya/pawnshop/internal/shop"
)

const (
	avatarSeedLen = 13
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// PortraitURL is the DiceBear portrait for a style and seed.
func PortraitURL(style, seed string) string {
	if style == "" {
		style = shop.DefaultAvatarStyle
	}
	return "https://api.dicebear.com/9.x/" + url.PathEscape(style) + "/svg?seed=" + url.QueryEscape(seed)
}

func (g *Generator) avatarSeed() string {
	var b strings.Builder
	b.Grow(avatarSeedLen)
	for i := 0; i < avatarSeedLen; i++ {
		b.WriteByte(base36[g.src.Intn(len(base36))])
	}
	return b.String()
}

func (g *Generator) assignAvatar(c *shop.Customer, style string) {
	c.AvatarSeed = g.avatarSeed()
	c.PortraitURL = PortraitURL(style, c.AvatarSeed)
}
