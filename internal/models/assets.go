package models

import (
	"path"
	"strings"
)

// AssetPaths renders the fixed naming contract the presentation layer
// resolves: images at /{category}/{subcategory}/{asset}.png, the target word
// at /{category}/{subcategory}/{subcategory}.{ext}, and one shared prompt
// clip.
type AssetPaths struct {
	Root       string
	AudioExt   string
	PromptClip string
}

func (p AssetPaths) Image(category, subcategory, asset string) string {
	return p.join(category, subcategory, asset+".png")
}

func (p AssetPaths) WordClip(category, subcategory string) string {
	ext := strings.TrimPrefix(p.AudioExt, ".")
	if ext == "" {
		ext = "m4a"
	}
	return p.join(category, subcategory, subcategory+"."+ext)
}

func (p AssetPaths) Prompt() string {
	if p.PromptClip == "" {
		return "/what_is_this.m4a"
	}
	return p.PromptClip
}

func (p AssetPaths) join(parts ...string) string {
	root := strings.TrimSuffix(p.Root, "/")
	return root + "/" + path.Join(parts...)
}

// BaseName strips the variant suffix of an asset name: a trailing
// _<color>_<n> ("pants_blue_1" -> "pants") or, for two-part names, a
// trailing _<n> ("tomatoes_1" -> "tomatoes"). Other names are returned
// unchanged.
func BaseName(name string) string {
	parts := strings.Split(name, "_")
	if !isDigits(parts[len(parts)-1]) {
		return name
	}
	switch {
	case len(parts) >= 3:
		return strings.Join(parts[:len(parts)-2], "_")
	case len(parts) == 2:
		return parts[0]
	}
	return name
}

// Recolor rebuilds an asset name as <base>_<color>_1.
func Recolor(name, color string) string {
	return BaseName(name) + "_" + color + "_1"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
