package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supported holds the languages the synthesis backend ships voices for,
// in preference order. Everything else falls back to Chinese, which is
// what the source material is in.
var supported = []language.Tag{
	language.Chinese,
	language.English,
	language.Japanese,
	language.Korean,
	cantonese,
}

// cantonese has no predefined constant in x/text.
var cantonese = language.Make("yue")

var matcher = language.NewMatcher(supported)

// voices maps a matched base language and speaker gender to the voice
// names the CosyVoice-style synthesis endpoint understands.
var voices = map[string]map[Gender]string{
	"zh":  {Female: "中文女", Male: "中文男"},
	"en":  {Female: "英文女", Male: "英文男"},
	"ja":  {Male: "日语男"},
	"ko":  {Female: "韩语女"},
	"yue": {Female: "粤语女"},
}

// Gender selects between the paired voices a language may offer.
type Gender string

const (
	Female Gender = "female"
	Male   Gender = "male"
)

// Normalize parses an arbitrary language hint ("zh", "zh-CN", "chinese",
// "eng") into a canonical BCP 47 base code for one of the supported
// languages. Unrecognized or empty hints normalize to "zh".
func Normalize(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "zh"
	}
	tag, err := language.Parse(hint)
	if err != nil {
		tag = parseWord(hint)
	}
	matched, _, confidence := matcher.Match(tag)
	if confidence == language.No {
		return "zh"
	}
	base, _ := matched.Base()
	code := base.String()
	if _, ok := voices[code]; !ok {
		return "zh"
	}
	return code
}

// Voice returns the synthesis voice name for a language hint and gender.
// When the language has no voice of the requested gender, the other
// gender's voice for that language is returned instead.
func Voice(hint string, gender Gender) string {
	set := voices[Normalize(hint)]
	if name, ok := set[gender]; ok {
		return name
	}
	for _, name := range set {
		return name
	}
	return voices["zh"][Female]
}

// IsVoice reports whether name is a voice the synthesis backend accepts.
func IsVoice(name string) bool {
	for _, set := range voices {
		for _, v := range set {
			if v == name {
				return true
			}
		}
	}
	return false
}

// DisplayName renders a human-readable English name for a language hint,
// for logs and the styles listing. Unparseable hints are returned as-is.
func DisplayName(hint string) string {
	tag, err := language.Parse(strings.TrimSpace(hint))
	if err != nil {
		tag = parseWord(hint)
		if tag == language.Und {
			return hint
		}
	}
	return display.English.Languages().Name(tag)
}

// parseWord maps full word forms that language.Parse rejects.
func parseWord(hint string) language.Tag {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "chinese", "mandarin":
		return language.Chinese
	case "english":
		return language.English
	case "japanese":
		return language.Japanese
	case "korean":
		return language.Korean
	case "cantonese":
		return cantonese
	default:
		return language.Und
	}
}
