package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "received").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var catalogs = map[string]map[string]string{
	"en": {
		"invalid_type":    "expected {expected}, received {received}",
		"required":        "required",
		"invalid_literal": "invalid literal value, expected {expected}",
		"invalid_enum":    "invalid enum value, expected one of {expected}",
		"invalid_union":   "invalid input",
		"too_small":       "expected at least {min} items",
		"too_big":         "expected at most {max} items",
		"unknown_key":     "unrecognized key",
		"custom":          "invalid input",
		"duplicate":       "duplicate value {key}",
		"not_found":       "document not found",
	},
	"ja": {
		"invalid_type":    "型が不正です（期待: {expected}、実際: {received}）",
		"required":        "必須プロパティが不足しています",
		"invalid_literal": "リテラル値が不正です（期待: {expected}）",
		"invalid_enum":    "列挙値が不正です（候補: {expected}）",
		"invalid_union":   "どの候補にも一致しません",
		"too_small":       "要素数が少なすぎます（最小: {min}）",
		"too_big":         "要素数が多すぎます（最大: {max}）",
		"unknown_key":     "未知のキーです",
		"custom":          "入力が不正です",
		"duplicate":       "値が重複しています（{key}）",
		"not_found":       "ドキュメントが見つかりません",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	cat, ok := catalogs[t.lang]
	if !ok {
		cat = catalogs["en"]
	}
	msg, ok := cat[code]
	if !ok {
		return code
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
