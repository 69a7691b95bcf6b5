package main

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Short date layouts per supported display locale. The first entry is the
// fallback for unmatched Accept-Language headers.
var dateLocales = []struct {
	tag    language.Tag
	layout string
}{
	{language.AmericanEnglish, "1/2/2006"},
	{language.BritishEnglish, "02/01/2006"},
	{language.German, "2.1.2006"},
	{language.French, "02/01/2006"},
	{language.Spanish, "2/1/2006"},
	{language.Dutch, "2-1-2006"},
	{language.Polish, "2.01.2006"},
	{language.Japanese, "2006/1/2"},
}

var dateMatcher = language.NewMatcher(func() []language.Tag {
	tags := make([]language.Tag, len(dateLocales))
	for i, l := range dateLocales {
		tags[i] = l.tag
	}
	return tags
}())

var languageNames = display.Tags(language.English)

// Locale formats presentation-only values for one reader.
type Locale struct {
	Tag        language.Tag
	dateLayout string
}

// LocaleFor picks the closest supported locale for an Accept-Language value.
func LocaleFor(acceptLanguage string) Locale {
	_, i := language.MatchStrings(dateMatcher, acceptLanguage)
	return Locale{Tag: dateLocales[i].tag, dateLayout: dateLocales[i].layout}
}

// LocaleForEnv picks a locale from the POSIX LC_ALL, LC_TIME or LANG
// variables, e.g. "de_DE.UTF-8".
func LocaleForEnv() Locale {
	for _, name := range []string{"LC_ALL", "LC_TIME", "LANG"} {
		if v := os.Getenv(name); v != "" {
			return LocaleFor(posixLocaleTag(v))
		}
	}
	return LocaleFor("")
}

func posixLocaleTag(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "C" || v == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(v, "_", "-")
}

// Date renders the episode's publish date, or the raw pubDate text when it
// couldn't be parsed.
func (l Locale) Date(e Episode) string {
	t, ok := e.Published()
	if !ok {
		return e.PubDate
	}
	return t.Format(l.dateLayout)
}

// LanguageName turns a feed language code such as "en-us" into its English
// name. Unknown codes come back unchanged.
func (l Locale) LanguageName(code *string) string {
	if code == nil {
		return ""
	}
	tag, err := language.Parse(*code)
	if err != nil {
		return *code
	}
	if name := languageNames.Name(tag); name != "" {
		return name
	}
	return *code
}
