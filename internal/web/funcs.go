package web

import (
	"html/template"
	"regexp"
	"time"

	"edu-portal/internal/models"
)

var imageTag = regexp.MustCompile(`\[img\](https?://[^\s<]+)`)

// RenderImages escapes text and then turns "[img]<url>" markers into inline
// images. Escaping first keeps lesson content from injecting markup.
func RenderImages(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	return template.HTML(imageTag.ReplaceAllString(escaped,
		`<img src="$1" alt="Lesson image" class="lesson-image" loading="lazy">`))
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"render_images": RenderImages,
		"department":    models.DepartmentLabel,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02.01.2006 15:04")
		},
		"percent": func(score, total int) int {
			if total <= 0 {
				return 0
			}
			return score * 100 / total
		},
	}
}
