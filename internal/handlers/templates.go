package handlers

import (
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"forumhub/internal/models"

	"github.com/gin-contrib/multitemplate"
)

// adminViews are registered under "admin/<name>" so handlers render them by that key.
var adminViews = []string{
	"login.html",
	"dashboard.html",
	"users.html",
	"posts.html",
	"comments.html",
	"categories.html",
	"error.html",
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo":     timeAgo,
		"statusLabel": statusLabel,
	}
}

// LoadTemplates pairs every console view with the shared layout.
func LoadTemplates(templatesDir string) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(filepath.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts found in %s", templatesDir)
	}

	funcs := templateFuncs()
	for _, view := range adminViews {
		files := append(append([]string{}, layouts...), filepath.Join(templatesDir, "views", "admin", view))
		r.AddFromFilesFuncs("admin/"+view, funcs, files...)
	}
	return r, nil
}

func timeAgo(t time.Time) string {
	seconds := int(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	case seconds < 2592000:
		return fmt.Sprintf("%dd ago", seconds/86400)
	case seconds < 31536000:
		return fmt.Sprintf("%dmo ago", seconds/2592000)
	}
	return fmt.Sprintf("%dy ago", seconds/31536000)
}

func statusLabel(status int) string {
	switch status {
	case models.UserStatusMuted:
		return "muted"
	case models.UserStatusBanned:
		return "banned"
	}
	return "normal"
}
