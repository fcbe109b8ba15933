package routes

import (
	"bytes"
	"net/http"

	"profchat/profchat/utils/logging"
	"profchat/profchat/web"

	"go.uber.org/zap"
)

// UIHandler serves the browser chat page. The page asks /api/me who is
// signed in and hides the composer when sign-in is required.
func UIHandler(page web.Page) http.HandlerFunc {
	if page.Title == "" {
		page.Title = "Rate My Professor Assistant"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := web.Render(&buf, page); err != nil {
			logging.ErrorLogger.Error("render chat page", zap.Error(err))
			http.Error(w, "page unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}
