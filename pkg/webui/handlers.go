package webui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
	"github.com/otherjamesbrown/azurely-cli/pkg/buildinfo"
	"github.com/otherjamesbrown/azurely-cli/pkg/logging"
	"github.com/otherjamesbrown/azurely-cli/pkg/session"
)

func newID() string { return uuid.New().String() }

// languageOption is one entry of the language picker.
type languageOption struct {
	Tag      analysis.Language
	Label    string
	Selected bool
}

// page is the data handed to the index template.
type page struct {
	Snapshot  session.Snapshot
	Languages []languageOption
	Version   string
}

// sessionMiddleware resolves the caller's controller from the session cookie,
// starting a new session when the cookie is missing or has expired.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var (
			ctrl *session.Controller
			id   string
			ok   bool
		)
		if cookie, err := c.Cookie(CookieName); err == nil {
			id = cookie.Value
			ctrl, ok = s.sessions.Get(id)
		}
		if !ok {
			id, ctrl = s.sessions.Create()
			c.SetCookie(&http.Cookie{
				Name:     CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		req := c.Request()
		c.SetRequest(req.WithContext(logging.WithSessionID(req.Context(), id)))
		c.Set(controllerKey, ctrl)
		return next(c)
	}
}

func controllerFrom(c echo.Context) *session.Controller {
	return c.Get(controllerKey).(*session.Controller)
}

// wantsJSON reports whether the caller asked for a JSON reply instead of a redirect.
func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// respond answers a state-changing request: the snapshot for API callers,
// otherwise a redirect back to the page.
func respond(c echo.Context, ctrl *session.Controller) error {
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, ctrl.Snapshot())
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleIndex(c echo.Context) error {
	snap := controllerFrom(c).Snapshot()

	langs := make([]languageOption, 0, len(analysis.SupportedLanguages))
	for _, l := range analysis.SupportedLanguages {
		langs = append(langs, languageOption{
			Tag:      l,
			Label:    l.SelfName(),
			Selected: l == snap.Language,
		})
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Render(http.StatusOK, "index", page{
		Snapshot:  snap,
		Languages: langs,
		Version:   buildinfo.Version,
	})
}

func (s *Server) handleState(c echo.Context) error {
	return c.JSON(http.StatusOK, controllerFrom(c).Snapshot())
}

func (s *Server) handleSelectFile(c echo.Context) error {
	ctrl := controllerFrom(c)

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "reading upload").SetInternal(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "reading upload").SetInternal(err)
	}

	// Rejections are recorded as the session's validation message.
	_ = ctrl.SelectFile(analysis.CandidateFromBytes(fh.Filename, data))
	return respond(c, ctrl)
}

func (s *Server) handleClearFile(c echo.Context) error {
	ctrl := controllerFrom(c)
	ctrl.ClearFile()
	return respond(c, ctrl)
}

func (s *Server) handleLanguage(c echo.Context) error {
	ctrl := controllerFrom(c)

	lang, err := analysis.ParseLanguage(c.FormValue("language"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := ctrl.SetLanguage(lang); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return respond(c, ctrl)
}

func (s *Server) handleDragOver(c echo.Context) error {
	ctrl := controllerFrom(c)

	over, err := strconv.ParseBool(c.FormValue("over"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "over must be true or false")
	}
	ctrl.SetDragOver(over)
	return c.NoContent(http.StatusNoContent)
}

// handleSubmit starts the analysis. The request outlives this HTTP exchange,
// so it runs on a context detached from the handler's cancellation.
func (s *Server) handleSubmit(c echo.Context) error {
	ctrl := controllerFrom(c)
	if done := ctrl.Submit(context.WithoutCancel(c.Request().Context())); done == nil {
		s.logger.Debug("submit ignored", logging.F("state", ctrl.State().Kind.String()))
	}
	return respond(c, ctrl)
}

func (s *Server) handleReset(c echo.Context) error {
	ctrl := controllerFrom(c)
	ctrl.Reset()
	return respond(c, ctrl)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  buildinfo.Version,
		"sessions": s.sessions.Len(),
	})
}

// handleError renders echo errors as JSON for API callers and plain text otherwise.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("ui request failed", logging.Err(err), logging.F("path", c.Path()))
	}

	if wantsJSON(c) || strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = c.JSON(code, map[string]string{"detail": msg})
		return
	}
	_ = c.String(code, msg)
}
