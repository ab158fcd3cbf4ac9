package server

import (
	"encoding/xml"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mgpai22/danmaku/internal/config"
	"github.com/mgpai22/danmaku/internal/danmaku"
)

const assContentType = "text/x-ssa; charset=utf-8"

// Health handles liveness checks
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Convert turns the XML request body into an ASS script. Query parameters
// override the configured conversion defaults.
func Convert(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := convertSettings(deps.Defaults, c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cfg, err := settings.Danmaku()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		doc, err := danmaku.ConvertXML(c.Request.Context(), c.Request.Body, cfg, deps.Measurer)
		if err != nil {
			_ = c.Error(err)
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.Header("X-Danmaku-Emitted", strconv.Itoa(doc.Stats.Emitted))
		c.Header("X-Danmaku-Dropped", strconv.Itoa(doc.Stats.Dropped))
		c.Header("X-Danmaku-Blocked", strconv.Itoa(doc.Stats.Blocked))
		c.Data(http.StatusOK, assContentType, []byte(doc.String()))
	}
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	var syntaxErr *xml.SyntaxError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, danmaku.ErrMalformedRecord),
		errors.Is(err, danmaku.ErrInvalidConfig),
		errors.Is(err, danmaku.ErrUnknownStyle),
		errors.Is(err, danmaku.ErrUnsupportedMotionType):
		return http.StatusBadRequest
	case errors.As(err, &syntaxErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func convertSettings(defaults config.ConvertConfig, c *gin.Context) (config.ConvertConfig, error) {
	settings := defaults

	if v, ok := c.GetQuery("duration"); ok {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return settings, &danmaku.ConfigError{Field: "duration", Reason: "must be a number of seconds"}
		}
		settings.Duration = d
	}
	if v, ok := c.GetQuery("width"); ok {
		w, err := strconv.Atoi(v)
		if err != nil {
			return settings, &danmaku.ConfigError{Field: "width", Reason: "must be an integer"}
		}
		settings.Width = w
	}
	if v, ok := c.GetQuery("height"); ok {
		h, err := strconv.Atoi(v)
		if err != nil {
			return settings, &danmaku.ConfigError{Field: "height", Reason: "must be an integer"}
		}
		settings.Height = h
	}
	if v, ok := c.GetQuery("alpha"); ok {
		a, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return settings, &danmaku.ConfigError{Field: "alpha", Reason: "must be a number"}
		}
		settings.Alpha = a
	}
	if v, ok := c.GetQuery("title"); ok {
		settings.Title = v
	}
	if v, ok := c.GetQuery("policy"); ok {
		settings.Policy = v
	}
	if v, ok := c.GetQueryArray("block"); ok {
		settings.Block = v
	}

	return settings, nil
}
