package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

type cookieManager struct {
	name   string
	path   string
	domain string
	maxAge time.Duration
	secure bool
}

func (m cookieManager) save(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(m.name, value, int(m.maxAge/time.Second), m.path, m.domain, m.secure, true)
}

// expire must use the same path and domain as save or the browser keeps
// the old cookie.
func (m cookieManager) expire(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(m.name, "", -1, m.path, m.domain, m.secure, true)
}
