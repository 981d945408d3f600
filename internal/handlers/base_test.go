package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"forumhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: post", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: admin only", services.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: liked", services.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: empty", services.ErrValidation), http.StatusBadRequest},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestRespondError_HidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestIsAllowedRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		site, mode string
		want       bool
	}{
		{"", "", true},
		{"same-origin", "no-cors", true},
		{"none", "navigate", true},
		{"cross-site", "navigate", true},
		{"cross-site", "no-cors", false},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/uploads/x.png", nil)
		if tc.site != "" {
			c.Request.Header.Set("Sec-Fetch-Site", tc.site)
		}
		c.Request.Header.Set("Sec-Fetch-Mode", tc.mode)
		assert.Equal(t, tc.want, isAllowedRequest(c), "%s/%s", tc.site, tc.mode)
	}
}

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "5m ago", timeAgo(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "2d ago", timeAgo(time.Now().Add(-49*time.Hour)))
}
