package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"askhub/internal/models"
	"askhub/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct{}

func (fakeAuth) Authenticate(_ context.Context, header string) (*services.APIKeyPrincipal, error) {
	switch header {
	case "Bearer good":
		return &services.APIKeyPrincipal{Name: "slack"}, nil
	case "Bearer bad":
		return nil, &services.Error{Kind: services.KindInvalidAPIKey, Message: "invalid"}
	}
	return nil, services.Unauthenticated("missing")
}

func TestAPIKeyRequired(t *testing.T) {
	r := gin.New()
	r.POST("/bot", APIKeyRequired(fakeAuth{}, zap.NewNop()), func(c *gin.Context) {
		p, _ := GetAPIKeyPrincipal(c)
		c.String(http.StatusOK, p.Name)
	})

	cases := []struct {
		header string
		status int
		code   string
	}{
		{"Bearer good", http.StatusOK, ""},
		{"Bearer bad", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"", http.StatusUnauthorized, "UNAUTHORIZED"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/bot", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tc.status {
			t.Fatalf("%q: expected %d, got %d", tc.header, tc.status, w.Code)
		}
		if tc.code == "" {
			if w.Body.String() != "slack" {
				t.Fatalf("expected principal name, got %q", w.Body.String())
			}
			continue
		}
		var body struct {
			Success bool `json:"success"`
			Error   struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Success || body.Error.Code != tc.code {
			t.Fatalf("%q: unexpected body %s", tc.header, w.Body.String())
		}
	}
}

type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, services.NotFound("user not found", nil)
}

func TestSessionUser(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin}
	member := &models.User{ID: uuid.New(), Email: "member@example.com", Role: models.RoleUser}
	users := fakeUsers{admin.ID: admin, member.ID: member}

	r := gin.New()
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("secret"))))
	r.Use(LoadUser(users, zap.NewNop()))
	r.POST("/login/:id", func(c *gin.Context) {
		id := uuid.MustParse(c.Param("id"))
		if err := Login(c, id); err != nil {
			t.Fatal(err)
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.String(http.StatusOK, u.Email)
	})
	r.GET("/admin", AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := do(http.MethodGet, "/me", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /me: expected 401, got %d", w.Code)
	}

	login := do(http.MethodPost, "/login/"+member.ID.String(), nil)
	cookies := login.Result().Cookies()
	if w := do(http.MethodGet, "/me", cookies); w.Code != http.StatusOK || w.Body.String() != member.Email {
		t.Fatalf("member /me: got %d %q", w.Code, w.Body.String())
	}
	if w := do(http.MethodGet, "/admin", cookies); w.Code != http.StatusForbidden {
		t.Fatalf("member /admin: expected 403, got %d", w.Code)
	}

	adminCookies := do(http.MethodPost, "/login/"+admin.ID.String(), nil).Result().Cookies()
	if w := do(http.MethodGet, "/admin", adminCookies); w.Code != http.StatusOK {
		t.Fatalf("admin /admin: expected 200, got %d", w.Code)
	}

	ghost := do(http.MethodPost, "/login/"+uuid.NewString(), nil).Result().Cookies()
	if w := do(http.MethodGet, "/me", ghost); w.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user: expected 401, got %d", w.Code)
	}
}
