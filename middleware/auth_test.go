package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var testKey = []byte("test-secret-key")

func protectedHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, email, err := GetUserFromContext(r)
		if err != nil {
			t.Errorf("данные пользователя не попали в контекст: %v", err)
		}
		if userID != 7 || email != "user@example.com" {
			t.Errorf("неверные данные в контексте: %d, %q", userID, email)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	token, err := GenerateToken(testKey, 7, "user@example.com", "ROLE_USER", time.Hour)
	if err != nil {
		t.Fatalf("не удалось создать токен: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/cards/my-cards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	AuthMiddleware(testKey)(protectedHandler(t)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("статус ответа: получено %d, ожидалось 200", rr.Code)
	}
	if got := req.Header.Get("X-User-ID"); got != "7" {
		t.Errorf("заголовок X-User-ID: %q", got)
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/cards/my-cards", nil)
	rr := httptest.NewRecorder()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	AuthMiddleware(testKey)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("статус ответа: получено %d, ожидалось 401", rr.Code)
	}
	if called {
		t.Error("запрос без токена дошел до обработчика")
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/cards/my-cards", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("запрос с неверным токеном дошел до обработчика")
	})
	AuthMiddleware(testKey)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("статус ответа: получено %d, ожидалось 401", rr.Code)
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	token, err := GenerateToken(testKey, 7, "user@example.com", "ROLE_USER", -time.Hour)
	if err != nil {
		t.Fatalf("не удалось создать токен: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/cards/my-cards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("запрос с истекшим токеном дошел до обработчика")
	})
	AuthMiddleware(testKey)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("статус ответа: получено %d, ожидалось 401", rr.Code)
	}
}

func TestRequireRole(t *testing.T) {
	adminToken, _ := GenerateToken(testKey, 1, "admin@example.com", "ROLE_ADMIN", time.Hour)
	userToken, _ := GenerateToken(testKey, 2, "user@example.com", "ROLE_USER", time.Hour)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := AuthMiddleware(testKey)(RequireRole("ROLE_ADMIN")(ok))

	// Администратор проходит
	req := httptest.NewRequest("GET", "/api/v1/admin/cards/all", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("администратор: статус %d, ожидалось 200", rr.Code)
	}

	// Обычный пользователь получает отказ
	req = httptest.NewRequest("GET", "/api/v1/admin/cards/all", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("пользователь: статус %d, ожидалось 403", rr.Code)
	}
}
