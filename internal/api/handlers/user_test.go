package handlers

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/afx-project/backend/internal/api/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// A failed user lookup can mean three different things: no authenticated
// subject, no matching row, or a database failure. Each maps to its own
// status code; a DB outage must not masquerade as an auth failure.
func TestCurrentUserErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing subject", middleware.ErrNoAuthID, fiber.StatusUnauthorized},
		{"unknown user", gorm.ErrRecordNotFound, fiber.StatusNotFound},
		{"database failure", errors.New("connection refused"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return currentUserError(c, tc.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.want {
				t.Fatalf("got status %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}
