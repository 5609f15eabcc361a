package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID pulls the user_id value that JWTAuth stored in the Echo
// context and renders it as a string for use in Redis keys. When no user
// is authenticated, "anon" is returned so guest traffic shares one bucket
// per IP.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from the Echo context. JWT
// numeric claims arrive as float64; strings are passed through. It
// returns "anon" when no user is authenticated.
func currentUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        if v != "" {
            return v
        }
    case float64:
        return strconv.FormatUint(uint64(v), 10)
    case uint64:
        return strconv.FormatUint(v, 10)
    case int64:
        return strconv.FormatInt(v, 10)
    case int:
        return strconv.Itoa(v)
    }
    return "anon"
}
