package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"sort"

	"github.com/gofiber/fiber/v2"
)

// ValidateGatewaySignature validates that a USSD callback really came from
// the gateway. The signature is HMAC-SHA256 over the full callback URL plus
// the sorted form parameters, keyed with the shared gateway API key.
func ValidateGatewaySignature() fiber.Handler {
	return func(c *fiber.Ctx) error {
		gatewaySignature := c.Get("X-Gateway-Signature")
		if gatewaySignature == "" {
			return c.Status(401).JSON(fiber.Map{
				"error": "Missing gateway signature",
			})
		}

		apiKey := os.Getenv("AT_API_KEY")
		if apiKey == "" {
			// Log error but don't expose to client
			fmt.Println("ERROR: AT_API_KEY not set")
			return c.Status(500).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		fullURL := getFullURL(c)

		formParams := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			formParams[string(key)] = string(value)
		})

		expectedSignature := calculateGatewaySignature(apiKey, fullURL, formParams)

		if !hmac.Equal([]byte(gatewaySignature), []byte(expectedSignature)) {
			return c.Status(401).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// getFullURL constructs the full URL for the request
func getFullURL(c *fiber.Ctx) string {
	protocol := "https"
	if c.Protocol() == "http" {
		protocol = "http"
	}

	host := c.Hostname()
	path := c.Path()

	return fmt.Sprintf("%s://%s%s", protocol, host, path)
}

// calculateGatewaySignature calculates the expected signature
func calculateGatewaySignature(apiKey, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := url
	for _, k := range keys {
		data += k + params[k]
	}

	h := hmac.New(sha256.New, []byte(apiKey))
	h.Write([]byte(data))

	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
