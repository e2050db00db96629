package handlers

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// respondCacheable sends a success envelope with an ETag and answers 304
// when If-None-Match already names it. Task data is per caller, so only the
// client may keep a copy and it has to revalidate.
func respondCacheable(ctx *gin.Context, message string, data interface{}) {
	body, err := json.Marshal(Envelope{Success: true, Message: message, Data: data})
	if err != nil {
		RespondSuccess(ctx, http.StatusOK, message, data)
		return
	}

	tag := entityTag(body)

	h := ctx.Writer.Header()
	h.Set("Cache-Control", "private, no-cache")
	h.Add("Vary", "Authorization")
	h.Set("ETag", tag)

	if matchesAny(ctx.GetHeader("If-None-Match"), tag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// entityTag is a strong validator over the exact response bytes.
func entityTag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + base64.RawURLEncoding.EncodeToString(sum[:16]) + `"`
}

// matchesAny applies the weak comparison If-None-Match calls for.
func matchesAny(header, tag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == tag {
			return true
		}
	}
	return false
}
