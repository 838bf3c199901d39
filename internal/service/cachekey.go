package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/aprilhs/copyforge/internal/domain"
)

// cacheKeyPrefixLen bounds how much of the problem and differentiator text
// participates in the cache key. Edits past this prefix reuse the cached
// generation.
const cacheKeyPrefixLen = 50

// CacheKey computes the deterministic generation-cache key for a request.
// Only the normalized primary-anchor content, the problem and
// differentiator prefixes, and the rounded sampling parameters participate;
// all other fields are free to differ without changing the key.
func CacheKey(req *domain.CoreMessaging) string {
	anchor := strings.ToLower(strings.TrimSpace(req.PrimaryAnchor.Content))
	problem := runePrefix(strings.ToLower(req.Problem), cacheKeyPrefixLen)
	differentiator := runePrefix(strings.ToLower(req.Differentiator), cacheKeyPrefixLen)

	payload := fmt.Sprintf("%s|%s|%s|%.1f|%.1f",
		anchor,
		problem,
		differentiator,
		roundTenth(req.Settings.Temperature),
		roundTenth(req.Settings.TopP),
	)

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ContentHash computes the embedding-cache key for a piece of text:
// SHA-256 of the lower-cased, trimmed input.
func ContentHash(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// roundTenth rounds a sampling parameter to the nearest 0.1 bucket.
func roundTenth(v float32) float32 {
	return float32(math.Round(float64(v)*10) / 10)
}

// runePrefix returns the first n characters of s.
func runePrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
