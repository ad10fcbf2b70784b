package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Namespace TTLs.
const (
	RasterTTL   = 24 * time.Hour
	MetadataTTL = 7 * 24 * time.Hour
	ContractTTL = 24 * time.Hour
	CustomTTL   = 7 * 24 * time.Hour

	DefaultRasterCap = 100
)

// RenderTTL is the memory lifetime of a render, by token id range.
func RenderTTL(tokenID int) time.Duration {
	switch {
	case tokenID >= 1 && tokenID <= 9999:
		return 24 * time.Hour
	case tokenID >= 30000 && tokenID <= 35000:
		return 48 * time.Hour
	case tokenID == 262144:
		return 48 * time.Hour
	}
	return time.Hour
}

// RasterKey is the raster namespace key of a vector document.
func RasterKey(vector []byte, width int) string {
	sum := md5.Sum(vector)
	return hex.EncodeToString(sum[:]) + ":" + strconv.Itoa(width)
}

// ContractKey joins a trait source read into a contract namespace key.
func ContractKey(source, method string, args ...any) string {
	parts := make([]string, 0, len(args)+2)
	parts = append(parts, source, method)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

// CustomKey names a render of explicit trait ids for a token. The ids are
// sorted numerically so equal selections share a key.
func CustomKey(tokenID int, traitIDs []string) string {
	ids := slices.Clone(traitIDs)
	slices.SortFunc(ids, func(a, b string) int {
		x, errA := strconv.Atoi(a)
		y, errB := strconv.Atoi(b)
		if errA != nil || errB != nil {
			return strings.Compare(a, b)
		}
		return x - y
	})
	return fmt.Sprintf("%d_custom_%s", tokenID, strings.Join(ids, "-"))
}

// MetadataKey names the cached metadata of a trait.
func MetadataKey(traitID string) string {
	return "traits/" + traitID + ".json"
}

// keyMentionsToken reports whether a contract key carries the token id as
// an argument.
func keyMentionsToken(key string, tokenID int) bool {
	id := strconv.Itoa(tokenID)
	return strings.Contains(key, ":"+id+":") || strings.HasSuffix(key, ":"+id)
}

// renderKeyToken parses the token id prefix of a render key.
func renderKeyToken(key string) (int, bool) {
	head, _, ok := strings.Cut(key, "_")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(head)
	return id, err == nil
}

// contractKeyTokens returns every numeric argument of a contract key.
func contractKeyTokens(key string) []int {
	parts := strings.Split(key, ":")
	var ids []int
	for _, p := range parts[min(2, len(parts)):] {
		if id, err := strconv.Atoi(p); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
