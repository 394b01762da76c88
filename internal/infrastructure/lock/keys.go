// Package lock provides KeyLocker implementations: an in-process one for a
// single binary and a Redis one for several processes sharing a database.
package lock

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// StockKey names the lock guarding one ingredient at one location
func StockKey(ingredientID, locationID uuid.UUID) string {
	return fmt.Sprintf("stock:%s:%s", ingredientID, locationID)
}

// OrderKey names the lock guarding one order's transitions and payments
func OrderKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s", orderID)
}

// RepairKey guards verification repairs
const RepairKey = "verification:repair"

// normalize sorts and dedupes keys so that every caller acquires them in
// the same order
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
