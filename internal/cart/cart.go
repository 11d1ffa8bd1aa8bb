// Package cart parses client-held cart payloads. The cart lives in the
// browser; the server reads it only at checkout and trusts nothing in it
// except product ids and quantities.
package cart

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/model"
)

// Two client storage schemas exist: V1 keys lines by product name with an
// embedded id field, V2 keys lines by product id. Payloads are migrated to
// the V2 shape on read; V1 is accepted only for carts created before the
// client switched schemas.

// Version tags the cart payload schema.
type Version int

const (
	V1 Version = 1 // name-keyed map: {"Mug": {"id": 3, "qty": 2}, ...}
	V2 Version = 2 // id-keyed list: [{"pid": 3, "quantity": 2}, ...]
)

type v1Line struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"qty"`
}

type v2Line struct {
	ProductID int64 `json:"pid"`
	Quantity  int   `json:"quantity"`
}

// Payload is a tagged client cart submission.
type Payload struct {
	Version Version         `json:"version"`
	Items   json.RawMessage `json:"items"`
}

// Normalize decodes a tagged payload into cart lines ordered by product id.
// Zero-quantity lines are dropped; negative quantities are rejected. A
// missing version tag is treated as V2, matching current clients.
func Normalize(p Payload) ([]model.CartLine, error) {
	switch p.Version {
	case V1:
		return normalizeV1(p.Items)
	case V2, 0:
		return normalizeV2(p.Items)
	default:
		return nil, fmt.Errorf("%w: unknown cart version %d", errs.ErrValidation, p.Version)
	}
}

func normalizeV1(raw json.RawMessage) ([]model.CartLine, error) {
	var m map[string]v1Line
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: bad v1 cart: %v", errs.ErrValidation, err)
	}
	lines := make([]model.CartLine, 0, len(m))
	for name, l := range m {
		if l.ID <= 0 {
			return nil, fmt.Errorf("%w: v1 line %q has no product id", errs.ErrValidation, name)
		}
		cl, keep, err := checkLine(l.ID, l.Quantity)
		if err != nil {
			return nil, err
		}
		if keep {
			lines = append(lines, cl)
		}
	}
	// map iteration order is random; pin the order for stable totals and tests
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return mergeDuplicates(lines), nil
}

func normalizeV2(raw json.RawMessage) ([]model.CartLine, error) {
	var ls []v2Line
	if err := json.Unmarshal(raw, &ls); err != nil {
		return nil, fmt.Errorf("%w: bad v2 cart: %v", errs.ErrValidation, err)
	}
	lines := make([]model.CartLine, 0, len(ls))
	for _, l := range ls {
		cl, keep, err := checkLine(l.ProductID, l.Quantity)
		if err != nil {
			return nil, err
		}
		if keep {
			lines = append(lines, cl)
		}
	}
	return mergeDuplicates(lines), nil
}

func checkLine(pid int64, qty int) (model.CartLine, bool, error) {
	if pid <= 0 {
		return model.CartLine{}, false, fmt.Errorf("%w: invalid product id %d", errs.ErrValidation, pid)
	}
	if qty < 0 {
		return model.CartLine{}, false, fmt.Errorf("%w: negative quantity for product %d", errs.ErrValidation, pid)
	}
	if qty == 0 {
		// zero means "removed"; never stored
		return model.CartLine{}, false, nil
	}
	return model.CartLine{ProductID: pid, Quantity: qty}, true, nil
}

// mergeDuplicates sums quantities of repeated product ids, preserving the
// position of the first occurrence.
func mergeDuplicates(lines []model.CartLine) []model.CartLine {
	out := lines[:0]
	idx := make(map[int64]int, len(lines))
	for _, l := range lines {
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}
