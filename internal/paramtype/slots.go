package paramtype

import (
	"strconv"
	"strings"

	"github.com/starford/nodeforge/internal/models"
)

// MaxSlots bounds the keyword slots, and so the output handles, of one node.
const MaxSlots = 64

// SlotCount returns how many slots the keyword-list parameter listName of a
// node exposes: the list length, raised to the node's NumOutputs value when
// that parses as a larger integer, never less than one and never more than
// MaxSlots.
func SlotCount(nt *models.NodeType, params models.Params, listName string) int {
	n := params.Get(listName).Len()
	if name, ok := Find(nt, NumOutputs); ok {
		if v, err := strconv.Atoi(strings.TrimSpace(params.Get(name).String())); err == nil && v > n {
			n = v
		}
	}
	return min(max(n, 1), MaxSlots)
}
