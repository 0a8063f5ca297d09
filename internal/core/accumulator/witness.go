package accumulator

import (
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/field"
)

// VerifyWitness 沿见证路径重算根，并与见证记录的根比较
func VerifyWitness(h Hasher, leaf string, w *types.Witness) bool {
	if h == nil || w == nil || len(w.PathIndices) != len(w.Siblings) || len(w.Siblings) == 0 {
		return false
	}
	current, err := field.Normalize(leaf)
	if err != nil {
		return false
	}
	for i, sibling := range w.Siblings {
		left, right := current, sibling
		switch w.PathIndices[i] {
		case 0:
		case 1:
			left, right = sibling, current
		default:
			return false
		}
		current, err = h.Hash(left, right)
		if err != nil {
			return false
		}
	}
	root, err := field.Normalize(w.Root)
	return err == nil && current == root
}
