package accumulator

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/weisyn/zkid/pkg/utils/field"
)

// Hasher 内部节点哈希 H(left, right)
//
// 输入输出均为规范十进制域元素。
type Hasher interface {
	Hash(left, right string) (string, error)
}

// MiMCHasher BN254 MiMC 哈希
//
// 与电路内 std/hash/mimc 的结果一致，累加器的根可直接作为可吊销电路的公开输入。
type MiMCHasher struct{}

// 确保实现接口
var _ Hasher = MiMCHasher{}

// Hash 计算 MiMC(left, right)
func (MiMCHasher) Hash(left, right string) (string, error) {
	l, err := field.ToElement(left)
	if err != nil {
		return "", err
	}
	r, err := field.ToElement(right)
	if err != nil {
		return "", err
	}
	return HashElements(l, r), nil
}

// HashElements 对若干域元素做 MiMC，返回十进制结果
func HashElements(elems ...fr.Element) string {
	h := mimc.NewMiMC()
	for i := range elems {
		b := elems[i].Bytes()
		_, _ = h.Write(b[:])
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return field.FromElement(&out)
}
