package proving

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
)

// snarkjs JSON 编码的 BN254 曲线点
//
// 📋 **格式**：
//   - G1: ["x", "y", "1"]，第三个射影坐标可省略
//   - G2: [["x.c0", "x.c1"], ["y.c0", "y.c1"], ["1", "0"]]
//   - 坐标为十进制字符串，必须小于基域模数 p
//
// 解码后的点必须在曲线上且属于素数阶子群。

// parseFp 解析基域元素，拒绝 ≥ p 的值
func parseFp(s string) (fp.Element, error) {
	var e fp.Element
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() < 0 {
		return e, fmt.Errorf("%w: coordinate %q is not a decimal integer", ErrInvalidPoint, s)
	}
	if v.Cmp(fp.Modulus()) >= 0 {
		return e, fmt.Errorf("%w: coordinate exceeds base field modulus", ErrInvalidPoint)
	}
	e.SetBigInt(v)
	return e, nil
}

// ParseG1 解码 snarkjs G1 点
func ParseG1(coords []string) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if len(coords) < 2 {
		return p, fmt.Errorf("%w: G1 needs at least 2 coordinates, got %d", ErrInvalidPoint, len(coords))
	}
	x, err := parseFp(coords[0])
	if err != nil {
		return p, err
	}
	y, err := parseFp(coords[1])
	if err != nil {
		return p, err
	}
	p.X, p.Y = x, y
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return p, fmt.Errorf("%w: G1 point not on curve", ErrInvalidPoint)
	}
	return p, nil
}

// ParseG2 解码 snarkjs G2 点
func ParseG2(coords [][]string) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	if len(coords) < 2 || len(coords[0]) < 2 || len(coords[1]) < 2 {
		return p, fmt.Errorf("%w: G2 needs at least 2x2 coordinates", ErrInvalidPoint)
	}
	var err error
	if p.X.A0, err = parseFp(coords[0][0]); err != nil {
		return p, err
	}
	if p.X.A1, err = parseFp(coords[0][1]); err != nil {
		return p, err
	}
	if p.Y.A0, err = parseFp(coords[1][0]); err != nil {
		return p, err
	}
	if p.Y.A1, err = parseFp(coords[1][1]); err != nil {
		return p, err
	}
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return p, fmt.Errorf("%w: G2 point not on curve", ErrInvalidPoint)
	}
	return p, nil
}

// FormatG1 编码为 snarkjs G1
func FormatG1(p *bn254.G1Affine) []string {
	return []string{fpString(&p.X), fpString(&p.Y), "1"}
}

// FormatG2 编码为 snarkjs G2
func FormatG2(p *bn254.G2Affine) [][]string {
	return [][]string{
		{fpString(&p.X.A0), fpString(&p.X.A1)},
		{fpString(&p.Y.A0), fpString(&p.Y.A1)},
		{"1", "0"},
	}
}

func fpString(e *fp.Element) string {
	var v big.Int
	e.BigInt(&v)
	return v.String()
}
