// Package field provides BN254 scalar-field helpers shared by the accumulator,
// the verifier and the circuits.
package field

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

var (
	// ErrNotNumber 输入既不是十进制也不是 0x 十六进制整数
	ErrNotNumber = errors.New("not a decimal or 0x-hex integer")
	// ErrOutOfRange 输入不在 [0, r) 内
	ErrOutOfRange = errors.New("value is not in [0, field order)")
)

var order = fr.Modulus()

// Order 返回 BN254 标量域阶 r 的副本
func Order() *big.Int {
	return new(big.Int).Set(order)
}

// Parse 解析十进制或 0x 十六进制整数，并要求其为合法域元素
func Parse(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrNotNumber
	}
	v := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if len(s) == 2 {
			return nil, ErrNotNumber
		}
		_, ok = v.SetString(s[2:], 16)
	} else {
		if !isDigits(s) {
			return nil, ErrNotNumber
		}
		_, ok = v.SetString(s, 10)
	}
	if !ok {
		return nil, ErrNotNumber
	}
	if v.Sign() < 0 || v.Cmp(order) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, s)
	}
	return v, nil
}

// Normalize 将输入规范化为无前导零的十进制表示
func Normalize(s string) (string, error) {
	v, err := Parse(s)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// IsCanonical 是否为规范十进制域元素（无符号、无前导零、小于 r）
func IsCanonical(s string) bool {
	if s == "" || !isDigits(s) {
		return false
	}
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	v, ok := new(big.Int).SetString(s, 10)
	return ok && v.Cmp(order) < 0
}

// ToElement 将字符串解析为 fr.Element
func ToElement(s string) (fr.Element, error) {
	var e fr.Element
	v, err := Parse(s)
	if err != nil {
		return e, err
	}
	e.SetBigInt(v)
	return e, nil
}

// FromElement 返回 fr.Element 的规范十进制表示
func FromElement(e *fr.Element) string {
	var v big.Int
	e.BigInt(&v)
	return v.String()
}

// NonceField nonce 的域编码：sha256(nonce) mod r
func NonceField(nonce string) string {
	sum := sha256.Sum256([]byte(nonce))
	return reduce(sum[:])
}

// IssuerKeyField 发行方公钥的域编码：sha256(publicKey) mod r
func IssuerKeyField(publicKey []byte) string {
	sum := sha256.Sum256(publicKey)
	return reduce(sum[:])
}

// TimestampField 时间戳的域编码：Unix 毫秒
func TimestampField(t time.Time) string {
	return big.NewInt(t.UnixMilli()).String()
}

func reduce(b []byte) string {
	v := new(big.Int).SetBytes(b)
	return v.Mod(v, order).String()
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
