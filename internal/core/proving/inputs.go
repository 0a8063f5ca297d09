package proving

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/weisyn/zkid/internal/core/accumulator"
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/field"
)

// CredentialHash 计算凭证承诺 MiMC(birthYear, nationality, salt[, issuerKey])
//
// 可吊销声明的累加器叶子即为该值。issuerPublicKey 为空时按未签名凭证计算。
func CredentialHash(birthYear, nationality int, salt string, issuerPublicKey []byte) (string, error) {
	if birthYear < 0 || nationality < 0 {
		return "", fmt.Errorf("%w: negative attribute", ErrInvalidWitness)
	}
	s, err := field.ToElement(salt)
	if err != nil {
		return "", fmt.Errorf("%w: salt: %v", ErrInvalidWitness, err)
	}
	var by, nat fr.Element
	by.SetUint64(uint64(birthYear))
	nat.SetUint64(uint64(nationality))
	elems := []fr.Element{by, nat, s}
	if len(issuerPublicKey) > 0 {
		k, err := field.ToElement(field.IssuerKeyField(issuerPublicKey))
		if err != nil {
			return "", err
		}
		elems = append(elems, k)
	}
	return accumulator.HashElements(elems...), nil
}

// buildAssignment 由证明输入构造电路赋值与公开信号
func buildAssignment(claimType types.ClaimType, signed bool, depth int, in types.CircuitInputs) (*ClaimCircuit, []string, error) {
	circuitID := types.CircuitID(claimType, signed)
	layout, ok := types.LayoutFor(claimType, signed)
	if !ok {
		return nil, nil, WrapCircuitNotFoundError(circuitID)
	}
	if in.Nonce == "" {
		return nil, nil, WrapInvalidWitnessError(circuitID, "empty nonce")
	}
	if in.RequestTimestamp.IsZero() {
		return nil, nil, WrapInvalidWitnessError(circuitID, "missing request timestamp")
	}
	if signed && len(in.IssuerPublicKey) == 0 {
		return nil, nil, WrapInvalidWitnessError(circuitID, "missing issuer public key")
	}
	var issuerKey []byte
	if signed {
		issuerKey = in.IssuerPublicKey
	}

	credential, err := CredentialHash(in.BirthYear, in.Nationality, in.Salt, issuerKey)
	if err != nil {
		return nil, nil, err
	}

	signals := make([]string, layout.Count)
	signals[layout.CredentialHash] = credential
	signals[layout.Nonce] = field.NonceField(in.Nonce)
	signals[layout.RequestTimestamp] = field.TimestampField(in.RequestTimestamp)
	if claimType.IsAge() {
		signals[layout.MinAge] = big.NewInt(int64(in.MinAge)).String()
		signals[layout.CurrentYear] = big.NewInt(int64(in.CurrentYear)).String()
	} else {
		signals[layout.TargetNationality] = big.NewInt(int64(in.TargetNationality)).String()
	}
	if signed {
		signals[layout.IssuerKey] = field.IssuerKeyField(issuerKey)
	}

	assignment, err := NewClaimCircuit(claimType, signed, depth)
	if err != nil {
		return nil, nil, err
	}

	if claimType.IsRevocable() {
		w := in.Witness
		if w == nil {
			return nil, nil, WrapInvalidWitnessError(circuitID, "missing merkle witness")
		}
		if len(w.Siblings) != depth || len(w.PathIndices) != depth {
			return nil, nil, WrapInvalidWitnessError(circuitID, fmt.Sprintf("witness depth %d, expected %d", len(w.Siblings), depth))
		}
		root, err := field.Normalize(w.Root)
		if err != nil {
			return nil, nil, WrapInvalidWitnessError(circuitID, "invalid witness root")
		}
		signals[layout.MerkleRoot] = root
		for i := 0; i < depth; i++ {
			sibling, err := field.Parse(w.Siblings[i])
			if err != nil {
				return nil, nil, WrapInvalidWitnessError(circuitID, fmt.Sprintf("sibling %d: %v", i, err))
			}
			assignment.Siblings[i] = sibling
			assignment.PathIndices[i] = w.PathIndices[i]
		}
	}

	for i, s := range signals {
		v, err := field.Parse(s)
		if err != nil {
			return nil, nil, WrapInvalidWitnessError(circuitID, fmt.Sprintf("signal %d: %v", i, err))
		}
		assignment.Public[i] = v
	}
	salt, _ := field.Parse(in.Salt)
	assignment.BirthYear = in.BirthYear
	assignment.Nationality = in.Nationality
	assignment.Salt = salt

	return assignment, signals, nil
}
