package proving

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkid/internal/core/accumulator"
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/field"
)

const testDepth = 4

func ageInputs() types.CircuitInputs {
	return types.CircuitInputs{
		BirthYear:        1990,
		Nationality:      756,
		Salt:             "123456789",
		MinAge:           18,
		CurrentYear:      2026,
		Nonce:            "nonce-1",
		RequestTimestamp: time.UnixMilli(1_790_000_000_000),
	}
}

// TestCredentialHash 测试凭证承诺
func TestCredentialHash(t *testing.T) {
	a, err := CredentialHash(1990, 756, "42", nil)
	require.NoError(t, err)
	assert.True(t, field.IsCanonical(a))

	b, err := CredentialHash(1990, 756, "42", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "签名凭证的承诺必须绑定发行方公钥")

	c, err := CredentialHash(1990, 756, "43", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = CredentialHash(1990, 756, "salt", nil)
	assert.ErrorIs(t, err, types.ErrValidation)
}

// TestGnarkProvingSystem_Age 测试年龄声明的证明与验证
func TestGnarkProvingSystem_Age(t *testing.T) {
	if testing.Short() {
		t.Skip("可信设置较慢")
	}
	ctx := context.Background()
	ps, err := NewGnarkProvingSystem(testDepth, nil)
	require.NoError(t, err)

	in := ageInputs()
	proof, signals, err := ps.Prove(ctx, types.ClaimAge, false, in)
	require.NoError(t, err)

	layout, _ := types.LayoutFor(types.ClaimAge, false)
	require.Len(t, signals, layout.Count)
	assert.Equal(t, "18", signals[layout.MinAge])
	assert.Equal(t, "2026", signals[layout.CurrentYear])
	assert.Equal(t, field.NonceField("nonce-1"), signals[layout.Nonce])
	assert.Equal(t, field.TimestampField(in.RequestTimestamp), signals[layout.RequestTimestamp])

	t.Run("合法证明", func(t *testing.T) {
		ok, err := ps.Verify(ctx, types.ClaimAge, false, *proof, signals)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("篡改公开信号", func(t *testing.T) {
		tampered := append([]string(nil), signals...)
		tampered[layout.MinAge] = "21"
		ok, err := ps.Verify(ctx, types.ClaimAge, false, *proof, tampered)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("替换nonce", func(t *testing.T) {
		tampered := append([]string(nil), signals...)
		tampered[layout.Nonce] = field.NonceField("other")
		ok, err := ps.Verify(ctx, types.ClaimAge, false, *proof, tampered)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("篡改证明", func(t *testing.T) {
		bad := *proof
		bad.PiA, bad.PiC = proof.PiC, proof.PiA
		ok, err := ps.Verify(ctx, types.ClaimAge, false, bad, signals)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("信号越界", func(t *testing.T) {
		tampered := append([]string(nil), signals...)
		tampered[0] = field.Order().String()
		ok, err := ps.Verify(ctx, types.ClaimAge, false, *proof, tampered)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("未满年龄无法生成证明", func(t *testing.T) {
		young := ageInputs()
		young.BirthYear = 2015
		_, _, err := ps.Prove(ctx, types.ClaimAge, false, young)
		assert.ErrorIs(t, err, ErrProofGenerationFailed)
	})

	t.Run("导出验证密钥可独立验证", func(t *testing.T) {
		vk, err := ps.VerificationKey(CircuitRef{ClaimType: types.ClaimAge})
		require.NoError(t, err)
		assert.Equal(t, layout.Count, vk.NPublic)

		ks, err := NewKeySet(map[string]types.VerificationKey{"age": vk})
		require.NoError(t, err)
		ok, err := ks.Verify(ctx, types.ClaimAge, false, *proof, signals)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = ks.Verify(ctx, types.ClaimNationality, false, *proof, signals)
		assert.ErrorIs(t, err, ErrCircuitNotFound)
		assert.ErrorIs(t, err, types.ErrProvingSystem)

		_, _, err = ks.Prove(ctx, types.ClaimAge, false, in)
		assert.ErrorIs(t, err, ErrProvingUnsupported)
	})
}

// TestGnarkProvingSystem_RevocableSigned 测试可吊销签名声明与产物持久化
func TestGnarkProvingSystem_RevocableSigned(t *testing.T) {
	if testing.Short() {
		t.Skip("可信设置较慢")
	}
	ctx := context.Background()
	ps, err := NewGnarkProvingSystem(testDepth, nil)
	require.NoError(t, err)

	issuerKey := []byte("issuer-public-key")
	in := ageInputs()
	in.TargetNationality = 756
	in.IssuerPublicKey = issuerKey

	credential, err := CredentialHash(in.BirthYear, in.Nationality, in.Salt, issuerKey)
	require.NoError(t, err)

	acc, err := accumulator.New(testDepth)
	require.NoError(t, err)
	require.NoError(t, acc.Add("7"))
	require.NoError(t, acc.Add(credential))
	require.NoError(t, acc.Add("9"))
	in.Witness, err = acc.GetWitness(credential)
	require.NoError(t, err)
	require.NotNil(t, in.Witness)

	ct := types.ClaimNationalityRevocable
	proof, signals, err := ps.Prove(ctx, ct, true, in)
	require.NoError(t, err)

	layout, _ := types.LayoutFor(ct, true)
	assert.Equal(t, credential, signals[layout.CredentialHash])
	assert.Equal(t, acc.GetRoot(), signals[layout.MerkleRoot])
	assert.Equal(t, field.IssuerKeyField(issuerKey), signals[layout.IssuerKey])

	ok, err := ps.Verify(ctx, ct, true, *proof, signals)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("缺少见证", func(t *testing.T) {
		bad := in
		bad.Witness = nil
		_, _, err := ps.Prove(ctx, ct, true, bad)
		assert.ErrorIs(t, err, ErrInvalidWitness)
	})

	t.Run("国籍不符无法生成证明", func(t *testing.T) {
		bad := in
		bad.TargetNationality = 250
		_, _, err := ps.Prove(ctx, ct, true, bad)
		assert.ErrorIs(t, err, ErrProofGenerationFailed)
	})

	t.Run("产物持久化", func(t *testing.T) {
		dir := t.TempDir()
		saved, err := ps.SaveArtifacts(dir)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, saved, 1)

		ks, err := LoadKeySet(dir)
		require.NoError(t, err)
		assert.True(t, ks.Has(CircuitRef{ClaimType: ct, Signed: true}))
		ok, err := ks.Verify(ctx, ct, true, *proof, signals)
		require.NoError(t, err)
		assert.True(t, ok)

		reloaded, err := NewGnarkProvingSystem(testDepth, nil)
		require.NoError(t, err)
		n, err := reloaded.LoadArtifacts(dir)
		require.NoError(t, err)
		assert.Equal(t, saved, n)
		ok, err = reloaded.Verify(ctx, ct, true, *proof, signals)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

// TestNewGnarkProvingSystem 测试深度校验
func TestNewGnarkProvingSystem(t *testing.T) {
	_, err := NewGnarkProvingSystem(0, nil)
	assert.ErrorIs(t, err, types.ErrConfig)
	_, err = NewGnarkProvingSystem(21, nil)
	assert.ErrorIs(t, err, types.ErrConfig)
}
