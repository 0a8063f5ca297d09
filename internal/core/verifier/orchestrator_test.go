package verifier

import (
	"context"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verifierconfig "github.com/weisyn/zkid/internal/config/verifier"
	"github.com/weisyn/zkid/internal/core/accumulator"
	"github.com/weisyn/zkid/internal/core/infrastructure/kvstore"
	"github.com/weisyn/zkid/internal/core/issuer"
	"github.com/weisyn/zkid/internal/core/ratelimit"
	"github.com/weisyn/zkid/internal/core/replay"
	"github.com/weisyn/zkid/internal/core/revocation"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/field"
	"github.com/weisyn/zkid/pkg/utils/timeutil"
)

const (
	testCredential = "12345"
	testIssuer     = "gov"
)

var testIssuerKey = []byte("issuer-public-key")

// fakeProver 按声明类型返回预设结果
type fakeProver struct {
	mu      sync.Mutex
	results map[types.ClaimType]bool
	err     error
	calls   atomic.Int32
}

func (f *fakeProver) Prove(context.Context, types.ClaimType, bool, types.CircuitInputs) (*types.Groth16Proof, []string, error) {
	return nil, nil, errors.New("not implemented")
}

func (f *fakeProver) Verify(_ context.Context, ct types.ClaimType, _ bool, _ types.Groth16Proof, _ []string) (bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if ok, found := f.results[ct]; found {
		return ok, nil
	}
	return true, nil
}

func (f *fakeProver) set(ct types.ClaimType, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[ct] = ok
}

// recorder 记录遥测事件
type recorder struct {
	mu     sync.Mutex
	events []types.VerificationEvent
}

func (r *recorder) Observe(e types.VerificationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []types.VerificationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.VerificationEvent(nil), r.events...)
}

type panicObserver struct{}

func (panicObserver) Observe(types.VerificationEvent) { panic("observer down") }

type fixture struct {
	orch        *Orchestrator
	clock       *timeutil.ManualClock
	prover      *fakeProver
	nonces      *replay.NonceStore
	challenges  *replay.ChallengeStore
	revocations *revocation.Store
	acc         *accumulator.MerkleAccumulator
	issuers     *issuer.MemoryRegistry
	recorder    *recorder
}

type fixtureConfig struct {
	verbose    bool
	challenges bool
	limiter    bool
	limit      int64
}

func newFixture(t *testing.T, cfg fixtureConfig) *fixture {
	t.Helper()
	ctx := context.Background()
	client := kvstore.NewMemoryClient()
	clk := timeutil.NewManualClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))

	acc, err := accumulator.New(4)
	require.NoError(t, err)
	require.NoError(t, acc.Add(testCredential))

	issuers, err := issuer.NewMemoryRegistry(types.IssuerRecord{
		Name:      testIssuer,
		PublicKey: hex.EncodeToString(testIssuerKey),
		Status:    types.IssuerActive,
	})
	require.NoError(t, err)

	f := &fixture{
		clock:       clk,
		prover:      &fakeProver{results: map[types.ClaimType]bool{}},
		nonces:      replay.NewNonceStore(client),
		revocations: revocation.NewStore(client, nil),
		acc:         acc,
		issuers:     issuers,
		recorder:    &recorder{},
	}
	deps := Dependencies{
		ProvingSystem: f.prover,
		Membership:    acc,
		Revocations:   f.revocations,
		Nonces:        f.nonces,
		Issuers:       issuers,
		Observers:     []zkid.TelemetryObserver{panicObserver{}, f.recorder},
	}
	if cfg.challenges {
		f.challenges = replay.NewChallengeStore(ctx, client, replay.WithClock(clk))
		deps.Challenges = f.challenges
	}
	if cfg.limiter {
		limiter, err := ratelimit.New(client, cfg.limit, time.Minute, ratelimit.WithClock(clk))
		require.NoError(t, err)
		deps.RateLimiter = limiter
	}

	opts := verifierconfig.New(&types.UserVerifierConfig{VerboseErrors: types.BoolPtr(cfg.verbose)}).GetOptions()
	f.orch, err = New(deps, WithOptions(opts), WithClock(clk))
	require.NoError(t, err)
	return f
}

// timestamp 毫秒精度的请求时间
func (f *fixture) timestamp() time.Time {
	return time.UnixMilli(f.clock.Now().Add(-time.Second).UnixMilli())
}

// response 构造与请求字段一致的证明响应
func (f *fixture) response(ct types.ClaimType, signed bool, nonce string) *types.ProofResponse {
	ts := f.timestamp()
	layout, _ := types.LayoutFor(ct, signed)
	signals := make([]string, layout.Count)
	signals[layout.CredentialHash] = testCredential
	signals[layout.Nonce] = field.NonceField(nonce)
	signals[layout.RequestTimestamp] = field.TimestampField(ts)
	if layout.MerkleRoot >= 0 {
		signals[layout.MerkleRoot] = f.acc.GetRoot()
	}
	if ct.IsAge() {
		signals[layout.MinAge] = "18"
		signals[layout.CurrentYear] = strconv.Itoa(f.clock.Now().Year())
	} else {
		signals[layout.TargetNationality] = "756"
	}
	if signed {
		signals[layout.IssuerKey] = field.IssuerKeyField(testIssuerKey)
	}
	return &types.ProofResponse{
		ClaimType: ct,
		Proof: types.Groth16Proof{
			PiA: []string{"1", "2"},
			PiB: [][]string{{"1", "2"}, {"3", "4"}},
			PiC: []string{"1", "2"},
		},
		PublicSignals:    signals,
		Nonce:            nonce,
		RequestTimestamp: ts,
	}
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var ve *VerificationError
	require.True(t, errors.As(err, &ve), "expected *VerificationError, got %v", err)
	return ve.Kind
}

// TestProtocolVersion 测试协议版本兼容性
func TestProtocolVersion(t *testing.T) {
	assert.True(t, IsCompatible("zk-id/1.0", "zk-id/1.5"))
	assert.False(t, IsCompatible("zk-id/1.0", "zk-id/2.0"))
	assert.True(t, IsCompatible("zk-id/1.0", "zk-id/1.2-beta.1"))
	assert.False(t, IsCompatible("zk-id/1.0", "zkid/1.0"))

	v, err := ParseProtocolVersion("zk-id/3.14-rc1")
	require.NoError(t, err)
	assert.Equal(t, ProtocolVersion{Major: 3, Minor: 14, Suffix: "rc1"}, v)
	assert.Equal(t, "zk-id/3.14-rc1", v.String())

	_, err = ParseProtocolVersion("zk-id/1")
	assert.ErrorIs(t, err, types.ErrProtocolVersion)
}

// TestNew 测试构造参数校验
func TestNew(t *testing.T) {
	_, err := New(Dependencies{})
	assert.ErrorIs(t, err, types.ErrConfig)

	_, err = New(Dependencies{ProvingSystem: &fakeProver{}})
	assert.ErrorIs(t, err, types.ErrConfig, "缺少防重放存储")

	opts := verifierconfig.New(nil).GetOptions()
	opts.ProtocolVersion = "v1"
	_, err = New(Dependencies{ProvingSystem: &fakeProver{}, Nonces: replay.NewNonceStore(kvstore.NewMemoryClient())}, WithOptions(opts))
	assert.ErrorIs(t, err, types.ErrConfig)
}

// TestVerifyProof 测试单声明验证主流程
func TestVerifyProof(t *testing.T) {
	ctx := context.Background()

	t.Run("验证通过且暴露声明参数", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		res, err := f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "n-1"), "client", "zk-id/1.3")
		require.NoError(t, err)
		assert.True(t, res.Verified)
		require.NotNil(t, res.MinAge)
		assert.Equal(t, 18, *res.MinAge)
		assert.Nil(t, res.TargetNationality)
		assert.Empty(t, res.Error)
	})

	t.Run("同一nonce重放", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		resp := f.response(types.ClaimNationality, false, "n-2")
		_, err := f.orch.VerifyProof(ctx, resp, "client", "")
		require.NoError(t, err)

		res, err := f.orch.VerifyProof(ctx, resp, "client", "")
		assert.ErrorIs(t, err, types.ErrReplay)
		assert.False(t, res.Verified)
		assert.Equal(t, GenericFailureMessage, res.Error)
		assert.EqualValues(t, 1, f.prover.calls.Load())
	})

	t.Run("无效证明不是错误", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		f.prover.set(types.ClaimAge, false)
		res, err := f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "n-3"), "client", "")
		require.NoError(t, err)
		assert.False(t, res.Verified)
		assert.Nil(t, res.MinAge)
		assert.Empty(t, res.Error)
	})

	t.Run("证明后端故障", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		f.prover.err = errors.New("backend down")
		res, err := f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "n-4"), "client", "")
		assert.Equal(t, KindProvingSystem, kindOf(t, err))
		assert.False(t, res.Verified)
	})

	t.Run("信号可用十六进制提交", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		resp := f.response(types.ClaimAge, false, "n-5")
		resp.PublicSignals[1] = "0x12"
		res, err := f.orch.VerifyProof(ctx, resp, "client", "")
		require.NoError(t, err)
		assert.True(t, res.Verified)
	})
}

// TestVerifyProof_ProtocolGate 测试协议门禁先于一切检查
func TestVerifyProof_ProtocolGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureConfig{})
	resp := f.response(types.ClaimAge, false, "gate")

	_, err := f.orch.VerifyProof(ctx, resp, "client", "zk-id/2.0")
	assert.ErrorIs(t, err, types.ErrProtocolVersion)

	_, err = f.orch.VerifyProof(ctx, resp, "client", "garbage")
	assert.ErrorIs(t, err, types.ErrProtocolVersion)

	used, err := f.nonces.Has(ctx, "gate")
	require.NoError(t, err)
	assert.False(t, used, "协议不兼容时不得消费 nonce")

	res, err := f.orch.VerifyProof(ctx, resp, "client", "zk-id/1.9")
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

// TestVerifyProof_Validation 测试结构校验在任何 I/O 之前完成
func TestVerifyProof_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureConfig{verbose: true})

	cases := []struct {
		name   string
		mutate func(r *types.ProofResponse)
	}{
		{"未知声明类型", func(r *types.ProofResponse) { r.ClaimType = "income" }},
		{"信号个数错误", func(r *types.ProofResponse) { r.PublicSignals = r.PublicSignals[:3] }},
		{"信号超出域", func(r *types.ProofResponse) { r.PublicSignals[0] = field.Order().String() }},
		{"信号非数字", func(r *types.ProofResponse) { r.PublicSignals[0] = "abc" }},
		{"nonce信号不符", func(r *types.ProofResponse) { r.PublicSignals[3] = field.NonceField("other") }},
		{"时间戳信号不符", func(r *types.ProofResponse) { r.PublicSignals[4] = "1" }},
		{"时间戳过期", func(r *types.ProofResponse) { r.RequestTimestamp = r.RequestTimestamp.Add(-time.Hour) }},
		{"时间戳超前", func(r *types.ProofResponse) { r.RequestTimestamp = r.RequestTimestamp.Add(time.Hour) }},
		{"minAge越界", func(r *types.ProofResponse) { r.PublicSignals[1] = "200" }},
		{"currentYear不是当年", func(r *types.ProofResponse) { r.PublicSignals[2] = "2020" }},
		{"nonce含非法字符", func(r *types.ProofResponse) { r.Nonce = "bad nonce" }},
		{"证明点坐标不足", func(r *types.ProofResponse) { r.Proof.PiA = []string{"1"} }},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			nonce := "v-" + strconv.Itoa(i)
			resp := f.response(types.ClaimAge, false, nonce)
			tc.mutate(resp)

			res, err := f.orch.VerifyProof(ctx, resp, "client", "")
			assert.ErrorIs(t, err, types.ErrValidation)
			assert.False(t, res.Verified)
			assert.NotEmpty(t, res.Error)

			used, herr := f.nonces.Has(ctx, nonce)
			require.NoError(t, herr)
			assert.False(t, used)
		})
	}
	assert.Zero(t, f.prover.calls.Load())

	t.Run("白名单收窄", func(t *testing.T) {
		opts := verifierconfig.New(&types.UserVerifierConfig{AllowedClaimTypes: []string{"age"}}).GetOptions()
		orch, err := New(Dependencies{ProvingSystem: f.prover, Nonces: f.nonces}, WithOptions(opts), WithClock(f.clock))
		require.NoError(t, err)
		_, err = orch.VerifyProof(ctx, f.response(types.ClaimNationality, false, "wl"), "client", "")
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

// TestVerifyProof_Challenge 测试服务端挑战流程
func TestVerifyProof_Challenge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureConfig{challenges: true})

	t.Run("签发后验证一次", func(t *testing.T) {
		resp := f.response(types.ClaimAge, false, "ch-1")
		require.NoError(t, f.challenges.Issue(ctx, "ch-1", resp.RequestTimestamp.UnixMilli(), time.Minute))

		res, err := f.orch.VerifyProof(ctx, resp, "client", "")
		require.NoError(t, err)
		assert.True(t, res.Verified)

		_, err = f.orch.VerifyProof(ctx, resp, "client", "")
		assert.ErrorIs(t, err, types.ErrReplay)
	})

	t.Run("未签发的nonce", func(t *testing.T) {
		_, err := f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "ch-unknown"), "client", "")
		assert.ErrorIs(t, err, types.ErrReplay)
	})

	t.Run("时间戳与签发记录不符", func(t *testing.T) {
		resp := f.response(types.ClaimAge, false, "ch-2")
		require.NoError(t, f.challenges.Issue(ctx, "ch-2", resp.RequestTimestamp.UnixMilli()-5, time.Minute))
		_, err := f.orch.VerifyProof(ctx, resp, "client", "")
		assert.ErrorIs(t, err, types.ErrReplay)
	})
}

// TestVerifyProof_Revocation 测试吊销检查
func TestVerifyProof_Revocation(t *testing.T) {
	ctx := context.Background()

	t.Run("可吊销声明在累加器中", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		res, err := f.orch.VerifyProof(ctx, f.response(types.ClaimAgeRevocable, false, "r-1"), "client", "")
		require.NoError(t, err)
		assert.True(t, res.Verified)
	})

	t.Run("从累加器移除后拒绝", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{verbose: true})
		resp := f.response(types.ClaimAgeRevocable, false, "r-2")
		require.NoError(t, f.acc.Remove(testCredential))

		res, err := f.orch.VerifyProof(ctx, resp, "client", "")
		assert.ErrorIs(t, err, types.ErrRevocation)
		assert.Contains(t, res.Error, "valid set")
		assert.Zero(t, f.prover.calls.Load())
	})

	t.Run("未知根", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		resp := f.response(types.ClaimNationalityRevocable, false, "r-3")
		resp.PublicSignals[1] = "42"
		_, err := f.orch.VerifyProof(ctx, resp, "client", "")
		assert.ErrorIs(t, err, types.ErrRevocation)
	})

	t.Run("黑名单", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		require.NoError(t, f.revocations.Revoke(ctx, testCredential))
		res, err := f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "r-4"), "client", "")
		assert.ErrorIs(t, err, types.ErrRevocation)
		assert.Equal(t, GenericFailureMessage, res.Error, "不得泄露失败的具体检查")

		require.NoError(t, f.revocations.Reinstate(ctx, testCredential))
		res, err = f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "r-5"), "client", "")
		require.NoError(t, err)
		assert.True(t, res.Verified)
	})

	t.Run("未配置累加器", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		orch, err := New(Dependencies{ProvingSystem: f.prover, Nonces: f.nonces}, WithClock(f.clock))
		require.NoError(t, err)
		_, err = orch.VerifyProof(ctx, f.response(types.ClaimAgeRevocable, false, "r-6"), "client", "")
		assert.ErrorIs(t, err, types.ErrConfig)
	})
}

// TestVerifySignedProof 测试发行方信任检查
func TestVerifySignedProof(t *testing.T) {
	ctx := context.Background()

	signed := func(f *fixture, nonce, name string) *types.SignedProofRequest {
		return &types.SignedProofRequest{
			ProofResponse: *f.response(types.ClaimNationalityRevocable, true, nonce),
			Issuer:        name,
		}
	}

	t.Run("可信发行方", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		res, err := f.orch.VerifySignedProof(ctx, signed(f, "s-1", testIssuer), "client", "")
		require.NoError(t, err)
		assert.True(t, res.Verified)
		require.NotNil(t, res.TargetNationality)
		assert.Equal(t, 756, *res.TargetNationality)
	})

	t.Run("未知发行方", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		_, err := f.orch.VerifySignedProof(ctx, signed(f, "s-2", "nobody"), "client", "")
		assert.ErrorIs(t, err, types.ErrTrust)
	})

	t.Run("发行方已暂停", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		require.NoError(t, f.issuers.Register(ctx, types.IssuerRecord{
			Name: testIssuer, PublicKey: hex.EncodeToString(testIssuerKey), Status: types.IssuerSuspended,
		}))
		_, err := f.orch.VerifySignedProof(ctx, signed(f, "s-3", testIssuer), "client", "")
		assert.ErrorIs(t, err, types.ErrTrust)
	})

	t.Run("发行方已过期", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		until := f.clock.Now().Add(-time.Hour)
		require.NoError(t, f.issuers.Register(ctx, types.IssuerRecord{
			Name: testIssuer, PublicKey: hex.EncodeToString(testIssuerKey), Status: types.IssuerActive, ValidUntil: &until,
		}))
		_, err := f.orch.VerifySignedProof(ctx, signed(f, "s-4", testIssuer), "client", "")
		assert.ErrorIs(t, err, types.ErrTrust)
	})

	t.Run("证明未绑定发行方公钥", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{verbose: true})
		req := signed(f, "s-5", testIssuer)
		req.PublicSignals[len(req.PublicSignals)-1] = field.IssuerKeyField([]byte("other-key"))
		res, err := f.orch.VerifySignedProof(ctx, req, "client", "")
		assert.ErrorIs(t, err, types.ErrTrust)
		assert.Contains(t, res.Error, "not bound")
		assert.Zero(t, f.prover.calls.Load())
	})

	t.Run("缺少发行方", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		_, err := f.orch.VerifySignedProof(ctx, signed(f, "s-6", ""), "client", "")
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

// TestVerifyProof_RateLimit 测试按客户端限流
func TestVerifyProof_RateLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureConfig{limiter: true, limit: 2})

	for i := 0; i < 2; i++ {
		res, err := f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "rl-"+strconv.Itoa(i)), "alice", "")
		require.NoError(t, err)
		assert.True(t, res.Verified)
	}

	_, err := f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "rl-2"), "alice", "")
	require.ErrorIs(t, err, types.ErrRateLimited)
	var ve *VerificationError
	require.True(t, errors.As(err, &ve))
	assert.Greater(t, ve.RetryAfter, time.Duration(0))

	used, err := f.nonces.Has(ctx, "rl-2")
	require.NoError(t, err)
	assert.False(t, used, "被限流的请求不消费 nonce")

	res, err := f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "rl-3"), "bob", "")
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

// TestVerifyMultiClaim 测试多声明包
func TestVerifyMultiClaim(t *testing.T) {
	ctx := context.Background()

	bundle := func(f *fixture, nonce string) *types.MultiClaimResponse {
		age := f.response(types.ClaimAge, false, nonce)
		nat := f.response(types.ClaimNationality, false, nonce)
		return &types.MultiClaimResponse{
			Proofs:           []types.ProofResponse{*age, *nat},
			Nonce:            nonce,
			RequestTimestamp: age.RequestTimestamp,
		}
	}

	t.Run("全部通过", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		out, err := f.orch.VerifyMultiClaim(ctx, bundle(f, "m-1"), "client", "")
		require.NoError(t, err)
		assert.True(t, out.Verified)
		require.Len(t, out.Results, 2)
		assert.True(t, out.Results[0].Verified)
		assert.True(t, out.Results[1].Verified)
		assert.EqualValues(t, 2, f.prover.calls.Load())
	})

	t.Run("nonce只消费一次", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		b := bundle(f, "m-2")
		_, err := f.orch.VerifyMultiClaim(ctx, b, "client", "")
		require.NoError(t, err)
		out, err := f.orch.VerifyMultiClaim(ctx, b, "client", "")
		assert.ErrorIs(t, err, types.ErrReplay)
		assert.False(t, out.Verified)
	})

	t.Run("结果为逐项与", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		f.prover.set(types.ClaimNationality, false)
		out, err := f.orch.VerifyMultiClaim(ctx, bundle(f, "m-3"), "client", "")
		require.NoError(t, err)
		assert.False(t, out.Verified)
		assert.True(t, out.Results[0].Verified)
		assert.False(t, out.Results[1].Verified)
	})

	t.Run("成员nonce不一致", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		b := bundle(f, "m-4")
		b.Proofs[1] = *f.response(types.ClaimNationality, false, "m-other")
		_, err := f.orch.VerifyMultiClaim(ctx, b, "client", "")
		assert.ErrorIs(t, err, types.ErrValidation)
		assert.Zero(t, f.prover.calls.Load())
	})

	t.Run("空包", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		_, err := f.orch.VerifyMultiClaim(ctx, &types.MultiClaimResponse{}, "client", "")
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("单项吊销", func(t *testing.T) {
		f := newFixture(t, fixtureConfig{})
		b := bundle(f, "m-5")
		b.Proofs[0] = *f.response(types.ClaimAgeRevocable, false, "m-5")
		require.NoError(t, f.acc.Remove(testCredential))
		out, err := f.orch.VerifyMultiClaim(ctx, b, "client", "")
		assert.ErrorIs(t, err, types.ErrRevocation)
		assert.False(t, out.Verified)
		require.Len(t, out.Results, 2)
		assert.Equal(t, GenericFailureMessage, out.Results[0].Error)
		assert.True(t, out.Results[1].Verified)
	})
}

// TestTelemetry 测试遥测事件与观察者隔离
func TestTelemetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureConfig{})

	res, err := f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "t-1"), "client-7", "")
	require.NoError(t, err)
	assert.True(t, res.Verified, "观察者 panic 不影响结果")

	_, err = f.orch.VerifyProof(ctx, f.response(types.ClaimAge, false, "t-1"), "client-7", "")
	require.Error(t, err)

	events := f.recorder.all()
	require.Len(t, events, 2)
	assert.Equal(t, types.ClaimAge, events[0].ClaimType)
	assert.Equal(t, "client-7", events[0].ClientID)
	assert.True(t, events[0].Verified)
	assert.Empty(t, events[0].ErrorKind)
	assert.False(t, events[1].Verified)
	assert.Equal(t, string(KindReplay), events[1].ErrorKind)
}

// TestVerify_Dispatch 测试按请求变体分派
func TestVerify_Dispatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureConfig{})

	out, err := f.orch.Verify(ctx, Request{Kind: RequestSingle, Single: f.response(types.ClaimAge, false, "d-1")}, "c", "")
	require.NoError(t, err)
	assert.IsType(t, &types.VerificationResult{}, out)

	_, err = f.orch.Verify(ctx, Request{Kind: "other"}, "c", "")
	assert.ErrorIs(t, err, types.ErrValidation)
}

// TestKindOf 测试错误归类
func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindCapacity, KindOf(accumulator.ErrTreeFull))
	assert.Equal(t, KindReplay, KindOf(newError(KindReplay, "x")))
	assert.Equal(t, KindInternal, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.True(t, KindTrust.Sensitive())
	assert.False(t, KindValidation.Sensitive())
}
