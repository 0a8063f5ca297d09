package verifier

import (
	"context"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"time"

	verifierconfig "github.com/weisyn/zkid/internal/config/verifier"
	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	infraClock "github.com/weisyn/zkid/pkg/interfaces/infrastructure/clock"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
	"github.com/weisyn/zkid/pkg/utils/field"
	"github.com/weisyn/zkid/pkg/utils/timeutil"
)

const (
	// anonymousClient 未提供客户端标识时的限流键
	anonymousClient = "anonymous"

	maxMinAge         = 150
	maxNationality    = 999
	currentYearSkew   = 1
	minNationality    = 1
	minReasonableYear = 1900
)

var noncePattern = regexp.MustCompile(`^[A-Za-z0-9._:+/=-]+$`)

// Dependencies 编排器协作者
//
// ProvingSystem 必填；ChallengeStore 与 NonceStore 至少提供一个。
// RevocationStore 与 RateLimiter 为空时跳过对应检查；
// Membership / Issuers 为空时，需要它们的声明一律失败。
type Dependencies struct {
	ProvingSystem zkid.ProvingSystem
	Membership    zkid.MembershipChecker
	Revocations   zkid.RevocationStore
	Challenges    zkid.ChallengeStore
	Nonces        zkid.NonceStore
	RateLimiter   zkid.RateLimiter
	Issuers       zkid.IssuerRegistry
	Observers     []zkid.TelemetryObserver
}

// Orchestrator 验证编排器
//
// 🎯 **流水线**（顺序固定）：
//  1. 协议版本门禁
//  2. 结构校验（无任何 I/O）
//  3. 限流
//  4. 挑战/nonce 一次性消费
//  5. 吊销检查：可吊销声明查累加器，其余查黑名单
//  6. 发行方信任（仅签名证明）
//  7. 密码学验证
//  8. 遥测
//
// 证明无效是正常结果（Verified=false），不返回错误。
type Orchestrator struct {
	deps    Dependencies
	options *verifierconfig.VerifierOptions
	server  ProtocolVersion
	allowed map[types.ClaimType]bool
	clock   infraClock.Clock
	logger  logInterface.Logger
}

// Option 编排器选项
type Option func(*Orchestrator)

// WithOptions 指定配置选项
func WithOptions(opts *verifierconfig.VerifierOptions) Option {
	return func(o *Orchestrator) {
		if opts != nil {
			o.options = opts
		}
	}
}

// WithClock 注入时钟
func WithClock(clk infraClock.Clock) Option {
	return func(o *Orchestrator) { o.clock = clk }
}

// WithLogger 注入日志
func WithLogger(l logInterface.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New 创建验证编排器
func New(deps Dependencies, opts ...Option) (*Orchestrator, error) {
	if deps.ProvingSystem == nil {
		return nil, fmt.Errorf("%w: proving system is required", types.ErrConfig)
	}
	if deps.Challenges == nil && deps.Nonces == nil {
		return nil, fmt.Errorf("%w: a challenge store or nonce store is required", types.ErrConfig)
	}

	o := &Orchestrator{deps: deps}
	for _, opt := range opts {
		opt(o)
	}
	if o.options == nil {
		o.options = verifierconfig.New(nil).GetOptions()
	}
	o.clock = timeutil.OrSystem(o.clock)
	o.logger = log.OrNop(o.logger)

	server, err := ParseProtocolVersion(o.options.ProtocolVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: server protocol version: %v", types.ErrConfig, err)
	}
	o.server = server

	o.allowed = make(map[types.ClaimType]bool, len(o.options.AllowedClaimTypes))
	for _, ct := range o.options.AllowedClaimTypes {
		o.allowed[ct] = true
	}
	if o.options.MaxNonceLength <= 0 {
		o.options.MaxNonceLength = 256
	}

	o.logger.Infof("验证编排器已初始化: protocol=%s claim_types=%d challenge=%t rate_limit=%t",
		o.server, len(o.allowed), deps.Challenges != nil, deps.RateLimiter != nil)
	return o, nil
}

// ProtocolVersion 服务端协议版本
func (o *Orchestrator) ProtocolVersion() string {
	return o.server.String()
}

// VerboseErrors 是否对外暴露具体失败原因
func (o *Orchestrator) VerboseErrors() bool {
	return o.options.VerboseErrors
}

// ============================================================================
//                              对外验证入口
// ============================================================================

// VerifyProof 验证单声明证明
//
// 返回的结果总是非空；失败时 error 为 *VerificationError。
func (o *Orchestrator) VerifyProof(ctx context.Context, resp *types.ProofResponse, clientID, clientVersion string) (*types.VerificationResult, error) {
	return o.verifySingle(ctx, resp, "", false, clientID, clientVersion)
}

// VerifySignedProof 验证绑定发行方公钥的证明
func (o *Orchestrator) VerifySignedProof(ctx context.Context, req *types.SignedProofRequest, clientID, clientVersion string) (*types.VerificationResult, error) {
	if req == nil {
		return o.verifySingle(ctx, nil, "", true, clientID, clientVersion)
	}
	return o.verifySingle(ctx, &req.ProofResponse, req.Issuer, true, clientID, clientVersion)
}

// VerifyMultiClaim 验证共享同一 nonce 的多声明包
//
// nonce 只消费一次；总体结果为各声明结果的与，逐项结果保留。
func (o *Orchestrator) VerifyMultiClaim(ctx context.Context, bundle *types.MultiClaimResponse, clientID, clientVersion string) (*types.MultiClaimResult, error) {
	start := o.clock.Now()
	out := &types.MultiClaimResult{}

	checks, err := o.prepareBundle(ctx, bundle, clientID, clientVersion, start)
	if err != nil {
		out.Error = o.publicMessage(err)
		if bundle != nil {
			for _, p := range bundle.Proofs {
				o.emit(p.ClaimType, clientID, false, err, start)
			}
		}
		return out, err
	}

	var first error
	out.Verified = true
	out.Results = make([]types.VerificationResult, 0, len(checks))
	for _, c := range checks {
		claimStart := o.clock.Now()
		res := types.VerificationResult{ClaimType: c.resp.ClaimType}
		ok, err := o.checkClaim(ctx, c, start)
		o.complete(&res, c, ok, err)
		o.emit(c.resp.ClaimType, clientID, ok, err, claimStart)
		if !ok {
			out.Verified = false
		}
		if err != nil && first == nil {
			first = err
		}
		out.Results = append(out.Results, res)
	}
	if first != nil {
		out.Error = o.publicMessage(first)
	}
	return out, first
}

// Verify 按请求变体分派
func (o *Orchestrator) Verify(ctx context.Context, req Request, clientID, clientVersion string) (interface{}, error) {
	switch req.Kind {
	case RequestSingle:
		return o.VerifyProof(ctx, req.Single, clientID, clientVersion)
	case RequestSigned:
		return o.VerifySignedProof(ctx, req.Signed, clientID, clientVersion)
	case RequestMulti:
		return o.VerifyMultiClaim(ctx, req.Multi, clientID, clientVersion)
	}
	return nil, newError(KindValidation, "unknown request kind %q", req.Kind)
}

// ============================================================================
//                              流水线实现
// ============================================================================

// claimCheck 通过结构校验的声明
type claimCheck struct {
	resp    *types.ProofResponse
	signed  bool
	issuer  string
	layout  types.SignalLayout
	signals []string // 规范化后的公开信号

	minAge *int
	target *int
}

func (o *Orchestrator) verifySingle(ctx context.Context, resp *types.ProofResponse, issuer string, signed bool, clientID, clientVersion string) (*types.VerificationResult, error) {
	start := o.clock.Now()
	var claimType types.ClaimType
	if resp != nil {
		claimType = resp.ClaimType
	}
	result := &types.VerificationResult{ClaimType: claimType}

	c, ok, err := o.runSingle(ctx, resp, issuer, signed, clientID, clientVersion, start)
	o.complete(result, c, ok, err)
	o.emit(claimType, clientID, ok, err, start)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (o *Orchestrator) runSingle(ctx context.Context, resp *types.ProofResponse, issuer string, signed bool, clientID, clientVersion string, now time.Time) (*claimCheck, bool, error) {
	if err := o.checkProtocol(clientVersion); err != nil {
		return nil, false, err
	}
	if resp == nil {
		return nil, false, newError(KindValidation, "empty proof response")
	}
	c, err := o.validate(resp, signed, issuer, now)
	if err != nil {
		return nil, false, err
	}
	if err := o.admit(ctx, clientID); err != nil {
		return c, false, err
	}
	if err := o.consume(ctx, resp.Nonce, resp.RequestTimestamp); err != nil {
		return c, false, err
	}
	ok, err := o.checkClaim(ctx, c, now)
	return c, ok, err
}

func (o *Orchestrator) prepareBundle(ctx context.Context, bundle *types.MultiClaimResponse, clientID, clientVersion string, now time.Time) ([]*claimCheck, error) {
	if err := o.checkProtocol(clientVersion); err != nil {
		return nil, err
	}
	if bundle == nil || len(bundle.Proofs) == 0 {
		return nil, newError(KindValidation, "bundle contains no proofs")
	}
	if len(bundle.Proofs) > MaxClaimsPerBundle {
		return nil, newError(KindValidation, "bundle contains %d proofs, limit %d", len(bundle.Proofs), MaxClaimsPerBundle)
	}

	checks := make([]*claimCheck, 0, len(bundle.Proofs))
	for i := range bundle.Proofs {
		p := bundle.Proofs[i]
		if p.Nonce == "" {
			p.Nonce = bundle.Nonce
		}
		if p.RequestTimestamp.IsZero() {
			p.RequestTimestamp = bundle.RequestTimestamp
		}
		if p.Nonce != bundle.Nonce || !p.RequestTimestamp.Equal(bundle.RequestTimestamp) {
			return nil, newError(KindValidation, "proof %d does not share the bundle nonce and timestamp", i)
		}
		c, err := o.validate(&p, false, "", now)
		if err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}

	if err := o.admit(ctx, clientID); err != nil {
		return nil, err
	}
	if err := o.consume(ctx, bundle.Nonce, bundle.RequestTimestamp); err != nil {
		return nil, err
	}
	return checks, nil
}

// checkProtocol 客户端未声明版本时放行
func (o *Orchestrator) checkProtocol(clientVersion string) error {
	if clientVersion == "" {
		return nil
	}
	v, err := ParseProtocolVersion(clientVersion)
	if err != nil {
		return err
	}
	if v.Major != o.server.Major {
		return newError(KindProtocolVersion, "client protocol %s is incompatible with server %s", v, o.server)
	}
	return nil
}

// validate 结构校验，不做任何存储访问
func (o *Orchestrator) validate(resp *types.ProofResponse, signed bool, issuer string, now time.Time) (*claimCheck, error) {
	ct := resp.ClaimType
	if !ct.Known() {
		return nil, newError(KindValidation, "unknown claim type %q", ct)
	}
	if !o.allowed[ct] {
		return nil, newError(KindValidation, "claim type %q is not accepted", ct)
	}
	if signed && issuer == "" {
		return nil, newError(KindValidation, "issuer is required")
	}
	if err := o.checkNonce(resp.Nonce); err != nil {
		return nil, err
	}
	if err := o.checkTimestamp(resp.RequestTimestamp, now); err != nil {
		return nil, err
	}
	if err := checkProofShape(&resp.Proof); err != nil {
		return nil, err
	}

	layout, _ := types.LayoutFor(ct, signed)
	if len(resp.PublicSignals) != layout.Count {
		return nil, newError(KindValidation, "expected %d public signals for %s, got %d",
			layout.Count, types.CircuitID(ct, signed), len(resp.PublicSignals))
	}
	signals := make([]string, len(resp.PublicSignals))
	for i, s := range resp.PublicSignals {
		n, err := field.Normalize(s)
		if err != nil {
			return nil, newError(KindValidation, "public signal %d is not a field element", i)
		}
		signals[i] = n
	}

	if signals[layout.Nonce] != field.NonceField(resp.Nonce) {
		return nil, newError(KindValidation, "nonce signal does not match request nonce")
	}
	if signals[layout.RequestTimestamp] != field.TimestampField(resp.RequestTimestamp) {
		return nil, newError(KindValidation, "timestamp signal does not match request timestamp")
	}

	c := &claimCheck{resp: resp, signed: signed, issuer: issuer, layout: layout, signals: signals}
	if ct.IsAge() {
		minAge, ok := smallInt(signals[layout.MinAge], 0, maxMinAge)
		if !ok {
			return nil, newError(KindValidation, "minAge out of range")
		}
		year, ok := smallInt(signals[layout.CurrentYear], minReasonableYear, now.Year()+currentYearSkew)
		if !ok || year < now.Year()-currentYearSkew {
			return nil, newError(KindValidation, "currentYear is not current")
		}
		c.minAge = &minAge
	} else {
		target, ok := smallInt(signals[layout.TargetNationality], minNationality, maxNationality)
		if !ok {
			return nil, newError(KindValidation, "targetNationality out of range")
		}
		c.target = &target
	}
	return c, nil
}

func (o *Orchestrator) checkNonce(nonce string) error {
	if nonce == "" {
		return newError(KindValidation, "nonce is required")
	}
	if len(nonce) > o.options.MaxNonceLength {
		return newError(KindValidation, "nonce length %d exceeds %d", len(nonce), o.options.MaxNonceLength)
	}
	if !noncePattern.MatchString(nonce) {
		return newError(KindValidation, "nonce contains invalid characters")
	}
	return nil
}

func (o *Orchestrator) checkTimestamp(ts, now time.Time) error {
	if ts.IsZero() {
		return newError(KindValidation, "requestTimestamp is required")
	}
	if ts.Before(now.Add(-o.options.StaleWindow)) {
		return newError(KindValidation, "request timestamp is stale")
	}
	if ts.After(now.Add(o.options.FutureSkew)) {
		return newError(KindValidation, "request timestamp is in the future")
	}
	return nil
}

// admit 按客户端标识限流
func (o *Orchestrator) admit(ctx context.Context, clientID string) error {
	if o.deps.RateLimiter == nil {
		return nil
	}
	id := clientID
	if id == "" {
		id = anonymousClient
	}
	d, err := o.deps.RateLimiter.Allow(ctx, id)
	if err != nil {
		return classify(err, KindInternal)
	}
	if !d.Allowed {
		ve := newError(KindRateLimited, "rate limit exceeded for %s", id)
		ve.RetryAfter = d.RetryAfter
		return ve
	}
	return nil
}

// consume 一次性消费 nonce
//
// 配置了挑战存储时，nonce 必须是服务端签发的挑战，且请求时间戳与签发记录一致；
// 否则退化为已用 nonce 记录，记录保留整个可接受时间窗口。
func (o *Orchestrator) consume(ctx context.Context, nonce string, ts time.Time) error {
	if o.deps.Challenges != nil {
		issuedAt, ok, err := o.deps.Challenges.Consume(ctx, nonce)
		if err != nil {
			return classify(err, KindInternal)
		}
		if !ok {
			return newError(KindReplay, "nonce is unknown, expired or already used")
		}
		if issuedAt != ts.UnixMilli() {
			return newError(KindReplay, "request timestamp does not match the issued challenge")
		}
		return nil
	}

	fresh, err := o.deps.Nonces.CheckAndAdd(ctx, nonce, o.options.StaleWindow+o.options.FutureSkew)
	if err != nil {
		return classify(err, KindInternal)
	}
	if !fresh {
		return newError(KindReplay, "nonce already used")
	}
	return nil
}

// checkClaim 吊销、信任与密码学验证
func (o *Orchestrator) checkClaim(ctx context.Context, c *claimCheck, now time.Time) (bool, error) {
	if err := o.checkRevocation(ctx, c); err != nil {
		return false, err
	}
	if err := o.checkTrust(ctx, c, now); err != nil {
		return false, err
	}
	ok, err := o.deps.ProvingSystem.Verify(ctx, c.resp.ClaimType, c.signed, c.resp.Proof, c.signals)
	if err != nil {
		return false, classify(err, KindProvingSystem)
	}
	return ok, nil
}

func (o *Orchestrator) checkRevocation(ctx context.Context, c *claimCheck) error {
	credential := c.signals[c.layout.CredentialHash]

	if c.resp.ClaimType.IsRevocable() {
		m := o.deps.Membership
		if m == nil {
			return newError(KindConfig, "revocation accumulator is not configured")
		}
		if !m.IsKnownRoot(c.signals[c.layout.MerkleRoot]) {
			return newError(KindRevocation, "merkle root is not a current accumulator root")
		}
		if !m.Contains(credential) {
			return newError(KindRevocation, "credential is not in the valid set")
		}
		return nil
	}

	if o.deps.Revocations == nil {
		return nil
	}
	revoked, err := o.deps.Revocations.IsRevoked(ctx, credential)
	if err != nil {
		return classify(err, KindInternal)
	}
	if revoked {
		return newError(KindRevocation, "credential has been revoked")
	}
	return nil
}

// checkTrust 发行方必须在 now 时刻有效，且证明绑定其注册公钥
func (o *Orchestrator) checkTrust(ctx context.Context, c *claimCheck, now time.Time) error {
	if !c.signed {
		return nil
	}
	if o.deps.Issuers == nil {
		return newError(KindConfig, "issuer registry is not configured")
	}
	rec, err := o.deps.Issuers.GetIssuer(ctx, c.issuer)
	if err != nil {
		return classify(err, KindInternal)
	}
	if rec == nil {
		return newError(KindTrust, "unknown issuer %q", c.issuer)
	}
	if !rec.ActiveAt(now) {
		return newError(KindTrust, "issuer %q is not active", c.issuer)
	}
	pub, err := hex.DecodeString(rec.PublicKey)
	if err != nil {
		return newError(KindTrust, "issuer %q has a malformed public key", c.issuer)
	}
	if c.signals[c.layout.IssuerKey] != field.IssuerKeyField(pub) {
		return newError(KindTrust, "proof is not bound to the key of issuer %q", c.issuer)
	}
	return nil
}

// ============================================================================
//                              结果与遥测
// ============================================================================

// complete 填充结果；只在验证通过时暴露声明参数
func (o *Orchestrator) complete(res *types.VerificationResult, c *claimCheck, ok bool, err error) {
	res.Verified = ok && err == nil
	if res.Verified && c != nil {
		res.MinAge = c.minAge
		res.TargetNationality = c.target
	}
	if err == nil {
		return
	}
	res.Error = o.publicMessage(err)

	ve := classify(err, KindInternal)
	switch ve.Kind {
	case KindProvingSystem, KindInternal, KindConfig:
		o.logger.Warnf("验证失败: claim_type=%s kind=%s reason=%s", res.ClaimType, ve.Kind, ve.Reason)
	default:
		o.logger.Debugf("验证拒绝: claim_type=%s kind=%s reason=%s", res.ClaimType, ve.Kind, ve.Reason)
	}
}

// publicMessage verboseErrors 关闭时隐藏具体失败检查
func (o *Orchestrator) publicMessage(err error) string {
	ve := classify(err, KindInternal)
	if o.options.VerboseErrors || ve.Kind.Public() {
		return ve.Error()
	}
	return GenericFailureMessage
}

func (o *Orchestrator) emit(claimType types.ClaimType, clientID string, verified bool, err error, start time.Time) {
	if len(o.deps.Observers) == 0 {
		return
	}
	event := types.VerificationEvent{
		ClaimType: claimType,
		ClientID:  clientID,
		Verified:  verified && err == nil,
		ErrorKind: string(KindOf(err)),
		Duration:  o.clock.Since(start),
		Timestamp: start,
	}
	for _, obs := range o.deps.Observers {
		o.notify(obs, event)
	}
}

// notify 观察者的 panic 被吞掉，不影响验证结果
func (o *Orchestrator) notify(obs zkid.TelemetryObserver, event types.VerificationEvent) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warnf("遥测观察者异常: %v", r)
		}
	}()
	obs.Observe(event)
}

// smallInt 将规范十进制信号解析为 [lo, hi] 内的整数
func smallInt(s string, lo, hi int) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}
