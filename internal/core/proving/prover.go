package proving

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/weisyn/zkid/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/zkid/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkid/pkg/interfaces/zkid"
	"github.com/weisyn/zkid/pkg/types"
)

// 产物文件后缀
const (
	provingKeySuffix   = ".pk"
	verifyingKeySuffix = ".vk"
	snarkjsKeySuffix   = ".vkey.json"
)

// gnark 内部使用 zerolog 输出编译与证明日志，进程内只静默一次
var quietGnark sync.Once

func silenceGnark() {
	quietGnark.Do(func() {
		gnarklogger.Set(zerolog.Nop())
	})
}

// CircuitRef 电路标识
type CircuitRef struct {
	ClaimType types.ClaimType
	Signed    bool
}

// ID 电路标识字符串
func (r CircuitRef) ID() string {
	return types.CircuitID(r.ClaimType, r.Signed)
}

// KnownCircuits 返回全部声明类型的未签名与签名电路
func KnownCircuits() []CircuitRef {
	var refs []CircuitRef
	for _, ct := range types.KnownClaimTypes() {
		refs = append(refs, CircuitRef{ClaimType: ct}, CircuitRef{ClaimType: ct, Signed: true})
	}
	return refs
}

// circuitSetup 可信设置缓存（已编译电路、ProvingKey、VerifyingKey）
type circuitSetup struct {
	ccs      constraint.ConstraintSystem
	pk       groth16.ProvingKey
	vk       groth16.VerifyingKey
	prepared *PreparedKey
	exported types.VerificationKey
}

// GnarkProvingSystem 基于 gnark 的 Groth16/BN254 证明系统
//
// 🎯 **职责**：
//   - 按需编译声明电路并执行可信设置（按电路标识缓存）
//   - 生成 snarkjs 格式的证明与公开信号
//   - 以配对检查验证证明
//   - 导出/加载证明密钥与验证密钥
//
// ⚠️ 进程内 Setup 生成的密钥只在持久化后才能跨进程使用（SaveArtifacts）。
type GnarkProvingSystem struct {
	depth  int
	logger logInterface.Logger

	mu     sync.Mutex
	setups map[string]*circuitSetup
}

// 确保实现接口
var _ zkid.ProvingSystem = (*GnarkProvingSystem)(nil)

// NewGnarkProvingSystem 创建证明系统；depth 为可吊销电路的 Merkle 深度，须与累加器一致
func NewGnarkProvingSystem(depth int, logger logInterface.Logger) (*GnarkProvingSystem, error) {
	if depth < 1 || depth > 20 {
		return nil, fmt.Errorf("%w: merkle depth %d out of range [1,20]", types.ErrConfig, depth)
	}
	silenceGnark()
	return &GnarkProvingSystem{
		depth:  depth,
		logger: log.OrNop(logger),
		setups: make(map[string]*circuitSetup),
	}, nil
}

// Depth 可吊销电路的 Merkle 深度
func (s *GnarkProvingSystem) Depth() int { return s.depth }

func (s *GnarkProvingSystem) compile(ref CircuitRef) (constraint.ConstraintSystem, error) {
	circuit, err := NewClaimCircuit(ref.ClaimType, ref.Signed, s.depth)
	if err != nil {
		return nil, err
	}
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, WrapCircuitCompilationFailedError(ref.ID(), err)
	}
	return ccs, nil
}

// Setup 编译电路并执行可信设置，已存在时直接返回
func (s *GnarkProvingSystem) Setup(ref CircuitRef) error {
	_, err := s.setup(ref)
	return err
}

func (s *GnarkProvingSystem) setup(ref CircuitRef) (*circuitSetup, error) {
	id := ref.ID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.setups[id]; ok {
		return entry, nil
	}

	start := time.Now()
	ccs, err := s.compile(ref)
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("%w: circuitID=%s, cause=%v", ErrSetupFailed, id, err)
	}
	entry, err := newCircuitSetup(ccs, pk, vk)
	if err != nil {
		return nil, err
	}
	s.setups[id] = entry
	s.logger.Infof("电路可信设置完成: circuit=%s constraints=%d 耗时=%v", id, ccs.GetNbConstraints(), time.Since(start))
	return entry, nil
}

func newCircuitSetup(ccs constraint.ConstraintSystem, pk groth16.ProvingKey, vk groth16.VerifyingKey) (*circuitSetup, error) {
	exported, err := ExportVerificationKey(vk)
	if err != nil {
		return nil, err
	}
	prepared, err := PrepareVerificationKey(exported)
	if err != nil {
		return nil, err
	}
	return &circuitSetup{ccs: ccs, pk: pk, vk: vk, prepared: prepared, exported: exported}, nil
}

// Prove 生成证明与公开信号
func (s *GnarkProvingSystem) Prove(ctx context.Context, claimType types.ClaimType, signed bool, inputs types.CircuitInputs) (*types.Groth16Proof, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ref := CircuitRef{ClaimType: claimType, Signed: signed}
	assignment, signals, err := buildAssignment(claimType, signed, s.depth, inputs)
	if err != nil {
		return nil, nil, err
	}
	entry, err := s.setup(ref)
	if err != nil {
		return nil, nil, err
	}

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, nil, WrapProofGenerationFailedError(ref.ID(), err)
	}
	proof, err := groth16.Prove(entry.ccs, entry.pk, w)
	if err != nil {
		return nil, nil, WrapProofGenerationFailedError(ref.ID(), err)
	}
	out, err := ExportProof(proof)
	if err != nil {
		return nil, nil, err
	}
	return out, signals, nil
}

// Verify 校验证明；本进程尚未设置的电路会先执行可信设置
func (s *GnarkProvingSystem) Verify(ctx context.Context, claimType types.ClaimType, signed bool, proof types.Groth16Proof, publicSignals []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	entry, err := s.setup(CircuitRef{ClaimType: claimType, Signed: signed})
	if err != nil {
		return false, err
	}
	return VerifyGroth16(entry.prepared, proof, publicSignals)
}

// VerificationKey 返回 snarkjs 格式的验证密钥
func (s *GnarkProvingSystem) VerificationKey(ref CircuitRef) (types.VerificationKey, error) {
	entry, err := s.setup(ref)
	if err != nil {
		return types.VerificationKey{}, err
	}
	return entry.exported, nil
}

// SaveArtifacts 将已设置电路的密钥写入目录：
// <id>.pk / <id>.vk 为 gnark 二进制格式，<id>.vkey.json 为 snarkjs 格式
func (s *GnarkProvingSystem) SaveArtifacts(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := 0
	for id, entry := range s.setups {
		if err := writeTo(filepath.Join(dir, id+provingKeySuffix), entry.pk.WriteTo); err != nil {
			return saved, err
		}
		if err := writeTo(filepath.Join(dir, id+verifyingKeySuffix), entry.vk.WriteTo); err != nil {
			return saved, err
		}
		data, err := json.MarshalIndent(entry.exported, "", "  ")
		if err != nil {
			return saved, err
		}
		if err := os.WriteFile(filepath.Join(dir, id+snarkjsKeySuffix), data, 0o644); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

// LoadArtifacts 从目录加载密钥，缺失的电路跳过，返回加载数量
func (s *GnarkProvingSystem) LoadArtifacts(dir string) (int, error) {
	loaded := 0
	for _, ref := range KnownCircuits() {
		id := ref.ID()
		pkPath := filepath.Join(dir, id+provingKeySuffix)
		vkPath := filepath.Join(dir, id+verifyingKeySuffix)
		if !fileExists(pkPath) || !fileExists(vkPath) {
			continue
		}
		ccs, err := s.compile(ref)
		if err != nil {
			return loaded, err
		}
		pk := groth16.NewProvingKey(ecc.BN254)
		if err := readFrom(pkPath, pk.ReadFrom); err != nil {
			return loaded, fmt.Errorf("%w: read %s: %v", ErrSetupFailed, pkPath, err)
		}
		vk := groth16.NewVerifyingKey(ecc.BN254)
		if err := readFrom(vkPath, vk.ReadFrom); err != nil {
			return loaded, fmt.Errorf("%w: read %s: %v", ErrSetupFailed, vkPath, err)
		}
		entry, err := newCircuitSetup(ccs, pk, vk)
		if err != nil {
			return loaded, err
		}
		if entry.prepared.NPublic() != ccs.GetNbPublicVariables()-1 {
			return loaded, fmt.Errorf("%w: %s has %d public inputs, circuit has %d",
				ErrInvalidVerificationKey, id, entry.prepared.NPublic(), ccs.GetNbPublicVariables()-1)
		}
		s.mu.Lock()
		s.setups[id] = entry
		s.mu.Unlock()
		loaded++
	}
	s.logger.Infof("证明产物已加载: dir=%s count=%d", dir, loaded)
	return loaded, nil
}

// ExportVerificationKey 将 gnark 验证密钥转换为 snarkjs 格式
func ExportVerificationKey(vk groth16.VerifyingKey) (types.VerificationKey, error) {
	bvk, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return types.VerificationKey{}, fmt.Errorf("%w: unsupported verifying key type %T", ErrInvalidVerificationKey, vk)
	}
	if len(bvk.CommitmentKeys) > 0 {
		return types.VerificationKey{}, fmt.Errorf("%w: commitment keys not supported", ErrInvalidVerificationKey)
	}
	out := types.VerificationKey{
		Protocol: "groth16",
		Curve:    "bn128",
		NPublic:  len(bvk.G1.K) - 1,
		Alpha1:   FormatG1(&bvk.G1.Alpha),
		Beta2:    FormatG2(&bvk.G2.Beta),
		Gamma2:   FormatG2(&bvk.G2.Gamma),
		Delta2:   FormatG2(&bvk.G2.Delta),
		IC:       make([][]string, len(bvk.G1.K)),
	}
	for i := range bvk.G1.K {
		out.IC[i] = FormatG1(&bvk.G1.K[i])
	}
	return out, nil
}

// ExportProof 将 gnark 证明转换为 snarkjs 格式
func ExportProof(proof groth16.Proof) (*types.Groth16Proof, error) {
	bp, ok := proof.(*groth16bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported proof type %T", types.ErrProvingSystem, proof)
	}
	return &types.Groth16Proof{
		PiA:      FormatG1(&bp.Ar),
		PiB:      FormatG2(&bp.Bs),
		PiC:      FormatG1(&bp.Krs),
		Protocol: "groth16",
		Curve:    "bn128",
	}, nil
}
