// Package proving implements the Groth16/BN254 proving system used for zk-id claims.
package proving

import (
	"errors"
	"fmt"

	"github.com/weisyn/zkid/pkg/types"
)

// ============================================================================
//                            证明系统错误定义
// ============================================================================

var (
	// ErrCircuitNotFound 声明类型没有对应电路或验证密钥
	ErrCircuitNotFound = fmt.Errorf("%w: circuit not found", types.ErrProvingSystem)

	// ErrCircuitCompilationFailed 电路编译失败
	ErrCircuitCompilationFailed = fmt.Errorf("%w: circuit compilation failed", types.ErrProvingSystem)

	// ErrSetupFailed 可信设置失败
	ErrSetupFailed = fmt.Errorf("%w: trusted setup failed", types.ErrProvingSystem)

	// ErrProofGenerationFailed 证明生成失败
	ErrProofGenerationFailed = fmt.Errorf("%w: proof generation failed", types.ErrProvingSystem)

	// ErrProvingUnsupported 仅验证的后端不支持生成证明
	ErrProvingUnsupported = fmt.Errorf("%w: proving not supported by this backend", types.ErrProvingSystem)

	// ErrInvalidVerificationKey 验证密钥格式错误
	ErrInvalidVerificationKey = fmt.Errorf("%w: invalid verification key", types.ErrProvingSystem)

	// ErrInvalidWitness 证明输入不完整或非法
	ErrInvalidWitness = fmt.Errorf("%w: invalid witness", types.ErrValidation)

	// ErrInvalidPoint 曲线点坐标非法（越界、不在曲线或子群上）
	ErrInvalidPoint = errors.New("invalid curve point")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapCircuitNotFoundError 包装电路未找到错误
func WrapCircuitNotFoundError(circuitID string) error {
	return fmt.Errorf("%w: circuitID=%s", ErrCircuitNotFound, circuitID)
}

// WrapCircuitCompilationFailedError 包装电路编译失败错误
func WrapCircuitCompilationFailedError(circuitID string, err error) error {
	return fmt.Errorf("%w: circuitID=%s, cause=%v", ErrCircuitCompilationFailed, circuitID, err)
}

// WrapProofGenerationFailedError 包装证明生成失败错误
func WrapProofGenerationFailedError(circuitID string, err error) error {
	return fmt.Errorf("%w: circuitID=%s, cause=%v", ErrProofGenerationFailed, circuitID, err)
}

// WrapInvalidWitnessError 包装无效见证错误
func WrapInvalidWitnessError(circuitID, reason string) error {
	return fmt.Errorf("%w: circuitID=%s, reason=%s", ErrInvalidWitness, circuitID, reason)
}
