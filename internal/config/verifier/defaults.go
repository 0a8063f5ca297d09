package verifier

import "time"

// DefaultProtocolVersion 服务端协议版本
const DefaultProtocolVersion = "zk-id/1.0"

const (
	// defaultStaleWindow 请求时间戳最多早于当前时间 5 分钟
	defaultStaleWindow = 5 * time.Minute

	// defaultFutureSkew 允许客户端时钟领先 30 秒
	defaultFutureSkew = 30 * time.Second

	defaultVerboseErrors  = false
	defaultArtifactsDir   = ""
	defaultMaxNonceLength = 256

	// defaultRequireChallenge 默认只接受 /v1/challenge 签发的 nonce
	defaultRequireChallenge = true
)
