package replay

import "time"

const (
	// defaultChallengeTTL 挑战有效期
	defaultChallengeTTL = 5 * time.Minute

	// defaultConsumeStrategy 构造时探测服务端版本决定消费策略
	defaultConsumeStrategy = "auto"

	defaultMaxNonceLength = 256
)
