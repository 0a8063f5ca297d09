package accumulator

// 存储后端
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

const (
	// defaultDepth 默认树深度，容量 2^16
	defaultDepth = 16

	defaultBackend     = BackendMemory
	defaultBadgerPath  = "./data/accumulator"
	defaultRootHistory = 16
)
