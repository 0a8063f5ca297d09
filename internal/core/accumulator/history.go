package accumulator

// rootHistory 最近根的环形缓冲，用于接受基于稍旧根生成的证明
type rootHistory struct {
	roots []string
	next  int
	full  bool
}

func newRootHistory(size int) *rootHistory {
	return &rootHistory{roots: make([]string, size)}
}

func (h *rootHistory) push(root string) {
	// 连续相同的根只记录一次
	if last := h.last(); last == root {
		return
	}
	h.roots[h.next] = root
	h.next = (h.next + 1) % len(h.roots)
	if h.next == 0 {
		h.full = true
	}
}

func (h *rootHistory) last() string {
	if !h.full && h.next == 0 {
		return ""
	}
	return h.roots[(h.next-1+len(h.roots))%len(h.roots)]
}

func (h *rootHistory) contains(root string) bool {
	n := h.next
	if h.full {
		n = len(h.roots)
	}
	for i := 0; i < n; i++ {
		if h.roots[i] == root {
			return true
		}
	}
	return false
}
