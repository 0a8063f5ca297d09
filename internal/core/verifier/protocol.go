package verifier

import (
	"fmt"
	"regexp"
	"strconv"
)

var protocolPattern = regexp.MustCompile(`^zk-id/(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?$`)

// ProtocolVersion 协议版本 zk-id/<major>.<minor>[-suffix]
type ProtocolVersion struct {
	Major  int
	Minor  int
	Suffix string
}

func (v ProtocolVersion) String() string {
	s := fmt.Sprintf("zk-id/%d.%d", v.Major, v.Minor)
	if v.Suffix != "" {
		s += "-" + v.Suffix
	}
	return s
}

// ParseProtocolVersion 解析协议版本字符串
func ParseProtocolVersion(s string) (ProtocolVersion, error) {
	m := protocolPattern.FindStringSubmatch(s)
	if m == nil {
		return ProtocolVersion{}, newError(KindProtocolVersion, "malformed protocol version %q", s)
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return ProtocolVersion{}, newError(KindProtocolVersion, "major version out of range in %q", s)
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return ProtocolVersion{}, newError(KindProtocolVersion, "minor version out of range in %q", s)
	}
	return ProtocolVersion{Major: major, Minor: minor, Suffix: m[3]}, nil
}

// IsCompatible 主版本号相同即兼容；任一方无法解析视为不兼容
func IsCompatible(a, b string) bool {
	va, err := ParseProtocolVersion(a)
	if err != nil {
		return false
	}
	vb, err := ParseProtocolVersion(b)
	if err != nil {
		return false
	}
	return va.Major == vb.Major
}
