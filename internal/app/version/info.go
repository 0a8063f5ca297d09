// Package version provides build information for zkid-verifier.
package version

import (
	"fmt"
	"runtime"
	"time"

	verifierconfig "github.com/weisyn/zkid/internal/config/verifier"
)

// 构建时通过 ldflags 注入
var (
	Version   = "v0.1.0"
	BuildTime = "unknown" // RFC3339
	GitCommit = "unknown"
	BuildEnv  = "development" // development | production
)

// BuildInfo 构建信息
type BuildInfo struct {
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocol_version"`
	BuildTime       string `json:"build_time"`
	GitCommit       string `json:"git_commit"`
	BuildEnv        string `json:"build_env"`
	GoVersion       string `json:"go_version"`
	Platform        string `json:"platform"`
}

// GetVersion 获取版本号
func GetVersion() string {
	return Version
}

// GetBuildInfo 获取完整构建信息
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Version:         Version,
		ProtocolVersion: verifierconfig.DefaultProtocolVersion,
		BuildTime:       BuildTime,
		GitCommit:       GitCommit,
		BuildEnv:        BuildEnv,
		GoVersion:       runtime.Version(),
		Platform:        runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetFullVersion 多行版本描述，用于 version 命令
func GetFullVersion() string {
	info := GetBuildInfo()
	s := fmt.Sprintf("zkid-verifier %s (协议 %s)", info.Version, info.ProtocolVersion)
	if info.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
			s += fmt.Sprintf("\n构建时间: %s", t.Format("2006-01-02 15:04:05 MST"))
		} else {
			s += fmt.Sprintf("\n构建时间: %s", info.BuildTime)
		}
	}
	if info.GitCommit != "unknown" {
		s += fmt.Sprintf("\n提交: %s", info.GitCommit)
	}
	s += fmt.Sprintf("\n构建环境: %s", info.BuildEnv)
	s += fmt.Sprintf("\nGo版本: %s", info.GoVersion)
	s += fmt.Sprintf("\n平台: %s", info.Platform)
	return s
}

// IsProductionBuild 判断是否为生产构建
func IsProductionBuild() bool { return BuildEnv == "production" }
