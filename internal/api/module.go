package api

import (
	"go.uber.org/fx"

	"github.com/weisyn/zkid/internal/api/http"
)

// Module 返回API模块选项，使其可以被fx框架注册
func Module() fx.Option {
	return fx.Module("api",
		http.Module(),

		// 显式依赖，确保HTTP服务器被构造并挂上生命周期
		fx.Invoke(func(*http.Server) {}),
	)
}
