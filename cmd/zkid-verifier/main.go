// zkid-verifier 零知识身份声明验证服务
//
// 子命令：
//   - serve: 启动 HTTP 验证服务
//   - setup: 为全部电路执行可信设置并写出密钥
//   - issuer / revocation / credential: 共享存储上的运维操作
//   - version: 版本信息
package main

func main() {
	Execute()
}
