// 版本信息，BuildTime/GitCommit/GoVersion 通过 -ldflags 注入
package version

var (
	Version    = "1.2.0"
	APIVersion = "1.0" // 对外标识版本，用于 User-Agent 与快照格式
	BuildTime  string
	GitCommit  string
	GoVersion  string
)

// GetVersion 返回版本号
func GetVersion() string {
	return Version
}

// GetUserAgent HTTP 探测使用的默认 User-Agent
func GetUserAgent() string {
	return "PathFinder/" + APIVersion
}
