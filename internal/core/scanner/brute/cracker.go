package brute

import (
	"context"
	"errors"
)

// AuthMode 凭据形态
type AuthMode int

const (
	AuthModeUserPass AuthMode = iota // 用户名 + 密码 (SSH, MySQL)
	AuthModeOnlyPass                 // 仅密码/团体名 (Redis, SNMP)
)

// Auth 一组待验证的凭据
type Auth struct {
	Username string
	Password string
}

// Cracker 协议适配器
//
// Check 返回 (true, nil) 表示认证成功；密码错误返回 (false, nil)。
// 网络不可达、超时、被重置统一返回 ErrConnectionFailed，
// 对端不是预期协议时返回 ErrProtocolError。
type Cracker interface {
	Name() string
	Mode() AuthMode
	Check(ctx context.Context, host string, port int, auth Auth) (bool, error)
}

var (
	ErrConnectionFailed = errors.New("connection failed")
	ErrProtocolError    = errors.New("protocol error")
)
