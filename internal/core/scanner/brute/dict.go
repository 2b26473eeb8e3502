package brute

import "strings"

// Dictionary 单个服务的默认字典
type Dictionary struct {
	Users     []string
	Passwords []string
}

// CommonUsers / CommonPasswords 未单独配置字典的服务共用
var (
	CommonUsers = []string{
		"admin", "root", "user", "test", "guest", "info",
		"administrator", "support", "manager", "webmaster",
	}
	CommonPasswords = []string{
		"", "admin", "password", "123456", "12345678", "root",
		"toor", "pass", "test", "guest", "info", "qwerty",
		"abc123", "password123", "admin123", "root123",
	}
)

var serviceDicts = map[string]Dictionary{
	"ssh": {
		Users:     []string{"root", "admin", "ubuntu", "user", "pi", "test"},
		Passwords: []string{"admin", "password", "raspberry", "ubuntu", "toor", "alpine", "12345"},
	},
	"ftp": {
		Users:     []string{"anonymous", "ftp", "admin", "root", "user"},
		Passwords: []string{"", "anonymous", "ftp", "admin", "password", "123456"},
	},
	"telnet": {
		Users:     CommonUsers[:5],
		Passwords: CommonPasswords[:8],
	},
	"mysql": {
		Users:     []string{"root", "admin", "mysql", "user", "dbadmin"},
		Passwords: []string{"", "root", "admin", "mysql", "password", "toor", "123456"},
	},
	"postgres": {
		Users:     []string{"postgres", "admin", "root"},
		Passwords: []string{"", "postgres", "admin", "password", "123456", "%user%123"},
	},
	"mssql": {
		Users:     []string{"sa", "admin"},
		Passwords: []string{"", "sa", "admin", "password", "123456", "%user%@123"},
	},
	"snmp": {
		Passwords: []string{"public", "private", "community", "manager", "admin"},
	},
}

// DictFor 返回服务的默认字典，未配置的服务使用公共字典
func DictFor(service string) Dictionary {
	if d, ok := serviceDicts[strings.ToLower(service)]; ok {
		return d
	}
	return Dictionary{Users: CommonUsers, Passwords: CommonPasswords}
}

// Generate 按模式生成凭据序列，自定义列表非空时覆盖默认字典
// 密码中的 %user% 会替换为当前用户名，仅密码模式下替换为 admin
func Generate(service string, mode AuthMode, users, passwords []string) []Auth {
	dict := DictFor(service)
	if len(users) > 0 {
		dict.Users = users
	}
	if len(passwords) > 0 {
		dict.Passwords = passwords
	}

	var list []Auth
	switch mode {
	case AuthModeOnlyPass:
		for _, p := range dict.Passwords {
			list = append(list, Auth{Password: strings.ReplaceAll(p, "%user%", "admin")})
		}
	default:
		for _, u := range dict.Users {
			for _, p := range dict.Passwords {
				list = append(list, Auth{Username: u, Password: strings.ReplaceAll(p, "%user%", u)})
			}
		}
	}
	return list
}
