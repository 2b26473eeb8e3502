package dirscan

import (
	"fmt"
	"strings"

	"pathfinder/internal/core/model"
)

const (
	LevelQuick  = "quick"
	LevelMedium = "medium"
)

// QuickWordlist 管理后台、常见目录、敏感文件、备份与信息泄露
var QuickWordlist = []string{
	"admin", "administrator", "admin.php", "admin.html", "admin/login",
	"admin/index.php", "admin/admin.php", "wp-admin", "wp-login.php",
	"phpmyadmin", "phpMyAdmin", "pma", "adminer.php", "cpanel",

	"backup", "backups", "bak", "old", "temp", "tmp",
	"uploads", "upload", "files", "images", "img",
	"assets", "static", "public", "private",
	"config", "conf", "configuration",
	"includes", "inc", "lib", "libs", "vendor",
	"test", "tests", "testing", "dev", "development",
	"api", "rest", "v1", "v2",

	".git", ".git/HEAD", ".git/config",
	".env", ".env.local", ".env.production",
	".htaccess", ".htpasswd",
	"web.config", "config.php", "configuration.php",
	"settings.py", "settings.php",
	"database.yml", "database.php",
	"wp-config.php", "wp-config.php.bak",
	"config.json", "config.yml",

	"backup.zip", "backup.tar.gz", "backup.sql",
	"database.sql", "db.sql", "dump.sql",
	"site.zip", "www.zip", "web.zip",

	"robots.txt", "sitemap.xml",
	"phpinfo.php", "info.php", "test.php",
	"readme.html", "README.md", "CHANGELOG.md",
	"server-status", "server-info",
	".DS_Store", "thumbs.db",
}

var mediumExtra = []string{
	"administrator/index.php", "moderator", "webadmin",
	"adminarea", "adminpanel", "admin_area",
	"bb-admin", "adminLogin", "admin_login",
	"panel-administracion", "instadmin",

	"joomla/administrator", "drupal", "myadmin",
	"typo3", "umbraco", "concrete5",

	"cache", "logs", "log", "debug",
	"docs", "documentation", "manual",
	"download", "downloads", "dl",
	"data", "db", "database", "databases",
	"sql", "mysql", "postgres",
	"scripts", "js", "css", "fonts",
	"media", "videos", "audio",
	"archive", "archives", "old_site",

	".bashrc", ".bash_history", ".profile",
	".ssh", ".ssh/id_rsa", ".ssh/authorized_keys",
	"id_rsa", "id_rsa.pub",
	".svn", ".svn/entries",
	"CVS", "CVS/Root",
	".dockerignore", "Dockerfile", "docker-compose.yml",

	"backup.old", "backup_old", "old_backup",
	"www.tar.gz", "public_html.zip",
	"htdocs.zip", "site_backup.zip",
}

// MediumWordlist QuickWordlist 的超集
var MediumWordlist = append(append([]string{}, QuickWordlist...), mediumExtra...)

// Sensitive 敏感文件命中描述
type Sensitive struct {
	Risk model.Severity
	Desc string
}

// SensitiveFiles 返回 200 即视为泄露的路径
var SensitiveFiles = map[string]Sensitive{
	".git/HEAD":     {model.SeverityCritical, "Git repository exposed"},
	".env":          {model.SeverityCritical, "Environment variables exposed"},
	"wp-config.php": {model.SeverityCritical, "WordPress config exposed"},
	"config.php":    {model.SeverityHigh, "PHP config file"},
	".htpasswd":     {model.SeverityCritical, "Password file exposed"},
	"database.sql":  {model.SeverityCritical, "Database dump exposed"},
	"backup.zip":    {model.SeverityHigh, "Backup file accessible"},
	"phpinfo.php":   {model.SeverityHigh, "PHP info page"},
}

// Wordlist 按级别返回字典
func Wordlist(level string) ([]string, error) {
	switch strings.ToLower(level) {
	case "", LevelQuick:
		return QuickWordlist, nil
	case LevelMedium:
		return MediumWordlist, nil
	}
	return nil, fmt.Errorf("unknown wordlist level %q (quick|medium)", level)
}
