package utils

import (
	"bufio"
	"os"
	"strings"
)

// LoadList 读取列表：input 为已存在的文件时按行读取，否则按逗号分隔
// 空行与 # 开头的注释行会被忽略
func LoadList(input string) ([]string, error) {
	if input == "" {
		return nil, nil
	}

	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		f, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var items []string
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			items = append(items, line)
		}
		return items, scanner.Err()
	}

	var items []string
	for _, item := range strings.Split(input, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items, nil
}
