package fingerprint

import (
	"sort"
	"strings"

	"pathfinder/internal/core/model"
)

// Evidence 指纹识别的输入
type Evidence struct {
	TTL       int
	OpenPorts []int
	Banners   map[int]string
	HTTP      *model.HTTPInfo
}

// EvidenceFromHost 从主机记录提取证据
func EvidenceFromHost(h *model.HostRecord) Evidence {
	return Evidence{
		TTL:       h.TTL,
		OpenPorts: h.OpenPorts,
		Banners:   h.Banners,
		HTTP:      h.HTTP,
	}
}

func (e Evidence) has(port int) bool {
	for _, p := range e.OpenPorts {
		if p == port {
			return true
		}
	}
	return false
}

func (e Evidence) hasAny(ports ...int) bool {
	for _, p := range ports {
		if e.has(p) {
			return true
		}
	}
	return false
}

func (e Evidence) banner(port int) string {
	return strings.ToLower(e.Banners[port])
}

// bannerTexts 按端口升序返回小写 banner，HTTP Server 头排在最后
func (e Evidence) bannerTexts() []string {
	ports := make([]int, 0, len(e.Banners))
	for p := range e.Banners {
		ports = append(ports, p)
	}
	sort.Ints(ports)

	texts := make([]string, 0, len(ports)+1)
	for _, p := range ports {
		texts = append(texts, strings.ToLower(e.Banners[p]))
	}
	if s := e.server(); s != "" {
		texts = append(texts, strings.ToLower(s))
	}
	return texts
}

func (e Evidence) server() string {
	if e.HTTP == nil {
		return ""
	}
	return e.HTTP.Server
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
