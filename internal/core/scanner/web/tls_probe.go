package web

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"net"
	"strconv"
	"time"

	"pathfinder/internal/core/lib/network/dialer"
	"pathfinder/internal/core/model"
)

// TLSProber 读取服务端证书的有效期
type TLSProber struct {
	Timeout time.Duration
	now     func() time.Time
}

func NewTLSProber(timeout time.Duration) *TLSProber {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &TLSProber{Timeout: timeout, now: time.Now}
}

// Probe 握手并返回叶子证书信息，不校验证书链，自签名证书同样可以读取有效期
func (p *TLSProber) Probe(ctx context.Context, ip string, port int) (*model.TLSInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	raw, err := dialer.Get().DialContext(ctx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("tls dial: %w", err)
	}
	defer raw.Close()

	conn := tls.Client(raw, &tls.Config{InsecureSkipVerify: true, ServerName: ip})
	if err := conn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, fmt.Errorf("no peer certificate")
	}
	leaf := certs[0]

	return CertExpiry(leaf.NotAfter, p.now(), leaf.Subject.CommonName, leaf.Issuer.CommonName), nil
}

// CertExpiry 计算剩余天数，向下取整，为负表示已过期
func CertExpiry(notAfter, now time.Time, subject, issuer string) *model.TLSInfo {
	days := int(math.Floor(notAfter.Sub(now).Hours() / 24))
	return &model.TLSInfo{
		Subject:       subject,
		Issuer:        issuer,
		ValidUntil:    notAfter.UTC(),
		ExpiresInDays: days,
		Valid:         days >= 0,
	}
}
