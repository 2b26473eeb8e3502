package protocol

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"pathfinder/internal/core/lib/network/dialer"
	"pathfinder/internal/core/scanner/brute"
)

// MongoCracker MongoDB SCRAM 认证，认证库为 admin
type MongoCracker struct{}

func NewMongoCracker() *MongoCracker {
	return &MongoCracker{}
}

func (c *MongoCracker) Name() string { return "mongo" }

func (c *MongoCracker) Mode() brute.AuthMode { return brute.AuthModeUserPass }

func (c *MongoCracker) Check(ctx context.Context, host string, port int, auth brute.Auth) (bool, error) {
	u := &url.URL{
		Scheme:   "mongodb",
		User:     url.UserPassword(auth.Username, auth.Password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/",
		RawQuery: "authSource=admin&directConnection=true",
	}
	opts := options.Client().
		ApplyURI(u.String()).
		SetDialer(dialer.Get()).
		SetConnectTimeout(brute.DefaultTimeout).
		SetServerSelectionTimeout(brute.DefaultTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return false, brute.ErrConnectionFailed
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return false, c.handleError(err)
	}
	return true, nil
}

// handleError 无法确认是认证失败的错误一律按连接失败处理，避免误报
func (c *MongoCracker) handleError(err error) error {
	return classify(err,
		[]string{"authentication failed", "auth failed", "sasl conversation error"},
		brute.ErrConnectionFailed)
}
