package writer

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
)

// proxyURL validates the proxy settings as a unit and returns the proxy URL,
// or nil when no proxy is configured.
//
// Host and port must be set together; username and password must be set
// together, and only when host and port are present.
func proxyURL(cfg Config) (*url.URL, error) {
	hasHost := cfg.ProxyHost != ""
	hasPort := cfg.ProxyPort > 0
	hasUser := cfg.ProxyUsername != ""
	hasPass := cfg.ProxyPassword != ""

	if hasHost != hasPort {
		return nil, fmt.Errorf("%w: proxy host and port must be supplied together", ErrProxyConfig)
	}
	if (hasUser || hasPass) && !hasHost {
		return nil, fmt.Errorf("%w: proxy credentials require proxy host and port", ErrProxyConfig)
	}
	if hasUser != hasPass {
		return nil, fmt.Errorf("%w: proxy username and password must be supplied together", ErrProxyConfig)
	}

	if !hasHost {
		return nil, nil
	}

	u := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(cfg.ProxyHost, strconv.Itoa(cfg.ProxyPort)),
	}
	if hasUser {
		u.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
	}
	return u, nil
}

// httpClientFromConfig builds the SDK HTTP client carrying the proxy
// transport settings, or nil when the SDK default client should be used.
func httpClientFromConfig(cfg Config) (*awshttp.BuildableClient, error) {
	u, err := proxyURL(cfg)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	client := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		tr.Proxy = http.ProxyURL(u)
	})
	return client, nil
}
