package util

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc returns the transport proxy function for the configured
// proxies, honouring no_proxy. Without explicit proxies the environment
// (HTTP_PROXY, HTTPS_PROXY, NO_PROXY) decides.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	proxy := (&httpproxy.Config{
		HTTPProxy:  httpProxy,
		HTTPSProxy: httpsProxy,
		NoProxy:    noProxy,
	}).ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}
