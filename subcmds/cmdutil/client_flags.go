// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bvk/ladderbot/api"
	"github.com/bvk/ladderbot/server"
)

// EnvServerPort overrides the default api port for the client commands.
const EnvServerPort = "LADDERBOT_SERVER_PORT"

type ClientFlags struct {
	port        int
	Host        string
	APIPath     string
	HTTPTimeout time.Duration

	secretsPath string
}

func (cf *ClientFlags) SetFlags(fset *flag.FlagSet) {
	fset.IntVar(&cf.port, "connect-port", 0, "TCP port number for the api endpoint (default=10000 or LADDERBOT_SERVER_PORT value)")
	fset.StringVar(&cf.Host, "connect-host", "127.0.0.1", "Hostname or IP address for the api endpoint")
	fset.StringVar(&cf.APIPath, "api-path", "/", "base path to the api handler")
	fset.DurationVar(&cf.HTTPTimeout, "http-timeout", 30*time.Second, "http client timeout")
	fset.StringVar(&cf.secretsPath, "secrets-file", "", "path to the secrets file with the api signing key (default=~/.ladderbot/secrets.json)")
}

func (cf *ClientFlags) Port() int {
	if cf.port != 0 {
		return cf.port
	}
	if v := os.Getenv(EnvServerPort); len(v) != 0 {
		if port, err := strconv.ParseInt(v, 10, 16); err == nil {
			return int(port)
		}
	}
	return 10000
}

func (cf *ClientFlags) AddressURL() *url.URL {
	return &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(cf.Host, fmt.Sprintf("%d", cf.Port())),
		Path:   cf.APIPath,
	}
}

// HttpClient returns a client that adds a short-lived bearer token to every
// request when an api signing key is available.
func (cf *ClientFlags) HttpClient() *http.Client {
	return &http.Client{
		Timeout:   cf.HTTPTimeout,
		Transport: &bearerTransport{flags: cf},
	}
}

type bearerTransport struct {
	flags *ClientFlags
}

func (t *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	key, err := t.flags.signingKey()
	if err != nil {
		return nil, fmt.Errorf("could not load api signing key: %w", err)
	}
	if len(key) == 0 {
		return http.DefaultTransport.RoundTrip(r)
	}
	token, err := api.NewToken([]byte(key), "cli", time.Minute)
	if err != nil {
		return nil, err
	}
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return http.DefaultTransport.RoundTrip(r)
}

// signingKey returns the api signing key from the environment or the secrets
// file. Empty key means the requests are sent without a bearer token.
func (cf *ClientFlags) signingKey() (string, error) {
	if v := os.Getenv(server.EnvAPISigningKey); len(v) != 0 {
		return v, nil
	}
	fpath := cf.secretsPath
	if len(fpath) == 0 {
		fpath = filepath.Join(os.Getenv("HOME"), ".ladderbot", "secrets.json")
	}
	secrets, err := server.SecretsFromFile(fpath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && len(cf.secretsPath) == 0 {
			return "", nil
		}
		return "", err
	}
	return secrets.APIKey, nil
}

// Post sends a json request to the api endpoint at subpath and decodes the
// json response.
func Post[RESP, REQ any](ctx context.Context, cf *ClientFlags, subpath string, req *REQ) (*RESP, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	addrURL := cf.AddressURL()
	addrURL.Path = path.Join(addrURL.Path, subpath)
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, addrURL.String(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	r.Header.Set("content-type", "application/json")

	client := cf.HttpClient()
	resp, err := client.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("http status code %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	response := new(RESP)
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return nil, err
	}
	return response, nil
}
