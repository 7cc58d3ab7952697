package config

import (
	"net"
	"net/url"
	"os"
	"sync"
)

// dockerHostGateway is the name Docker Desktop gives the host machine.
const dockerHostGateway = "host.docker.internal"

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the application is running inside a Docker container.
// Detection is based on the presence of /.dockerenv file which exists in all Docker containers.
// The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps localhost to the Docker host gateway when running
// in a container, so PGHOST=localhost and REDIS_HOST=localhost reach services
// on the host machine. Other hosts are returned unchanged.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInDocker())
}

// ResolveURLForDocker applies ResolveHostForDocker to the host of rawURL,
// keeping any port. Used for AI_BASE_URL pointing at a local gateway.
func ResolveURLForDocker(rawURL string) string {
	return resolveURL(rawURL, IsRunningInDocker())
}

func resolveHost(host string, inDocker bool) string {
	if inDocker && (host == "localhost" || host == "127.0.0.1") {
		return dockerHostGateway
	}
	return host
}

func resolveURL(rawURL string, inDocker bool) string {
	if rawURL == "" || !inDocker {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	host := resolveHost(u.Hostname(), true)
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else {
		u.Host = host
	}
	return u.String()
}
