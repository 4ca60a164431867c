package scanner

import (
	"context"
	"net/netip"
	"net/url"
	"strings"

	"github.com/aquasecurity/gem-audit/pkg/log"
	"github.com/aquasecurity/gem-audit/pkg/types"
)

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

var internalNetworks = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("fc00::/7"),
}

// insecure reports whether src is fetched over plaintext transport from a
// host that is not on an internal network. The transport is decided from the
// URI prefix, so a plaintext URI that does not parse is still reported.
func (s *Scanner) insecure(ctx context.Context, src types.Source) bool {
	if !plaintext(src) {
		return false
	}

	u, err := url.Parse(src.URI)
	if err != nil {
		log.WithPrefix("scanner").Debug("Unparsable source URI", log.String("uri", src.URI), log.Err(err))
		return true
	}
	return !s.internalHost(ctx, u.Hostname())
}

// plaintext reports whether the source uses git:// or http://.
// scp-like git remotes (git@host:path) use ssh.
func plaintext(src types.Source) bool {
	uri := strings.ToLower(strings.TrimSpace(src.URI))
	switch src.Type {
	case types.SourceGit:
		return strings.HasPrefix(uri, "git://") || strings.HasPrefix(uri, "http://")
	case types.SourceRegistry:
		return strings.HasPrefix(uri, "http://")
	}
	return false
}

// internalHost reports whether every address of host lies in a private
// network. Lookup failures count as external.
func (s *Scanner) internalHost(ctx context.Context, host string) bool {
	if host == "" {
		return false
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return internalAddr(addr)
	}

	addrs, err := s.resolver.LookupHost(ctx, host)
	if err != nil {
		log.WithPrefix("scanner").Debug("Host lookup failed", log.String("host", host), log.Err(err))
		return false
	}
	if len(addrs) == 0 {
		return false
	}
	for _, a := range addrs {
		addr, err := netip.ParseAddr(a)
		if err != nil || !internalAddr(addr) {
			return false
		}
	}
	return true
}

func internalAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, network := range internalNetworks {
		if network.Contains(addr) {
			return true
		}
	}
	return false
}
