package capture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

var (
	// ErrUnsafeScheme rejects anything but http and https.
	ErrUnsafeScheme = errors.New("capture: only http and https URLs can be captured")
	// ErrPrivateTarget rejects URLs that resolve to loopback, link-local or
	// private addresses.
	ErrPrivateTarget = errors.New("capture: URL targets a private or loopback address")
)

// Resolver looks up host addresses. *net.Resolver implements it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// CheckURL validates pageURL before anything is fetched. With blockPrivate
// the host is resolved and every address must be public; lookup failures
// are let through since the fetch reports them anyway.
func CheckURL(ctx context.Context, pageURL string, blockPrivate bool, r Resolver) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("capture: invalid URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ErrUnsafeScheme
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("capture: URL %q has no host", pageURL)
	}
	if !blockPrivate {
		return nil
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isPrivate(addr) {
			return ErrPrivateTarget
		}
		return nil
	}
	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupHost(ctx, host)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if addr, err := netip.ParseAddr(a); err == nil && isPrivate(addr) {
			return ErrPrivateTarget
		}
	}
	return nil
}

func isPrivate(a netip.Addr) bool {
	a = a.Unmap()
	return a.IsLoopback() || a.IsPrivate() || a.IsLinkLocalUnicast() ||
		a.IsLinkLocalMulticast() || a.IsUnspecified()
}
