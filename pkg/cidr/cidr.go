// Package cidr parses network expressions non-strictly and sizes them.
//
// Parsing never rejects a prefix because its host bits are set: the address
// is masked down to the network boundary instead, so "10.1.2.3/8" is read as
// 10.0.0.0/8.
package cidr

import (
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"go4.org/netipx"
)

// ErrInvalidPrefix indicates text that is not a network expression.
var ErrInvalidPrefix = errors.New("invalid network prefix")

// Parse parses s as a network. Accepted forms are "addr/len", a bare
// address (a single-address prefix), and for IPv4 "addr/netmask" or
// "addr/hostmask". IPv6 zones are dropped. The returned prefix is always
// masked.
func Parse(s string) (netip.Prefix, error) {
	addrText, maskText, hasMask := strings.Cut(s, "/")
	if !hasMask {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("%w %q: %v", ErrInvalidPrefix, s, err)
		}
		return single(s, addr)
	}

	addr, err := netip.ParseAddr(addrText)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w %q: %v", ErrInvalidPrefix, s, err)
	}
	addr = addr.WithZone("")

	if isDecimal(maskText) {
		// Leading zeros are allowed: "10.0.0.0/08" is a /8.
		bits, err := strconv.Atoi(maskText)
		if err != nil || bits > addr.BitLen() {
			return netip.Prefix{}, fmt.Errorf("%w %q: bad prefix length %q", ErrInvalidPrefix, s, maskText)
		}
		return netip.PrefixFrom(addr, bits).Masked(), nil
	}

	mask, err := netip.ParseAddr(maskText)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w %q: bad mask: %v", ErrInvalidPrefix, s, err)
	}
	return fromMask(s, addr, mask)
}

// AddressCount returns the number of addresses covered by p,
// 2^(address bits - prefix length).
func AddressCount(p netip.Prefix) *big.Int {
	hostBits := p.Addr().BitLen() - p.Bits()
	if !p.IsValid() || hostBits < 0 {
		return new(big.Int)
	}
	return new(big.Int).Lsh(big.NewInt(1), uint(hostBits))
}

func single(s string, addr netip.Addr) (netip.Prefix, error) {
	p := netip.PrefixFrom(addr.WithZone(""), addr.BitLen())
	if !p.IsValid() {
		return netip.Prefix{}, fmt.Errorf("%w %q", ErrInvalidPrefix, s)
	}
	return p, nil
}

// fromMask handles dotted netmask ("255.255.0.0") and hostmask
// ("0.0.255.255") suffixes. Only IPv4 takes these forms.
func fromMask(s string, addr, mask netip.Addr) (netip.Prefix, error) {
	if !addr.Is4() || !mask.Is4() {
		return netip.Prefix{}, fmt.Errorf("%w %q: mask form requires IPv4", ErrInvalidPrefix, s)
	}

	maskBytes := mask.As4()
	if p, ok := netipx.FromStdIPNet(&net.IPNet{IP: addr.AsSlice(), Mask: net.IPMask(maskBytes[:])}); ok {
		return p.Masked(), nil
	}

	for i := range maskBytes {
		maskBytes[i] = ^maskBytes[i]
	}
	if p, ok := netipx.FromStdIPNet(&net.IPNet{IP: addr.AsSlice(), Mask: net.IPMask(maskBytes[:])}); ok {
		return p.Masked(), nil
	}

	return netip.Prefix{}, fmt.Errorf("%w %q: non-contiguous mask", ErrInvalidPrefix, s)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
