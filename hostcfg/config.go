// Package hostcfg holds the host's network identity: its MAC and IP
// addresses, subnet mask, default router, and the UDP ports this stack
// listens on and sends from. These fields are written once during
// initialization and are read-only afterwards; the stack engine never
// mutates them while frames are in flight.
package hostcfg

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the host's network identity.
type Config struct {
	HostMAC    [6]byte `koanf:"-"`
	HostIP     [4]byte `koanf:"-"`
	SubnetMask [4]byte `koanf:"-"`
	RouterIP   [4]byte `koanf:"-"`

	UDPSrcPort uint16  `koanf:"udp_src_port"`
	UDPDstPort uint16  `koanf:"udp_dst_port"`
	UDPDestIP  [4]byte `koanf:"-"`

	HostMACStr    string `koanf:"host_mac"`
	HostIPStr     string `koanf:"host_ip"`
	SubnetMaskStr string `koanf:"subnet_mask"`
	RouterIPStr   string `koanf:"router_ip"`
	UDPDestIPStr  string `koanf:"udp_dest_ip"`
}

// SetMAC assigns the 6 octets of the host MAC address, given in host
// (natural reading) order, and stores them in network byte order.
func (c *Config) SetMAC(b0, b1, b2, b3, b4, b5 byte) {
	c.HostMAC = [6]byte{b0, b1, b2, b3, b4, b5}
}

// SetIP assigns the host's own IPv4 address.
func (c *Config) SetIP(b0, b1, b2, b3 byte) { c.HostIP = [4]byte{b0, b1, b2, b3} }

// SetSubnet assigns the subnet mask used by [ipv4.OnSameSubnet] to decide
// between direct and indirect delivery.
func (c *Config) SetSubnet(b0, b1, b2, b3 byte) { c.SubnetMask = [4]byte{b0, b1, b2, b3} }

// SetRouter assigns the default router's IPv4 address, used for indirect
// delivery of off-subnet datagrams.
func (c *Config) SetRouter(b0, b1, b2, b3 byte) { c.RouterIP = [4]byte{b0, b1, b2, b3} }

// SetUDPDestIP assigns the default peer IP for outgoing UDP datagrams.
func (c *Config) SetUDPDestIP(b0, b1, b2, b3 byte) { c.UDPDestIP = [4]byte{b0, b1, b2, b3} }

const envPrefix = "UDPSTACK_"

// Load reads configuration from a YAML file at path, overlays
// UDPSTACK_-prefixed environment variable overrides, and resolves the
// string-typed address fields into their binary forms. Missing fields
// keep their zero value; callers that require every field set should call
// [Validate] afterwards.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.resolveAddrs(); err != nil {
		return nil, fmt.Errorf("resolve addresses: %w", err)
	}
	return cfg, nil
}

func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(s)
}

var (
	ErrInvalidHostMAC  = errors.New("hostcfg: invalid host_mac")
	ErrInvalidHostIP   = errors.New("hostcfg: invalid host_ip")
	ErrInvalidSubnet   = errors.New("hostcfg: invalid subnet_mask")
	ErrInvalidRouterIP = errors.New("hostcfg: invalid router_ip")
	ErrInvalidDestIP   = errors.New("hostcfg: invalid udp_dest_ip")
)

// resolveAddrs parses the string-typed address fields loaded from the
// configuration source into their binary representations.
func (c *Config) resolveAddrs() error {
	if c.HostMACStr != "" {
		mac, err := parseMAC(c.HostMACStr)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidHostMAC, err)
		}
		c.HostMAC = mac
	}
	if c.HostIPStr != "" {
		ip, err := parseIPv4(c.HostIPStr)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidHostIP, err)
		}
		c.HostIP = ip
	}
	if c.SubnetMaskStr != "" {
		ip, err := parseIPv4(c.SubnetMaskStr)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSubnet, err)
		}
		c.SubnetMask = ip
	}
	if c.RouterIPStr != "" {
		ip, err := parseIPv4(c.RouterIPStr)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRouterIP, err)
		}
		c.RouterIP = ip
	}
	if c.UDPDestIPStr != "" {
		ip, err := parseIPv4(c.UDPDestIPStr)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDestIP, err)
		}
		c.UDPDestIP = ip
	}
	return nil
}

func parseIPv4(s string) ([4]byte, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return [4]byte{}, err
	}
	addr4 := addr.As4()
	return addr4, nil
}

func parseMAC(s string) ([6]byte, error) {
	var mac [6]byte
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return mac, fmt.Errorf("expected 6 colon-separated octets, got %d", len(parts))
	}
	for i, p := range parts {
		var b byte
		_, err := fmt.Sscanf(p, "%02x", &b)
		if err != nil {
			return mac, fmt.Errorf("octet %d: %w", i, err)
		}
		mac[i] = b
	}
	return mac, nil
}

// Validate checks that every field required for the stack to run has been
// set to a non-zero value.
func Validate(c *Config) error {
	if c.HostMAC == ([6]byte{}) {
		return ErrInvalidHostMAC
	}
	if c.HostIP == ([4]byte{}) {
		return ErrInvalidHostIP
	}
	if c.SubnetMask == ([4]byte{}) {
		return ErrInvalidSubnet
	}
	if c.UDPSrcPort == 0 {
		return errors.New("hostcfg: udp_src_port must be nonzero")
	}
	return nil
}
