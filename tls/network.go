// Package tls provisions a locally trusted certificate so screen clients on
// the LAN can connect over wss://.
package tls

import (
	"net"
	"slices"
)

// LANAddresses returns the IPv4 addresses of the up, non-loopback
// interfaces in interface order.
func LANAddresses() ([]string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var ips []string
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ip := ipv4Of(addr); ip != "" && !slices.Contains(ips, ip) {
				ips = append(ips, ip)
			}
		}
	}
	return ips, nil
}

func ipv4Of(addr net.Addr) string {
	var ip net.IP
	switch v := addr.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	}
	if ip == nil || ip.To4() == nil || ip.IsLoopback() {
		return ""
	}
	return ip.String()
}

// CertificateHosts returns localhost plus the LAN addresses. The loopback
// names are returned even when the interfaces cannot be listed.
func CertificateHosts() ([]string, error) {
	hosts := []string{"localhost", "127.0.0.1"}

	lan, err := LANAddresses()
	if err != nil {
		return hosts, err
	}
	return append(hosts, lan...), nil
}

// PreferredHost is the address shown to users for connecting: the first LAN
// address, or localhost.
func PreferredHost() string {
	if lan, err := LANAddresses(); err == nil && len(lan) > 0 {
		return lan[0]
	}
	return "localhost"
}
