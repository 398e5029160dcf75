// ABOUTME: mDNS service discovery for converter servers
// ABOUTME: Advertises the HTTP API on the LAN and finds servers from the CLI
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the DNS-SD service type of the HTTP API
const ServiceType = "_spaceconvert._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Version     string
}

// TXT returns the TXT records published with the service
func (c Config) TXT() []string {
	txt := []string{"path=/api"}
	if c.Version != "" {
		txt = append(txt, "version="+c.Version)
	}
	return txt
}

// Manager handles mDNS operations
type Manager struct {
	config Config

	mu     sync.Mutex
	server *mdns.Server
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name    string
	Host    string
	Port    int
	Path    string
	Version string
}

// URL returns the base URL of the server's API
func (s *ServerInfo) URL() string {
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(s.Host, fmt.Sprint(s.Port)), s.Path)
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	return &Manager{config: config}
}

// Advertise publishes the API until Stop is called
func (m *Manager) Advertise() error {
	if m.config.Port <= 0 {
		return fmt.Errorf("invalid port: %d", m.config.Port)
	}

	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.config.TXT(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.mu.Lock()
	m.server = server
	m.mu.Unlock()

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)
	return nil
}

// Stop withdraws the advertisement
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		m.server.Shutdown()
		m.server = nil
	}
}

// Lookup queries the LAN for converter servers for up to timeout
func Lookup(ctx context.Context, timeout time.Duration) ([]*ServerInfo, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	var found []*ServerInfo

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			if !strings.Contains(entry.Name, ServiceType) {
				continue
			}
			server := serverFromEntry(entry)
			log.Printf("Discovered server: %s at %s:%d", server.Name, server.Host, server.Port)
			found = append(found, server)
		}
	}()

	params := &mdns.QueryParam{
		Service:             ServiceType,
		Domain:              "local",
		Timeout:             timeout,
		Entries:             entries,
		DisableIPv6:         true,
		WantUnicastResponse: false,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- mdns.Query(params)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
		// Query returns once its timeout passes; wait so entries can be closed safely
		<-errCh
	}
	close(entries)
	<-done

	if err != nil {
		return nil, fmt.Errorf("mdns query failed: %w", err)
	}
	return found, nil
}

func serverFromEntry(entry *mdns.ServiceEntry) *ServerInfo {
	server := &ServerInfo{
		Name: entry.Name,
		Port: entry.Port,
		Path: "/api",
	}
	if entry.AddrV4 != nil {
		server.Host = entry.AddrV4.String()
	} else if entry.AddrV6 != nil {
		server.Host = entry.AddrV6.String()
	} else {
		server.Host = entry.Host
	}

	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			server.Path = value
		case "version":
			server.Version = value
		}
	}
	return server
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
