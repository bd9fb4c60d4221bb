// internal/discovery/lan/scanner.go
package lan

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"printer-bridge/internal/model"
)

const rawPrintPort = 9100

// Browser browses one DNS-SD service type. *zeroconf.Resolver satisfies it.
type Browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// Config for the LAN scanner
type Config struct {
	ServiceTypes []string
	Domain       string
}

// Scanner finds network printers through mDNS and names them through SNMP
// when the advertisement does not carry a known model
type Scanner struct {
	config     Config
	newBrowser func() (Browser, error)
	describer  Describer
	logger     *zap.Logger
}

// NewScanner creates a LAN scanner backed by zeroconf. describer may be nil.
func NewScanner(config Config, describer Describer, logger *zap.Logger) *Scanner {
	if len(config.ServiceTypes) == 0 {
		config.ServiceTypes = []string{"_pdl-datastream._tcp", "_printer._tcp", "_ipp._tcp"}
	}
	if config.Domain == "" {
		config.Domain = "local."
	}
	return &Scanner{
		config: config,
		newBrowser: func() (Browser, error) {
			return zeroconf.NewResolver(nil)
		},
		describer: describer,
		logger:    logger.With(zap.String("scanner", "lan")),
	}
}

// Interface returns the kind this scanner covers
func (s *Scanner) Interface() model.InterfaceKind {
	return model.InterfaceLAN
}

// IsAvailable reports whether a non loopback interface is up
func (s *Scanner) IsAvailable() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			return true
		}
	}
	return false
}

// Scan browses every configured service type until ctx is done
func (s *Scanner) Scan(ctx context.Context, found func(model.DiscoveredPrinter)) error {
	s.logger.Info("Starting LAN scan", zap.Strings("service_types", s.config.ServiceTypes))

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	claim := func(host string) bool {
		mu.Lock()
		defer mu.Unlock()
		if seen[host] {
			return false
		}
		seen[host] = true
		return true
	}

	var wg conc.WaitGroup
	for _, service := range s.config.ServiceTypes {
		service := service // per-iteration copy; go directive is below 1.22
		browser, err := s.newBrowser()
		if err != nil {
			s.logger.Warn("mDNS resolver unavailable", zap.String("service", service), zap.Error(err))
			continue
		}

		entries := make(chan *zeroconf.ServiceEntry)
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case entry, ok := <-entries:
					if !ok {
						return
					}
					if p, ok := s.printerFor(ctx, service, entry, claim); ok {
						found(p)
					}
				}
			}
		})

		if err := browser.Browse(ctx, service, s.config.Domain, entries); err != nil {
			s.logger.Warn("mDNS browse failed", zap.String("service", service), zap.Error(err))
		}
	}
	wg.Wait()

	s.logger.Info("LAN scan completed", zap.Int("hosts_seen", len(seen)))
	return nil
}

// printerFor turns an advertisement into a result. Each host is reported once
// whatever service type announced it.
func (s *Scanner) printerFor(ctx context.Context, service string, entry *zeroconf.ServiceEntry, claim func(string) bool) (model.DiscoveredPrinter, bool) {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return model.DiscoveredPrinter{}, false
	}
	host := entry.AddrIPv4[0].String()
	if !claim(host) {
		return model.DiscoveredPrinter{}, false
	}

	identifier := host
	if strings.HasPrefix(service, "_pdl-datastream.") && entry.Port != 0 && entry.Port != rawPrintPort {
		identifier = net.JoinHostPort(host, strconv.Itoa(entry.Port))
	}

	printerModel := model.MatchPrinterModel(entry.Instance + " " + strings.Join(entry.Text, " "))
	if printerModel == model.ModelUnknown && s.describer != nil {
		description, err := s.describer.Describe(ctx, host)
		if err != nil {
			s.logger.Debug("SNMP identification failed", zap.String("host", host), zap.Error(err))
		} else {
			printerModel = model.MatchPrinterModel(description)
		}
	}

	return model.DiscoveredPrinter{
		Model:      printerModel,
		Identifier: identifier,
		Interface:  model.InterfaceLAN,
	}, true
}
