// internal/discovery/lan/identify.go
package lan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

const (
	oidSysDescr      = "1.3.6.1.2.1.1.1.0"
	oidHrDeviceDescr = "1.3.6.1.2.1.25.3.2.1.3.1"
)

// Describer returns a free-form description of the device at host
type Describer interface {
	Describe(ctx context.Context, host string) (string, error)
}

// SNMPConfig for model identification
type SNMPConfig struct {
	Community string
	Port      int
	Timeout   time.Duration
}

// SNMPDescriber reads sysDescr and hrDeviceDescr over SNMP v2c
type SNMPDescriber struct {
	config SNMPConfig
}

// NewSNMPDescriber creates an SNMP describer
func NewSNMPDescriber(config SNMPConfig) *SNMPDescriber {
	if config.Community == "" {
		config.Community = "public"
	}
	if config.Port == 0 {
		config.Port = 161
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Second
	}
	return &SNMPDescriber{config: config}
}

// Describe joins the textual descriptions the device reports
func (d *SNMPDescriber) Describe(ctx context.Context, host string) (string, error) {
	client := &gosnmp.GoSNMP{
		Target:    host,
		Port:      uint16(d.config.Port),
		Community: d.config.Community,
		Version:   gosnmp.Version2c,
		Timeout:   d.config.Timeout,
		Retries:   1,
		Context:   ctx,
	}
	if err := client.Connect(); err != nil {
		return "", fmt.Errorf("snmp connect %s: %w", host, err)
	}
	defer client.Conn.Close()

	packet, err := client.Get([]string{oidSysDescr, oidHrDeviceDescr})
	if err != nil {
		return "", fmt.Errorf("snmp get %s: %w", host, err)
	}
	return describePDUs(packet.Variables), nil
}

func describePDUs(variables []gosnmp.SnmpPDU) string {
	var parts []string
	for _, v := range variables {
		if v.Type != gosnmp.OctetString {
			continue
		}
		if b, ok := v.Value.([]byte); ok {
			if text := strings.TrimSpace(string(b)); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " ")
}
