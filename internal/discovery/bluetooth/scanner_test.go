package bluetooth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"printer-bridge/internal/model"
)

func TestScanMatchesPortPatterns(t *testing.T) {
	s := NewScanner(Config{PortPatterns: []string{"rfcomm", "Star"}}, zap.NewNop())
	s.listPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/rfcomm0"},
			{Name: "/dev/cu.Star-mPOP", Product: "Star mPOP"},
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyUSB0", IsUSB: true, Product: "Star TSP143IIIU"},
			nil,
		}, nil
	}

	var found []model.DiscoveredPrinter
	require.NoError(t, s.Scan(context.Background(), func(p model.DiscoveredPrinter) {
		found = append(found, p)
	}))

	assert.Equal(t, []model.DiscoveredPrinter{
		{Model: model.ModelUnknown, Identifier: "/dev/rfcomm0", Interface: model.InterfaceBluetooth},
		{Model: model.ModelMPOP, Identifier: "/dev/cu.Star-mPOP", Interface: model.InterfaceBluetooth},
	}, found)
}

func TestScanListFailure(t *testing.T) {
	s := NewScanner(Config{}, zap.NewNop())
	s.listPorts = func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("enumeration not supported")
	}

	err := s.Scan(context.Background(), func(model.DiscoveredPrinter) {})
	assert.ErrorContains(t, err, "enumeration not supported")
}

func TestDefaultPatterns(t *testing.T) {
	s := NewScanner(Config{}, zap.NewNop())
	assert.NotEmpty(t, s.config.PortPatterns)
	assert.Equal(t, model.InterfaceBluetooth, s.Interface())
}
